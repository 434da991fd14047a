package results

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenSuffix is the extension of report snapshot files.
const GoldenSuffix = ".golden"

// AssertGolden compares the report's canonical JSON against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run the test with -update.
func AssertGolden(t *testing.T, name string, report *RunReport) {
	t.Helper()

	data, err := report.Canonical()
	if err != nil {
		t.Fatalf("canonical report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, name, data)
}

// GoldenPath returns dir/{name}.golden.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, name+GoldenSuffix)
}

// WriteGolden stores the report's canonical JSON as a snapshot.
func WriteGolden(dir, name string, report *RunReport) error {
	data, err := report.Canonical()
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(GoldenPath(dir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// MatchGolden compares the report against its snapshot. found is false if
// no snapshot exists.
func MatchGolden(dir, name string, report *RunReport) (match, found bool, err error) {
	golden, err := os.ReadFile(GoldenPath(dir, name))
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read golden file: %w", err)
	}

	data, err := report.Canonical()
	if err != nil {
		return false, true, fmt.Errorf("failed to marshal report: %w", err)
	}
	return bytes.Equal(golden, data), true, nil
}
