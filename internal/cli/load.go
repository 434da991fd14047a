package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JunkyDeveloper/flint-core/internal/scenario"
)

// loadedScenario is one scenario file, or the error loading it.
type loadedScenario struct {
	Path     string
	Scenario *scenario.Scenario
	Err      error
}

// name returns the scenario name, or the file name if loading failed.
func (l loadedScenario) name() string {
	if l.Scenario != nil {
		return l.Scenario.Name
	}
	return filepath.Base(l.Path)
}

// findScenarioFiles expands every path argument into scenario files.
// A missing path is a command error.
func findScenarioFiles(formatter *OutputFormatter, paths []string, filter string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("scenario path not found: %s", p), nil)
		}
		found, err := scenario.FindFiles(p, filter)
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeLoadFailed, "failed to find scenarios", err)
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// loadScenarios loads every file. Load errors are kept per file so one
// broken scenario does not hide the others. Scenarios without tag are
// dropped when tag is set.
func loadScenarios(files []string, tag string) []loadedScenario {
	loaded := make([]loadedScenario, 0, len(files))
	for _, f := range files {
		s, err := scenario.Load(f)
		if err == nil && tag != "" && !s.HasTag(tag) {
			continue
		}
		loaded = append(loaded, loadedScenario{Path: f, Scenario: s, Err: err})
	}
	return loaded
}

// goldenName is the snapshot name of a scenario file: its base name
// without extension.
func goldenName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
