package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JunkyDeveloper/flint-core/internal/results"
	"github.com/JunkyDeveloper/flint-core/internal/store"
)

// recordRuns runs the scenarios in dir once with --db and returns the run
// IDs in scenario order.
func recordRuns(t *testing.T, db, dir string) []string {
	t.Helper()
	out, _, _ := execute(t, "test", "--format", "json", "--db", db, dir)
	_, result := decodeTestResult(t, out)
	ids := make([]string, len(result.Scenarios))
	for i, s := range result.Scenarios {
		require.NotEmpty(t, s.RunID, s.Name)
		ids[i] = s.RunID
	}
	return ids
}

func TestHistoryCommandRequiresDB(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestHistoryCommandMissingDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing.db")
	out, _, err := execute(t, "history", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "run database not found")
	assert.NoFileExists(t, db)
}

func TestHistoryCommandEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(t.TempDir(), "runs.db")
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)

	first := recordRuns(t, db, dir)
	second := recordRuns(t, db, dir)

	out, _, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SCENARIO")
	assert.Contains(t, out, "fail (assertion)")
	assert.Contains(t, out, first[0])
	assert.Contains(t, out, second[1])

	out, _, err = execute(t, "history", "--db", db, "--format", "json", "--scenario", "stone_stays", "--limit", "1")
	require.NoError(t, err)

	var result HistoryResult
	resp := CLIResponse{Data: &result}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, result.Runs, 1)
	assert.Equal(t, second[1], result.Runs[0].ID)
	assert.Equal(t, results.VerdictPass, result.Runs[0].Verdict)
	assert.Nil(t, result.Runs[0].Report)
}

func TestHistoryCommandNegativeLimit(t *testing.T) {
	_, _, err := execute(t, "history", "--db", "runs.db", "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(t.TempDir(), "runs.db")
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)
	ids := recordRuns(t, db, dir)

	out, _, err := execute(t, "show", "--db", db, ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+ids[0]+" (memworld/1.21)")
	assert.Contains(t, out, "Digest: ")
	assert.Contains(t, out, "✗ stone_is_dirt")
	// Passed steps are listed too.
	assert.Contains(t, out, "steps[0] place: applied")

	out, _, err = execute(t, "show", "--db", db, "--format", "json", ids[0])
	require.NoError(t, err)

	var run store.Run
	resp := CLIResponse{Data: &run}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, run.Report)
	digest, err := run.Report.Digest()
	require.NoError(t, err)
	assert.Equal(t, run.Digest, digest)
}

func TestShowCommandUnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "show", "--db", db, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run not found: nope")
}
