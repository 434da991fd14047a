package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JunkyDeveloper/flint-core/internal/results"
)

// testResultSchema is the JSON shape of "flint test --format json".
const testResultSchema = `{
  "type": "object",
  "required": ["status", "data"],
  "properties": {
    "status": {"enum": ["ok", "error"]},
    "data": {
      "type": "object",
      "required": ["scenarios", "passed", "failed", "total"],
      "properties": {
        "scenarios": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name", "source", "pass"],
            "properties": {
              "name": {"type": "string"},
              "source": {"type": "string"},
              "pass": {"type": "boolean"},
              "run_id": {"type": "string"},
              "errors": {"type": "array", "items": {"type": "string"}},
              "report": {
                "type": "object",
                "required": ["scenario", "server", "verdict", "steps", "ticks_elapsed"],
                "properties": {
                  "verdict": {"enum": ["pass", "fail"]},
                  "ticks_elapsed": {"type": "integer", "minimum": 0},
                  "steps": {"type": "array"}
                }
              }
            }
          }
        },
        "passed": {"type": "integer"},
        "failed": {"type": "integer"},
        "total": {"type": "integer"}
      }
    },
    "error": {
      "type": "object",
      "required": ["code", "message"],
      "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
    }
  }
}`

// decodeTestResult checks out against testResultSchema and decodes it.
func decodeTestResult(t *testing.T, out string) (CLIResponse, TestResult) {
	t.Helper()

	schema, err := jsonschema.CompileString("test-result.json", testResultSchema)
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	var doc any
	require.NoError(t, dec.Decode(&doc))
	require.NoError(t, schema.Validate(doc))

	var resp CLIResponse
	var result TestResult
	resp.Data = &result
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp, result
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario path not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, _, err := execute(t, "test", "--format", "json", t.TempDir())
	require.NoError(t, err)

	resp, result := decodeTestResult(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, result.Scenarios)
	assert.Zero(t, result.Total)
}

func TestTestCommandPass(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ stone_stays")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFail(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 scenario(s) failed")

	assert.Contains(t, out, "✗ stone_is_dirt")
	assert.Contains(t, out, "expected minecraft:dirt")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
	assert.NotContains(t, out, "All scenarios passed")

	// Files run in path order.
	assert.Less(t, strings.Index(out, "stone_is_dirt"), strings.Index(out, "stone_stays"))
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)

	out, _, err := execute(t, "test", "--format", "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, result := decodeTestResult(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 2)

	failed := result.Scenarios[0]
	assert.Equal(t, "stone_is_dirt", failed.Name)
	assert.False(t, failed.Pass)
	require.NotNil(t, failed.Report)
	assert.Equal(t, results.VerdictFail, failed.Report.Verdict)
	assert.Equal(t, []string{"1 assertion(s) failed"}, failed.Errors)

	assert.True(t, result.Scenarios[1].Pass)
}

func TestTestCommandLoadErrorDoesNotHideOthers(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nsteps: []\n")
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
	assert.Contains(t, out, "✓ stone_stays")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandScheduleError(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "backwards.yaml", backwards)

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ backwards")
	assert.Contains(t, out, "non_monotonic")
}

func TestTestCommandFilterAndTag(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)

	out, _, err := execute(t, "test", "--filter", "*_stays", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	out, _, err = execute(t, "test", "--tag", "blocks", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ stone_stays")
	assert.NotContains(t, out, "stone_is_dirt")

	out, _, err = execute(t, "test", "--tag", "redstone", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandMaxTicks(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "late_check.yaml", lateCheck)

	t.Setenv("FLINT_MAX_TICKS", "10")
	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "timeout: tick budget of 10 exhausted with 1 step(s) pending")

	// The flag wins over the environment.
	out, _, err = execute(t, "test", "--max-ticks", "100", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ late_check")

	_, _, err = execute(t, "test", "--max-ticks", "0", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "max ticks must be at least 1")
}

func TestTestCommandInvalidEnv(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)

	t.Setenv("FLINT_FAIL_FAST", "sometimes")
	_, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid environment")
}

func TestTestCommandInvalidParallel(t *testing.T) {
	_, _, err := execute(t, "test", "-p", "0", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandParallelKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a_stays", "b_stays", "c_stays", "d_stays", "e_stays"}
	for _, name := range names {
		writeScenario(t, dir, name+".yaml", strings.Replace(stoneStays, "stone_stays", name, 1))
	}

	out, _, err := execute(t, "test", "-p", "3", "--format", "json", dir)
	require.NoError(t, err)

	_, result := decodeTestResult(t, out)
	require.Len(t, result.Scenarios, len(names))
	for i, name := range names {
		assert.Equal(t, name, result.Scenarios[i].Name)
		assert.True(t, result.Scenarios[i].Pass)
	}
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	goldenPath := results.GoldenPath(filepath.Join(dir, "golden"), "stone_stays")

	out, _, err := execute(t, "test", "--update", "-v", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario":"stone_stays"`)

	// The golden directory is not scanned for scenarios.
	out, _, err = execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")

	require.NoError(t, os.WriteFile(goldenPath, bytes.Replace(golden, []byte(`"pass"`), []byte(`"fail"`), 1), 0644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ stone_stays")
	assert.Contains(t, out, "does not match golden file")
}

func TestTestCommandGoldenDir(t *testing.T) {
	dir := t.TempDir()
	goldenDir := filepath.Join(t.TempDir(), "snapshots")
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)

	_, _, err := execute(t, "test", "--update", "--golden-dir", goldenDir, dir)
	require.NoError(t, err)
	assert.FileExists(t, results.GoldenPath(goldenDir, "stone_stays"))
	assert.NoDirExists(t, filepath.Join(dir, "golden"))
}

func TestTestCommandSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "stone_stays.yaml", stoneStays)
	writeScenario(t, dir, "stone_is_dirt.yaml", stoneIsDirt)

	out, _, err := execute(t, "test", path, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandUnreachableServer(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "stone_stays.yaml", stoneStays)

	_, _, err := execute(t, "test", "--server", "ws://127.0.0.1:1/", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to connect to server")
}

func TestTestHelpText(t *testing.T) {
	out, _, err := execute(t, "test", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "scenario-path")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "FLINT_MAX_TICKS")
}
