package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/adapter/memworld"
	"github.com/JunkyDeveloper/flint-core/internal/adapter/wsremote"
	"github.com/JunkyDeveloper/flint-core/internal/results"
	"github.com/JunkyDeveloper/flint-core/internal/runner"
	"github.com/JunkyDeveloper/flint-core/internal/store"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Server    string // ws:// URL of a remote adapter; empty uses the memory world
	MaxTicks  uint64 // tick budget per run
	FailFast  bool   // stop a run at its first failed assertion
	Filter    string // scenario filter (glob pattern)
	Tag       string // only run scenarios carrying this tag
	Parallel  int    // concurrent runs
	Update    bool   // regenerate golden files
	GoldenDir string // snapshot directory; default is golden/ next to each scenario
	Database  string // record runs in this SQLite database
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string             `json:"name"`
	Source string             `json:"source"`
	Pass   bool               `json:"pass"`
	RunID  string             `json:"run_id,omitempty"`
	Errors []string           `json:"errors,omitempty"`
	Report *results.RunReport `json:"report,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-path>...",
		Short: "Run scenarios against a server",
		Long: `Run scenario files against a block-game server.

Each path is a scenario file (.yaml, .yml, .json or .cue) or a directory
searched recursively. Every scenario runs in a fresh test world. Reports
are compared with golden snapshots in golden/ next to the scenario when
one exists.

The tick budget and fail-fast mode default to FLINT_MAX_TICKS and
FLINT_FAIL_FAST; flags override them.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreachable server, etc.)

Examples:
  flint test ./scenarios
  flint test ./scenarios --filter "piston-*" --tag redstone
  flint test ./scenarios --server ws://localhost:8765/
  flint test ./scenarios --update
  flint test ./scenarios --db runs.db --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "remote adapter URL (ws:// or wss://)")
	cmd.Flags().Uint64Var(&opts.MaxTicks, "max-ticks", runner.DefaultMaxTicks, "tick budget per scenario")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "stop a scenario at its first failed assertion")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "only run scenarios with this tag")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 1, "number of scenarios run concurrently")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "directory of golden files")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")

	return cmd
}

// testConfig merges the environment with explicitly set flags.
func testConfig(cmd *cobra.Command, formatter *OutputFormatter, opts *TestOptions) (runner.TestRunConfig, error) {
	cfg, err := runner.LoadConfigFromEnv()
	if err != nil {
		return cfg, formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, "invalid environment", err)
	}
	if cmd.Flags().Changed("max-ticks") {
		cfg.MaxTicks = opts.MaxTicks
	}
	if cmd.Flags().Changed("fail-fast") {
		cfg.FailFast = opts.FailFast
	}
	if err := cfg.Validate(); err != nil {
		return cfg, formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, "invalid --max-ticks", err)
	}
	return cfg, nil
}

func runTests(cmd *cobra.Command, opts *TestOptions, paths []string) error {
	formatter := opts.formatter(cmd)

	cfg, err := testConfig(cmd, formatter, opts)
	if err != nil {
		return err
	}
	if opts.Parallel < 1 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidFlag, fmt.Sprintf("invalid --parallel %d: must be at least 1", opts.Parallel), nil)
	}

	files, err := findScenarioFiles(formatter, paths, opts.Filter)
	if err != nil {
		return err
	}
	loaded := loadScenarios(files, opts.Tag)

	if len(loaded) == 0 {
		if formatter.JSON() {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger(cmd.ErrOrStderr())

	a, closeAdapter, err := openAdapter(ctx, opts.Server, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeAdapter, "failed to connect to server", err)
	}
	defer closeAdapter()

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open run database", err)
		}
		defer st.Close()
	}

	r := runner.New(a, cfg, runner.WithLogger(logger))

	outcomes := make([]scenarioOutcome, len(loaded))
	var g errgroup.Group
	g.SetLimit(opts.Parallel)
	for i, l := range loaded {
		g.Go(func() error {
			outcomes[i] = runScenario(ctx, r, st, opts, l)
			return nil
		})
	}
	_ = g.Wait()

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(outcomes)),
		Total:     len(outcomes),
	}
	for _, o := range outcomes {
		result.Scenarios = append(result.Scenarios, o.result)
		if o.result.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}

	for _, o := range outcomes {
		if err := o.writeText(formatter.Writer, opts.Verbose); err != nil {
			return err
		}
	}
	return outputTestText(formatter, result)
}

// openAdapter returns the remote adapter at url, or a memory world when
// url is empty.
func openAdapter(ctx context.Context, url string, logger *slog.Logger) (adapter.Adapter, func(), error) {
	if url == "" {
		return memworld.New(), func() {}, nil
	}
	client, err := wsremote.Dial(ctx, url, wsremote.WithClientLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// scenarioOutcome is a finished scenario and the problems found outside
// its report.
type scenarioOutcome struct {
	result ScenarioResult
	report *results.RunReport
	notes  []string // errors not carried by the report
	info   []string
}

// runScenario runs one loaded scenario, checks its golden file and
// records it.
func runScenario(ctx context.Context, r *runner.Runner, st *store.Store, opts *TestOptions, l loadedScenario) scenarioOutcome {
	o := scenarioOutcome{result: ScenarioResult{Name: l.name(), Source: l.Path}}

	if l.Err != nil {
		o.fail(fmt.Sprintf("failed to load scenario: %v", l.Err))
		return o
	}

	report, err := r.Run(ctx, l.Scenario)
	if err != nil {
		o.fail(fmt.Sprintf("execution failed: %v", err))
		return o
	}
	o.report = report
	o.result.Report = report
	if !report.Passed() && report.Failure != nil {
		o.result.Errors = append(o.result.Errors, report.Failure.Message)
	}

	dir := opts.GoldenDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(l.Path), "golden")
	}
	name := goldenName(l.Path)
	if opts.Update {
		if err := results.WriteGolden(dir, name, report); err != nil {
			o.fail(fmt.Sprintf("failed to update golden file: %v", err))
		} else {
			o.info = append(o.info, "golden updated")
		}
	} else {
		match, found, err := results.MatchGolden(dir, name, report)
		switch {
		case err != nil:
			o.fail(fmt.Sprintf("golden comparison failed: %v", err))
		case found && !match:
			o.fail("report does not match golden file (run with --update to regenerate)")
		}
	}

	if st != nil {
		id, err := st.RecordRun(ctx, store.RunRecord{Report: report})
		if err != nil {
			o.fail(fmt.Sprintf("failed to record run: %v", err))
		} else {
			o.result.RunID = id
			o.info = append(o.info, "recorded as "+id)
		}
	}

	o.result.Pass = report.Passed() && len(o.notes) == 0
	return o
}

func (o *scenarioOutcome) fail(msg string) {
	o.notes = append(o.notes, msg)
	o.result.Errors = append(o.result.Errors, msg)
}

// writeText prints the outcome. A passing report with extra problems is
// printed as failed.
func (o *scenarioOutcome) writeText(w io.Writer, verbose bool) error {
	if o.report != nil && (o.result.Pass || !o.report.Passed()) {
		if err := results.WriteText(w, o.report, verbose); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "✗ %s\n", o.result.Name)
	}
	for _, n := range o.notes {
		fmt.Fprintf(w, "  %s\n", n)
	}
	if verbose {
		for _, i := range o.info {
			fmt.Fprintf(w, "  %s\n", i)
		}
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.Respond(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
