package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JunkyDeveloper/flint-core/internal/scenario"
	"github.com/JunkyDeveloper/flint-core/internal/timeline"
)

// ValidationError is one problem found in a scenario file.
type ValidationError struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Step    *int   `json:"step,omitempty"`
}

// ValidatedScenario summarizes a scenario that loaded and scheduled.
type ValidatedScenario struct {
	Name     string `json:"name"`
	Source   string `json:"source"`
	Steps    int    `json:"steps"`
	Fixtures int    `json:"fixtures"`
	LastTick uint64 `json:"last_tick"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                `json:"valid"`
	Scenarios []ValidatedScenario `json:"scenarios"`
	Errors    []ValidationError   `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate <scenario-path>...",
		Short: "Validate scenarios without running them",
		Long: `Validate scenario files without connecting to a server.

Checks every file against the scenario schema and resolves its step
schedule, reporting markers that go backwards in time and misplaced
immediate steps.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runValidate(opts *RootOptions, paths []string, filter string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, err := findScenarioFiles(formatter, paths, filter)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "no scenario files found", nil)
	}

	result := ValidationResult{Valid: true, Scenarios: []ValidatedScenario{}}
	for _, l := range loadScenarios(files, "") {
		formatter.VerboseLog("Validating %s", l.Path)

		if l.Err != nil {
			result.Errors = append(result.Errors, loadValidationError(l.Path, l.Err))
			continue
		}

		tl, err := timeline.New(l.Scenario.Steps)
		if err != nil {
			result.Errors = append(result.Errors, scheduleValidationError(l.Path, err))
			continue
		}

		result.Scenarios = append(result.Scenarios, ValidatedScenario{
			Name:     l.Scenario.Name,
			Source:   l.Path,
			Steps:    len(l.Scenario.Steps),
			Fixtures: len(tl.Fixtures()),
			LastTick: tl.LastTick(),
		})
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	for _, s := range result.Scenarios {
		fmt.Fprintf(formatter.Writer, "✓ %s (%d steps, last tick %d)\n", s.Name, s.Steps, s.LastTick)
	}
	fmt.Fprintln(formatter.Writer, "✓ All scenarios valid")
	return nil
}

func loadValidationError(path string, err error) ValidationError {
	ve := ValidationError{Source: path, Code: ErrCodeLoadFailed, Message: err.Error()}
	var schemaErr *scenario.SchemaError
	if errors.As(err, &schemaErr) {
		ve.Message = schemaErr.Message
		if schemaErr.Pos.IsValid() && schemaErr.Pos.Filename() == path {
			ve.Line = schemaErr.Pos.Line()
		}
	}
	return ve
}

func scheduleValidationError(path string, err error) ValidationError {
	ve := ValidationError{Source: path, Code: ErrCodeSchedule, Message: err.Error()}
	var schedErr *timeline.ScheduleError
	if errors.As(err, &schedErr) {
		step := schedErr.Step
		ve.Step = &step
		ve.Message = fmt.Sprintf("%s: %s", schedErr.Code, schedErr.Message)
	}
	return ve
}

// outputValidationErrors outputs every problem found.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Respond(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		switch {
		case err.Line > 0:
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.Source, err.Line)
		case err.Step != nil:
			fmt.Fprintf(formatter.Writer, "%s: steps[%d]\n", err.Source, *err.Step)
		default:
			fmt.Fprintln(formatter.Writer, err.Source)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
