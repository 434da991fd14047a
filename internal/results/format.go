package results

import (
	"fmt"
	"io"
)

// WriteText renders a report for humans. Passed and applied steps are
// listed only when verbose is set; failures are always shown with their
// diffs.
func WriteText(w io.Writer, r *RunReport, verbose bool) error {
	mark := "✓"
	if !r.Passed() {
		mark = "✗"
	}
	if _, err := fmt.Fprintf(w, "%s %s (%d steps, %d ticks)\n", mark, r.Scenario, len(r.Steps), r.TicksElapsed); err != nil {
		return err
	}

	for _, s := range r.Steps {
		failed := s.Status == StatusFailed || s.Status == StatusErrored
		if !failed && !verbose {
			continue
		}
		fmt.Fprintf(w, "  tick %d %s: %s\n", s.Tick, stepName(s), s.Status)
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "    %s\n", m)
		}
		if s.SlotMismatch != nil {
			fmt.Fprintf(w, "    %s\n", s.SlotMismatch)
		}
		if s.Message != "" {
			fmt.Fprintf(w, "    %s\n", s.Message)
		}
	}

	if r.Failure != nil && r.Failure.Kind != FailureAssertion {
		fmt.Fprintf(w, "  %s: %s\n", r.Failure.Kind, r.Failure.Message)
	}
	return nil
}

func stepName(s StepResult) string {
	if s.Label != "" {
		return fmt.Sprintf("steps[%d] %s (%s)", s.Index, s.Action, s.Label)
	}
	return fmt.Sprintf("steps[%d] %s", s.Index, s.Action)
}
