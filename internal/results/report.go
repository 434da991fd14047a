package results

import (
	"fmt"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
	"github.com/JunkyDeveloper/flint-core/internal/ir"
	"github.com/JunkyDeveloper/flint-core/internal/spatial"
)

// Status is the outcome of one dispatched step.
type Status string

const (
	// StatusApplied is a setup or interaction step the adapter accepted.
	StatusApplied Status = "applied"
	// StatusPassed is an assertion that matched.
	StatusPassed Status = "passed"
	// StatusFailed is an assertion that did not match.
	StatusFailed Status = "failed"
	// StatusErrored is a step the adapter rejected.
	StatusErrored Status = "errored"
)

// Verdict is the scenario-level outcome.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// FailureKind distinguishes why a run failed.
type FailureKind string

const (
	FailureAssertion FailureKind = "assertion"
	FailureAdapter   FailureKind = "adapter"
	FailureTimeout   FailureKind = "timeout"
)

// NoStep marks a failure not attributable to a single step.
const NoStep = -1

// Failure describes the reason a run failed.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`

	// Step is the declaration index of the step that caused the failure,
	// nil when the run failed outside of any step.
	Step *int `json:"step,omitempty"`
}

// SlotMismatch is the diff of a failed slot assertion. Nil items are
// empty slots.
type SlotMismatch struct {
	Slot     ir.PlayerSlot `json:"slot"`
	Expected *ir.Item      `json:"expected,omitempty"`
	Actual   *ir.Item      `json:"actual,omitempty"`
}

func (m SlotMismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Slot, ir.FormatItem(m.Expected), ir.FormatItem(m.Actual))
}

// StepResult is the outcome of one dispatched step.
type StepResult struct {
	// Index is the step's declaration index in the scenario.
	Index int    `json:"index"`
	Tick  uint64 `json:"tick"`

	// Fixture is true for steps applied before tick 0.
	Fixture bool   `json:"fixture,omitempty"`
	Label   string `json:"label,omitempty"`
	Action  string `json:"action"`
	Status  Status `json:"status"`

	Mismatches   spatial.MismatchReport `json:"mismatches,omitempty"`
	SlotMismatch *SlotMismatch          `json:"slot_mismatch,omitempty"`

	// Message carries the adapter error for errored steps.
	Message string `json:"message,omitempty"`
}

// RunReport is the result of running one scenario.
//
// It intentionally carries no run ID or timestamps: identical runs produce
// byte-identical canonical reports.
type RunReport struct {
	Scenario string             `json:"scenario"`
	Server   adapter.ServerInfo `json:"server"`
	Verdict  Verdict            `json:"verdict"`
	Failure  *Failure           `json:"failure,omitempty"`

	// Steps in dispatch order.
	Steps []StepResult `json:"steps"`

	TicksElapsed uint64 `json:"ticks_elapsed"`

	// Pending is the number of scheduled steps never dispatched because
	// the run timed out or aborted.
	Pending int `json:"pending,omitempty"`
}

// Passed reports whether the verdict is pass.
func (r *RunReport) Passed() bool {
	return r.Verdict == VerdictPass
}

// Count returns the number of steps with the given status.
func (r *RunReport) Count(status Status) int {
	n := 0
	for _, s := range r.Steps {
		if s.Status == status {
			n++
		}
	}
	return n
}

// Canonical returns the report as canonical JSON.
func (r *RunReport) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(r.toCanonicalMap())
}

// Digest returns a domain-separated SHA-256 of the canonical report.
func (r *RunReport) Digest() (string, error) {
	data, err := r.Canonical()
	if err != nil {
		return "", err
	}
	return ir.HashWithDomain(ir.DomainRunReport, data), nil
}

// toCanonicalMap converts the report to the map form ir.MarshalCanonical
// accepts. Keys match the json tags so the canonical bytes decode back
// into a RunReport with encoding/json.
func (r *RunReport) toCanonicalMap() map[string]any {
	steps := make([]any, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = s.toCanonicalMap()
	}

	m := map[string]any{
		"scenario":      r.Scenario,
		"server":        map[string]any{"version": r.Server.Version},
		"verdict":       string(r.Verdict),
		"steps":         steps,
		"ticks_elapsed": r.TicksElapsed,
	}
	if r.Failure != nil {
		f := map[string]any{
			"kind":    string(r.Failure.Kind),
			"message": r.Failure.Message,
		}
		if r.Failure.Step != nil {
			f["step"] = *r.Failure.Step
		}
		m["failure"] = f
	}
	if r.Pending > 0 {
		m["pending"] = r.Pending
	}
	return m
}

func (s StepResult) toCanonicalMap() map[string]any {
	m := map[string]any{
		"index":  s.Index,
		"tick":   s.Tick,
		"action": s.Action,
		"status": string(s.Status),
	}
	if s.Fixture {
		m["fixture"] = true
	}
	if s.Label != "" {
		m["label"] = s.Label
	}
	if len(s.Mismatches) > 0 {
		list := make([]any, len(s.Mismatches))
		for i, mm := range s.Mismatches {
			list[i] = map[string]any{
				"pos":      canonicalPos(mm.Pos),
				"expected": canonicalBlock(mm.Expected),
				"actual":   canonicalBlock(mm.Actual),
			}
		}
		m["mismatches"] = list
	}
	if s.SlotMismatch != nil {
		sm := map[string]any{"slot": s.SlotMismatch.Slot.String()}
		if s.SlotMismatch.Expected != nil {
			sm["expected"] = canonicalItem(*s.SlotMismatch.Expected)
		}
		if s.SlotMismatch.Actual != nil {
			sm["actual"] = canonicalItem(*s.SlotMismatch.Actual)
		}
		m["slot_mismatch"] = sm
	}
	if s.Message != "" {
		m["message"] = s.Message
	}
	return m
}

func canonicalPos(p ir.BlockPos) []any {
	return []any{p.X(), p.Y(), p.Z()}
}

func canonicalBlock(b ir.Block) map[string]any {
	m := map[string]any{"id": b.ID}
	if len(b.Properties) > 0 {
		m["properties"] = b.Properties
	}
	return m
}

func canonicalItem(i ir.Item) map[string]any {
	return map[string]any{"id": i.ID, "count": i.Count}
}
