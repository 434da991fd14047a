// Package results accumulates step outcomes into a RunReport.
//
// The Aggregator only appends. Step order in the report is exactly the
// order the runner dispatched steps, and the verdict is computed once,
// when the runner signals completion.
package results

import (
	"fmt"

	"github.com/JunkyDeveloper/flint-core/internal/adapter"
)

// Aggregator builds one RunReport. It is owned by a single run.
type Aggregator struct {
	report   RunReport
	failure  *Failure
	complete bool
}

// NewAggregator starts a report for the named scenario.
func NewAggregator(scenario string, server adapter.ServerInfo) *Aggregator {
	return &Aggregator{
		report: RunReport{
			Scenario: scenario,
			Server:   server,
			Steps:    []StepResult{},
		},
	}
}

// Append records a step outcome.
func (a *Aggregator) Append(r StepResult) {
	a.mustBeOpen()
	a.report.Steps = append(a.report.Steps, r)
}

// Len returns the number of recorded steps.
func (a *Aggregator) Len() int {
	return len(a.report.Steps)
}

// Abort records a run-ending failure. step is the declaration index of the
// step that caused it, or NoStep. Only the first terminal failure is kept.
func (a *Aggregator) Abort(kind FailureKind, step int, err error) {
	a.mustBeOpen()
	if a.failure != nil {
		return
	}
	f := &Failure{Kind: kind}
	if err != nil {
		f.Message = err.Error()
	}
	if step != NoStep {
		f.Step = &step
	}
	a.failure = f
}

// TimedOut records that the tick budget ran out with pending steps left.
func (a *Aggregator) TimedOut(pending int, maxTicks uint64) {
	a.mustBeOpen()
	a.report.Pending = pending
	if a.failure != nil {
		return
	}
	a.failure = &Failure{
		Kind:    FailureTimeout,
		Message: fmt.Sprintf("tick budget of %d exhausted with %d step(s) pending", maxTicks, pending),
	}
}

// SetPending records steps left undispatched after an abort or a
// fail-fast stop.
func (a *Aggregator) SetPending(pending int) {
	a.mustBeOpen()
	a.report.Pending = pending
}

// Complete computes the verdict and returns the finished report.
// The Aggregator must not be used afterwards.
func (a *Aggregator) Complete(ticksElapsed uint64) *RunReport {
	a.mustBeOpen()
	a.complete = true

	a.report.TicksElapsed = ticksElapsed
	a.report.Failure = a.failure
	if a.report.Failure == nil {
		a.report.Failure = a.assertionFailure()
	}

	a.report.Verdict = VerdictPass
	if a.report.Failure != nil {
		a.report.Verdict = VerdictFail
	}

	report := a.report
	return &report
}

// assertionFailure summarizes failed assertions, nil if there are none.
func (a *Aggregator) assertionFailure() *Failure {
	failed := 0
	first := NoStep
	for _, s := range a.report.Steps {
		switch s.Status {
		case StatusFailed:
			if failed == 0 {
				first = s.Index
			}
			failed++
		case StatusErrored:
			// An errored step fails the run even without Abort.
			idx := s.Index
			return &Failure{Kind: FailureAdapter, Message: s.Message, Step: &idx}
		}
	}
	if failed == 0 {
		return nil
	}
	return &Failure{
		Kind:    FailureAssertion,
		Message: fmt.Sprintf("%d assertion(s) failed", failed),
		Step:    &first,
	}
}

func (a *Aggregator) mustBeOpen() {
	if a.complete {
		panic("results: aggregator used after Complete")
	}
}
