// Package timeline resolves a scenario's schedule markers into absolute
// ticks and hands steps out tick by tick.
//
// Resolution rules:
//   - Every step carries an action, and region actions stay within
//     scenario.MaxRegionVolume.
//   - Immediate steps are fixtures. They must be setup actions and must
//     precede every timed step.
//   - At(N) resolves to tick N.
//   - After(N) resolves to N ticks after the previous timed step, or
//     tick N if there is none.
//   - Resolved ticks must be non-decreasing in declaration order. Ties
//     keep declaration order.
//
// A Timeline is owned by a single run and is not safe for concurrent use.
package timeline

import (
	"fmt"
	"slices"

	"github.com/JunkyDeveloper/flint-core/internal/scenario"
)

// ScheduledStep is a scenario step bound to an absolute tick.
type ScheduledStep struct {
	// Index is the step's position in the scenario.
	Index int

	// Tick is the resolved tick. Fixtures have tick 0.
	Tick uint64

	// Fixture is true for immediate steps applied before tick 0.
	Fixture bool

	Step scenario.Step
}

// Timeline is a resolved schedule plus a logical tick cursor.
type Timeline struct {
	fixtures []ScheduledStep
	timed    []ScheduledStep
	next     int
	cursor   uint64
}

// New resolves steps into a schedule.
// Returns a *ScheduleError if the markers are inconsistent.
func New(steps []scenario.Step) (*Timeline, error) {
	tl := &Timeline{}

	var previous uint64
	for i, step := range steps {
		if step.Action == nil {
			return nil, &ScheduleError{
				Code:    ErrCodeMissingAction,
				Step:    i,
				Message: "step has no action",
			}
		}
		if err := scenario.CheckRegionVolume(step.Action); err != nil {
			return nil, &ScheduleError{
				Code:    ErrCodeRegionTooLarge,
				Step:    i,
				Message: fmt.Sprintf("%s: %v", step.Action.Name(), err),
			}
		}

		switch step.Marker.Kind {
		case scenario.MarkerImmediate:
			if len(tl.timed) > 0 {
				return nil, &ScheduleError{
					Code:    ErrCodeImmediateAfterTimed,
					Step:    i,
					Message: fmt.Sprintf("immediate step follows timed step %d", tl.timed[len(tl.timed)-1].Index),
				}
			}
			if step.Action.Category() != scenario.CategorySetup {
				return nil, &ScheduleError{
					Code:    ErrCodeImmediateNotSetup,
					Step:    i,
					Message: fmt.Sprintf("only setup actions can be immediate, got %s", step.Action.Name()),
				}
			}
			tl.fixtures = append(tl.fixtures, ScheduledStep{Index: i, Fixture: true, Step: step})
			continue

		case scenario.MarkerAt, scenario.MarkerAfter:
			tick := step.Marker.Ticks
			if step.Marker.Kind == scenario.MarkerAfter {
				tick = previous + step.Marker.Ticks
			}
			// A wrapped After sum also lands below previous.
			if tick < previous {
				return nil, newNonMonotonicError(i, tick, previous)
			}
			tl.timed = append(tl.timed, ScheduledStep{Index: i, Tick: tick, Step: step})
			previous = tick

		default:
			return nil, &ScheduleError{
				Code:    ErrCodeUnknownMarker,
				Step:    i,
				Message: fmt.Sprintf("unknown marker %s", step.Marker.Kind),
			}
		}
	}

	return tl, nil
}

// Fixtures returns the immediate steps in declaration order.
func (tl *Timeline) Fixtures() []ScheduledStep {
	return slices.Clone(tl.fixtures)
}

// Steps returns every resolved step in declaration order.
func (tl *Timeline) Steps() []ScheduledStep {
	return slices.Concat(tl.fixtures, tl.timed)
}

// Cursor returns the current logical tick.
func (tl *Timeline) Cursor() uint64 {
	return tl.cursor
}

// Due returns the steps scheduled at the current cursor that have not been
// handed out yet. At cursor 0 these are the tick-0 steps dispatched after
// fixtures and before the first world tick.
func (tl *Timeline) Due() []ScheduledStep {
	start := tl.next
	// Steps at earlier ticks are only left over if Due was skipped for
	// tick 0; they are handed out now rather than stalling the cursor.
	for tl.next < len(tl.timed) && tl.timed[tl.next].Tick <= tl.cursor {
		tl.next++
	}
	return slices.Clone(tl.timed[start:tl.next])
}

// Advance moves the cursor forward by exactly one tick and returns the
// steps scheduled at the new tick, in declaration order. The result may
// be empty.
func (tl *Timeline) Advance() []ScheduledStep {
	tl.cursor++
	return tl.Due()
}

// Pending returns the number of timed steps not yet handed out.
func (tl *Timeline) Pending() int {
	return len(tl.timed) - tl.next
}

// Exhausted reports whether every timed step has been handed out.
func (tl *Timeline) Exhausted() bool {
	return tl.Pending() == 0
}

// LastTick returns the tick of the last timed step, or 0 if there is none.
func (tl *Timeline) LastTick() uint64 {
	if len(tl.timed) == 0 {
		return 0
	}
	return tl.timed[len(tl.timed)-1].Tick
}
