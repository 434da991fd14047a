package timeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JunkyDeveloper/flint-core/internal/ir"
	"github.com/JunkyDeveloper/flint-core/internal/scenario"
)

func place(m scenario.Marker, label string) scenario.Step {
	return scenario.Step{Label: label, Marker: m, Action: scenario.Place{Pos: ir.Pos(0, 64, 0), Block: ir.NewBlock("stone", nil)}}
}

func check(m scenario.Marker, label string) scenario.Step {
	return scenario.Step{Label: label, Marker: m, Action: scenario.AssertBlock{Pos: ir.Pos(0, 64, 0), Block: ir.NewBlock("stone", nil)}}
}

func ticksOf(steps []ScheduledStep) []uint64 {
	ticks := make([]uint64, len(steps))
	for i, s := range steps {
		ticks[i] = s.Tick
	}
	return ticks
}

func labelsOf(steps []ScheduledStep) []string {
	labels := make([]string, len(steps))
	for i, s := range steps {
		labels[i] = s.Step.Label
	}
	return labels
}

func TestNew_ResolvesMarkers(t *testing.T) {
	tl, err := New([]scenario.Step{
		place(scenario.Immediate(), "fixture"),
		place(scenario.At(0), "a"),
		place(scenario.After(3), "b"),
		check(scenario.At(5), "c"),
		check(scenario.After(0), "d"),
		check(scenario.After(2), "e"),
	})
	require.NoError(t, err)

	steps := tl.Steps()
	assert.Equal(t, []string{"fixture", "a", "b", "c", "d", "e"}, labelsOf(steps))
	assert.Equal(t, []uint64{0, 0, 3, 5, 5, 7}, ticksOf(steps))
	assert.True(t, steps[0].Fixture)
	assert.False(t, steps[1].Fixture)
	for i, s := range steps {
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, uint64(7), tl.LastTick())
	assert.Equal(t, 5, tl.Pending())
}

func TestNew_AfterWithoutPredecessor(t *testing.T) {
	tl, err := New([]scenario.Step{
		place(scenario.Immediate(), "fixture"),
		check(scenario.After(4), "first"),
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, ticksOf(tl.Steps()[1:]))
}

func TestNew_NonMonotonic(t *testing.T) {
	_, err := New([]scenario.Step{
		place(scenario.At(0), "a"),
		place(scenario.At(5), "b"),
		check(scenario.At(3), "c"),
	})
	require.Error(t, err)
	assert.True(t, IsScheduleError(err))
	assert.Equal(t, ErrCodeNonMonotonic, ScheduleErrorCodeOf(err))

	var se *ScheduleError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Step)
	assert.Contains(t, err.Error(), "non_monotonic: steps[2]: resolves to tick 3, before previous step at tick 5")
}

func TestNew_AfterOverflowIsNonMonotonic(t *testing.T) {
	_, err := New([]scenario.Step{
		place(scenario.At(10), "a"),
		check(scenario.After(^uint64(0)), "b"),
	})
	assert.Equal(t, ErrCodeNonMonotonic, ScheduleErrorCodeOf(err))
}

func TestNew_ImmediateRules(t *testing.T) {
	tests := []struct {
		name  string
		steps []scenario.Step
		code  ScheduleErrorCode
	}{
		{
			name:  "immediate after timed",
			steps: []scenario.Step{place(scenario.At(1), "a"), place(scenario.Immediate(), "b")},
			code:  ErrCodeImmediateAfterTimed,
		},
		{
			name:  "immediate assertion",
			steps: []scenario.Step{check(scenario.Immediate(), "a")},
			code:  ErrCodeImmediateNotSetup,
		},
		{
			name: "immediate interaction",
			steps: []scenario.Step{{
				Marker: scenario.Immediate(),
				Action: scenario.UseItemOn{Pos: ir.Pos(0, 64, 0), Face: ir.FaceTop},
			}},
			code: ErrCodeImmediateNotSetup,
		},
		{
			name:  "timed step without action",
			steps: []scenario.Step{place(scenario.At(0), "a"), {Marker: scenario.At(1)}},
			code:  ErrCodeMissingAction,
		},
		{
			name:  "immediate step without action",
			steps: []scenario.Step{{Marker: scenario.Immediate()}},
			code:  ErrCodeMissingAction,
		},
		{
			name: "oversized fill",
			steps: []scenario.Step{{
				Marker: scenario.Immediate(),
				Action: scenario.Fill{Region: ir.Region{Min: ir.Pos(-2048, 0, -2048), Max: ir.Pos(2048, 0, 2048)}, Block: ir.Air},
			}},
			code: ErrCodeRegionTooLarge,
		},
		{
			name: "oversized assert_region",
			steps: []scenario.Step{{
				Marker: scenario.At(1),
				Action: scenario.AssertRegion{Region: ir.Region{Min: ir.Pos(-2147483648, 64, -2147483648), Max: ir.Pos(2147483647, 64, 2147483647)}, Block: ir.Air},
			}},
			code: ErrCodeRegionTooLarge,
		},
		{
			name:  "unknown marker",
			steps: []scenario.Step{{Marker: scenario.Marker{Kind: 42}, Action: scenario.Remove{}}},
			code:  ErrCodeUnknownMarker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.steps)
			require.Error(t, err)
			assert.Equal(t, tt.code, ScheduleErrorCodeOf(err))
		})
	}
}

func TestNew_ImmediateSetupActions(t *testing.T) {
	stone := ir.NewItem("stone", 1)
	tl, err := New([]scenario.Step{
		{Marker: scenario.Immediate(), Action: scenario.Clear{}},
		{Marker: scenario.Immediate(), Action: scenario.Fill{Block: ir.Air}},
		{Marker: scenario.Immediate(), Action: scenario.SetSlot{Slot: ir.SlotHotbar1, Item: &stone}},
		{Marker: scenario.Immediate(), Action: scenario.SelectHotbar{Index: 1}},
	})
	require.NoError(t, err)
	assert.Len(t, tl.Fixtures(), 4)
	assert.True(t, tl.Exhausted())
	assert.Equal(t, uint64(0), tl.LastTick())
}

func TestTimeline_Cursor(t *testing.T) {
	tl, err := New([]scenario.Step{
		place(scenario.Immediate(), "fixture"),
		place(scenario.At(0), "zero"),
		place(scenario.At(2), "two-a"),
		check(scenario.At(2), "two-b"),
		check(scenario.At(3), "three"),
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(0), tl.Cursor())
	assert.Equal(t, []string{"fixture"}, labelsOf(tl.Fixtures()))
	assert.Equal(t, []string{"zero"}, labelsOf(tl.Due()))
	assert.Empty(t, tl.Due(), "due steps are handed out once")
	assert.Equal(t, 3, tl.Pending())

	assert.Empty(t, tl.Advance())
	assert.Equal(t, uint64(1), tl.Cursor())

	assert.Equal(t, []string{"two-a", "two-b"}, labelsOf(tl.Advance()))
	assert.Equal(t, 1, tl.Pending())
	assert.False(t, tl.Exhausted())

	assert.Equal(t, []string{"three"}, labelsOf(tl.Advance()))
	assert.True(t, tl.Exhausted())
	assert.Equal(t, uint64(3), tl.Cursor())
}

func TestTimeline_TiesKeepDeclarationOrder(t *testing.T) {
	var steps []scenario.Step
	for i := range 20 {
		if i%2 == 0 {
			steps = append(steps, place(scenario.At(1), fmt.Sprintf("s%02d", i)))
		} else {
			steps = append(steps, check(scenario.After(0), fmt.Sprintf("s%02d", i)))
		}
	}

	tl, err := New(steps)
	require.NoError(t, err)
	assert.Empty(t, tl.Due())

	due := tl.Advance()
	require.Len(t, due, 20)
	for i, s := range due {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, fmt.Sprintf("s%02d", i), s.Step.Label)
	}
}

func TestTimeline_SkippedDueIsNotLost(t *testing.T) {
	tl, err := New([]scenario.Step{place(scenario.At(0), "zero"), check(scenario.At(1), "one")})
	require.NoError(t, err)

	assert.Equal(t, []string{"zero", "one"}, labelsOf(tl.Advance()))
	assert.True(t, tl.Exhausted())
}

func TestTimeline_ResultsAreCopies(t *testing.T) {
	tl, err := New([]scenario.Step{place(scenario.Immediate(), "fixture")})
	require.NoError(t, err)

	fixtures := tl.Fixtures()
	fixtures[0].Tick = 99
	assert.Equal(t, uint64(0), tl.Fixtures()[0].Tick)
}
