package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("FLINT_MAX_TICKS", "250")
	t.Setenv("FLINT_FAIL_FAST", "true")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, TestRunConfig{MaxTicks: 250, FailFast: true}, cfg)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"not a number", "lots", "parse env"},
		{"negative", "-1", "parse env"},
		{"zero", "0", "max ticks must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLINT_MAX_TICKS", tt.value)
			_, err := LoadConfigFromEnv()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fixtures_applied", StateFixturesApplied.String())
	assert.Equal(t, "state(0)", State(0).String())
	assert.True(t, StateAborted.Terminal())
	assert.False(t, StateRunning.Terminal())
}
