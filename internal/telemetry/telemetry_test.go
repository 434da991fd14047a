package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JunkyDeveloper/flint-core/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("FLINT_OTEL_ENDPOINT", "")
	t.Setenv("FLINT_OTEL_ENABLED", "true")

	shutdown, err := telemetry.Setup(context.Background(), "flint-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopWhenExplicitlyDisabled(t *testing.T) {
	t.Setenv("FLINT_OTEL_ENDPOINT", "http://localhost:4318")
	t.Setenv("FLINT_OTEL_ENABLED", "false")

	shutdown, err := telemetry.Setup(context.Background(), "flint-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export happens.
	t.Setenv("FLINT_OTEL_ENDPOINT", "http://192.0.2.1:4318")
	t.Setenv("FLINT_OTEL_ENABLED", "true")

	shutdown, err := telemetry.Setup(context.Background(), "flint-test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_InvalidEnabledFlag(t *testing.T) {
	t.Setenv("FLINT_OTEL_ENABLED", "maybe")

	shutdown, err := telemetry.Setup(context.Background(), "flint-test")
	require.ErrorContains(t, err, "parse env")
	require.NoError(t, shutdown(context.Background()))
}
