package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/reviewd/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false})

	require.NoError(t, err)
	require.NotNil(t, tel)

	degraded, _ := tel.Degraded()
	assert.False(t, degraded)

	// No-op providers must be usable.
	assert.NotNil(t, tel.Tracer("reviewd.test"))
	assert.NotNil(t, tel.Meter("reviewd.test"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_EnabledRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		ServiceName: "reviewd",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry
	assert.NotNil(t, tel.Tracer("reviewd.test"))
	assert.NotNil(t, tel.Meter("reviewd.test"))
}
