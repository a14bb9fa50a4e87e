package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_ValidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	logger, err := NewLogger(cfg)

	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "format")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative caller skip",
			mutate:  func(c *Config) { c.Caller.Skip = -1 },
			wantErr: "caller skip",
		},
		{
			name:    "empty field value",
			mutate:  func(c *Config) { c.Fields = map[string]string{"component": ""} },
			wantErr: "empty value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLogger_ContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRunID(context.Background(), "run_abc")
	ctx = WithPhase(ctx, "act")
	ctx = WithTodoID(ctx, "todo-1")

	tl.Info(ctx, "delegation complete", zap.String("capability", "static_scan"))

	tl.AssertLogged(t, zapcore.InfoLevel, "delegation complete")
	tl.AssertField(t, "delegation complete", "run.id", "run_abc")
	tl.AssertField(t, "delegation complete", "run.phase", "act")
	tl.AssertField(t, "delegation complete", "todo.id", "todo-1")
	tl.AssertField(t, "delegation complete", "capability", "static_scan")
}

func TestLogger_Named(t *testing.T) {
	tl := NewTestLogger()

	child := tl.Named("dispatcher")
	child.Warn(context.Background(), "worker timed out")

	entries := tl.FilterMessage("worker timed out").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dispatcher", entries[0].LoggerName)
}

func TestFromContext_Fallback(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)

	// Nop logger: must not panic.
	logger.Info(context.Background(), "discarded")
}

func TestFromContext_RoundTrip(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)

	got := FromContext(ctx)
	got.Info(ctx, "stored logger used")

	tl.AssertLogged(t, zapcore.InfoLevel, "stored logger used")
}
