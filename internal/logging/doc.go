// Package logging provides structured logging for reviewd.
//
// It wraps Zap with automatic context field injection so every log line
// emitted during a review run carries its correlation fields (run ID,
// phase, todo ID) without each call site repeating them.
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithRunID(ctx, "run_123")
//	ctx = logging.WithPhase(ctx, "act")
//	logger.Info(ctx, "delegation complete", zap.String("todo_id", id))
//
// Use TestLogger in tests:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message")
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
package logging
