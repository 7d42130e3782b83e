// Package obs holds the ambient observability stack shared by both
// binaries: a zap-backed slog.Logger and the prometheus counters/gauges
// that make backpressure drops and persistence failures observable without
// turning them into retried errors.
package obs

import (
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a structured logger. Production mode uses zap's JSON
// production encoder; non-production uses the colorized development
// encoder. The returned *zap.Logger is the one backing the *slog.Logger —
// callers that need to hand a logger to a zap-native integration (such as
// gin-contrib/zap's middleware) should use it instead of unwrapping slog.
// The returned sync func flushes buffered log entries and should be
// deferred by the caller.
func NewLogger(production bool) (*slog.Logger, *zap.Logger, func() error) {
	var zapLogger *zap.Logger
	if production {
		zapLogger = zap.Must(zap.NewProduction())
	} else {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapLogger = zap.Must(cfg.Build())
	}
	return slog.New(zapslog.NewHandler(zapLogger.Core())), zapLogger, zapLogger.Sync
}
