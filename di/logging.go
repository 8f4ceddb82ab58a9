package di

import (
	"log/slog"
)

// logger is package-level so Registry and Planner code can log without
// threading a logger through every constructor; SetLogger lets a host
// application point it at its own handler instead of the default, which
// writes to a discarding writer and so drops every record at any level.
var logger = slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelWarn}))

// SetLogger replaces the package-level logger used for registry-mutation
// and plan-compilation diagnostics. It is never called on the Activator's
// hot path.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func logRegister(key TypeKey, lifetime Lifetime, kind BuilderKind) {
	logger.Debug("di: registered", "key", key.String(), "lifetime", lifetime.String(), "builder", builderKindString(kind))
}

func logPlanCompiled(key TypeKey) {
	logger.Debug("di: plan compiled", "key", key.String())
}
