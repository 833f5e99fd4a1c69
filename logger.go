package corelgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with corelgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRun adds a run identifier to every record.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// LogLoad logs the outcome of loading a dataset.
func (l *Logger) LogLoad(ctx context.Context, source string, rules, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "dataset load failed",
			"source", source,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "dataset loaded",
		"source", source,
		"rules", rules,
		"samples", samples,
	)
}

// LogIncumbent logs an improvement of the best rule list.
func (l *Logger) LogIncumbent(ctx context.Context, objective float64, length int, st Stats) {
	l.DebugContext(ctx, "new incumbent",
		"objective", objective,
		"length", length,
		"iterations", st.Iterations,
		"elapsed", st.Elapsed,
	)
}

// LogProgress logs periodic search statistics.
func (l *Logger) LogProgress(ctx context.Context, st Stats) {
	l.DebugContext(ctx, "search progress",
		"iterations", st.Iterations,
		"frontier", st.FrontierSize,
		"live_nodes", st.NodesLive,
		"cache_entries", st.CacheEntries,
		"lower_bound", st.LowerBound,
	)
}

// LogRun logs the end of a run.
func (l *Logger) LogRun(ctx context.Context, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "learn failed",
			"error", err,
		)
		return
	}
	level := slog.LevelInfo
	if !res.Feasible() {
		level = slog.LevelWarn
	}
	l.Log(ctx, level, "learn completed",
		"reason", res.Reason.String(),
		"optimal", res.Optimal,
		"objective", res.Objective,
		"accuracy", res.Accuracy,
		"length", res.RuleList.Len(),
		"iterations", res.Stats.Iterations,
		"nodes_created", res.Stats.NodesCreated,
		"elapsed", res.Stats.Elapsed,
	)
}
