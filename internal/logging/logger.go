package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithSource returns a logger with sync source context attached.
// Use this for all logging within a sync cycle.
func WithSource(source string) *slog.Logger {
	return slog.With("source", source)
}

// WithJob returns a logger scoped to a scheduled job run.
func WithJob(logger *slog.Logger, jobName, instanceID string) *slog.Logger {
	return logger.With(
		"job", jobName,
		"instance_id", instanceID,
	)
}
