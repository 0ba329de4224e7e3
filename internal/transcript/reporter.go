package transcript

import (
	"log/slog"
	"time"
)

// Reporter receives progress events from the acquisition state machine.
// Events are informational only; callers must never derive control flow
// from them. The state machine itself stays free of output concerns.
type Reporter interface {
	AttemptStarted(attempt int, delay time.Duration)
	AttemptFailed(attempt int, reason string)
	FallbackStarted(cooldown time.Duration)
	FileSelected(path string)
	CleanupWarning(path string, err error)
}

// NopReporter discards all events.
type NopReporter struct{}

func (NopReporter) AttemptStarted(int, time.Duration)  {}
func (NopReporter) AttemptFailed(int, string)          {}
func (NopReporter) FallbackStarted(time.Duration)      {}
func (NopReporter) FileSelected(string)                {}
func (NopReporter) CleanupWarning(string, error)       {}

// logReporter adapts Reporter events onto a slog logger.
type logReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a Reporter that logs every event.
func NewLogReporter(logger *slog.Logger) Reporter {
	return &logReporter{logger: logger}
}

func (r *logReporter) AttemptStarted(attempt int, delay time.Duration) {
	if delay > 0 {
		r.logger.Info("retrying caption download", "attempt", attempt, "backoff", delay.Round(time.Millisecond))
		return
	}
	r.logger.Info("downloading auto-generated captions", "attempt", attempt)
}

func (r *logReporter) AttemptFailed(attempt int, reason string) {
	r.logger.Warn("caption download attempt failed", "attempt", attempt, "reason", reason)
}

func (r *logReporter) FallbackStarted(cooldown time.Duration) {
	r.logger.Info("rate limited on every attempt, trying fallback", "cooldown", cooldown)
}

func (r *logReporter) FileSelected(path string) {
	r.logger.Info("caption file selected", "path", path)
}

func (r *logReporter) CleanupWarning(path string, err error) {
	r.logger.Warn("could not remove caption file", "path", path, "error", err)
}
