package transcript

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ytcc/internal/captions"
	"ytcc/internal/config"
	"ytcc/internal/selector"
	"ytcc/internal/services/ytdlp"
	"ytcc/internal/videourl"
)

const (
	primaryOutputTemplate = "%(title)s.%(ext)s"
	// The fallback writes to a deliberately plain template so a throttled
	// remote sees a less distinctive request.
	fallbackOutputTemplate = "transcript.%(ext)s"

	primaryGlob = "*.en*.srt"
)

// fallbackGlobs is the fixed format-preference order for fallback output.
var fallbackGlobs = []string{"transcript*.srt", "transcript*.vtt"}

// Outcome describes one finished acquisition.
type Outcome struct {
	RunID        string
	Transcript   string
	VideoID      string
	Attempts     int
	UsedFallback bool
	Elapsed      time.Duration
}

// Fetcher drives yt-dlp through the retry/backoff/fallback state machine
// and owns cleanup of every caption file an invocation produces.
type Fetcher struct {
	cfg      *config.Config
	runner   ytdlp.Runner
	reporter Reporter
	chooser  selector.Chooser
	auto     bool
	workDir  string
	lockPath string
	sleep    func(context.Context, time.Duration) error
	jitter   func() float64
}

// Option customizes the Fetcher.
type Option func(*Fetcher)

// WithRunner overrides the yt-dlp runner (used by tests).
func WithRunner(runner ytdlp.Runner) Option {
	return func(f *Fetcher) {
		if runner != nil {
			f.runner = runner
		}
	}
}

// WithReporter overrides the progress reporter.
func WithReporter(reporter Reporter) Option {
	return func(f *Fetcher) {
		if reporter != nil {
			f.reporter = reporter
		}
	}
}

// WithChooser supplies the interactive subtitle chooser.
func WithChooser(chooser selector.Chooser) Option {
	return func(f *Fetcher) {
		f.chooser = chooser
	}
}

// WithAuto enables non-interactive selection.
func WithAuto(auto bool) Option {
	return func(f *Fetcher) {
		f.auto = auto
	}
}

// WithSleeper overrides how backoff and cooldown waits are performed
// (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(f *Fetcher) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// WithJitter overrides the jitter source, which must return values in
// [0, 1).
func WithJitter(jitter func() float64) Option {
	return func(f *Fetcher) {
		if jitter != nil {
			f.jitter = jitter
		}
	}
}

// WithLockPath overrides the location of the single-instance lock file.
func WithLockPath(path string) Option {
	return func(f *Fetcher) {
		if path != "" {
			f.lockPath = path
		}
	}
}

// New constructs a Fetcher for the given configuration.
func New(cfg *config.Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		cfg:      cfg,
		reporter: NopReporter{},
		workDir:  cfg.Paths.WorkDir,
		sleep:    sleepContext,
		jitter:   rand.Float64,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.lockPath == "" {
		// The lock guards the caption-file glob namespace, so it lives in
		// the same directory the globs run against.
		f.lockPath = filepath.Join(f.globDir(), ".ytcc.lock")
	}
	if f.runner == nil {
		f.runner = ytdlp.NewCLI(ytdlp.WithBinary(cfg.YtDlp.Binary), ytdlp.WithWorkDir(f.workDir))
	}
	return f
}

// Acquire downloads, selects, and parses the captions for url, returning
// the deduplicated transcript. Retryable failures (timeouts, process
// errors, rate limiting with attempts remaining) are absorbed here; only a
// definite outcome is returned. Caption files created along the way are
// removed on every exit path.
func (f *Fetcher) Acquire(ctx context.Context, url string) (outcome Outcome, err error) {
	outcome.RunID = uuid.NewString()
	started := time.Now()
	defer func() { outcome.Elapsed = time.Since(started) }()

	lock := flock.New(f.lockPath)
	locked, lockErr := lock.TryLock()
	if lockErr != nil {
		return outcome, fmt.Errorf("acquire lock %s: %w", f.lockPath, lockErr)
	}
	if !locked {
		return outcome, ErrBusy
	}
	defer func() { _ = lock.Unlock() }()

	classification := videourl.Classify(url)
	outcome.VideoID = classification.VideoID

	maxAttempts := f.cfg.Acquire.MaxAttempts
	timeout := time.Duration(f.cfg.Acquire.AttemptTimeout) * time.Second

	var lastErr error
	rateLimited := false
	for attempt := 0; attempt < maxAttempts; attempt++ {
		outcome.Attempts = attempt + 1

		var delay time.Duration
		if attempt > 0 {
			delay = f.backoff(attempt)
		}
		f.reporter.AttemptStarted(attempt, delay)
		if delay > 0 {
			if err := f.sleep(ctx, delay); err != nil {
				return outcome, err
			}
		}

		args := ytdlp.BuildArgs(f.cfg.YtDlp, url, primaryOutputTemplate, classification.IsPlaylist)
		result, runErr := f.runner.Run(ctx, timeout, args)
		if runErr != nil {
			return outcome, fmt.Errorf("run yt-dlp: %w", runErr)
		}

		switch {
		case result.TimedOut:
			rateLimited = false
			lastErr = fmt.Errorf("yt-dlp timed out after %s", timeout)
			f.reporter.AttemptFailed(attempt, "timeout")
			continue
		case !result.Succeeded():
			if isRateLimited(result.Stderr) {
				rateLimited = true
				lastErr = fmt.Errorf("yt-dlp rate limited (exit %d)", result.ExitCode)
				f.reporter.AttemptFailed(attempt, "rate limited")
			} else {
				rateLimited = false
				lastErr = fmt.Errorf("yt-dlp failed (exit %d): %s", result.ExitCode, stderrSummary(result.Stderr))
				f.reporter.AttemptFailed(attempt, "process error")
			}
			continue
		}

		transcript, consumeErr := f.consumePrimary(ctx, url)
		if consumeErr != nil {
			return outcome, consumeErr
		}
		outcome.Transcript = transcript
		return outcome, nil
	}

	if rateLimited {
		outcome.UsedFallback = true
		transcript, fallbackErr := f.runFallback(ctx, url, classification)
		if fallbackErr != nil {
			return outcome, fallbackErr
		}
		outcome.Transcript = transcript
		return outcome, nil
	}
	return outcome, fmt.Errorf("caption download failed after %d attempts: %w", maxAttempts, lastErr)
}

// backoff returns the wait before attempt k (k >= 1): 2^k seconds plus
// random jitter in [0, 2) seconds, so synchronized clients do not hammer a
// throttled remote in lockstep.
func (f *Fetcher) backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	jitter := time.Duration(f.jitter() * float64(2*time.Second))
	return base + jitter
}

// consumePrimary globs, selects, reads, and parses the primary invocation's
// output. Every globbed file is removed before returning, whatever happens
// in between.
func (f *Fetcher) consumePrimary(ctx context.Context, url string) (transcript string, err error) {
	defer f.cleanupGlobs([]string{primaryGlob})

	candidates, globErr := filepath.Glob(filepath.Join(f.globDir(), primaryGlob))
	if globErr != nil {
		return "", fmt.Errorf("glob caption files: %w", globErr)
	}
	if len(candidates) == 0 {
		return "", ErrNoCaptions
	}

	selected, selectErr := selector.Select(ctx, candidates, url, selector.Options{Auto: f.auto, Chooser: f.chooser})
	if selectErr != nil {
		return "", selectErr
	}
	f.reporter.FileSelected(selected)

	content, readErr := readCaptionFile(selected)
	if readErr != nil {
		return "", readErr
	}
	transcript = captions.ParseSRT(content)
	if transcript == "" {
		return "", ErrParseYieldedNothing
	}
	return transcript, nil
}

// runFallback performs the degraded single-attempt path used only after the
// primary retry budget was exhausted under rate limiting. It is never
// retried; any failure here is final.
func (f *Fetcher) runFallback(ctx context.Context, url string, classification videourl.Classification) (transcript string, err error) {
	cooldown := time.Duration(f.cfg.Acquire.FallbackCooldown) * time.Second
	f.reporter.FallbackStarted(cooldown)
	if sleepErr := f.sleep(ctx, cooldown); sleepErr != nil {
		return "", sleepErr
	}

	defer f.cleanupGlobs(fallbackGlobs)

	timeout := time.Duration(f.cfg.Acquire.AttemptTimeout) * time.Second
	args := ytdlp.BuildArgs(f.cfg.YtDlp, url, fallbackOutputTemplate, classification.IsPlaylist)
	result, runErr := f.runner.Run(ctx, timeout, args)
	if runErr != nil {
		return "", fmt.Errorf("run yt-dlp fallback: %w", runErr)
	}
	if result.TimedOut {
		return "", fmt.Errorf("fallback timed out after %s", timeout)
	}
	if !result.Succeeded() {
		return "", fmt.Errorf("fallback failed (exit %d): %s", result.ExitCode, stderrSummary(result.Stderr))
	}

	for _, pattern := range fallbackGlobs {
		matches, globErr := filepath.Glob(filepath.Join(f.globDir(), pattern))
		if globErr != nil {
			return "", fmt.Errorf("glob fallback files: %w", globErr)
		}
		if len(matches) == 0 {
			continue
		}
		path := matches[0]
		f.reporter.FileSelected(path)

		content, readErr := readCaptionFile(path)
		if readErr != nil {
			return "", readErr
		}
		if strings.EqualFold(filepath.Ext(path), ".vtt") {
			transcript = captions.ParseVTT(content)
		} else {
			transcript = captions.ParseSRT(content)
		}
		if transcript == "" {
			return "", ErrParseYieldedNothing
		}
		return transcript, nil
	}
	return "", ErrNoCaptions
}

// cleanupGlobs re-globs each pattern and removes every match. Globbing
// again at cleanup time catches files created after the initial collection,
// including partial output from failed runs. Removal failures are reported
// as warnings and never mask the primary result.
func (f *Fetcher) cleanupGlobs(patterns []string) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(f.globDir(), pattern))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				f.reporter.CleanupWarning(path, err)
			}
		}
	}
}

func (f *Fetcher) globDir() string {
	if f.workDir == "" {
		return "."
	}
	return f.workDir
}

func readCaptionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read caption file: %w", err)
	}
	content := string(data)
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyOutput
	}
	return content, nil
}

// stderrSummary keeps error text to a single informative line.
func stderrSummary(stderr string) string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return "no error output"
	}
	lines := strings.Split(trimmed, "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
