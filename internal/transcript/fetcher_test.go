package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"ytcc/internal/captions"
	"ytcc/internal/config"
	"ytcc/internal/services/ytdlp"
)

const srtSample = "1\n00:00:01,000 --> 00:00:02,000\nHello world\n\n2\n00:00:02,000 --> 00:00:03,000\nHello world\n"

const vttSample = "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfallback line one\n\n00:00:02.000 --> 00:00:03.000\nfallback line two\n"

// fakeRunner scripts one ytdlp.Result per invocation and can drop files
// into the working directory to simulate yt-dlp output.
type fakeRunner struct {
	t       *testing.T
	workDir string
	results []ytdlp.Result
	onCall  map[int]func()
	calls   [][]string
}

func (r *fakeRunner) Run(_ context.Context, _ time.Duration, args []string) (ytdlp.Result, error) {
	call := len(r.calls)
	r.calls = append(r.calls, append([]string(nil), args...))
	if hook, ok := r.onCall[call]; ok {
		hook()
	}
	if call >= len(r.results) {
		r.t.Fatalf("unexpected yt-dlp invocation %d", call)
	}
	return r.results[call], nil
}

func (r *fakeRunner) writeFile(name, content string) func() {
	return func() {
		if err := os.WriteFile(filepath.Join(r.workDir, name), []byte(content), 0o644); err != nil {
			r.t.Fatalf("write caption file: %v", err)
		}
	}
}

type testEnv struct {
	fetcher *Fetcher
	runner  *fakeRunner
	workDir string
	delays  []time.Duration
}

func newTestEnv(t *testing.T, results []ytdlp.Result) *testEnv {
	t.Helper()
	workDir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = workDir
	cfg.Paths.StateDir = t.TempDir()

	env := &testEnv{workDir: workDir}
	env.runner = &fakeRunner{t: t, workDir: workDir, results: results, onCall: map[int]func(){}}
	env.fetcher = New(&cfg,
		WithRunner(env.runner),
		WithAuto(true),
		WithJitter(func() float64 { return 0 }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			env.delays = append(env.delays, d)
			return nil
		}),
	)
	return env
}

func (e *testEnv) leftoverCaptionFiles(t *testing.T) []string {
	t.Helper()
	var leftovers []string
	for _, pattern := range []string{"*.srt", "*.vtt"} {
		matches, err := filepath.Glob(filepath.Join(e.workDir, pattern))
		if err != nil {
			t.Fatalf("glob leftovers: %v", err)
		}
		leftovers = append(leftovers, matches...)
	}
	return leftovers
}

func TestAcquireSuccessFirstAttempt(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})
	env.runner.onCall[0] = env.runner.writeFile("Some Talk.en.srt", srtSample)

	outcome, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if outcome.Transcript != "Hello world" {
		t.Fatalf("expected deduplicated transcript, got %q", outcome.Transcript)
	}
	if outcome.Attempts != 1 || outcome.UsedFallback {
		t.Fatalf("unexpected outcome metadata: %#v", outcome)
	}
	if outcome.VideoID != "ABC123" {
		t.Fatalf("expected video id recorded, got %q", outcome.VideoID)
	}
	if outcome.RunID == "" {
		t.Fatal("expected a run id")
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("caption files leaked: %v", leftovers)
	}
}

func TestAcquirePlaylistURLGetsSingleItemGuard(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})
	env.runner.onCall[0] = env.runner.writeFile("Some Talk.en.srt", srtSample)

	if _, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123&list=PL1"); err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if !slices.Contains(env.runner.calls[0], "--no-playlist") {
		t.Fatalf("expected --no-playlist in args: %v", env.runner.calls[0])
	}
}

func TestAcquireRetriesOnTimeout(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{TimedOut: true}, {}})
	env.runner.onCall[1] = env.runner.writeFile("Some Talk.en.srt", srtSample)

	outcome, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if outcome.Attempts != 2 {
		t.Fatalf("expected two attempts, got %d", outcome.Attempts)
	}
	if len(env.delays) != 1 || env.delays[0] < 2*time.Second {
		t.Fatalf("expected a backoff of at least 2s before attempt 1, got %v", env.delays)
	}
}

func TestAcquireNonRateLimitExhaustionSkipsFallback(t *testing.T) {
	failure := ytdlp.Result{ExitCode: 1, Stderr: "ERROR: some video problem"}
	env := newTestEnv(t, []ytdlp.Result{failure, failure, failure})

	_, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err == nil {
		t.Fatal("expected definite failure")
	}
	if len(env.runner.calls) != 3 {
		t.Fatalf("expected exactly 3 invocations (no fallback), got %d", len(env.runner.calls))
	}
}

func TestAcquireRateLimitExhaustionRunsFallbackVTT(t *testing.T) {
	rateLimited := ytdlp.Result{ExitCode: 1, Stderr: "HTTP Error 429: Too Many Requests"}
	env := newTestEnv(t, []ytdlp.Result{rateLimited, rateLimited, rateLimited, {}})
	env.runner.onCall[3] = env.runner.writeFile("transcript.en.vtt", vttSample)

	outcome, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if !outcome.UsedFallback {
		t.Fatal("expected fallback to be used")
	}
	if want := captions.ParseVTT(vttSample); outcome.Transcript != want {
		t.Fatalf("expected %q, got %q", want, outcome.Transcript)
	}
	// Fallback invocation uses the plain output template.
	fallbackArgs := strings.Join(env.runner.calls[3], " ")
	if !strings.Contains(fallbackArgs, "transcript.%(ext)s") {
		t.Fatalf("fallback args missing plain template: %v", env.runner.calls[3])
	}
	// Cooldown of 5s after the two backoff sleeps.
	if len(env.delays) != 3 || env.delays[2] != 5*time.Second {
		t.Fatalf("expected 5s fallback cooldown, got %v", env.delays)
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("fallback files leaked: %v", leftovers)
	}
}

func TestAcquireFallbackPrefersSRT(t *testing.T) {
	rateLimited := ytdlp.Result{ExitCode: 1, Stderr: "too many requests"}
	env := newTestEnv(t, []ytdlp.Result{rateLimited, rateLimited, rateLimited, {}})
	env.runner.onCall[3] = func() {
		env.runner.writeFile("transcript.en.srt", srtSample)()
		env.runner.writeFile("transcript.en.vtt", vttSample)()
	}

	outcome, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if outcome.Transcript != "Hello world" {
		t.Fatalf("expected SRT preferred over VTT, got %q", outcome.Transcript)
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("fallback files leaked: %v", leftovers)
	}
}

func TestAcquireFallbackFailureIsFinal(t *testing.T) {
	rateLimited := ytdlp.Result{ExitCode: 1, Stderr: "429"}
	env := newTestEnv(t, []ytdlp.Result{rateLimited, rateLimited, rateLimited, {ExitCode: 1, Stderr: "429"}})

	_, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err == nil {
		t.Fatal("expected definite failure")
	}
	if len(env.runner.calls) != 4 {
		t.Fatalf("fallback must not be retried, got %d invocations", len(env.runner.calls))
	}
}

func TestAcquireNoCandidatesIsDefinite(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})

	_, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if !errors.Is(err, ErrNoCaptions) {
		t.Fatalf("expected ErrNoCaptions, got %v", err)
	}
	if len(env.runner.calls) != 1 {
		t.Fatalf("no-captions must not retry, got %d invocations", len(env.runner.calls))
	}
}

func TestAcquireEmptyFileIsDefinite(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})
	env.runner.onCall[0] = env.runner.writeFile("Some Talk.en.srt", "  \n ")

	_, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("caption files leaked after empty-file failure: %v", leftovers)
	}
}

func TestAcquireParseFailureStillCleansUp(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})
	env.runner.onCall[0] = env.runner.writeFile("Some Talk.en.srt", "1\n00:00:01,000 --> 00:00:02,000\n\n")

	_, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if !errors.Is(err, ErrParseYieldedNothing) {
		t.Fatalf("expected ErrParseYieldedNothing, got %v", err)
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("caption files leaked after parse failure: %v", leftovers)
	}
}

func TestAcquireSelectsIDMatchAmongCandidates(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})
	env.runner.onCall[0] = func() {
		env.runner.writeFile("Other Video.en.srt", "1\n00:00:01,000 --> 00:00:02,000\nwrong file\n")()
		env.runner.writeFile("Talk [ABC123].en.srt", srtSample)()
	}

	outcome, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	if outcome.Transcript != "Hello world" {
		t.Fatalf("expected id-matched file content, got %q", outcome.Transcript)
	}
	if leftovers := env.leftoverCaptionFiles(t); len(leftovers) != 0 {
		t.Fatalf("unselected candidates leaked: %v", leftovers)
	}
}

func TestBackoffMonotonicity(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, jitter := range []float64{0, 0.5, 0.999} {
		env.fetcher.jitter = func() float64 { return jitter }
		for attempt := 1; attempt <= 4; attempt++ {
			base := time.Duration(1<<uint(attempt)) * time.Second
			delay := env.fetcher.backoff(attempt)
			if delay < base {
				t.Fatalf("attempt %d jitter %v: delay %v below base %v", attempt, jitter, delay, base)
			}
			if delay >= base+2*time.Second {
				t.Fatalf("attempt %d jitter %v: delay %v exceeds jitter bound", attempt, jitter, delay)
			}
		}
	}
}

func TestAcquireBackoffSchedule(t *testing.T) {
	failure := ytdlp.Result{ExitCode: 1, Stderr: "ERROR: whatever"}
	env := newTestEnv(t, []ytdlp.Result{failure, failure, failure})

	_, _ = env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123")
	if len(env.delays) != 2 {
		t.Fatalf("expected 2 backoff sleeps for 3 attempts, got %v", env.delays)
	}
	if env.delays[0] != 2*time.Second || env.delays[1] != 4*time.Second {
		t.Fatalf("expected 2s then 4s with zero jitter, got %v", env.delays)
	}
}

func TestAcquireLockedWorkDir(t *testing.T) {
	env := newTestEnv(t, []ytdlp.Result{{}})

	other := flock.New(env.fetcher.lockPath)
	locked, err := other.TryLock()
	if err != nil {
		t.Fatalf("take lock: %v", err)
	}
	if !locked {
		t.Fatal("test could not take the lock")
	}
	defer func() { _ = other.Unlock() }()

	if _, err := env.fetcher.Acquire(context.Background(), "https://www.youtube.com/watch?v=ABC123"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestLockFileSharesGlobDirectory(t *testing.T) {
	env := newTestEnv(t, nil)

	// Two runs pointed at the same working directory must contend on the
	// same lock even when their state dirs differ, because the glob
	// namespace they clean up is the working directory.
	if got := filepath.Dir(env.fetcher.lockPath); got != env.workDir {
		t.Fatalf("lock file in %q, want working directory %q", got, env.workDir)
	}

	cfg := config.Default()
	cfg.Paths.WorkDir = env.workDir
	cfg.Paths.StateDir = t.TempDir()
	other := New(&cfg, WithRunner(env.runner))
	if other.lockPath != env.fetcher.lockPath {
		t.Fatalf("lock paths diverge: %q vs %q", other.lockPath, env.fetcher.lockPath)
	}
}
