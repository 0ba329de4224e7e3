package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"time"

	"ytcc/internal/config"
)

var commandContext = exec.CommandContext

// Result captures the observable outcome of one yt-dlp invocation: exit
// code, captured standard error, and whether the client-side wall-clock
// timeout killed the process. yt-dlp's internals are opaque; these three
// signals are the whole contract.
type Result struct {
	ExitCode int
	Stderr   string
	TimedOut bool
	Elapsed  time.Duration
}

// Succeeded reports a clean zero exit within the deadline.
func (r Result) Succeeded() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Runner executes yt-dlp. The indirection exists so the acquisition state
// machine can be tested without a subprocess.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, args []string) (Result, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithWorkDir runs yt-dlp in the given directory instead of the process
// working directory.
func WithWorkDir(dir string) Option {
	return func(c *CLI) {
		c.workDir = dir
	}
}

// CLI wraps the yt-dlp command-line tool.
type CLI struct {
	binary  string
	workDir string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "yt-dlp"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Run executes yt-dlp with the supplied arguments under a hard wall-clock
// timeout. A non-zero exit or a timeout is reported through Result, not as
// an error; the returned error covers failures to run the binary at all.
func (c *CLI) Run(ctx context.Context, timeout time.Duration, args []string) (Result, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := commandContext(runCtx, c.binary, args...) //nolint:gosec
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	result := Result{Stderr: stderr.String(), Elapsed: time.Since(started)}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		return result, nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}

// BuildArgs assembles the caption-extraction argument list: caption-only
// download, English auto-subs converted to SRT, conservative sleep/retry
// tuning at the tool level, and the given output template. Playlist-scoped
// URLs get --no-playlist so yt-dlp never walks the whole playlist.
func BuildArgs(cfg config.YtDlp, url, outputTemplate string, playlistScoped bool) []string {
	args := []string{
		"--skip-download",
		"--write-auto-subs",
		"--sub-langs", cfg.SubLangs,
		"--convert-subs", "srt",
		"--sleep-requests", strconv.Itoa(cfg.SleepRequests),
		"--min-sleep-interval", strconv.Itoa(cfg.MinSleepInterval),
		"--max-sleep-interval", strconv.Itoa(cfg.MaxSleepInterval),
		"--retries", strconv.Itoa(cfg.ToolRetries),
		"--fragment-retries", strconv.Itoa(cfg.FragmentRetries),
		"--socket-timeout", strconv.Itoa(cfg.SocketTimeout),
		"--output", outputTemplate,
	}
	if playlistScoped {
		args = append(args, "--no-playlist")
	}
	return append(args, url)
}

var _ Runner = (*CLI)(nil)
