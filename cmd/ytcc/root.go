package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"ytcc/internal/config"
	"ytcc/internal/history"
	"ytcc/internal/logging"
	"ytcc/internal/preflight"
	"ytcc/internal/transcript"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var configFlag string
	var autoFlag bool
	var verboseFlag bool
	var checkFlag bool

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:     "ytcc <url>",
		Short:   "Extract a video's auto-generated captions as deduplicated text",
		Long:    "ytcc downloads a video's auto-generated English captions with yt-dlp,\nstrips timing and markup, deduplicates repeated lines, prints the result,\nand copies it to the clipboard.",
		Example: "  ytcc https://www.youtube.com/watch?v=VIDEO_ID",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runAcquire(cmd, ctx, args[0], acquireFlags{
				auto:    autoFlag,
				verbose: verboseFlag,
				check:   checkFlag,
			})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().BoolVarP(&autoFlag, "auto", "a", false, "Pick among multiple caption files without prompting")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&checkFlag, "check", false, "Verify network reachability before downloading")

	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

type acquireFlags struct {
	auto    bool
	verbose bool
	check   bool
}

func runAcquire(cmd *cobra.Command, cmdCtx *commandContext, url string, flags acquireFlags) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, flags.verbose)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	// Environment precondition: without yt-dlp there is nothing to drive.
	tool := preflight.CheckTool(cfg.YtDlp.Binary)
	if !tool.Passed {
		return fmt.Errorf("yt-dlp is not installed or not in PATH (%s); see https://github.com/yt-dlp/yt-dlp", tool.Detail)
	}

	if flags.check {
		connectivity := preflight.CheckConnectivity(cmd.Context())
		if !connectivity.Passed {
			return fmt.Errorf("connectivity check failed: %s", connectivity.Detail)
		}
		logger.Debug("connectivity check passed")
	}

	interactive := !flags.auto && isatty.IsTerminal(os.Stdin.Fd())
	opts := []transcript.Option{
		transcript.WithReporter(transcript.NewLogReporter(logger)),
		transcript.WithAuto(!interactive),
	}
	if interactive {
		opts = append(opts, transcript.WithChooser(newTerminalChooser(os.Stdin, cmd.ErrOrStderr())))
	}

	fetcher := transcript.New(cfg, opts...)
	outcome, acquireErr := fetcher.Acquire(cmd.Context(), url)

	if cfg.History.Enabled {
		recordRun(cmd.Context(), cfg, logger, url, outcome, acquireErr)
	}

	if acquireErr != nil {
		return fmt.Errorf("transcript acquisition failed: %w", acquireErr)
	}

	fmt.Fprintln(cmd.OutOrStdout(), outcome.Transcript)

	if clipErr := clipboard.WriteAll(outcome.Transcript); clipErr != nil {
		logger.Warn("could not copy transcript to clipboard", "error", clipErr)
	} else {
		logger.Info("transcript copied to clipboard", "run_id", outcome.RunID)
	}
	return nil
}

// recordRun stores outcome metadata; history failures are warnings, never a
// reason to fail a run that produced a transcript.
func recordRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, url string, outcome transcript.Outcome, acquireErr error) {
	store, err := history.Open(cfg)
	if err != nil {
		logger.Warn("could not open history store", "error", err)
		return
	}
	defer store.Close()

	run := history.Run{
		ID:           outcome.RunID,
		URL:          url,
		VideoID:      outcome.VideoID,
		Outcome:      history.OutcomeSuccess,
		Attempts:     outcome.Attempts,
		UsedFallback: outcome.UsedFallback,
		Elapsed:      outcome.Elapsed,
		CreatedAt:    time.Now().UTC(),
	}
	if acquireErr != nil {
		run.Outcome = history.OutcomeFailure
		run.Detail = acquireErr.Error()
	}
	if err := store.Record(ctx, run); err != nil {
		logger.Warn("could not record run history", "error", err)
	}
}
