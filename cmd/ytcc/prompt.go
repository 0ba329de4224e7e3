package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"ytcc/internal/selector"
)

// terminalChooser prompts on the terminal for a caption-file choice when
// several candidates survive filtering. An empty answer defers to the
// shortest-name rule; EOF, a read error, or context cancellation (an
// interrupt arriving mid-prompt) cancels the run.
type terminalChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalChooser(in io.Reader, out io.Writer) *terminalChooser {
	return &terminalChooser{in: bufio.NewReader(in), out: out}
}

type readResult struct {
	line string
	err  error
}

func (c *terminalChooser) Choose(ctx context.Context, candidates []string) (int, bool, error) {
	fmt.Fprintln(c.out, "Multiple caption files found:")
	for i, candidate := range candidates {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, filepath.Base(candidate))
	}

	// The tty read cannot be unblocked once started, so it runs in a
	// goroutine and the select below observes cancellation independently.
	// After cancellation any in-flight read result is discarded; the process
	// is exiting at that point.
	reads := make(chan readResult, 1)
	go func() {
		for {
			line, err := c.in.ReadString('\n')
			reads <- readResult{line: line, err: err}
			if err != nil {
				return
			}
		}
	}()

	for {
		fmt.Fprintf(c.out, "Select a file [1-%d, empty for shortest]: ", len(candidates))

		var result readResult
		select {
		case <-ctx.Done():
			return 0, false, selector.ErrCancelled
		case result = <-reads:
		}
		if result.err != nil && result.line == "" {
			return 0, false, selector.ErrCancelled
		}

		answer := strings.TrimSpace(result.line)
		if answer == "" {
			return 0, false, nil
		}
		choice, convErr := strconv.Atoi(answer)
		if convErr != nil || choice < 1 || choice > len(candidates) {
			fmt.Fprintf(c.out, "Invalid choice %q\n", answer)
			if result.err != nil {
				return 0, false, selector.ErrCancelled
			}
			continue
		}
		return choice - 1, true, nil
	}
}
