package transcript

import (
	"errors"
	"strings"
)

// Definite failures. Retryable conditions (timeout, generic process error,
// rate limiting with attempts remaining) never surface individually; only
// these cross the package boundary.
var (
	// ErrNoCaptions means yt-dlp exited cleanly but produced no caption
	// files: the video has no auto-generated English subtitles.
	ErrNoCaptions = errors.New("no caption files produced")
	// ErrEmptyOutput means the selected caption file had no content.
	ErrEmptyOutput = errors.New("caption file was empty")
	// ErrParseYieldedNothing means parsing produced no spoken text.
	ErrParseYieldedNothing = errors.New("no text extracted from captions")
	// ErrBusy means another acquisition holds the working-directory lock.
	ErrBusy = errors.New("another ytcc run is already active")
)

// rateLimitSignatures are matched case-insensitively against yt-dlp's
// captured stderr. The list mirrors the upstream error text and is not
// exhaustive; yt-dlp may change its wording.
var rateLimitSignatures = []string{"429", "too many requests"}

func isRateLimited(stderr string) bool {
	lowered := strings.ToLower(stderr)
	for _, signature := range rateLimitSignatures {
		if strings.Contains(lowered, signature) {
			return true
		}
	}
	return false
}
