// Package selector picks one subtitle file out of the candidate set a
// yt-dlp invocation produced. The decision rules live here; interactive
// input comes through the Chooser interface so callers can supply a terminal
// prompt, a scripted value, or nothing at all.
package selector

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"ytcc/internal/videourl"
)

// ErrCancelled reports that the user aborted an interactive selection. The
// caller treats it as "no selection", not as a crash.
var ErrCancelled = errors.New("subtitle selection cancelled")

// ErrNoCandidates reports an empty candidate set.
var ErrNoCandidates = errors.New("no subtitle candidates")

// Chooser supplies an interactive choice among candidates. Choose returns
// the chosen index and true, or false when the user declined to pick (empty
// input) and the default rule should apply. A cancelled prompt, including
// context cancellation while waiting for input, returns ErrCancelled.
type Chooser interface {
	Choose(ctx context.Context, candidates []string) (int, bool, error)
}

// Options controls selection behaviour.
type Options struct {
	// Auto skips the interactive prompt and applies the deterministic
	// shortest-filename rule.
	Auto bool
	// Chooser handles the prompt when Auto is false. A nil Chooser behaves
	// like Auto.
	Chooser Chooser
}

// Select resolves exactly one path from candidates for the given URL.
func Select(ctx context.Context, candidates []string, url string, opts Options) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	if match, ok := uniqueIDMatch(candidates, url); ok {
		return match, nil
	}

	if opts.Auto || opts.Chooser == nil {
		return shortest(candidates), nil
	}

	index, ok, err := opts.Chooser.Choose(ctx, candidates)
	if err != nil {
		return "", err
	}
	if !ok {
		return shortest(candidates), nil
	}
	if index < 0 || index >= len(candidates) {
		return "", ErrCancelled
	}
	return candidates[index], nil
}

// uniqueIDMatch returns the candidate whose filename contains the URL's
// video id, but only when exactly one candidate matches.
func uniqueIDMatch(candidates []string, url string) (string, bool) {
	id := videourl.VideoID(url)
	if id == "" {
		return "", false
	}
	var match string
	count := 0
	for _, candidate := range candidates {
		if strings.Contains(filepath.Base(candidate), id) {
			match = candidate
			count++
		}
	}
	return match, count == 1
}

// shortest picks the candidate with the shortest base name, breaking ties
// by lexical order, so repeated calls over the same set agree.
func shortest(candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	best := sorted[0]
	for _, candidate := range sorted[1:] {
		if len(filepath.Base(candidate)) < len(filepath.Base(best)) {
			best = candidate
		}
	}
	return best
}
