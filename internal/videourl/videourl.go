// Package videourl derives read-only facts about a video URL: whether it is
// playlist-scoped and which video identifier it targets. Classification never
// fails; malformed input degrades to the zero value so that a bad URL reaches
// yt-dlp instead of aborting the pipeline early.
package videourl

import (
	"net/url"
	"strings"
)

// Classification captures the derived facts for one URL. Computed once,
// never mutated.
type Classification struct {
	IsPlaylist bool
	PlaylistID string
	VideoID    string
}

// Classify inspects the URL's host, path, and query parameters.
func Classify(raw string) Classification {
	var c Classification

	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return c
	}

	query := parsed.Query()
	if list := strings.TrimSpace(query.Get("list")); list != "" {
		c.IsPlaylist = true
		c.PlaylistID = list
	}

	c.VideoID = extractVideoID(parsed)
	return c
}

// VideoID returns just the extracted video identifier, or "" when the URL
// shape is not recognized.
func VideoID(raw string) string {
	return Classify(raw).VideoID
}

func extractVideoID(parsed *url.URL) string {
	host := strings.ToLower(parsed.Hostname())

	if host == "youtu.be" {
		return strings.TrimPrefix(parsed.Path, "/")
	}

	path := parsed.EscapedPath()
	if strings.Contains(path, "/embed/") {
		segments := strings.Split(strings.Trim(path, "/"), "/")
		if len(segments) > 0 {
			return segments[len(segments)-1]
		}
		return ""
	}

	if strings.Contains(path, "/watch") {
		return parsed.Query().Get("v")
	}

	return ""
}
