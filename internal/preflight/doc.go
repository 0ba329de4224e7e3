// Package preflight verifies the environment before an acquisition runs:
// the yt-dlp binary, working-directory permissions, and (on request)
// network reachability of the caption host.
package preflight
