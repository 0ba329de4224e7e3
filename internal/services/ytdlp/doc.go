// Package ytdlp wraps the yt-dlp command-line tool as a black-box
// subprocess. It owns argument construction and bounded execution; the
// acquisition logic that decides when and how often to invoke it lives in
// internal/transcript.
package ytdlp
