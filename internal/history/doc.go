// Package history records per-run acquisition outcomes in a local SQLite
// database: URL, video id, result, attempt count, and timing. Transcript
// text is deliberately never stored and the history is never consulted
// before an acquisition.
package history
