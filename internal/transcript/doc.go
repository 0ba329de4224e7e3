// Package transcript owns the end-to-end acquisition state machine: bounded
// retries with exponential backoff and jitter around yt-dlp invocations, a
// single degraded fallback after rate-limit exhaustion, candidate file
// selection and parsing, and unconditional cleanup of produced files.
package transcript
