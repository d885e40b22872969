// Package walutil provides helpers for the wal package: Monitor
// implementations backed by slog and Prometheus, and periodic flushing of a
// wal.Writer.
package walutil
