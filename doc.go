// Package wal locates the recovery point of a transaction log at startup.
//
// A transaction log is a sequence of log entries (transaction starts,
// commits, checkpoints and commands), written to versioned files. When a
// file grows too large, the log is rotated, and writing carries on in the
// next version. After an unclean shutdown the newest file may end in the
// middle of a record, and any file may hold damaged bytes.
//
// A TailScanner reads the log backwards, one version at a time, starting
// from the highest version, until it finds a checkpoint. From the
// checkpoint it reads forwards to find the first transaction committed after
// it. The result, a TailInformation, tells recovery where the last
// checkpoint is, and whether there is anything after it to replay:
//
//	files, err := wal.NewDirectoryFileSet("/var/lib/db/txlogs")
//	if err != nil {
//		...
//	}
//	scanner, err := wal.NewTailScanner(files)
//	if err != nil {
//		...
//	}
//	tail, err := scanner.TailInformation()
//	if err != nil {
//		...
//	}
//	if tail.CommitsAfterLastCheckpoint() {
//		// Replay from the checkpoint.
//	}
//
// Damaged log content never makes the scan fail: it is reported to a Monitor,
// and it forces the "replay needed" flag on. Only storage failures, and
// entries encoded with an unsupported format version, are returned as
// errors; the latter can be skipped with the Force option.
//
// Log files are held by a FileSet. This package provides a FileSet
// that keeps log files in a local directory, DirectoryFileSet, optionally
// compressing rotated versions, and one that keeps them in memory,
// MemoryFileSet. A Writer appends entries to either one.
//
// For monitoring adapters (slog, Prometheus) and periodic flushing, see the
// "wal/walutil" package.
package wal
