package wal

import "io"

// FileSet defines the interface of a type that holds the versioned files of
// a transaction log.
//
// Versions are contiguous, starting at InitialVersion: a missing version
// means no older (or newer) log exists beyond it.
type FileSet interface {
	VersionLister
	ChannelOpener
}

// VersionLister defines the interface of a type that knows which log
// versions are present.
type VersionLister interface {
	// HighestVersion returns the highest log version present, or
	// NoVersion if there are no log files at all.
	HighestVersion() (int64, error)
}

// ChannelOpener defines the interface of a type that can open log files for
// reading.
type ChannelOpener interface {
	// Open returns a Channel positioned at the first byte of the given
	// log version.
	//
	// Should the version not exist, the returned error will be
	// ErrVersionNotFound (possibly wrapped).
	Open(version int64) (Channel, error)
}

// Channel is a readable, seekable handle on a single log file.
// The caller owns the channel, and must close it.
type Channel interface {
	io.Reader
	io.Seeker
	io.Closer
}

// WritableFileSet defines the interface of a FileSet that log entries can
// be appended to.
type WritableFileSet interface {
	FileSet

	// Append opens the given log version for appending, creating it if
	// it does not yet exist, and returns its current size in bytes.
	Append(version int64) (Appender, int64, error)
}

// Appender is a handle on a log file opened for appending.
type Appender interface {
	io.Writer
	io.Closer

	// Sync commits the written data to stable storage.
	Sync() error
}
