package wal

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrVersionNotFound is returned by a FileSet when asked to open a log
	// version it does not hold.
	ErrVersionNotFound = errors.New("wal: log version not found")

	ErrTooBig       = errors.New("wal: entry too large for record")
	ErrWriterClosed = errors.New("wal: writer closed")

	// ErrArchiveActive is returned when attempting to archive the log
	// version currently being written to.
	ErrArchiveActive = errors.New("wal: cannot archive the active log version")

	// ErrReadOnly is returned when attempting to modify a file set opened
	// with OpenDirectoryFileSet.
	ErrReadOnly = errors.New("wal: file set is read-only")
)

// UnsupportedFormatError is returned when a log entry was encoded with a
// format version this package does not know how to decode.
type UnsupportedFormatError struct {
	Version FormatVersion
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("wal: unsupported log entry format version %d (newest supported is %d)", e.Version, CurrentFormat)
}

// IsUnsupportedFormat reports whether any error in err's chain is an
// *UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

// CorruptRecordError is returned when the bytes of a log record cannot be
// decoded into an entry.
type CorruptRecordError struct {
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return "wal: corrupt record: " + e.Reason
}

// IsCorruptRecord reports whether any error in err's chain is a
// *CorruptRecordError.
func IsCorruptRecord(err error) bool {
	var target *CorruptRecordError
	return errors.As(err, &target)
}

func corruptf(format string, args ...interface{}) error {
	return &CorruptRecordError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError is returned when the tail of the log could not be computed
// because the underlying storage failed, as opposed to the log content
// being damaged.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "wal: error encountered while parsing transaction logs: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Cause implements the causer interface used by errors.Cause.
func (e *StorageError) Cause() error { return e.Err }
