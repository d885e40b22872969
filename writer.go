package wal

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// NewWriter creates a Writer that appends entries to the highest log version
// held by files, or to InitialVersion if files holds none.
func NewWriter(files WritableFileSet, options ...Option) (*Writer, error) {
	if files == nil {
		return nil, errors.New("nil file set")
	}
	w := &Writer{
		files:   files,
		bufSize: DefaultBufferSize,
	}
	for _, option := range options {
		if err := option(w); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}

	version, err := files.HighestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "highest version")
	}
	if version == NoVersion {
		version = InitialVersion
	}
	if err := w.open(version); err != nil {
		return nil, err
	}
	w.seg = newSegment(w.bufSize)
	return w, nil
}

// Writer appends log entries to a WritableFileSet, rotating to a new log
// version when asked to, or when the active version reaches the configured
// rotation size.
//
// Entries are buffered in memory; they are only guaranteed to be visible to
// readers after Flush, Rotate or Close return.
type Writer struct {
	files      WritableFileSet
	rotateSize int64
	bufSize    int

	mu     sync.Mutex
	app    Appender    // The currently-active log file.
	seg    *segment    // Records not yet written to app.
	pos    LogPosition // Position the next entry will be written at.
	closed bool
}

func (w *Writer) open(version int64) error {
	app, size, err := w.files.Append(version)
	if err != nil {
		return errors.Wrapf(err, "open log version %d", version)
	}
	w.app = app
	w.pos = LogPosition{Version: version, Offset: size}
	return nil
}

// Position returns the position the next entry will be written at.
func (w *Writer) Position() LogPosition {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

// Append adds e to the log, and returns the position it was written at.
//
// Any attempt to append to a Writer, after its Close method has been called,
// will yield ErrWriterClosed.
func (w *Writer) Append(e Entry) (LogPosition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.append(e)
}

func (w *Writer) append(e Entry) (LogPosition, error) {
	if w.closed {
		return LogPosition{}, ErrWriterClosed
	}

	pos := w.pos
	n, err := w.seg.append(e)
	if err != nil {
		return LogPosition{}, errors.Wrap(err, "append")
	}
	w.pos.Offset += int64(n)

	if w.seg.Len() >= w.bufSize {
		if err := w.flush(); err != nil {
			return pos, errors.Wrap(err, "flush")
		}
	}
	if w.rotateSize > 0 && w.pos.Offset >= w.rotateSize {
		if err := w.rotate(); err != nil {
			return pos, errors.Wrap(err, "rotate")
		}
	}
	return pos, nil
}

// Start appends a StartEntry, recording its own position, and returns that
// position.
func (w *Writer) Start(lastCommittedTxID int64) (LogPosition, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.append(StartEntry{
		Format:            CurrentFormat,
		StartPosition:     w.pos,
		TimeWritten:       time.Now().UnixMilli(),
		LastCommittedTxID: lastCommittedTxID,
	})
}

// Commit appends a CommitEntry for transaction txID.
func (w *Writer) Commit(txID int64) (LogPosition, error) {
	return w.Append(CommitEntry{
		Format:      CurrentFormat,
		TxID:        txID,
		TimeWritten: time.Now().UnixMilli(),
	})
}

// Checkpoint appends a CheckpointEntry pointing at pos.
func (w *Writer) Checkpoint(pos LogPosition) (LogPosition, error) {
	return w.Append(CheckpointEntry{Format: CurrentFormat, Position: pos})
}

// Flush writes all buffered entries to the active log file, and syncs it to
// stable storage.
//
// Attempting to call Flush after Close will return ErrWriterClosed.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}

// flush dumps the buffered records to the active log file.
func (w *Writer) flush() error {
	if w.seg.Len() == 0 {
		return nil
	}
	if _, err := w.seg.WriteTo(w.app); err != nil {
		return errors.Wrap(err, "write segment")
	}
	return errors.Wrap(w.app.Sync(), "sync")
}

// Rotate flushes and closes the active log file, and starts writing to the
// next log version.
func (w *Writer) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.rotate(); err != nil {
		return errors.Wrap(err, "rotate")
	}
	return nil
}

func (w *Writer) rotate() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.app.Close(); err != nil {
		return errors.Wrap(err, "close log file")
	}
	return w.open(w.pos.Version + 1)
}

// Close flushes any buffered entries, and closes the active log file.
//
// Close implements the io.Closer interface.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flush(); err != nil {
		w.app.Close()
		return errors.Wrap(err, "flush")
	}
	if err := w.app.Close(); err != nil {
		return errors.Wrap(err, "close log file")
	}
	return nil
}
