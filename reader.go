package wal

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// EntryReader decodes log entries sequentially from a single log file.
// It does not advance into other log versions.
//
// It is not safe to call an EntryReader from multiple goroutines.
//
// Example:
//
//	r := NewEntryReader(ch, version)
//
//	for r.Next() {
//		fmt.Printf("%s %+v\n", r.Position(), r.Entry())
//	}
//
//	if err := r.Error(); err != nil {
//		log.Println("error:", err)
//	}
type EntryReader struct {
	r     *bufio.Reader
	pos   LogPosition // Position of the next unread record.
	cur   LogPosition // Position of the current entry.
	entry Entry
	err   error
	done  bool
}

// NewEntryReader returns an *EntryReader that reads entries from r, which is
// expected to be positioned at the start of log file version.
func NewEntryReader(r io.Reader, version int64) *EntryReader {
	return NewEntryReaderPosition(r, StartOf(version))
}

// NewEntryReaderPosition returns an *EntryReader that reads entries from r,
// which is expected to already be positioned at pos.
func NewEntryReaderPosition(r io.Reader, pos LogPosition) *EntryReader {
	return &EntryReader{
		r:   bufio.NewReader(r),
		pos: pos,
	}
}

// Next reports whether or not another entry has been decoded, and can be
// retrieved with the Entry method.
//
// A false return value means the end of the log file has been reached, or
// that an error occurred; Error tells the two apart.
func (r *EntryReader) Next() bool {
	if r.done || r.err != nil {
		return false
	}

	e, n, err := readRecord(r.r)
	if err == io.EOF {
		r.done = true
		return false
	} else if err != nil {
		r.err = err
		return false
	}

	r.entry = e
	r.cur = r.pos
	r.pos.Offset += int64(n)
	return true
}

// Entry returns the current entry. Successive calls to Entry, without
// calling Next, will return the same entry.
func (r *EntryReader) Entry() Entry {
	return r.entry
}

// Position returns the position the current entry was read from.
func (r *EntryReader) Position() LogPosition {
	return r.cur
}

// NextPosition returns the position just after the last entry that was
// successfully decoded.
func (r *EntryReader) NextPosition() LogPosition {
	return r.pos
}

// Error returns the error that stopped the *EntryReader, if any.
//
// The cause of the returned error can be inspected with IsCorruptRecord and
// IsUnsupportedFormat. Any other error came from the underlying reader.
func (r *EntryReader) Error() error {
	if r.err != nil {
		return errors.Wrapf(r.err, "read entry at %s", r.pos)
	}
	return nil
}
