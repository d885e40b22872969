package wal

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultBufferSize is the default number of encoded bytes a Writer holds in
// memory before writing them to the active log file (64KB).
const DefaultBufferSize = 65536

// segment is the in-memory buffer of framed records a Writer appends to.
// When a segment is written out, it is reset and reused.
//
// A segment is not safe for concurrent use; the Writer guards it.
type segment struct {
	buf     []byte
	entries int
}

func newSegment(size int) *segment {
	return &segment{buf: make([]byte, 0, size)}
}

// append frames e, and adds the record to the segment. It returns the
// number of bytes the record takes up on disk.
func (s *segment) append(e Entry) (int, error) {
	n := len(s.buf)
	buf, err := AppendRecord(s.buf, e)
	if err != nil {
		return 0, err
	}
	s.buf = buf
	s.entries++
	return len(s.buf) - n, nil
}

// Len returns the number of buffered bytes.
func (s *segment) Len() int {
	return len(s.buf)
}

// Entries returns the number of buffered entries.
func (s *segment) Entries() int {
	return s.entries
}

// WriteTo implements the io.WriterTo interface, and is used to persist the
// buffered records to a log file.
//
// Bytes that were written are dropped from the segment, even when the write
// fails part way, so a retry carries on where the failed write stopped.
func (s *segment) WriteTo(w io.Writer) (int64, error) {
	if len(s.buf) == 0 {
		return 0, nil
	}
	n, err := w.Write(s.buf)
	if n == len(s.buf) && err == nil {
		s.reset()
		return int64(n), nil
	}
	if n > 0 {
		s.buf = s.buf[:copy(s.buf, s.buf[n:])]
	}
	if err == nil {
		err = io.ErrShortWrite
	}
	return int64(n), errors.Wrap(err, "write records")
}

func (s *segment) reset() {
	s.buf = s.buf[:0]
	s.entries = 0
}
