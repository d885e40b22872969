package wal

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Option is a functional configuration type that can be used to configure
// the behaviour of a *Writer.
type Option func(*Writer) error

// RotateSize makes a Writer move on to the next log version once the active
// one holds at least n bytes. Zero disables automatic rotation.
func RotateSize(n int64) Option {
	return func(w *Writer) error {
		if n < 0 {
			return errors.Errorf("negative rotate size %d", n)
		}
		w.rotateSize = n
		return nil
	}
}

// BufferSize sets how many encoded bytes a Writer buffers before writing
// them out.
//
// Setting n too low may cause excessive amounts of I/O, thus slowing
// everything down.
func BufferSize(n int) Option {
	return func(w *Writer) error {
		if n <= 0 {
			return errors.Errorf("invalid buffer size %d", n)
		}
		w.bufSize = n
		return nil
	}
}

// ScanOption is a functional configuration type that can be used to
// configure the behaviour of a *TailScanner.
type ScanOption func(*TailScanner) error

// Force controls what happens when a log entry with an unsupported format
// version is found. By default the tail scan fails. With force enabled, the
// log file is treated as corrupted, the event is reported to the Monitor, and
// the scan carries on into older log versions.
//
// Forcing past unrecognised entries can lose part of the transaction log,
// irretrievably.
func Force(enabled bool) ScanOption {
	return func(s *TailScanner) error {
		s.force = enabled
		return nil
	}
}

// WithMonitor sets the Monitor notified of corrupted log files and forced
// unsupported versions.
func WithMonitor(m Monitor) ScanOption {
	return func(s *TailScanner) error {
		if m == nil {
			return errors.New("nil monitor")
		}
		s.monitor = m
		return nil
	}
}

// WithLogger sets the logger a TailScanner writes to.
func WithLogger(l *slog.Logger) ScanOption {
	return func(s *TailScanner) error {
		if l == nil {
			return errors.New("nil logger")
		}
		s.logger = l
		return nil
	}
}
