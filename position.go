package wal

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// InitialVersion is the version number of the first log file ever
	// written. Log versions are contiguous from here upwards.
	InitialVersion int64 = 0

	// NoVersion is reported in place of a log version, when no log file
	// could be found.
	NoVersion int64 = -1

	// NoTransactionID is reported in place of a transaction id, when no
	// commit entry could be found.
	NoTransactionID int64 = -1
)

// LogPosition identifies an exact read cursor within the transaction log:
// a log file version, and a byte offset within that file.
//
// Positions are ordered by version first, then by offset.
type LogPosition struct {
	Version int64
	Offset  int64
}

// StartOf returns the position of the first byte in the given log version.
func StartOf(version int64) LogPosition {
	return LogPosition{Version: version}
}

// ParsePosition returns a position parsed from s, which is expected to be in
// the format produced by LogPosition.String.
func ParsePosition(s string) (LogPosition, error) {
	sep := strings.Index(s, ":")
	if sep == -1 {
		return LogPosition{}, errors.Errorf("no separator in position: %q", s)
	}
	version, err := strconv.ParseInt(s[:sep], 10, 64)
	if err != nil {
		return LogPosition{}, errors.Wrap(err, "parse version")
	}
	offset, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil {
		return LogPosition{}, errors.Wrap(err, "parse offset")
	}
	if version < 0 || offset < 0 {
		return LogPosition{}, errors.Errorf("negative position: %q", s)
	}
	return LogPosition{Version: version, Offset: offset}, nil
}

// Compare returns -1 if p is before b, 0 if they are equal, and 1 if p is
// after b.
func (p LogPosition) Compare(b LogPosition) int {
	switch {
	case p.Version < b.Version:
		return -1
	case p.Version > b.Version:
		return 1
	case p.Offset < b.Offset:
		return -1
	case p.Offset > b.Offset:
		return 1
	}
	return 0
}

// Before reports whether the position p is older than b.
func (p LogPosition) Before(b LogPosition) bool {
	return p.Compare(b) < 0
}

// After reports whether the position p is newer than b.
func (p LogPosition) After(b LogPosition) bool {
	return p.Compare(b) > 0
}

// Equal reports whether the position p is the same as b.
func (p LogPosition) Equal(b LogPosition) bool {
	return p == b
}

// String implements the fmt.Stringer interface, and provides a means for
// representing a position that can be later parsed with ParsePosition.
func (p LogPosition) String() string {
	return strconv.FormatInt(p.Version, 10) + ":" + strconv.FormatInt(p.Offset, 10)
}
