package wal

import "strconv"

// FormatVersion is the on-disk encoding version carried by every log entry.
// It is unrelated to the version number of the log file holding the entry.
type FormatVersion uint8

const (
	// NoFormat is reported when no entry has been read.
	NoFormat FormatVersion = 0

	// FormatV1 is the original entry encoding.
	FormatV1 FormatVersion = 1

	// FormatV2 adds a timestamp to commit entries, and the last committed
	// transaction id to start entries.
	FormatV2 FormatVersion = 2

	// CurrentFormat is the newest format version this package can decode,
	// and the one it encodes with.
	CurrentFormat = FormatV2
)

func (v FormatVersion) String() string {
	if v == NoFormat {
		return "none"
	}
	return "v" + strconv.Itoa(int(v))
}

// supported reports whether entries encoded with v can be decoded.
func (v FormatVersion) supported() bool {
	return v >= FormatV1 && v <= CurrentFormat
}

// EntryKind is the type tag of an encoded log entry.
type EntryKind uint8

const (
	KindStart      EntryKind = 1
	KindCommit     EntryKind = 2
	KindCheckpoint EntryKind = 3
	KindCommand    EntryKind = 4
)

// Entry is a single decoded log entry. The set of entry types is closed:
// it is one of StartEntry, CommitEntry, CheckpointEntry or OtherEntry.
type Entry interface {
	// FormatVersion returns the format version the entry was encoded with.
	FormatVersion() FormatVersion

	isEntry()
}

// StartEntry marks the beginning of a transaction's records.
type StartEntry struct {
	Format FormatVersion

	// StartPosition is the position of the start entry itself.
	StartPosition LogPosition

	TimeWritten int64 // Unix milliseconds.

	// LastCommittedTxID is the id of the last transaction committed when
	// this one started. Only encoded from FormatV2 onwards; NoTransactionID
	// otherwise.
	LastCommittedTxID int64
}

// CommitEntry marks the successful completion of a transaction.
type CommitEntry struct {
	Format      FormatVersion
	TxID        int64
	TimeWritten int64 // Unix milliseconds; zero for FormatV1.
}

// CheckpointEntry records a log position, such that everything before it is
// durably reflected in the store.
type CheckpointEntry struct {
	Format   FormatVersion
	Position LogPosition
}

// OtherEntry holds command entries, and any entry kind the tail scan does
// not need to interpret.
type OtherEntry struct {
	Format FormatVersion
	Kind   EntryKind
	Data   []byte
}

func (e StartEntry) FormatVersion() FormatVersion      { return e.Format }
func (e CommitEntry) FormatVersion() FormatVersion     { return e.Format }
func (e CheckpointEntry) FormatVersion() FormatVersion { return e.Format }
func (e OtherEntry) FormatVersion() FormatVersion      { return e.Format }

func (StartEntry) isEntry()      {}
func (CommitEntry) isEntry()     {}
func (CheckpointEntry) isEntry() {}
func (OtherEntry) isEntry()      {}
