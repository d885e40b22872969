package wal

import "fmt"

// TailInformation is a snapshot of the tail of the transaction log, taken
// when a TailScanner first scanned it. It is never modified after creation.
type TailInformation struct {
	lastCheckpoint    *CheckpointEntry
	latestStart       *StartEntry
	firstTxID         int64
	oldestVersion     int64
	currentVersion    int64
	latestFormat      FormatVersion
	corrupted         bool
	recordsAfterCheck bool
}

// emptyTail describes a log without any files.
func emptyTail() *TailInformation {
	return &TailInformation{
		firstTxID:      NoTransactionID,
		oldestVersion:  NoVersion,
		currentVersion: NoVersion,
		latestFormat:   NoFormat,
	}
}

// LastCheckpoint returns the latest checkpoint found in the log, and whether
// there was one at all.
func (t *TailInformation) LastCheckpoint() (CheckpointEntry, bool) {
	if t.lastCheckpoint == nil {
		return CheckpointEntry{}, false
	}
	return *t.lastCheckpoint, true
}

// FirstTxIDAfterLastCheckpoint returns the id of the first transaction
// committed after the last checkpoint.
//
// When the log holds no checkpoint, it is the id of the first commit entry
// found in the newest log version holding one. NoTransactionID is returned
// if there is no such commit.
func (t *TailInformation) FirstTxIDAfterLastCheckpoint() int64 {
	return t.firstTxID
}

// OldestLogVersionFound returns the oldest log version that was opened while
// scanning, or NoVersion.
func (t *TailInformation) OldestLogVersionFound() int64 {
	return t.oldestVersion
}

// CurrentLogVersion returns the highest log version present when the log
// was scanned, or NoVersion.
func (t *TailInformation) CurrentLogVersion() int64 {
	return t.currentVersion
}

// LatestFormatVersion returns the format version of the latest entry read
// from the newest log version holding any transaction, or NoFormat.
func (t *TailInformation) LatestFormatVersion() FormatVersion {
	return t.latestFormat
}

// LatestStart returns the latest transaction start entry, found in the
// newest log version holding one, and whether there was one at all.
func (t *TailInformation) LatestStart() (StartEntry, bool) {
	if t.latestStart == nil {
		return StartEntry{}, false
	}
	return *t.latestStart, true
}

// Corrupted reports whether any part of the log could not be read.
func (t *TailInformation) Corrupted() bool {
	return t.corrupted
}

// CommitsAfterLastCheckpoint reports whether recovery has to replay the log:
// records were found after the last checkpoint, or the log could not be
// read in full.
func (t *TailInformation) CommitsAfterLastCheckpoint() bool {
	return t.recordsAfterCheck
}

func (t *TailInformation) String() string {
	cp := "none"
	if t.lastCheckpoint != nil {
		cp = t.lastCheckpoint.Position.String()
	}
	return fmt.Sprintf("checkpoint=%s first-tx=%d versions=%d..%d format=%s corrupted=%t recovery=%t",
		cp, t.firstTxID, t.oldestVersion, t.currentVersion, t.latestFormat, t.corrupted, t.recordsAfterCheck)
}
