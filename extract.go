package wal

import (
	"io"

	"github.com/pkg/errors"
)

// extractedTxRecord is the outcome of searching forwards for the first
// commit entry.
type extractedTxRecord struct {
	txID   int64 // NoTransactionID if no commit was found.
	failed bool  // Reading stopped on damaged log content.
}

// checkpointTail builds the tail information for a log whose latest
// checkpoint is cp.
func (s *TailScanner) checkpointTail(cp CheckpointEntry, st *tailState) (*TailInformation, error) {
	rec, err := s.extractFirstTxIDAfter(cp.Position, st.highestVersion)
	if err != nil {
		return nil, err
	}

	// A transaction that started after the checkpoint, but never
	// committed, still needs recovery to look at it.
	recordsAfter := rec.txID != NoTransactionID ||
		(st.latestStart != nil && st.latestStart.StartPosition.Compare(cp.Position) >= 0)
	corrupted := rec.failed || st.corrupted

	return &TailInformation{
		lastCheckpoint:    &cp,
		latestStart:       st.latestStart,
		firstTxID:         rec.txID,
		oldestVersion:     st.oldestVersionFound,
		currentVersion:    st.highestVersion,
		latestFormat:      st.latestFormat,
		corrupted:         corrupted,
		recordsAfterCheck: corrupted || recordsAfter,
	}, nil
}

// extractFirstTxIDAfter returns the id of the first commit entry found when
// reading forwards from start. When the version holding start has no commit
// entry after it, the following versions are read from their beginning, up
// to and including maxVersion, or until a version is missing.
//
// Damaged log content stops the search, and is reported as a failed record
// rather than an error. Only storage failures are returned as errors.
func (s *TailScanner) extractFirstTxIDAfter(start LogPosition, maxVersion int64) (extractedTxRecord, error) {
	rec := extractedTxRecord{txID: NoTransactionID}

	for pos := start; pos.Version <= maxVersion; pos = StartOf(pos.Version + 1) {
		ch, err := s.files.Open(pos.Version)
		if errors.Is(err, ErrVersionNotFound) {
			return rec, nil
		} else if err != nil {
			return rec, &StorageError{Err: errors.Wrapf(err, "open log version %d", pos.Version)}
		}

		txID, readErr, err := firstCommit(ch, pos)
		if cerr := ch.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "close log version %d", pos.Version)
		}
		if err != nil {
			return rec, &StorageError{Err: err}
		}
		if readErr != nil {
			s.logger.Warn("corrupted log file after checkpoint", "version", pos.Version, "error", readErr)
			s.monitor.CorruptedLogFile(pos.Version, readErr)
			rec.failed = true
			return rec, nil
		}
		if txID != NoTransactionID {
			rec.txID = txID
			return rec, nil
		}
	}
	return rec, nil
}

// firstCommit reads ch from pos, and returns the transaction id of the first
// commit entry. Damaged content is returned as readErr; failures of the
// channel itself as err.
func firstCommit(ch Channel, pos LogPosition) (txID int64, readErr, err error) {
	if _, err := ch.Seek(pos.Offset, io.SeekStart); err != nil {
		return NoTransactionID, nil, errors.Wrapf(err, "seek to %s", pos)
	}

	r := NewEntryReaderPosition(ch, pos)
	for r.Next() {
		if e, ok := r.Entry().(CommitEntry); ok {
			return e.TxID, nil, nil
		}
	}
	if err := r.Error(); err != nil {
		if IsCorruptRecord(err) || IsUnsupportedFormat(err) {
			return NoTransactionID, err, nil
		}
		return NoTransactionID, nil, err
	}
	return NoTransactionID, nil, nil
}
