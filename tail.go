package wal

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
)

// TailScanner collects information about the latest entries in a
// transaction log: the last checkpoint, the first transaction committed
// after it, and whether recovery has anything to replay.
//
// The only way to collect this information is to read the log, which is
// costly, so it is done once and the result is kept for others to consume.
// A single log file is read forwards; when it does not hold what is being
// looked for, older log versions are searched, newest first.
//
// A TailScanner is safe for concurrent use.
type TailScanner struct {
	files   FileSet
	force   bool
	monitor Monitor
	logger  *slog.Logger

	once sync.Once
	tail *TailInformation
	err  error
}

// NewTailScanner returns a *TailScanner for the log held by files.
func NewTailScanner(files FileSet, options ...ScanOption) (*TailScanner, error) {
	if files == nil {
		return nil, errors.New("nil file set")
	}
	s := &TailScanner{
		files:   files,
		monitor: NopMonitor{},
		logger:  slog.Default().WithGroup("wal"),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, errors.Wrap(err, "applying option")
		}
	}
	return s, nil
}

// TailInformation returns a snapshot of the tail of the transaction log.
//
// The log is scanned on the first call only; every call, including
// concurrent first calls, returns the same *TailInformation and error.
//
// Damaged log content does not cause an error: it is reported to the Monitor
// and reflected in the result. A *StorageError is returned when the log could
// not be read at all. An entry with an unsupported format version is also
// an error, unless the scanner was created with Force(true).
//
// This is only intended to be used during startup.
func (s *TailScanner) TailInformation() (*TailInformation, error) {
	s.once.Do(func() {
		s.tail, s.err = s.findLogTail()
		if s.err != nil {
			s.logger.Error("cannot compute log tail", "error", s.err)
			return
		}
		s.logger.Info("log tail computed", "tail", s.tail.String())
	})
	return s.tail, s.err
}

// tailState accumulates what the backward scan has learned so far.
type tailState struct {
	highestVersion int64

	// searchVersion is the log version in which the latest start entry is
	// still being looked for. It follows the scan downwards for as long as
	// no start entry has been found, as rotation can leave the newest
	// file(s) without one.
	searchVersion int64

	latestStart        *StartEntry
	oldestCommitTxID   int64 // First commit entry seen anywhere in the scan.
	oldestVersionFound int64
	latestFormat       FormatVersion
	startSeen          bool
	corrupted          bool
}

func (s *TailScanner) findLogTail() (*TailInformation, error) {
	highest, err := s.files.HighestVersion()
	if err != nil {
		return nil, &StorageError{Err: errors.Wrap(err, "highest log version")}
	}

	st := tailState{
		highestVersion:     highest,
		searchVersion:      highest,
		oldestCommitTxID:   NoTransactionID,
		oldestVersionFound: NoVersion,
		latestFormat:       NoFormat,
	}

	for version := highest; version >= InitialVersion; version-- {
		ch, err := s.files.Open(version)
		if errors.Is(err, ErrVersionNotFound) {
			// Versions are contiguous, so nothing older exists.
			break
		} else if err != nil {
			return nil, &StorageError{Err: errors.Wrapf(err, "open log version %d", version)}
		}
		st.oldestVersionFound = version

		checkpoint, readErr := s.scanVersion(ch, version, &st)
		if err := ch.Close(); err != nil {
			return nil, &StorageError{Err: errors.Wrapf(err, "close log version %d", version)}
		}
		if readErr != nil {
			if err := s.handleReadError(version, readErr, &st); err != nil {
				return nil, err
			}
		}
		s.logger.Debug("scanned log version",
			"version", version,
			"checkpoint", checkpoint != nil,
			"corrupted", readErr != nil)

		if checkpoint != nil {
			return s.checkpointTail(*checkpoint, &st)
		}

		// No transaction started in this version; keep looking in the
		// next older one.
		if st.latestStart == nil {
			st.searchVersion--
		}
	}

	t := emptyTail()
	t.latestStart = st.latestStart
	t.firstTxID = st.oldestCommitTxID
	t.oldestVersion = st.oldestVersionFound
	t.currentVersion = st.highestVersion
	t.latestFormat = st.latestFormat
	t.corrupted = st.corrupted
	t.recordsAfterCheck = st.corrupted || st.startSeen
	return t, nil
}

// scanVersion reads every entry of a single log version, updating st, and
// returns the last checkpoint found in it. Reading stops at the first
// error, which is returned; entries read before it are kept.
func (s *TailScanner) scanVersion(ch Channel, version int64, st *tailState) (*CheckpointEntry, error) {
	var checkpoint *CheckpointEntry
	r := NewEntryReader(ch, version)
	for r.Next() {
		entry := r.Entry()
		switch e := entry.(type) {
		case CheckpointEntry:
			checkpoint = &e
		case CommitEntry:
			if st.oldestCommitTxID == NoTransactionID {
				st.oldestCommitTxID = e.TxID
			}
		case StartEntry:
			if version == st.searchVersion {
				st.latestStart = &e
			}
			st.startSeen = true
		case OtherEntry:
		}

		if version == st.searchVersion || st.latestFormat == NoFormat {
			st.latestFormat = entry.FormatVersion()
		}
	}
	return checkpoint, r.Error()
}

// handleReadError decides whether an error that stopped the reading of a log
// version is fatal. Non-fatal errors mark the log as corrupted.
func (s *TailScanner) handleReadError(version int64, readErr error, st *tailState) error {
	switch {
	case IsUnsupportedFormat(readErr):
		if !s.force {
			return errors.Wrapf(readErr, "unsupported transaction log version found in log version %d; "+
				"to process the log anyway and skip unrecognised entries, enable the force option. "+
				"By doing so you can lose part of your transaction log, irretrievably", version)
		}
		s.monitor.Forced(readErr)
	case IsCorruptRecord(readErr):
	default:
		return &StorageError{Err: errors.Wrapf(readErr, "read log version %d", version)}
	}

	s.logger.Warn("corrupted log file", "version", version, "error", readErr)
	st.corrupted = true
	s.monitor.CorruptedLogFile(version, readErr)
	return nil
}
