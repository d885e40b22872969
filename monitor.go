package wal

// Monitor receives notifications about problems found in the transaction
// log while computing its tail. Notifications are side-effects only: the
// outcome of the scan does not depend on them.
type Monitor interface {
	// CorruptedLogFile is called when log version could not be fully
	// read, with the error that stopped it.
	CorruptedLogFile(version int64, err error)

	// Forced is called when an unsupported format version was skipped,
	// because the scan was configured with Force(true).
	Forced(err error)
}

// NopMonitor is a Monitor that ignores all notifications.
type NopMonitor struct{}

func (NopMonitor) CorruptedLogFile(int64, error) {}
func (NopMonitor) Forced(error)                  {}

// MonitorFuncs adapts plain functions to the Monitor interface.
// Nil fields are ignored.
type MonitorFuncs struct {
	OnCorruptedLogFile func(version int64, err error)
	OnForced           func(err error)
}

func (m MonitorFuncs) CorruptedLogFile(version int64, err error) {
	if m.OnCorruptedLogFile != nil {
		m.OnCorruptedLogFile(version, err)
	}
}

func (m MonitorFuncs) Forced(err error) {
	if m.OnForced != nil {
		m.OnForced(err)
	}
}
