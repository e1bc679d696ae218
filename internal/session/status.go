package session

// Status is the single process-wide flag for the session's network activity.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSaving     Status = "saving"
	StatusDeleting   Status = "deleting"
	StatusDeleted    Status = "deleted"
	StatusFinalising Status = "finalising"
	StatusFinalised  Status = "finalised"
	StatusAborted    Status = "aborted"
)

var busyStatuses = map[Status]struct{}{
	StatusSaving:     {},
	StatusDeleting:   {},
	StatusFinalising: {},
}

var terminalStatuses = map[Status]struct{}{
	StatusDeleted:   {},
	StatusFinalised: {},
	StatusAborted:   {},
}

var allStatuses = []Status{
	StatusIdle,
	StatusSaving,
	StatusDeleting,
	StatusDeleted,
	StatusFinalising,
	StatusFinalised,
	StatusAborted,
}

// IsBusy reports whether a network operation is in flight.
func (s Status) IsBusy() bool {
	_, ok := busyStatuses[s]
	return ok
}

// IsTerminal reports whether the session has ended.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, candidate := range allStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }
