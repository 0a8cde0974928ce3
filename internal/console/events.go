package console

import "fmt"

// EventKind identifies which view-relevant state changed
type EventKind int

const (
	EventSelection EventKind = iota + 1
	EventActivity
	EventLogs
	EventDevices
	EventReports
	EventSystem
	EventScan
)

// String returns the event name
func (k EventKind) String() string {
	switch k {
	case EventSelection:
		return "selection"
	case EventActivity:
		return "activity"
	case EventLogs:
		return "logs"
	case EventDevices:
		return "devices"
	case EventReports:
		return "reports"
	case EventSystem:
		return "system"
	case EventScan:
		return "scan"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event tells subscribers that something changed. Views re-read the state
// they need from the Console; the event carries only a hint.
type Event struct {
	Kind EventKind
	// Text is the selection label, scan label or activity line
	Text string
}
