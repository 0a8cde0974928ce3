package resolver

import "fmt"

// Rejection classifies why an action could not be given a target.
// Rejections reflect operator input state and are never retried.
type Rejection int

const (
	// TargetRequired: recon with nothing usable selected
	TargetRequired Rejection = iota + 1
	// HostTargetRequired: host-specific recon (web/smb/dns) without a device
	HostTargetRequired
	// WifiTargetRequired: WiFi-class action without a wifi network selected
	WifiTargetRequired
	// MissingInterfaceTarget: ARP recon without a subnet bound to an interface
	MissingInterfaceTarget
)

// String returns the rejection name
func (r Rejection) String() string {
	switch r {
	case TargetRequired:
		return "TargetRequired"
	case HostTargetRequired:
		return "HostTargetRequired"
	case WifiTargetRequired:
		return "WifiTargetRequired"
	case MissingInterfaceTarget:
		return "MissingInterfaceTarget"
	default:
		return fmt.Sprintf("Rejection(%d)", int(r))
	}
}

// Hint returns the operator-facing instruction for the rejection
func (r Rejection) Hint() string {
	switch r {
	case TargetRequired:
		return "Select a Device Target!"
	case HostTargetRequired:
		return "Select a Device Target! This recon mode needs a single host."
	case WifiTargetRequired:
		return "Select a WiFi Network Target!"
	case MissingInterfaceTarget:
		return "Select an active interface first!"
	default:
		return "Select a target first!"
	}
}

// RejectionError is returned by Resolve when the selection cannot satisfy
// the requested action.
type RejectionError struct {
	Kind   Rejection
	Action string
	Mode   string
}

// Error implements the error interface
func (e *RejectionError) Error() string {
	if e.Mode != "" {
		return fmt.Sprintf("%s (%s/%s): %s", e.Kind, e.Action, e.Mode, e.Kind.Hint())
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Action, e.Kind.Hint())
}

func reject(kind Rejection, action, mode string) *RejectionError {
	return &RejectionError{Kind: kind, Action: action, Mode: mode}
}
