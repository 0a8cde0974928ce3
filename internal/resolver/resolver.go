// Package resolver decides which concrete identifier an action is sent
// against, given the operator's current selection.
//
// Resolve is a pure function of (action, data, selection). It performs no
// I/O so rejections surface before any request leaves the console.
package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/void0x11/VoidPWN/internal/target"
)

// LatestCapture is the target sent with "crack": the backend cracks its most
// recent capture artifact rather than a live target.
const LatestCapture = "LATEST_CAPTURE"

// Action names with special resolution rules
const (
	ActionCrack = "crack"
	ActionRecon = "recon"
)

// ModeARP is the recon mode that runs against an interface, not a host
const ModeARP = "arp"

// wifiActions operate on a WiFi network and consult its BSSID.
var wifiActions = map[string]bool{
	"deauth":    true,
	"evil_twin": true,
	"handshake": true,
	"pmkid":     true,
	"pixie":     true,
	"auth":      true,
	"wifite":    true,
}

// targetlessActions may run without a target (broadcast or passive modes).
// "beacon" is not WiFi-class but the exemption is kept as the backend expects.
var targetlessActions = map[string]bool{
	"pmkid":  true,
	"wifite": true,
	"beacon": true,
	"auth":   true,
}

// subnetReconModes may fall back to the selected subnet's CIDR.
var subnetReconModes = map[string]bool{
	"quick":         true,
	"full":          true,
	"stealth":       true,
	"vuln":          true,
	"comprehensive": true,
	"discover":      true,
}

// hostReconModes only make sense against a single host.
var hostReconModes = map[string]bool{
	"web": true,
	"smb": true,
	"dns": true,
}

// Data is the payload accompanying an action. Only "mode" influences
// resolution; every other key is forwarded to the backend untouched.
type Data map[string]any

// Mode returns the "mode" entry as a lower-case string
func (d Data) Mode() string {
	if d == nil {
		return ""
	}
	switch v := d["mode"].(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(v.String())
	default:
		return ""
	}
}

// IsWiFiAction reports whether action consults the WiFi selection
func IsWiFiAction(action string) bool {
	return wifiActions[action]
}

// AllowsEmptyTarget reports whether action may be dispatched without a target
func AllowsEmptyTarget(action string) bool {
	return targetlessActions[action]
}

// Resolve maps an action and its data onto the target string to send.
// On rejection the error is a *RejectionError.
func Resolve(action string, data Data, sel target.Selection) (string, error) {
	action = strings.ToLower(strings.TrimSpace(action))
	mode := data.Mode()
	wifiClass := wifiActions[action]

	var resolved string
	if wifiClass {
		if n, ok := sel.WiFi(); ok {
			resolved = n.BSSID()
		}
	} else if d, ok := sel.Device(); ok {
		resolved = d.IP
	}

	if action == ActionCrack {
		return LatestCapture, nil
	}

	if action == ActionRecon && mode == ModeARP {
		if n, ok := sel.Subnet(); ok && n.Interface() != "" {
			return n.Interface(), nil
		}
		return "", reject(MissingInterfaceTarget, action, mode)
	}

	if resolved == "" && action == ActionRecon && subnetReconModes[mode] {
		if n, ok := sel.Subnet(); ok {
			resolved = n.CIDR()
		}
	}

	if action == ActionRecon && resolved == "" {
		if hostReconModes[mode] {
			return "", reject(HostTargetRequired, action, mode)
		}
		return "", reject(TargetRequired, action, mode)
	}

	if wifiClass && resolved == "" && !targetlessActions[action] {
		return "", reject(WifiTargetRequired, action, mode)
	}

	return resolved, nil
}

// ResolveScenario returns the target for a scenario playbook: the selected
// device's IP, or empty when no device is selected.
func ResolveScenario(sel target.Selection) string {
	if d, ok := sel.Device(); ok {
		return d.IP
	}
	return ""
}

// IsRejection reports whether err is a resolution rejection
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}

// KindOf returns the rejection kind of err, or false if err is not a rejection
func KindOf(err error) (Rejection, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Kind, true
	}
	return 0, false
}
