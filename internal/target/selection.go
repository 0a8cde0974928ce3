package target

import (
	"fmt"
	"sync"
)

// NoneLabel is the badge text shown when nothing is selected
const NoneLabel = "NONE SELECTED"

// Kind classifies the current selection
type Kind int

const (
	KindNone Kind = iota
	KindDevice
	KindNetwork
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDevice:
		return "device"
	case KindNetwork:
		return "network"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Selection is the operator's current target: nothing, a device, or a
// network. It is an immutable value; a device and a network can never be
// set at the same time.
type Selection struct {
	kind    Kind
	device  Device
	network NetworkTarget
}

// None returns the empty selection
func None() Selection {
	return Selection{kind: KindNone}
}

// DeviceSelection returns a selection holding d
func DeviceSelection(d Device) Selection {
	return Selection{kind: KindDevice, device: d}
}

// NetworkSelection returns a selection holding n. A zero NetworkTarget
// yields the empty selection.
func NetworkSelection(n NetworkTarget) Selection {
	if n.IsZero() {
		return None()
	}
	return Selection{kind: KindNetwork, network: n}
}

// Kind returns which variant is populated
func (s Selection) Kind() Kind { return s.kind }

// IsEmpty reports whether nothing is selected
func (s Selection) IsEmpty() bool { return s.kind == KindNone }

// Device returns the selected device, if any
func (s Selection) Device() (Device, bool) {
	if s.kind != KindDevice {
		return Device{}, false
	}
	return s.device, true
}

// Network returns the selected network, if any
func (s Selection) Network() (NetworkTarget, bool) {
	if s.kind != KindNetwork {
		return NetworkTarget{}, false
	}
	return s.network, true
}

// WiFi returns the selected network when it is wifi-kind
func (s Selection) WiFi() (NetworkTarget, bool) {
	n, ok := s.Network()
	if !ok || !n.IsWiFi() {
		return NetworkTarget{}, false
	}
	return n, true
}

// Subnet returns the selected network when it is subnet-kind
func (s Selection) Subnet() (NetworkTarget, bool) {
	n, ok := s.Network()
	if !ok || !n.IsSubnet() {
		return NetworkTarget{}, false
	}
	return n, true
}

// Label is the human-readable badge used by every view.
func (s Selection) Label() string {
	switch s.kind {
	case KindDevice:
		return fmt.Sprintf("[IP] %s (%s)", s.device.IP, s.device.Hostname)
	case KindNetwork:
		n := s.network
		if n.IsSubnet() {
			return fmt.Sprintf("[NET] %s (%s)", n.cidr, orUnknown(n.iface))
		}
		return fmt.Sprintf("[WiFi] %s (%s)", n.ssid, orUnknown(n.bssid))
	default:
		return NoneLabel
	}
}

// InputValue is the raw value placed into target input fields: the device
// IP, or the network's CIDR, SSID or BSSID, in that order of preference.
func (s Selection) InputValue() string {
	switch s.kind {
	case KindDevice:
		return s.device.IP
	case KindNetwork:
		n := s.network
		for _, v := range []string{n.cidr, n.ssid, n.bssid} {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// Equal reports whether two selections refer to the same target
func (s Selection) Equal(o Selection) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindDevice:
		return s.device.ID == o.device.ID && s.device.IP == o.device.IP
	case KindNetwork:
		return s.network.Equal(o.network)
	default:
		return true
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "???"
	}
	return s
}

// Model owns the process-wide Selection. All transitions replace the
// whole value under a single lock.
type Model struct {
	mu  sync.RWMutex
	sel Selection
}

// NewModel returns a model with nothing selected
func NewModel() *Model {
	return &Model{sel: None()}
}

// SelectDevice makes d the current target and clears any network
func (m *Model) SelectDevice(d Device) Selection {
	return m.set(DeviceSelection(d))
}

// SelectNetwork makes n the current target and clears any device
func (m *Model) SelectNetwork(n NetworkTarget) Selection {
	return m.set(NetworkSelection(n))
}

// Clear drops the current target
func (m *Model) Clear() {
	m.set(None())
}

// Current returns the current selection
func (m *Model) Current() Selection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sel
}

// Replace swaps in next only if the model still holds expected.
// It returns false when another selection has been made in between.
func (m *Model) Replace(expected, next Selection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sel.Equal(expected) {
		return false
	}
	m.sel = next
	return true
}

// DisplayLabel returns the badge text for the current selection
func (m *Model) DisplayLabel() string {
	return m.Current().Label()
}

// InputValue returns the raw input value for the current selection
func (m *Model) InputValue() string {
	return m.Current().InputValue()
}

func (m *Model) set(s Selection) Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sel = s
	return s
}
