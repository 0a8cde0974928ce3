package target

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// NetworkKind identifies which variant of NetworkTarget is populated
type NetworkKind int

const (
	// KindWiFi is a wireless network identified by its BSSID
	KindWiFi NetworkKind = iota + 1
	// KindSubnet is an IP subnet, optionally bound to the NIC it came from
	KindSubnet
)

// String returns the wire name of the kind
func (k NetworkKind) String() string {
	switch k {
	case KindWiFi:
		return "wifi"
	case KindSubnet:
		return "subnet"
	default:
		return fmt.Sprintf("NetworkKind(%d)", int(k))
	}
}

// NetworkTarget is a tagged union of a WiFi network or a subnet.
//
// Fields are unexported so that exactly one variant is ever populated;
// build values with WiFi or Subnet.
type NetworkTarget struct {
	kind NetworkKind

	bssid   string
	ssid    string
	channel int

	cidr  string
	iface string
}

// WiFi builds a wifi-kind network target. The BSSID is required and kept
// as given; compare BSSIDs with Equal or strings.EqualFold.
func WiFi(bssid, ssid string, channel int) (NetworkTarget, error) {
	bssid = strings.TrimSpace(bssid)
	if bssid == "" {
		return NetworkTarget{}, fmt.Errorf("wifi target requires a BSSID")
	}
	return NetworkTarget{
		kind:    KindWiFi,
		bssid:   bssid,
		ssid:    ssid,
		channel: channel,
	}, nil
}

// Subnet builds a subnet-kind network target. The CIDR is required and must
// parse; iface may be empty when the subnet was entered by hand.
func Subnet(cidr, iface string) (NetworkTarget, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return NetworkTarget{}, fmt.Errorf("subnet target requires a CIDR")
	}
	if _, _, err := net.ParseCIDR(cidr); err != nil {
		return NetworkTarget{}, fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}
	return NetworkTarget{
		kind:  KindSubnet,
		cidr:  cidr,
		iface: strings.TrimSpace(iface),
	}, nil
}

// Equal reports whether n and o name the same network.
// BSSIDs compare case-insensitively.
func (n NetworkTarget) Equal(o NetworkTarget) bool {
	return n.kind == o.kind &&
		strings.EqualFold(n.bssid, o.bssid) &&
		n.ssid == o.ssid &&
		n.channel == o.channel &&
		n.cidr == o.cidr &&
		n.iface == o.iface
}

// Kind returns the populated variant (zero for an unset value)
func (n NetworkTarget) Kind() NetworkKind { return n.kind }

// IsZero reports whether the value was never built by a constructor
func (n NetworkTarget) IsZero() bool { return n.kind == 0 }

// BSSID returns the access point address for wifi targets
func (n NetworkTarget) BSSID() string { return n.bssid }

// SSID returns the network name for wifi targets (may be empty when hidden)
func (n NetworkTarget) SSID() string { return n.ssid }

// Channel returns the radio channel for wifi targets (0 when unknown)
func (n NetworkTarget) Channel() int { return n.channel }

// CIDR returns the subnet for subnet targets
func (n NetworkTarget) CIDR() string { return n.cidr }

// Interface returns the NIC the subnet is associated with, if any
func (n NetworkTarget) Interface() string { return n.iface }

// IsWiFi reports whether this is a wifi-kind target
func (n NetworkTarget) IsWiFi() bool { return n.kind == KindWiFi }

// IsSubnet reports whether this is a subnet-kind target
func (n NetworkTarget) IsSubnet() bool { return n.kind == KindSubnet }

// networkWire is the JSON shape exchanged with the backend
type networkWire struct {
	Type      string `json:"type,omitempty"`
	BSSID     string `json:"bssid,omitempty"`
	SSID      string `json:"ssid,omitempty"`
	Channel   int    `json:"channel,omitempty"`
	CIDR      string `json:"cidr,omitempty"`
	Subnet    string `json:"subnet,omitempty"`
	Interface string `json:"interface,omitempty"`
}

// MarshalJSON encodes the populated variant only
func (n NetworkTarget) MarshalJSON() ([]byte, error) {
	switch n.kind {
	case KindWiFi:
		return json.Marshal(networkWire{Type: "wifi", BSSID: n.bssid, SSID: n.ssid, Channel: n.channel})
	case KindSubnet:
		return json.Marshal(networkWire{Type: "subnet", CIDR: n.cidr, Interface: n.iface})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a backend target. When no explicit type is given the
// kind is inferred: a CIDR (or "subnet") means subnet, a BSSID means wifi.
func (n *NetworkTarget) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NetworkTarget{}
		return nil
	}

	var w networkWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	cidr := w.CIDR
	if cidr == "" {
		cidr = w.Subnet
	}

	var (
		parsed NetworkTarget
		err    error
	)
	switch {
	case w.Type == "subnet" || (w.Type == "" && cidr != ""):
		parsed, err = Subnet(cidr, w.Interface)
	case w.Type == "wifi" || (w.Type == "" && w.BSSID != ""):
		parsed, err = WiFi(w.BSSID, w.SSID, w.Channel)
	default:
		return fmt.Errorf("cannot determine network target kind from %s", string(data))
	}
	if err != nil {
		return err
	}

	*n = parsed
	return nil
}
