package target

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Device is a host discovered by the backend.
// Operators may only edit Tags and Notes; everything else is owned by discovery.
type Device struct {
	ID         string   `json:"id"`
	IP         string   `json:"ip"`
	Hostname   string   `json:"hostname,omitempty"`
	MAC        string   `json:"mac,omitempty"`
	DeviceType string   `json:"device_type,omitempty"`
	Ports      []Port   `json:"ports,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// UnknownMAC is shown when the backend has not resolved a MAC address.
const UnknownMAC = "??:??:??:??:??:??"

// DisplayMAC returns the MAC address or the unknown placeholder
func (d Device) DisplayMAC() string {
	if d.MAC == "" {
		return UnknownMAC
	}
	return d.MAC
}

// DisplayType returns the device classification or "Unknown"
func (d Device) DisplayType() string {
	if d.DeviceType == "" {
		return "Unknown"
	}
	return d.DeviceType
}

// DisplayHostname returns the hostname or "Unknown Host"
func (d Device) DisplayHostname() string {
	if d.Hostname == "" {
		return "Unknown Host"
	}
	return d.Hostname
}

// UnmarshalJSON accepts the id as either a JSON string or a JSON number.
func (d *Device) UnmarshalJSON(data []byte) error {
	type plain Device
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}
	*d = Device(raw.plain)
	d.ID = id
	return nil
}

func decodeID(data json.RawMessage) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("device id must be a string or number: %s", data)
	}
	return n.String(), nil
}

// Port is a port descriptor, optionally annotated with a protocol.
//
// The backend emits ports either as bare numbers (22) or as annotated
// strings ("22/tcp"); both decode into the same value. Descriptors that
// carry no port number, such as "tcpwrapped", are kept verbatim in Raw.
type Port struct {
	Number   int
	Protocol string
	Raw      string
}

// String renders the port in the backend's "number/protocol" form
func (p Port) String() string {
	if p.Raw != "" {
		return p.Raw
	}
	if p.Protocol == "" {
		return strconv.Itoa(p.Number)
	}
	return fmt.Sprintf("%d/%s", p.Number, p.Protocol)
}

// ParsePort parses "22", "22/tcp" or "443/tcp open https" style descriptors.
func ParsePort(s string) (Port, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Port{}, fmt.Errorf("empty port descriptor")
	}

	numPart, proto, _ := strings.Cut(s, "/")
	if fields := strings.Fields(proto); len(fields) > 0 {
		proto = fields[0]
	}

	n, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil {
		return Port{}, fmt.Errorf("invalid port number %q: %w", numPart, err)
	}
	if n < 0 || n > 65535 {
		return Port{}, fmt.Errorf("port out of range: %d", n)
	}

	return Port{Number: n, Protocol: strings.ToLower(proto)}, nil
}

// MarshalJSON encodes the port in its string form
func (p Port) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a JSON number or a descriptor string. Any other
// value is kept as its raw text rather than failing the enclosing device.
func (p *Port) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*p = Port{Number: n}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*p = Port{Raw: strings.TrimSpace(string(data))}
		return nil
	}

	parsed, err := ParsePort(s)
	if err != nil {
		*p = Port{Raw: strings.TrimSpace(s)}
		return nil
	}
	*p = parsed
	return nil
}

// ParseTags splits a comma separated tag list, trimming whitespace and
// dropping empty entries. Order is preserved and duplicates are removed.
func ParseTags(s string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

// Interface is a read-only snapshot of a backend network interface.
type Interface struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Speed string `json:"speed,omitempty"`
}

// SubnetCIDR derives the candidate /24 for the interface: the first three
// octets of its IPv4 address followed by ".0/24".
func (i Interface) SubnetCIDR() (string, error) {
	ip := net.ParseIP(strings.TrimSpace(i.IP))
	if ip == nil {
		return "", fmt.Errorf("interface %s has no valid IP address (%q)", i.Name, i.IP)
	}
	v4 := ip.To4()
	if v4 == nil {
		return "", fmt.Errorf("interface %s has no IPv4 address (%s)", i.Name, i.IP)
	}
	return fmt.Sprintf("%d.%d.%d.0/24", v4[0], v4[1], v4[2]), nil
}

// SubnetTarget returns the subnet network associated with this interface.
func (i Interface) SubnetTarget() (NetworkTarget, error) {
	cidr, err := i.SubnetCIDR()
	if err != nil {
		return NetworkTarget{}, err
	}
	return Subnet(cidr, i.Name)
}
