package discovery

import (
	"fmt"
	"strings"
	"time"
)

// Backend represents a VoidPWN dashboard discovered on the network
type Backend struct {
	// Name is the mDNS instance name (e.g., "voidpwn-pi")
	Name string

	// Hostname is the mDNS hostname (e.g., "voidpwn.local.")
	Hostname string

	// IP is the IPv4 address (IPv6 only when no IPv4 was advertised)
	IP string

	// Port is the dashboard HTTP port (typically 5000)
	Port int

	// Metadata contains the TXT record key/value pairs
	// Common fields: "app=voidpwn", "path=/api", "version=..."
	Metadata map[string]string

	// DiscoveredAt is when the backend was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the backend
func (b *Backend) String() string {
	return fmt.Sprintf("VoidPWN %s (%s) at %s", b.Name, b.Hostname, b.BaseURL())
}

// BaseURL returns the HTTP base URL of the dashboard
func (b *Backend) BaseURL() string {
	if strings.Contains(b.IP, ":") {
		return fmt.Sprintf("http://[%s]:%d", b.IP, b.Port)
	}
	return fmt.Sprintf("http://%s:%d", b.IP, b.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (b *Backend) GetMetadata(key string) string {
	if b.Metadata == nil {
		return ""
	}
	return b.Metadata[key]
}
