package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/logging"
)

const (
	// ServiceType is the mDNS service type the dashboard advertises
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for backend discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the dashboard's default HTTP port
	DefaultPort = 5000

	// AppTXT marks a VoidPWN service in its TXT record
	AppTXT = "app=voidpwn"
)

// namePattern matches VoidPWN instance and host names
// (e.g., "voidpwn", "VoidPWN-Pi", "voidpwn.local.")
var namePattern = regexp.MustCompile(`(?i)^voidpwn([-_.][\w.-]*)?$`)

// Scanner handles mDNS backend discovery
type Scanner struct {
	// Timeout is the maximum time to wait for backend discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all VoidPWN backends on the local network.
// Backends answering more than once are reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu       sync.Mutex
		backends []*Backend
		seen     = make(map[string]bool)
		done     = make(chan struct{})
	)
	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				b := parseServiceEntry(entry)
				if b == nil {
					continue
				}
				mu.Lock()
				if !seen[b.BaseURL()] {
					seen[b.BaseURL()] = true
					backends = append(backends, b)
					logging.Debug("Discovered backend", zap.String("name", b.Name), zap.String("url", b.BaseURL()))
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	mu.Lock()
	defer mu.Unlock()
	return backends, nil
}

// WaitForBackend waits for a backend with the given instance name
func (s *Scanner) WaitForBackend(ctx context.Context, name string) (*Backend, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Backend, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if b := parseServiceEntry(entry); b != nil && strings.EqualFold(b.Name, name) {
					found <- b
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case b := <-found:
		return b, nil
	case <-ctx.Done():
		select {
		case b := <-found:
			return b, nil
		default:
		}
		return nil, fmt.Errorf("backend %s not found within timeout", name)
	}
}

// IsVoidPWN reports whether a service entry belongs to a VoidPWN dashboard:
// its TXT record carries app=voidpwn, or its instance or host name does.
func IsVoidPWN(entry *zeroconf.ServiceEntry) bool {
	for _, txt := range entry.Text {
		if strings.EqualFold(strings.TrimSpace(txt), AppTXT) {
			return true
		}
	}
	host := strings.TrimSuffix(strings.TrimSuffix(entry.HostName, "."), ".local")
	return namePattern.MatchString(entry.Instance) || namePattern.MatchString(host)
}

// parseServiceEntry converts a zeroconf service entry to a Backend.
// Returns nil if the entry is not a VoidPWN dashboard or has no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Backend {
	if entry == nil || !IsVoidPWN(entry) {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	name := entry.Instance
	if name == "" {
		name = strings.TrimSuffix(entry.HostName, ".")
	}

	return &Backend{
		Name:         name,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Discover is a convenience function to scan for backends with a custom timeout
func Discover(ctx context.Context, timeout time.Duration) ([]*Backend, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
