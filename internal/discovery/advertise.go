package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/logging"
)

// Advertisement is a running mDNS announcement of a dashboard
type Advertisement struct {
	server *zeroconf.Server
}

// Advertise announces a dashboard on port under the given instance name so
// Scan can find it. The TXT record always carries app=voidpwn.
func Advertise(instance string, port int, txt ...string) (*Advertisement, error) {
	if instance == "" {
		return nil, fmt.Errorf("advertise: instance name is required")
	}
	text := append([]string{AppTXT, "path=/api"}, txt...)

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, text, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising backend",
		zap.String("instance", instance),
		zap.Int("port", port),
	)
	return &Advertisement{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
