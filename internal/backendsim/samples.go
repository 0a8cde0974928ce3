package backendsim

import (
	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/target"
)

func sampleDevices() []target.Device {
	return []target.Device{
		{
			ID:         "dev-gw",
			IP:         "192.168.50.1",
			Hostname:   "gateway.lan",
			MAC:        "A4:91:B1:00:12:01",
			DeviceType: "Router",
			Ports:      []target.Port{{Number: 53, Protocol: "udp"}, {Number: 80, Protocol: "tcp"}, {Number: 443, Protocol: "tcp"}},
		},
		{
			ID:         "dev-nas",
			IP:         "192.168.50.10",
			Hostname:   "nas",
			MAC:        "00:11:32:AB:CD:10",
			DeviceType: "Storage",
			Ports:      []target.Port{{Number: 22, Protocol: "tcp"}, {Number: 445, Protocol: "tcp"}},
			Tags:       []string{"lab"},
		},
		{
			ID:         "dev-cam",
			IP:         "192.168.50.23",
			DeviceType: "IoT",
			Ports:      []target.Port{{Number: 554, Protocol: "tcp"}},
		},
	}
}

func sampleNetworks() []backend.WiFiNetwork {
	return []backend.WiFiNetwork{
		{BSSID: "AA:BB:CC:00:00:01", ESSID: "LabNet", Channel: 6, Power: -41, Privacy: "WPA2"},
		{BSSID: "AA:BB:CC:00:00:02", ESSID: "LabNet-Guest", Channel: 11, Power: -58, Privacy: "OPN"},
		{BSSID: "AA:BB:CC:00:00:03", ESSID: "", Channel: 1, Power: -77, Privacy: "WPA2"},
	}
}
