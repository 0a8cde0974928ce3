package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/target"
)

// StatusSuccess is the status value the backend uses for accepted requests
const StatusSuccess = "success"

// Log entry types as emitted by the backend. Anything else renders plain.
const (
	LogInfo    = "info"
	LogSuccess = "success"
	LogError   = "error"
)

// LogEntry is one line of the backend's live log
type LogEntry struct {
	Time string `json:"time"`
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

// Report is one row of the backend's action history
type Report struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Target    string `json:"target"`
	Status    string `json:"status"`
	LogFile   string `json:"log_file,omitempty"`
}

// Report statuses, compared case-insensitively
const (
	ReportRunning = "running"
	ReportSuccess = "success"
	ReportFailed  = "failed"
)

// Clock returns the time-of-day part of the ISO-8601 timestamp
// ("2024-05-01T13:37:00.123456" -> "13:37:00"). Unparseable values are
// returned unchanged.
func (r Report) Clock() string {
	_, after, ok := strings.Cut(r.Timestamp, "T")
	if !ok {
		return r.Timestamp
	}
	if i := strings.IndexAny(after, ".Z+"); i >= 0 {
		after = after[:i]
	}
	return after
}

// StatusClass returns the lower-cased status
func (r Report) StatusClass() string {
	return strings.ToLower(strings.TrimSpace(r.Status))
}

// FlexInt decodes from a JSON number or a numeric string. Scan tools report
// channel and power as text, so both forms appear on the wire.
type FlexInt int

// UnmarshalJSON accepts 6, "6", " -42 " and "" (zero)
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// WiFiNetwork is one access point from a WiFi scan
type WiFiNetwork struct {
	BSSID   string  `json:"bssid"`
	ESSID   string  `json:"essid"`
	Channel FlexInt `json:"channel"`
	Power   FlexInt `json:"power"`
	Privacy string  `json:"privacy"`
}

// Target converts the scan row into a selectable WiFi target
func (n WiFiNetwork) Target() (target.NetworkTarget, error) {
	return target.WiFi(n.BSSID, n.ESSID, int(n.Channel))
}

// DisplayESSID returns the ESSID or a placeholder for hidden networks
func (n WiFiNetwork) DisplayESSID() string {
	if strings.TrimSpace(n.ESSID) == "" {
		return "<hidden>"
	}
	return n.ESSID
}

// SystemInfo is the device health summary
type SystemInfo struct {
	IP          string  `json:"ip"`
	Uptime      string  `json:"uptime"`
	Temp        string  `json:"temp"`
	Adapter     string  `json:"adapter"`
	CPU         float64 `json:"cpu"`
	Memory      string  `json:"memory"`
	MemPercent  float64 `json:"memPercent"`
	Disk        string  `json:"disk"`
	DiskPercent float64 `json:"diskPercent"`
}

// ScanStart is the acknowledgement of a WiFi scan start
type ScanStart struct {
	Status string `json:"status"`
	// Duration is the server-declared scan length in seconds
	Duration int `json:"duration"`
}

// ActionResponse is the acknowledgement of an action or scenario
type ActionResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Accepted reports whether the backend accepted the request
func (r ActionResponse) Accepted() bool {
	return r.Status == StatusSuccess
}

// DeviceScanResult is the outcome of a device discovery scan
type DeviceScanResult struct {
	Status  string          `json:"status"`
	Count   int             `json:"count"`
	Devices []target.Device `json:"devices"`
}

// UnmarshalJSON decodes the inventory one device at a time
func (r *DeviceScanResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Status  string     `json:"status"`
		Count   int        `json:"count"`
		Devices deviceList `json:"devices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = DeviceScanResult{Status: raw.Status, Count: raw.Count, Devices: raw.Devices}
	return nil
}

// deviceList decodes a device array element by element. A device that
// cannot be decoded is logged and skipped; the rest of the list survives.
type deviceList []target.Device

func (l *deviceList) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil || elems == nil {
		return err
	}
	devices := make([]target.Device, 0, len(elems))
	for i, elem := range elems {
		var d target.Device
		if err := json.Unmarshal(elem, &d); err != nil {
			logging.Warn("Skipping undecodable device", zap.Int("index", i), zap.Error(err))
			continue
		}
		devices = append(devices, d)
	}
	*l = devices
	return nil
}

// DeviceUpdate is the operator-editable metadata of a device
type DeviceUpdate struct {
	ID    string   `json:"id"`
	Notes string   `json:"notes"`
	Tags  []string `json:"tags"`
}

// WiFiCredentials are sent to join a network
type WiFiCredentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// wifiSelectRequest is the body of POST /api/target/select
type wifiSelectRequest struct {
	BSSID   string `json:"bssid"`
	SSID    string `json:"ssid"`
	Channel int    `json:"channel,omitempty"`
}

// subnetSelectRequest is the body of POST /api/target/subnet
type subnetSelectRequest struct {
	Subnet    string `json:"subnet"`
	Interface string `json:"interface,omitempty"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type subnetSelectResponse struct {
	Status string               `json:"status"`
	Target *target.NetworkTarget `json:"target"`
}

type selectedDeviceResponse struct {
	Device *target.Device `json:"device"`
}

type devicesResponse struct {
	Devices deviceList `json:"devices"`
}

type interfacesResponse struct {
	Interfaces []target.Interface `json:"interfaces"`
}

type networksResponse struct {
	Networks []WiFiNetwork `json:"networks"`
}

type logsResponse struct {
	Logs []LogEntry `json:"logs"`
}

type reportsResponse struct {
	Reports []Report `json:"reports"`
}

type logViewResponse struct {
	Content string `json:"content"`
}

// errorEnvelope picks the failure fields out of any response body
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
