// Package backendsim is an in-memory stand-in for the VoidPWN dashboard
// backend. It speaks the same JSON API as the real device so the console
// can be exercised offline and in tests.
//
// Actions never run tools: they append log lines and a report row. WiFi
// scans report a fixed set of networks after the declared duration.
package backendsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/target"
)

// DefaultScanDuration is the declared WiFi scan length in seconds
const DefaultScanDuration = 15

// Config seeds the simulator
type Config struct {
	// ScanDuration is returned by /api/scan/start
	ScanDuration int
	// Devices is the initial inventory (a small lab network when nil)
	Devices []target.Device
	// Networks are the WiFi scan results (a few sample APs when nil)
	Networks []backend.WiFiNetwork
	// Interfaces are reported by /api/interfaces (the host's own when nil)
	Interfaces []target.Interface
	// Now is the clock used for log and report timestamps
	Now func() time.Time
}

// Server implements the dashboard API in memory
type Server struct {
	mux    *http.ServeMux
	cfg    Config
	now    func() time.Time
	system SystemSource

	mu        sync.Mutex
	devices   []target.Device
	selected  string
	network   *target.NetworkTarget
	logs      []backend.LogEntry
	reports   []backend.Report
	logFiles  map[string]string
	failures  map[string]string
	requests  map[string]int
	seq       int
	discovery int
}

// New creates a simulator
func New(cfg Config) *Server {
	if cfg.ScanDuration <= 0 {
		cfg.ScanDuration = DefaultScanDuration
	}
	if cfg.Devices == nil {
		cfg.Devices = sampleDevices()
	}
	if cfg.Networks == nil {
		cfg.Networks = sampleNetworks()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		mux:      http.NewServeMux(),
		cfg:      cfg,
		now:      now,
		system:   HostSystem{},
		devices:  append([]target.Device(nil), cfg.Devices...),
		logFiles: make(map[string]string),
		failures: make(map[string]string),
		requests: make(map[string]int),
	}
	s.routes()
	return s
}

// WithSystemSource replaces the /api/system data source
func (s *Server) WithSystemSource(src SystemSource) *Server {
	s.system = src
	return s
}

func (s *Server) routes() {
	// Devices
	s.mux.HandleFunc("/api/devices/selected", s.handleSelectedDevice)
	s.mux.HandleFunc("/api/devices/list", s.handleListDevices)
	s.mux.HandleFunc("/api/devices/scan", s.handleScanDevices)
	s.mux.HandleFunc("/api/devices/select", s.handleSelectDevice)
	s.mux.HandleFunc("/api/devices/update", s.handleUpdateDevice)

	// Network targets
	s.mux.HandleFunc("/api/target/select", s.handleSelectWiFi)
	s.mux.HandleFunc("/api/target/subnet", s.handleSelectSubnet)
	s.mux.HandleFunc("/api/interfaces", s.handleInterfaces)
	s.mux.HandleFunc("/api/wifi/connect", s.handleConnectWiFi)

	// Actions
	s.mux.HandleFunc("/api/action/", s.handleAction)
	s.mux.HandleFunc("/api/scenario/", s.handleScenario)

	// WiFi scan
	s.mux.HandleFunc("/api/scan/start", s.handleScanStart)
	s.mux.HandleFunc("/api/scan/results", s.handleScanResults)

	// Live state
	s.mux.HandleFunc("/api/logs/live", s.handleLiveLogs)
	s.mux.HandleFunc("/api/logs/view/", s.handleViewLog)
	s.mux.HandleFunc("/api/reports", s.handleReports)
	s.mux.HandleFunc("/api/system", s.handleSystem)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	msg, fail := s.failures[r.URL.Path]
	if fail {
		delete(s.failures, r.URL.Path)
	}
	s.mu.Unlock()

	logging.Debug("Simulator request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves the simulator on addr until ctx is done, then
// shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logging.Info("Backend simulator listening", zap.String("addr", addr))
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping simulator...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// FailNext makes the next request to path answer {"error": msg} with a 500
func (s *Server) FailNext(path, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = msg
}

// Requests returns how many requests path has received
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Selected returns the backend-side device selection and network target
func (s *Server) Selected() (string, *target.NetworkTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.network
}

// AppendLog adds a live log line, as background work on the device would
func (s *Server) AppendLog(kind, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(kind, fmt.Sprintf(format, args...))
}

// AddDevice adds a device to the inventory, as a background discovery would
func (s *Server) AddDevice(d target.Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, d)
}

func (s *Server) appendLogLocked(kind, msg string) {
	s.logs = append(s.logs, backend.LogEntry{
		Time: s.now().Format("15:04:05"),
		Type: kind,
		Msg:  msg,
	})
}

func (s *Server) addReportLocked(kind, tgt, status string, lines ...string) string {
	s.seq++
	name := fmt.Sprintf("%s_%d.log", kind, s.seq)
	s.logFiles[name] = strings.Join(lines, "\n")
	s.reports = append(s.reports, backend.Report{
		Timestamp: s.now().Format("2006-01-02T15:04:05.000000"),
		Type:      kind,
		Target:    tgt,
		Status:    status,
		LogFile:   name,
	})
	return name
}

func (s *Server) findDeviceLocked(id string) (int, bool) {
	for i, d := range s.devices {
		if d.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Server) handleSelectedDevice(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.findDeviceLocked(s.selected); ok {
		writeJSON(w, http.StatusOK, map[string]any{"device": s.devices[i]})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": nil})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"devices": s.devices})
}

func (s *Server) handleScanDevices(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = "quick"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discovery++
	found := target.Device{
		ID:         fmt.Sprintf("disc-%d", s.discovery),
		IP:         fmt.Sprintf("192.168.50.%d", 100+s.discovery),
		Hostname:   fmt.Sprintf("host-%d", s.discovery),
		DeviceType: "Unknown",
	}
	s.devices = append(s.devices, found)
	s.appendLogLocked(backend.LogInfo, fmt.Sprintf("Device discovery (%s) found %s", req.Mode, found.IP))

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  backend.StatusSuccess,
		"count":   len(s.devices),
		"devices": s.devices,
	})
}

func (s *Server) handleSelectDevice(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findDeviceLocked(req.ID); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Device not found"})
		return
	}
	s.selected = req.ID
	s.network = nil
	writeJSON(w, http.StatusOK, map[string]string{"status": backend.StatusSuccess})
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req backend.DeviceUpdate
	if !readJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findDeviceLocked(req.ID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Device not found"})
		return
	}
	s.devices[i].Notes = req.Notes
	s.devices[i].Tags = req.Tags
	writeJSON(w, http.StatusOK, map[string]string{"status": backend.StatusSuccess})
}

func (s *Server) handleSelectWiFi(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		BSSID   string          `json:"bssid"`
		SSID    string          `json:"ssid"`
		Channel backend.FlexInt `json:"channel"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	n, err := target.WiFi(req.BSSID, req.SSID, int(req.Channel))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = &n
	s.selected = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": backend.StatusSuccess})
}

func (s *Server) handleSelectSubnet(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req struct {
		Subnet    string `json:"subnet"`
		Interface string `json:"interface"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	// Canonicalise to the network address ("10.0.0.7/24" -> "10.0.0.0/24")
	_, ipnet, err := net.ParseCIDR(strings.TrimSpace(req.Subnet))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid subnet"})
		return
	}
	n, err := target.Subnet(ipnet.String(), req.Interface)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = &n
	s.selected = ""
	writeJSON(w, http.StatusOK, map[string]any{"status": backend.StatusSuccess, "target": n})
}

func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	ifaces := s.cfg.Interfaces
	if ifaces == nil {
		var err error
		ifaces, err = HostInterfaces()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"interfaces": ifaces})
}

func (s *Server) handleConnectWiFi(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var req backend.WiFiCredentials
	if !readJSON(w, r, &req) {
		return
	}
	if req.SSID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "SSID is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(backend.LogInfo, "Connecting to "+req.SSID)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  backend.StatusSuccess,
		"message": "Connected to " + req.SSID,
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	action := strings.TrimPrefix(r.URL.Path, "/api/action/")
	if action == "" {
		http.Error(w, "missing action", http.StatusBadRequest)
		return
	}
	var req map[string]any
	if !readJSON(w, r, &req) {
		return
	}
	tgt, _ := req["target"].(string)
	mode, _ := req["mode"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()

	label := strings.ToUpper(action)
	if mode != "" {
		label += " (" + mode + ")"
	}
	shown := tgt
	if shown == "" {
		shown = "broadcast"
	}
	s.appendLogLocked(backend.LogInfo, fmt.Sprintf("Starting %s against %s", label, shown))
	s.addReportLocked(action, shown, "RUNNING",
		fmt.Sprintf("# %s", label),
		fmt.Sprintf("target: %s", shown),
		"simulated run: no tool was executed",
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  backend.StatusSuccess,
		"message": label + " started",
	})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	scenario := strings.TrimPrefix(r.URL.Path, "/api/scenario/")
	var req struct {
		Target *string `json:"target"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	tgt := "auto"
	if req.Target != nil && *req.Target != "" {
		tgt = *req.Target
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(backend.LogInfo, fmt.Sprintf("Scenario %s started against %s", scenario, tgt))
	s.addReportLocked("scenario_"+scenario, tgt, "RUNNING", "# scenario "+scenario)
	writeJSON(w, http.StatusOK, map[string]string{"status": backend.StatusSuccess})
}

func (s *Server) handleScanStart(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLogLocked(backend.LogInfo, fmt.Sprintf("WiFi scan started (%ds)", s.cfg.ScanDuration))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   backend.StatusSuccess,
		"duration": s.cfg.ScanDuration,
	})
}

func (s *Server) handleScanResults(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	nets := append([]backend.WiFiNetwork(nil), s.cfg.Networks...)
	sort.SliceStable(nets, func(i, j int) bool { return nets[i].Power > nets[j].Power })
	writeJSON(w, http.StatusOK, map[string]any{"networks": nets})
}

func (s *Server) handleLiveLogs(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := s.logs
	if logs == nil {
		logs = []backend.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleViewLog(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/logs/view/")

	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.logFiles[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Log file not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Newest first, like the dashboard
	out := make([]backend.Report, len(s.reports))
	for i, rep := range s.reports {
		out[len(s.reports)-1-i] = rep
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": out})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	info, err := s.system.SystemInfo()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, method+" only", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
