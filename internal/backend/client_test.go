package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/void0x11/VoidPWN/internal/target"
)

const mockLogsResponse = `{"logs":[{"time":"10:00:01","type":"info","msg":"Starting recon"},{"time":"10:00:09","type":"success","msg":"3 hosts up"}]}`

const mockReportsResponse = `{"reports":[{"timestamp":"2024-05-01T13:37:00.123456","type":"recon","target":"10.0.0.5","status":"SUCCESS","log_file":"recon_1.log"}]}`

const mockScanResults = `{"networks":[{"bssid":"AA:BB:CC:DD:EE:FF","essid":"corp","channel":" 6","power":"-42","privacy":"WPA2"},{"bssid":"11:22:33:44:55:66","essid":"","channel":11,"power":-80,"privacy":"OPN"}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithURL(server.URL)
}

// decodeBody reads a JSON request body into a generic map. It runs on the
// server goroutine, so it reports with Errorf rather than Fatalf.
func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("request body %q is not JSON: %v", data, err)
	}
	return m
}

func TestNewClient(t *testing.T) {
	client := NewClient("10.0.0.1", DefaultPort)

	if client.BaseURL != "http://10.0.0.1:5000" {
		t.Errorf("BaseURL = %s, want http://10.0.0.1:5000", client.BaseURL)
	}
	if client.HTTPClient == nil || client.HTTPClient.Timeout != DefaultTimeout {
		t.Error("HTTPClient should be created with the default timeout")
	}
}

func TestNewClientWithURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://10.0.0.1:5000", "http://10.0.0.1:5000"},
		{"http://10.0.0.1:5000/", "http://10.0.0.1:5000"},
		{"10.0.0.1:5000", "http://10.0.0.1:5000"},
		{" https://pwn.local ", "https://pwn.local"},
	}

	for _, tt := range tests {
		if got := NewClientWithURL(tt.in).BaseURL; got != tt.want {
			t.Errorf("NewClientWithURL(%q).BaseURL = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("10.0.0.1", DefaultPort)
	client.SetTimeout(5 * time.Second)
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.HTTPClient.Timeout)
	}

	client.SetTimeout(0)
	if client.HTTPClient.Timeout != 5*time.Second {
		t.Error("SetTimeout(0) should keep the previous timeout")
	}
}

func TestLiveLogs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/logs/live" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "voidpwn-console/") {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = w.Write([]byte(mockLogsResponse))
	})

	logs, err := client.LiveLogs(context.Background())
	if err != nil {
		t.Fatalf("LiveLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[1].Type != LogSuccess || logs[1].Msg != "3 hosts up" {
		t.Errorf("logs[1] = %+v", logs[1])
	}
}

func TestReports(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(mockReportsResponse))
	})

	reports, err := client.Reports(context.Background())
	if err != nil {
		t.Fatalf("Reports() error = %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.Clock() != "13:37:00" {
		t.Errorf("Clock() = %q, want 13:37:00", r.Clock())
	}
	if r.StatusClass() != ReportSuccess {
		t.Errorf("StatusClass() = %q, want success", r.StatusClass())
	}
	if r.LogFile != "recon_1.log" {
		t.Errorf("LogFile = %q", r.LogFile)
	}
}

func TestScanResults_FlexibleNumbers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(mockScanResults))
	})

	nets, err := client.ScanResults(context.Background())
	if err != nil {
		t.Fatalf("ScanResults() error = %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("got %d networks, want 2", len(nets))
	}
	if nets[0].Channel != 6 || nets[0].Power != -42 {
		t.Errorf("nets[0] channel/power = %d/%d, want 6/-42", nets[0].Channel, nets[0].Power)
	}
	if nets[1].DisplayESSID() != "<hidden>" {
		t.Errorf("hidden network ESSID = %q", nets[1].DisplayESSID())
	}

	n, err := nets[0].Target()
	if err != nil {
		t.Fatalf("Target() error = %v", err)
	}
	if n.BSSID() != "AA:BB:CC:DD:EE:FF" || n.SSID() != "corp" || n.Channel() != 6 {
		t.Errorf("Target() = %v/%v/%v", n.BSSID(), n.SSID(), n.Channel())
	}
}

func TestStartScan(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scan/start" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"success","duration":15}`))
	})

	start, err := client.StartScan(context.Background())
	if err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	if start.Duration != 15 {
		t.Errorf("Duration = %d, want 15", start.Duration)
	}
}

func TestSelectedDevice(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantIP string
	}{
		{"selected", `{"device":{"id":"d1","ip":"10.0.0.5","ports":[22,"80/tcp"]}}`, "10.0.0.5"},
		{"none", `{"device":null}`, ""},
		{"absent", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			d, err := client.SelectedDevice(context.Background())
			if err != nil {
				t.Fatalf("SelectedDevice() error = %v", err)
			}
			if tt.wantIP == "" {
				if d != nil {
					t.Errorf("SelectedDevice() = %+v, want nil", d)
				}
				return
			}
			if d == nil || d.IP != tt.wantIP {
				t.Fatalf("SelectedDevice() = %+v, want ip %s", d, tt.wantIP)
			}
			if len(d.Ports) != 2 || d.Ports[1].Number != 80 {
				t.Errorf("Ports = %v", d.Ports)
			}
		})
	}
}

func TestSelectedDevice_NumericID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"device":{"id":7,"ip":"10.0.0.7","ports":["tcpwrapped"]}}`))
	})

	d, err := client.SelectedDevice(context.Background())
	if err != nil {
		t.Fatalf("SelectedDevice() error = %v", err)
	}
	if d == nil || d.ID != "7" || d.IP != "10.0.0.7" {
		t.Fatalf("SelectedDevice() = %+v, want id 7", d)
	}
	if len(d.Ports) != 1 || d.Ports[0].Raw != "tcpwrapped" {
		t.Errorf("Ports = %+v", d.Ports)
	}
}

func TestListDevices_Lenient(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{"numeric id", `{"devices":[{"id":1,"ip":"10.0.0.1"},{"id":"dev-2","ip":"10.0.0.2"}]}`, []string{"1", "dev-2"}},
		{"unparsable port", `{"devices":[{"id":"d1","ip":"10.0.0.1","ports":["22/tcp","tcpwrapped"]}]}`, []string{"d1"}},
		{"bad element skipped", `{"devices":[{"id":"d1","ip":"10.0.0.1"},{"id":"d2","ip":42},"junk",{"id":"d3","ip":"10.0.0.3"}]}`, []string{"d1", "d3"}},
		{"null list", `{"devices":null}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/devices/list" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			devices, err := client.ListDevices(context.Background())
			if err != nil {
				t.Fatalf("ListDevices() error = %v", err)
			}
			var ids []string
			for _, d := range devices {
				ids = append(ids, d.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ListDevices() ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}

func TestScanDevices_Lenient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","count":2,"devices":[{"id":5,"ip":"10.0.0.5","ports":[22,"tcpwrapped"]},{"ip":[]}]}`))
	})

	res, err := client.ScanDevices(context.Background(), "quick")
	if err != nil {
		t.Fatalf("ScanDevices() error = %v", err)
	}
	if res.Count != 2 || len(res.Devices) != 1 || res.Devices[0].ID != "5" {
		t.Errorf("ScanDevices() = %+v", res)
	}
}

func TestSelectWiFi_Body(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/target/select" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	n, _ := target.WiFi("aa:bb:cc:dd:ee:ff", "corp", 6)
	if err := client.SelectWiFi(context.Background(), n); err != nil {
		t.Fatalf("SelectWiFi() error = %v", err)
	}
	if got["bssid"] != "aa:bb:cc:dd:ee:ff" || got["ssid"] != "corp" || got["channel"] != float64(6) {
		t.Errorf("body = %v", got)
	}
}

func TestSelectWiFi_RejectsSubnet(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:1")
	n, _ := target.Subnet("10.0.0.0/24", "")
	if err := client.SelectWiFi(context.Background(), n); err == nil {
		t.Error("SelectWiFi() with a subnet should fail before any request")
	}
}

func TestSelectSubnet_Canonical(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		wantCIDR  string
		wantIface string
	}{
		{"canonical from backend", `{"status":"success","target":{"type":"subnet","subnet":"192.168.1.0/24","interface":"wlan0"}}`, "192.168.1.0/24", "wlan0"},
		{"missing target echoes request", `{"status":"success"}`, "192.168.1.0/24", "eth0"},
		{"canonical without interface keeps requested", `{"status":"success","target":{"type":"subnet","subnet":"192.168.1.0/24"}}`, "192.168.1.0/24", "eth0"},
		{"canonical cidr with empty interface", `{"status":"success","target":{"type":"subnet","subnet":"192.168.0.0/16","interface":""}}`, "192.168.0.0/16", "eth0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				body := decodeBody(t, r)
				if body["subnet"] != "192.168.1.0/24" {
					t.Errorf("subnet = %v", body["subnet"])
				}
				_, _ = w.Write([]byte(tt.response))
			})

			n, _ := target.Subnet("192.168.1.0/24", "eth0")
			got, err := client.SelectSubnet(context.Background(), n)
			if err != nil {
				t.Fatalf("SelectSubnet() error = %v", err)
			}
			if got.CIDR() != tt.wantCIDR || got.Interface() != tt.wantIface {
				t.Errorf("SelectSubnet() = %s (%s), want %s (%s)", got.CIDR(), got.Interface(), tt.wantCIDR, tt.wantIface)
			}
		})
	}
}

func TestRunAction_Body(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/action/recon" {
			t.Errorf("path = %s", r.URL.Path)
		}
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success","message":"recon started"}`))
	})

	resp, err := client.RunAction(context.Background(), "recon", "10.0.0.5", map[string]any{"mode": "quick", "target": "ignored"})
	if err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}
	if !resp.Accepted() {
		t.Error("response should be accepted")
	}
	if got["target"] != "10.0.0.5" {
		t.Errorf("target = %v, resolved target must win", got["target"])
	}
	if got["mode"] != "quick" {
		t.Errorf("mode = %v, data must be forwarded", got["mode"])
	}
}

func TestRunAction_EmptyTargetIsNull(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	if _, err := client.RunAction(context.Background(), "pmkid", "", nil); err != nil {
		t.Fatalf("RunAction() error = %v", err)
	}
	v, ok := got["target"]
	if !ok || v != nil {
		t.Errorf("target = %v (present=%v), want explicit null", v, ok)
	}
}

func TestRunAction_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantType    ErrorType
		wantMessage string
	}{
		{"error field with 200", http.StatusOK, `{"error":"wlan1 not in monitor mode"}`, ErrTypeBackend, "wlan1 not in monitor mode"},
		{"error field with 500", http.StatusInternalServerError, `{"error":"Tool crashed: aireplay-ng"}`, ErrTypeBackend, "Tool crashed: aireplay-ng"},
		{"failed status uses message", http.StatusOK, `{"status":"failed","message":"Interface busy"}`, ErrTypeBackend, "Interface busy"},
		{"failed status without text", http.StatusOK, `{"status":"failed"}`, ErrTypeBackend, GenericFailureMessage},
		{"plain 404", http.StatusNotFound, `not found`, ErrTypeHTTP, "Backend error (HTTP 404)"},
		{"garbage 200", http.StatusOK, `<html>`, ErrTypeParse, "Failed to parse backend response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.RunAction(context.Background(), "deauth", "AA:BB:CC:DD:EE:FF", nil)
			if err == nil {
				t.Fatal("RunAction() should fail")
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("error type = %T, want *Error", err)
			}
			if e.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", e.Type, tt.wantType)
			}
			if got := OperatorMessage(err); got != tt.wantMessage {
				t.Errorf("OperatorMessage() = %q, want %q", got, tt.wantMessage)
			}
			if !strings.HasPrefix(e.Endpoint, "/api/action/deauth") {
				t.Errorf("Endpoint = %q", e.Endpoint)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scenario/full_audit" {
			t.Errorf("path = %s", r.URL.Path)
		}
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	if _, err := client.RunScenario(context.Background(), "full_audit", "10.0.0.5"); err != nil {
		t.Fatalf("RunScenario() error = %v", err)
	}
	if got["target"] != "10.0.0.5" {
		t.Errorf("target = %v", got["target"])
	}
}

func TestUpdateDevice_NilTagsSentAsEmpty(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	})

	if err := client.UpdateDevice(context.Background(), DeviceUpdate{ID: "d1", Notes: "printer"}); err != nil {
		t.Fatalf("UpdateDevice() error = %v", err)
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 0 {
		t.Errorf("tags = %v, want []", got["tags"])
	}
}

func TestScanDevices_DefaultMode(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"status":"success","count":1,"devices":[{"id":"d1","ip":"10.0.0.5"}]}`))
	})

	res, err := client.ScanDevices(context.Background(), "")
	if err != nil {
		t.Fatalf("ScanDevices() error = %v", err)
	}
	if got["mode"] != "quick" {
		t.Errorf("mode = %v, want quick", got["mode"])
	}
	if res.Count != 1 || len(res.Devices) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestViewLog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/logs/view/recon_1.log" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"content":"Nmap scan report for 10.0.0.5"}`))
	})

	content, err := client.ViewLog(context.Background(), "recon_1.log")
	if err != nil {
		t.Fatalf("ViewLog() error = %v", err)
	}
	if !strings.Contains(content, "Nmap") {
		t.Errorf("content = %q", content)
	}

	if _, err := client.ViewLog(context.Background(), ""); err == nil {
		t.Error("ViewLog(\"\") should fail")
	}
}

func TestSystemInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ip":"10.0.0.1","uptime":"2 hours","temp":"48.3'C","adapter":"DETECTED","cpu":12.5,"memory":"512 MB / 3906 MB","memPercent":13.1,"disk":"9 GB / 29 GB","diskPercent":31}`))
	})

	info, err := client.SystemInfo(context.Background())
	if err != nil {
		t.Fatalf("SystemInfo() error = %v", err)
	}
	if info.CPU != 12.5 || info.MemPercent != 13.1 || info.Adapter != "DETECTED" {
		t.Errorf("info = %+v", info)
	}
}

func TestConnectWiFi(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["ssid"] != "corp" || body["password"] != "hunter22" {
			t.Errorf("body = %v", body)
		}
		_, _ = w.Write([]byte(`{"status":"success","message":"Connected to corp"}`))
	})

	msg, err := client.ConnectWiFi(context.Background(), WiFiCredentials{SSID: "corp", Password: "hunter22"})
	if err != nil {
		t.Fatalf("ConnectWiFi() error = %v", err)
	}
	if msg != "Connected to corp" {
		t.Errorf("message = %q", msg)
	}
}

func TestClient_NoRetry(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.LiveLogs(context.Background()); err == nil {
		t.Fatal("LiveLogs() should fail on 503")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server saw %d requests, want exactly 1", n)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := NewClientWithURL(addr)
	_, err := client.LiveLogs(context.Background())
	if err == nil {
		t.Fatal("LiveLogs() against a closed server should fail")
	}
	if !IsNetworkError(err) {
		t.Errorf("IsNetworkError(%v) = false", err)
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Reports(ctx)
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %v (%T), want *Error", err, err)
	}
	if e.Type != ErrTypeTimeout {
		t.Errorf("Type = %v, want Timeout", e.Type)
	}
}
