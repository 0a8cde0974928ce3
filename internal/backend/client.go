package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/void0x11/VoidPWN/internal/logging"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/version"
)

const (
	// DefaultPort is the dashboard server's default HTTP port
	DefaultPort = 5000

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// maxResponseSize bounds how much of a response body is read
	maxResponseSize = 8 << 20
)

// Client talks to the VoidPWN dashboard backend over its JSON API.
// Requests are never retried; every retry is operator-initiated.
type Client struct {
	// BaseURL is the base URL of the backend (e.g., "http://10.0.0.1:5000")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// NewClient creates a client for the backend at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL.
// A missing scheme defaults to http.
func NewClientWithURL(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.HTTPClient.Timeout = timeout
	}
}

// SelectedDevice returns the device the backend currently has selected,
// or nil when none is.
func (c *Client) SelectedDevice(ctx context.Context) (*target.Device, error) {
	var resp selectedDeviceResponse
	if err := c.get(ctx, "/api/devices/selected", &resp); err != nil {
		return nil, err
	}
	if resp.Device == nil || resp.Device.IP == "" {
		return nil, nil
	}
	return resp.Device, nil
}

// ListDevices returns the device inventory
func (c *Client) ListDevices(ctx context.Context) ([]target.Device, error) {
	var resp devicesResponse
	if err := c.get(ctx, "/api/devices/list", &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// ScanDevices runs a discovery scan (e.g. "quick") and returns the updated inventory
func (c *Client) ScanDevices(ctx context.Context, mode string) (*DeviceScanResult, error) {
	if mode == "" {
		mode = "quick"
	}
	var resp DeviceScanResult
	if err := c.post(ctx, "/api/devices/scan", map[string]string{"mode": mode}, &resp); err != nil {
		return nil, err
	}
	if resp.Status != StatusSuccess {
		return nil, unaccepted("/api/devices/scan", resp.Status, "")
	}
	return &resp, nil
}

// SelectDevice notifies the backend of the chosen device
func (c *Client) SelectDevice(ctx context.Context, id string) error {
	var resp statusResponse
	return c.post(ctx, "/api/devices/select", map[string]string{"id": id}, &resp)
}

// UpdateDevice stores the operator's notes and tags for a device
func (c *Client) UpdateDevice(ctx context.Context, update DeviceUpdate) error {
	if update.Tags == nil {
		update.Tags = []string{}
	}
	var resp statusResponse
	if err := c.post(ctx, "/api/devices/update", update, &resp); err != nil {
		return err
	}
	if resp.Status != StatusSuccess {
		return unaccepted("/api/devices/update", resp.Status, resp.Message)
	}
	return nil
}

// SelectWiFi notifies the backend of the chosen WiFi network
func (c *Client) SelectWiFi(ctx context.Context, n target.NetworkTarget) error {
	if !n.IsWiFi() {
		return fmt.Errorf("select wifi: %s target is not a wifi network", n.Kind())
	}
	req := wifiSelectRequest{BSSID: n.BSSID(), SSID: n.SSID(), Channel: n.Channel()}
	var resp statusResponse
	return c.post(ctx, "/api/target/select", req, &resp)
}

// SelectSubnet notifies the backend of the chosen subnet and returns the
// canonical target it settled on. When the backend omits the target the
// request's own subnet is returned; when it omits only the interface the
// requested interface is kept.
func (c *Client) SelectSubnet(ctx context.Context, n target.NetworkTarget) (target.NetworkTarget, error) {
	if !n.IsSubnet() {
		return target.NetworkTarget{}, fmt.Errorf("select subnet: %s target is not a subnet", n.Kind())
	}
	req := subnetSelectRequest{Subnet: n.CIDR(), Interface: n.Interface()}
	var resp subnetSelectResponse
	if err := c.post(ctx, "/api/target/subnet", req, &resp); err != nil {
		return target.NetworkTarget{}, err
	}
	if resp.Target == nil || !resp.Target.IsSubnet() {
		return n, nil
	}
	canonical := *resp.Target
	if canonical.Interface() == "" && n.Interface() != "" {
		return target.Subnet(canonical.CIDR(), n.Interface())
	}
	return canonical, nil
}

// Interfaces lists the device's network interfaces
func (c *Client) Interfaces(ctx context.Context) ([]target.Interface, error) {
	var resp interfacesResponse
	if err := c.get(ctx, "/api/interfaces", &resp); err != nil {
		return nil, err
	}
	return resp.Interfaces, nil
}

// RunAction dispatches an action against a resolved target. The resolved
// target always wins over a "target" key in data.
func (c *Client) RunAction(ctx context.Context, action, resolved string, data map[string]any) (*ActionResponse, error) {
	body := make(map[string]any, len(data)+1)
	for k, v := range data {
		body[k] = v
	}
	body["target"] = nullable(resolved)

	path := "/api/action/" + url.PathEscape(action)
	var resp ActionResponse
	if err := c.post(ctx, path, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Accepted() {
		return &resp, unaccepted(path, resp.Status, firstNonEmpty(resp.Error, resp.Message))
	}
	return &resp, nil
}

// RunScenario starts a scenario playbook against an optional host target
func (c *Client) RunScenario(ctx context.Context, scenario, resolved string) (*ActionResponse, error) {
	path := "/api/scenario/" + url.PathEscape(scenario)
	var resp ActionResponse
	if err := c.post(ctx, path, map[string]any{"target": nullable(resolved)}, &resp); err != nil {
		return nil, err
	}
	if !resp.Accepted() {
		return &resp, unaccepted(path, resp.Status, firstNonEmpty(resp.Error, resp.Message))
	}
	return &resp, nil
}

// StartScan starts a timed WiFi scan and returns its declared duration
func (c *Client) StartScan(ctx context.Context) (*ScanStart, error) {
	var resp ScanStart
	if err := c.get(ctx, "/api/scan/start", &resp); err != nil {
		return nil, err
	}
	if resp.Status != "" && resp.Status != StatusSuccess && resp.Status != "started" {
		return nil, unaccepted("/api/scan/start", resp.Status, "")
	}
	return &resp, nil
}

// ScanResults returns the networks found by the last WiFi scan
func (c *Client) ScanResults(ctx context.Context) ([]WiFiNetwork, error) {
	var resp networksResponse
	if err := c.get(ctx, "/api/scan/results", &resp); err != nil {
		return nil, err
	}
	return resp.Networks, nil
}

// ConnectWiFi joins the device to a network
func (c *Client) ConnectWiFi(ctx context.Context, creds WiFiCredentials) (string, error) {
	var resp statusResponse
	if err := c.post(ctx, "/api/wifi/connect", creds, &resp); err != nil {
		return "", err
	}
	if resp.Status != StatusSuccess {
		return "", unaccepted("/api/wifi/connect", resp.Status, resp.Message)
	}
	return resp.Message, nil
}

// LiveLogs returns the backend's full live log
func (c *Client) LiveLogs(ctx context.Context) ([]LogEntry, error) {
	var resp logsResponse
	if err := c.get(ctx, "/api/logs/live", &resp); err != nil {
		return nil, err
	}
	return resp.Logs, nil
}

// Reports returns the action history
func (c *Client) Reports(ctx context.Context) ([]Report, error) {
	var resp reportsResponse
	if err := c.get(ctx, "/api/reports", &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}

// ViewLog returns the content of a report's log file
func (c *Client) ViewLog(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("view log: filename is required")
	}
	var resp logViewResponse
	if err := c.get(ctx, "/api/logs/view/"+url.PathEscape(filename), &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// SystemInfo returns the device health summary
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var resp SystemInfo
	if err := c.get(ctx, "/api/system", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping performs a simple health check against the backend
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.SystemInfo(ctx)
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// do performs a single request. A body carrying a non-empty "error" field is
// a backend error regardless of HTTP status.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		logging.LogRequest(method, path, status, time.Since(start), err)
	}()

	var body io.Reader
	if in != nil {
		data, mErr := json.Marshal(in)
		if mErr != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, mErr)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		e := NewNetworkError("failed to create request", err)
		e.Endpoint = path
		return e
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		e := NewNetworkError(fmt.Sprintf("%s request failed", method), err)
		e.Endpoint = path
		return e
	}
	defer func() { _ = resp.Body.Close() }()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		e := NewNetworkError("failed to read response body", err)
		e.Endpoint = path
		return e
	}

	var envelope errorEnvelope
	envErr := json.Unmarshal(raw, &envelope)
	if envErr == nil && envelope.Error != "" {
		e := NewBackendError(resp.StatusCode, "backend reported failure", envelope.Error)
		e.Endpoint = path
		return e
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
		if envErr == nil && envelope.Message != "" {
			e.BackendText = envelope.Message
		}
		e.Endpoint = path
		return e
	}

	if out == nil {
		return nil
	}
	if envErr != nil {
		e := NewParseError("failed to parse JSON response", envErr)
		e.Endpoint = path
		return e
	}
	if err := json.Unmarshal(raw, out); err != nil {
		e := NewParseError("failed to parse JSON response", err)
		e.Endpoint = path
		return e
	}
	return nil
}

// unaccepted builds the error for a 2xx response whose status is not success
func unaccepted(path, status, text string) *Error {
	msg := "request not accepted"
	if status != "" {
		msg = fmt.Sprintf("request not accepted (status %q)", status)
	}
	e := NewBackendError(http.StatusOK, msg, text)
	e.Endpoint = path
	return e
}

// nullable sends an empty target as JSON null, which target-less actions expect
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
