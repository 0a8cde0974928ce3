package tui

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/backendsim"
	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/target"
)

func newTestApp(t *testing.T) (AppModel, *console.Console, *backendsim.Server) {
	t.Helper()
	sim := backendsim.New(backendsim.Config{
		ScanDuration: 1,
		Interfaces:   []target.Interface{{Name: "eth0", IP: "192.168.50.5"}},
	}).WithSystemSource(backendsim.StaticSystem{IP: "192.168.50.5", CPU: 12})
	server := httptest.NewServer(sim)
	t.Cleanup(server.Close)

	c := console.New(backend.NewClientWithURL(server.URL), console.Options{})
	m := NewAppModel(context.Background(), c)
	m.Width = 120
	m.Height = 40
	return m, c, sim
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command once, feeding its
// message back into the model
func press(t *testing.T, m AppModel, k string) AppModel {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	m = next.(AppModel)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(AppModel)
		}
	}
	return m
}

func TestAppModel_WindowSize(t *testing.T) {
	m, _, _ := newTestApp(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	model := next.(AppModel)

	if model.Width != 100 || model.Height != 30 {
		t.Fatalf("size = %dx%d, want 100x30", model.Width, model.Height)
	}
}

func TestAppModel_TabNavigation(t *testing.T) {
	m, _, _ := newTestApp(t)

	m = press(t, m, "tab")
	if m.ActiveTab != TabWiFi {
		t.Fatalf("after tab: %v, want WiFi", m.ActiveTab)
	}
	m = press(t, m, "5")
	if m.ActiveTab != TabLogs {
		t.Fatalf("after 5: %v, want Logs", m.ActiveTab)
	}
	m = press(t, m, "tab")
	if m.ActiveTab != TabTargets {
		t.Fatalf("tab should wrap to Targets, got %v", m.ActiveTab)
	}
}

func TestAppModel_Quit(t *testing.T) {
	m, _, _ := newTestApp(t)

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestAppModel_SelectDevice(t *testing.T) {
	m, c, sim := newTestApp(t)
	if _, err := c.Devices.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}

	m = press(t, m, "down")
	m = press(t, m, "enter")

	d, ok := c.Selection().Device()
	if !ok {
		t.Fatalf("selection = %v, want a device", c.Selection().Kind())
	}
	if d.IP != "192.168.50.10" {
		t.Errorf("selected %s, want the second device", d.IP)
	}
	if got, _ := sim.Selected(); got != d.ID {
		t.Errorf("backend selection = %q, want %q", got, d.ID)
	}
	if m.Busy() {
		t.Error("model still busy after the request finished")
	}
	if !strings.Contains(m.View(), "[IP] 192.168.50.10") {
		t.Error("header badge does not show the selected device")
	}
}

func TestAppModel_InterfaceSubnet(t *testing.T) {
	m, c, _ := newTestApp(t)

	m = press(t, m, "i")
	if !m.showInterfaces || len(m.interfaces) != 1 {
		t.Fatalf("interfaces not loaded: %v", m.interfaces)
	}
	press(t, m, "enter")

	n, ok := c.Selection().Subnet()
	if !ok {
		t.Fatal("expected a subnet selection")
	}
	if n.CIDR() != "192.168.50.0/24" || n.Interface() != "eth0" {
		t.Errorf("subnet = %s on %s", n.CIDR(), n.Interface())
	}
}

func TestAppModel_NetworksAndSelectWiFi(t *testing.T) {
	m, c, _ := newTestApp(t)
	m.ActiveTab = TabWiFi
	m.busy = 1

	next, _ := m.Update(networksMsg{networks: []backend.WiFiNetwork{
		{BSSID: "aa:bb:cc:00:00:01", ESSID: "LabNet", Channel: 6, Power: -41},
	}})
	m = next.(AppModel)
	if m.Busy() {
		t.Error("scan result should end the pending request")
	}

	if !strings.Contains(m.View(), "LabNet") {
		t.Fatal("view should list the scanned network")
	}

	press(t, m, "enter")
	n, ok := c.Selection().WiFi()
	if !ok {
		t.Fatal("expected a WiFi selection")
	}
	if n.BSSID() != "aa:bb:cc:00:00:01" {
		t.Errorf("BSSID = %s", n.BSSID())
	}
}

func TestAppModel_DisruptiveActionNeedsConfirmation(t *testing.T) {
	m, c, sim := newTestApp(t)
	n, _ := target.WiFi("AA:BB:CC:00:00:01", "LabNet", 6)
	if _, err := c.SelectWiFi(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	m.ActiveTab = TabAttack
	m.cursors[TabAttack] = catalogIndex(t, "deauth", "")

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(AppModel)
	if cmd != nil {
		t.Fatal("disruptive action dispatched without confirmation")
	}
	if m.confirm == nil || !strings.Contains(m.View(), "y to confirm") {
		t.Fatal("confirmation prompt not shown")
	}

	// Any key other than y cancels
	m = press(t, m, "n")
	if m.confirm != nil || sim.Requests("/api/action/deauth") != 0 {
		t.Fatal("cancelled action reached the backend")
	}

	m = press(t, m, "enter")
	press(t, m, "y")
	if got := sim.Requests("/api/action/deauth"); got != 1 {
		t.Errorf("deauth requests = %d, want 1", got)
	}
}

func TestAppModel_RejectedActionShowsHint(t *testing.T) {
	m, _, sim := newTestApp(t)
	m.ActiveTab = TabAttack
	m.cursors[TabAttack] = catalogIndex(t, "recon", "web")

	m = press(t, m, "enter")

	if sim.Requests("/api/action/recon") != 0 {
		t.Fatal("rejected action reached the backend")
	}
	a, ok := m.console.Activity().Last()
	if !ok || a.Level != console.LevelError {
		t.Fatalf("last activity = %+v, want an error hint", a)
	}
}

func TestAppModel_DisruptiveActionWithoutTargetSkipsConfirmation(t *testing.T) {
	tests := []struct {
		name   string
		action string
		mode   string
		hint   string
	}{
		{"deauth without wifi", "deauth", "", "Select a WiFi Network Target!"},
		{"pixie without wifi", "pixie", "", "Select a WiFi Network Target!"},
		{"evil twin without wifi", "evil_twin", "", "Select a WiFi Network Target!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, sim := newTestApp(t)
			m.ActiveTab = TabAttack
			m.cursors[TabAttack] = catalogIndex(t, tt.action, tt.mode)

			m = press(t, m, "enter")

			if m.confirm != nil || strings.Contains(m.View(), "y to confirm") {
				t.Fatal("operator prompted for an action that cannot run")
			}
			if sim.Requests("/api/action/"+tt.action) != 0 {
				t.Fatal("rejected action reached the backend")
			}
			var hinted bool
			for _, a := range m.console.Activity().Entries() {
				if a.Level == console.LevelError && strings.Contains(a.Message, tt.hint) {
					hinted = true
				}
			}
			if !hinted {
				t.Errorf("activity = %+v, want hint %q", m.console.Activity().Entries(), tt.hint)
			}
		})
	}
}

func TestAppModel_ViewReportLog(t *testing.T) {
	m, c, _ := newTestApp(t)
	ctx := context.Background()
	if _, err := c.RunScenario(ctx, "network_sweep"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Reports.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	m.ActiveTab = TabReports

	m = press(t, m, "enter")
	if !m.viewingLog {
		t.Fatal("log overlay not opened")
	}
	if !strings.Contains(m.View(), "scenario network_sweep") {
		t.Error("overlay should show the log content")
	}

	m = press(t, m, "esc")
	if m.viewingLog {
		t.Error("esc should close the overlay")
	}
}

func TestAppModel_ConnectRequiresWiFi(t *testing.T) {
	m, _, _ := newTestApp(t)
	m.ActiveTab = TabWiFi

	m = press(t, m, "p")
	if m.asking {
		t.Fatal("password prompt opened without a WiFi selection")
	}
}

func TestAppModel_ConnectWiFi(t *testing.T) {
	m, c, sim := newTestApp(t)
	n, _ := target.WiFi("AA:BB:CC:00:00:01", "LabNet", 6)
	if _, err := c.SelectWiFi(context.Background(), n); err != nil {
		t.Fatal(err)
	}
	m.ActiveTab = TabWiFi

	// Cursor blink commands are not run here; only the key handling matters.
	next, _ := m.Update(keyMsg("p"))
	m = next.(AppModel)
	if !m.asking {
		t.Fatal("password prompt not opened")
	}
	for _, r := range "hunter22" {
		next, _ = m.Update(keyMsg(string(r)))
		m = next.(AppModel)
	}
	if m.password.Value() != "hunter22" {
		t.Fatalf("password = %q", m.password.Value())
	}
	if m.ActiveTab != TabWiFi {
		t.Fatal("typing into the prompt switched tabs")
	}
	press(t, m, "enter")

	if got := sim.Requests("/api/wifi/connect"); got != 1 {
		t.Errorf("connect requests = %d, want 1", got)
	}
}

func TestAppModel_ScanEventUpdatesLabel(t *testing.T) {
	m, _, _ := newTestApp(t)
	next, cmd := m.Update(consoleEventMsg{event: console.Event{Kind: console.EventScan, Text: "SCANNING... 7s"}})
	m = next.(AppModel)

	if m.scanLabel != "SCANNING... 7s" {
		t.Errorf("scanLabel = %q", m.scanLabel)
	}
	if cmd == nil {
		t.Error("model should keep listening for events")
	}
}

func TestAppModel_ClearSelection(t *testing.T) {
	m, c, _ := newTestApp(t)
	if _, err := c.SelectDeviceByID(context.Background(), "dev-gw"); err != nil {
		t.Fatal(err)
	}

	press(t, m, "c")
	if !c.Selection().IsEmpty() {
		t.Error("c should clear the selection")
	}
	if !strings.Contains(m.View(), target.NoneLabel) {
		t.Error("badge should show no selection")
	}
}

func TestTruncStr(t *testing.T) {
	tests := []struct {
		in   string
		w    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := truncStr(tt.in, tt.w); got != tt.want {
			t.Errorf("truncStr(%q, %d) = %q, want %q", tt.in, tt.w, got, tt.want)
		}
	}
}

func catalogIndex(t *testing.T, action, mode string) int {
	t.Helper()
	for i, item := range actionCatalog {
		if item.Action == action && item.Mode == mode {
			return i
		}
	}
	t.Fatalf("%s/%s not in catalog", action, mode)
	return -1
}
