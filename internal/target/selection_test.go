package target

import (
	"encoding/json"
	"sync"
	"testing"
)

func mustWiFi(t *testing.T, bssid, ssid string, ch int) NetworkTarget {
	t.Helper()
	n, err := WiFi(bssid, ssid, ch)
	if err != nil {
		t.Fatalf("WiFi(%q) error = %v", bssid, err)
	}
	return n
}

func mustSubnet(t *testing.T, cidr, iface string) NetworkTarget {
	t.Helper()
	n, err := Subnet(cidr, iface)
	if err != nil {
		t.Fatalf("Subnet(%q) error = %v", cidr, err)
	}
	return n
}

func TestModel_StartsEmpty(t *testing.T) {
	m := NewModel()

	if !m.Current().IsEmpty() {
		t.Errorf("new model should have no selection, got %v", m.Current().Kind())
	}
	if m.DisplayLabel() != NoneLabel {
		t.Errorf("DisplayLabel() = %q, want %q", m.DisplayLabel(), NoneLabel)
	}
	if m.InputValue() != "" {
		t.Errorf("InputValue() = %q, want empty", m.InputValue())
	}
}

func TestModel_SelectionsAreMutuallyExclusive(t *testing.T) {
	dev := Device{ID: "d1", IP: "10.0.0.5", Hostname: "printer"}
	wifi := mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 6)

	m := NewModel()
	m.SelectDevice(dev)
	m.SelectNetwork(wifi)

	if _, ok := m.Current().Device(); ok {
		t.Error("device should be cleared after SelectNetwork")
	}
	if _, ok := m.Current().Network(); !ok {
		t.Error("network should be set after SelectNetwork")
	}

	m.SelectDevice(dev)
	if _, ok := m.Current().Network(); ok {
		t.Error("network should be cleared after SelectDevice")
	}
	if got, ok := m.Current().Device(); !ok || got.ID != "d1" {
		t.Errorf("Device() = %+v, %v, want d1", got, ok)
	}

	m.Clear()
	if !m.Current().IsEmpty() {
		t.Error("Clear() should leave no selection")
	}
}

func TestModel_ConcurrentSelectionsNeverMixKinds(t *testing.T) {
	m := NewModel()
	dev := Device{ID: "d1", IP: "10.0.0.5"}
	wifi := mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 6)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); m.SelectDevice(dev) }()
		go func() { defer wg.Done(); m.SelectNetwork(wifi) }()
		go func() {
			defer wg.Done()
			s := m.Current()
			_, hasDev := s.Device()
			_, hasNet := s.Network()
			if hasDev && hasNet {
				t.Error("selection holds both a device and a network")
			}
		}()
	}
	wg.Wait()
}

func TestSelection_Label(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want string
	}{
		{
			name: "none",
			sel:  None(),
			want: "NONE SELECTED",
		},
		{
			name: "device",
			sel:  DeviceSelection(Device{ID: "d1", IP: "10.0.0.5", Hostname: "nas"}),
			want: "[IP] 10.0.0.5 (nas)",
		},
		{
			name: "wifi",
			sel:  NetworkSelection(mustWiFi(t, "aa:bb:cc:dd:ee:ff", "corp", 11)),
			want: "[WiFi] corp (aa:bb:cc:dd:ee:ff)",
		},
		{
			name: "subnet with interface",
			sel:  NetworkSelection(mustSubnet(t, "192.168.1.0/24", "wlan0")),
			want: "[NET] 192.168.1.0/24 (wlan0)",
		},
		{
			name: "subnet without interface",
			sel:  NetworkSelection(mustSubnet(t, "10.0.0.0/24", "")),
			want: "[NET] 10.0.0.0/24 (???)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelection_InputValue(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want string
	}{
		{"none", None(), ""},
		{"device", DeviceSelection(Device{IP: "10.0.0.5"}), "10.0.0.5"},
		{"subnet prefers cidr", NetworkSelection(mustSubnet(t, "192.168.1.0/24", "eth0")), "192.168.1.0/24"},
		{"wifi prefers ssid", NetworkSelection(mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 1)), "corp"},
		{"hidden wifi falls back to bssid", NetworkSelection(mustWiFi(t, "AA:BB:CC:DD:EE:FF", "", 1)), "AA:BB:CC:DD:EE:FF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.InputValue(); got != tt.want {
				t.Errorf("InputValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModel_Replace(t *testing.T) {
	m := NewModel()
	local := mustSubnet(t, "192.168.1.0/24", "")
	canonical := mustSubnet(t, "192.168.1.0/24", "wlan0")

	before := m.SelectNetwork(local)
	if !m.Replace(before, NetworkSelection(canonical)) {
		t.Fatal("Replace() should succeed while selection is unchanged")
	}
	if n, _ := m.Current().Network(); n.Interface() != "wlan0" {
		t.Errorf("Interface() = %q, want wlan0", n.Interface())
	}

	// A newer selection wins over a late canonical response.
	m.SelectDevice(Device{ID: "d2", IP: "10.0.0.9"})
	if m.Replace(before, NetworkSelection(canonical)) {
		t.Error("Replace() should fail once the operator selected something else")
	}
	if m.Current().Kind() != KindDevice {
		t.Errorf("Kind() = %v, want device", m.Current().Kind())
	}
}

func TestNetworkSelection_ZeroIsNone(t *testing.T) {
	if !NetworkSelection(NetworkTarget{}).IsEmpty() {
		t.Error("zero NetworkTarget should produce an empty selection")
	}
}

func TestNetworkTarget_Constructors(t *testing.T) {
	if _, err := WiFi("", "corp", 1); err == nil {
		t.Error("WiFi() without BSSID should fail")
	}
	if _, err := Subnet("", "eth0"); err == nil {
		t.Error("Subnet() without CIDR should fail")
	}
	if _, err := Subnet("192.168.1.300/24", ""); err == nil {
		t.Error("Subnet() with invalid CIDR should fail")
	}
}

func TestNetworkTarget_BSSIDCase(t *testing.T) {
	lower := mustWiFi(t, " aa:bb:cc:dd:ee:ff ", "corp", 6)
	if lower.BSSID() != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("BSSID() = %q, want the case it was given", lower.BSSID())
	}

	tests := []struct {
		name string
		a, b NetworkTarget
		want bool
	}{
		{"case differs", lower, mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 6), true},
		{"other bssid", lower, mustWiFi(t, "aa:bb:cc:dd:ee:00", "corp", 6), false},
		{"other channel", lower, mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 11), false},
		{"wifi vs subnet", lower, mustSubnet(t, "10.0.0.0/24", "eth0"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%s: Equal() = %v, want %v", tt.name, got, tt.want)
		}
	}

	m := NewModel()
	m.SelectNetwork(lower)
	upper := NetworkSelection(mustWiFi(t, "AA:BB:CC:DD:EE:FF", "corp", 6))
	if !m.Current().Equal(upper) {
		t.Error("selections differing only in BSSID case should be equal")
	}
}

func TestNetworkTarget_JSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantKind  NetworkKind
		wantValue string
		wantErr   bool
	}{
		{"explicit subnet", `{"type":"subnet","cidr":"10.0.0.0/24","interface":"eth0"}`, KindSubnet, "10.0.0.0/24", false},
		{"inferred subnet", `{"subnet":"192.168.1.0/24"}`, KindSubnet, "192.168.1.0/24", false},
		{"inferred wifi", `{"bssid":"aa:bb:cc:dd:ee:ff","ssid":"corp","channel":6}`, KindWiFi, "aa:bb:cc:dd:ee:ff", false},
		{"unknown", `{"ssid":"corp"}`, 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n NetworkTarget
			err := json.Unmarshal([]byte(tt.input), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if n.Kind() != tt.wantKind {
				t.Errorf("Kind() = %v, want %v", n.Kind(), tt.wantKind)
			}
			got := n.CIDR()
			if n.IsWiFi() {
				got = n.BSSID()
			}
			if got != tt.wantValue {
				t.Errorf("value = %q, want %q", got, tt.wantValue)
			}
		})
	}
}
