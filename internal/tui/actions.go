package tui

import (
	"strings"

	"github.com/void0x11/VoidPWN/internal/resolver"
)

// actionItem is one entry of the Attack tab
type actionItem struct {
	Group    string
	Label    string
	Action   string
	Mode     string
	Scenario bool
}

// Data returns the payload sent with the action
func (a actionItem) Data() resolver.Data {
	if a.Mode == "" {
		return nil
	}
	return resolver.Data{"mode": a.Mode}
}

// Title is the text shown in the list and in confirmations
func (a actionItem) Title() string {
	if a.Scenario {
		return "SCENARIO " + strings.ToUpper(a.Action)
	}
	if a.Mode != "" {
		return strings.ToUpper(a.Action) + " (" + a.Mode + ")"
	}
	return strings.ToUpper(a.Action)
}

// actionCatalog lists what the Attack tab offers, grouped as on the device
var actionCatalog = []actionItem{
	{Group: "Recon", Label: "Quick scan", Action: resolver.ActionRecon, Mode: "quick"},
	{Group: "Recon", Label: "Full scan", Action: resolver.ActionRecon, Mode: "full"},
	{Group: "Recon", Label: "Stealth scan", Action: resolver.ActionRecon, Mode: "stealth"},
	{Group: "Recon", Label: "Vulnerability scan", Action: resolver.ActionRecon, Mode: "vuln"},
	{Group: "Recon", Label: "Comprehensive", Action: resolver.ActionRecon, Mode: "comprehensive"},
	{Group: "Recon", Label: "Host discovery", Action: resolver.ActionRecon, Mode: "discover"},
	{Group: "Recon", Label: "Web enumeration", Action: resolver.ActionRecon, Mode: "web"},
	{Group: "Recon", Label: "SMB enumeration", Action: resolver.ActionRecon, Mode: "smb"},
	{Group: "Recon", Label: "DNS enumeration", Action: resolver.ActionRecon, Mode: "dns"},
	{Group: "Recon", Label: "ARP sweep", Action: resolver.ActionRecon, Mode: resolver.ModeARP},

	{Group: "WiFi", Label: "Deauth", Action: "deauth"},
	{Group: "WiFi", Label: "Capture handshake", Action: "handshake"},
	{Group: "WiFi", Label: "PMKID capture", Action: "pmkid"},
	{Group: "WiFi", Label: "WPS pixie dust", Action: "pixie"},
	{Group: "WiFi", Label: "Evil twin", Action: "evil_twin"},
	{Group: "WiFi", Label: "Auth flood", Action: "auth"},
	{Group: "WiFi", Label: "Beacon flood", Action: "beacon"},
	{Group: "WiFi", Label: "Wifite", Action: "wifite"},
	{Group: "WiFi", Label: "Crack latest capture", Action: resolver.ActionCrack},

	{Group: "Scenarios", Label: "Network sweep", Action: "network_sweep", Scenario: true},
	{Group: "Scenarios", Label: "Web hunt", Action: "web_hunt", Scenario: true},
	{Group: "Scenarios", Label: "WiFi audit", Action: "wifi_audit", Scenario: true},
	{Group: "Scenarios", Label: "Stealth recon", Action: "stealth_recon", Scenario: true},
}
