package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/discovery"
	"github.com/void0x11/VoidPWN/internal/target"
)

var (
	headerFmt      = color.New(color.FgHiWhite, color.BgBlue, color.Bold).SprintfFunc()
	firstColumnFmt = color.New(color.FgCyan).SprintfFunc()

	successFmt = color.New(color.FgGreen).SprintfFunc()
	errorFmt   = color.New(color.FgRed).SprintfFunc()
	runningFmt = color.New(color.FgYellow).SprintfFunc()
	mutedFmt   = color.New(color.FgHiBlack).SprintfFunc()
)

func newTable(w io.Writer, columns ...interface{}) table.Table {
	return table.New(columns...).
		WithHeaderFormatter(headerFmt).
		WithFirstColumnFormatter(firstColumnFmt).
		WithWriter(w)
}

// NetworksTable prints WiFi scan results. The row number is what
// `target wifi` and the console accept as a shortcut.
func NetworksTable(w io.Writer, networks []backend.WiFiNetwork) {
	if len(networks) == 0 {
		fmt.Fprintln(w, mutedFmt("No networks found."))
		return
	}
	tbl := newTable(w, "#", "BSSID", "CH", "PWR", "ENC", "ESSID")
	for i, n := range networks {
		tbl.AddRow(i+1, n.BSSID, int(n.Channel), int(n.Power), n.Privacy, n.DisplayESSID())
	}
	tbl.Print()
}

// DevicesTable prints the device inventory. The selected device, if any,
// is marked with an arrow.
func DevicesTable(w io.Writer, devices []target.Device, selectedIP string) {
	if len(devices) == 0 {
		fmt.Fprintln(w, mutedFmt("No devices discovered yet. Run 'devices --scan quick'."))
		return
	}
	tbl := newTable(w, "ID", "IP", "HOSTNAME", "MAC", "TYPE", "PORTS", "TAGS", "")
	for _, d := range devices {
		marker := ""
		if selectedIP != "" && d.IP == selectedIP {
			marker = "◀"
		}
		tbl.AddRow(d.ID, d.IP, d.DisplayHostname(), d.DisplayMAC(), d.DisplayType(),
			PortList(d.Ports), strings.Join(d.Tags, ","), marker)
	}
	tbl.Print()
}

// PortList renders port numbers without their protocol suffix.
// Descriptors without a number are shown as the backend sent them.
func PortList(ports []target.Port) string {
	if len(ports) == 0 {
		return "-"
	}
	nums := make([]string, 0, len(ports))
	for _, p := range ports {
		if p.Raw != "" {
			nums = append(nums, p.Raw)
			continue
		}
		nums = append(nums, strconv.Itoa(p.Number))
	}
	return strings.Join(nums, ",")
}

// ReportsTable prints the action history, newest first as the backend
// returns it.
func ReportsTable(w io.Writer, reports []backend.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, mutedFmt("No reports yet."))
		return
	}
	tbl := newTable(w, "TIME", "TYPE", "TARGET", "STATUS", "LOG")
	for _, r := range reports {
		tbl.AddRow(r.Clock(), r.Type, r.Target, StatusText(r.StatusClass()), r.LogFile)
	}
	tbl.Print()
}

// StatusText colors a report status
func StatusText(status string) string {
	switch status {
	case backend.ReportSuccess:
		return successFmt("%s", strings.ToUpper(status))
	case backend.ReportFailed:
		return errorFmt("%s", strings.ToUpper(status))
	case backend.ReportRunning:
		return runningFmt("%s", strings.ToUpper(status))
	default:
		return strings.ToUpper(status)
	}
}

// InterfacesTable prints the backend's network interfaces with the /24
// each one would scan.
func InterfacesTable(w io.Writer, ifaces []target.Interface) {
	if len(ifaces) == 0 {
		fmt.Fprintln(w, mutedFmt("No interfaces reported."))
		return
	}
	tbl := newTable(w, "NAME", "IP", "SPEED", "SUBNET")
	for _, i := range ifaces {
		subnet, err := i.SubnetCIDR()
		if err != nil {
			subnet = "-"
		}
		speed := i.Speed
		if speed == "" {
			speed = "-"
		}
		tbl.AddRow(i.Name, i.IP, speed, subnet)
	}
	tbl.Print()
}

// LogLine formats one backend log entry, colored by type
func LogLine(e backend.LogEntry) string {
	line := fmt.Sprintf("[%s] %s", e.Time, e.Msg)
	switch strings.ToLower(e.Type) {
	case backend.LogSuccess:
		return successFmt("%s", line)
	case backend.LogError:
		return errorFmt("%s", line)
	default:
		return line
	}
}

// LogLines prints backend log entries, one per line
func LogLines(w io.Writer, entries []backend.LogEntry) {
	for _, e := range entries {
		fmt.Fprintln(w, LogLine(e))
	}
}

// SystemLine summarises device health in one line
func SystemLine(s *backend.SystemInfo) string {
	if s == nil {
		return mutedFmt("system: unavailable")
	}
	return fmt.Sprintf("ip %s  cpu %.0f%%  ram %.0f%%  disk %.0f%%  temp %s  up %s",
		s.IP, s.CPU, s.MemPercent, s.DiskPercent, s.Temp, s.Uptime)
}

// BackendsTable prints dashboards found by mDNS discovery
func BackendsTable(w io.Writer, backends []*discovery.Backend) {
	if len(backends) == 0 {
		fmt.Fprintln(w, mutedFmt("No VoidPWN backends found."))
		return
	}
	tbl := newTable(w, "NAME", "URL", "HOST", "VERSION")
	for _, b := range backends {
		ver := b.GetMetadata("version")
		if ver == "" {
			ver = "-"
		}
		tbl.AddRow(b.Name, b.BaseURL(), b.Hostname, ver)
	}
	tbl.Print()
}
