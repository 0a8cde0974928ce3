package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/ui"
)

// View renders the console
func (m AppModel) View() string {
	width := max(m.Width, MinTerminalWidth)

	if m.viewingLog {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1).
			Render(TitleStyle.Render(m.logName) + "\n" + m.logView.View() + "\n" + HelpStyle.Render("esc close • ↑/↓ scroll"))
		return RenderModal(box, width, max(m.Height, 20))
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.ActiveTab {
	case TabTargets:
		m.renderTargets(&b)
	case TabWiFi:
		m.renderWiFi(&b)
	case TabAttack:
		m.renderAttack(&b)
	case TabReports:
		m.renderReports(&b)
	case TabLogs:
		m.renderLogs(&b)
	}

	if m.confirm != nil {
		b.WriteString("\n")
		b.WriteString(PromptStyle.Render(fmt.Sprintf("%s  %s against %s?  y to confirm, any other key cancels",
			ui.WarningMarker, m.confirm.Title(), m.console.Label())))
	}
	if m.asking {
		b.WriteString("\n")
		b.WriteString(PromptStyle.Render("Password for " + m.wifiSSID() + ": " + m.password.View()))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus(width))

	footer := m.Help.View(m.Keys)
	if m.showHelp {
		footer = m.Help.FullHelpView(m.Keys.FullHelp())
	}

	return RenderApplicationContainer(BuildHeaderContent(m.console.Selection()), b.String(), footer, width, m.Height)
}

func (m AppModel) renderTabs() string {
	tabs := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == m.ActiveTab {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// listWindow returns the slice bounds that keep the cursor visible
func (m AppModel) listWindow(n, cursor int) (int, int) {
	rows := max(m.Height-16, MinListHeight)
	if n <= rows {
		return 0, n
	}
	start := cursor - rows/2
	start = max(start, 0)
	if start+rows > n {
		start = n - rows
	}
	return start, start + rows
}

func (m AppModel) renderRow(selected bool, text string) string {
	if selected {
		return SelectedListItemStyle.Render("▸ " + text)
	}
	return ListItemStyle.Render(text)
}

func (m AppModel) renderTargets(b *strings.Builder) {
	sel := m.console.Selection()
	cur := m.cursors[TabTargets]

	if m.showInterfaces {
		b.WriteString(TitleStyle.Render("Interfaces"))
		b.WriteString("\n")
		if len(m.interfaces) == 0 {
			b.WriteString(SubtitleStyle.Render("  No interfaces reported."))
			return
		}
		b.WriteString(ColumnHeaderStyle.Render(padRight("NAME", 10) + padRight("IP", 18) + padRight("SPEED", 12) + "SUBNET"))
		b.WriteString("\n")
		for i, iface := range m.interfaces {
			subnet, err := iface.SubnetCIDR()
			if err != nil {
				subnet = "-"
			}
			line := padRight(iface.Name, 10) + padRight(iface.IP, 18) + padRight(iface.Speed, 12) + subnet
			b.WriteString(m.renderRow(i == cur, line))
			b.WriteString("\n")
		}
		b.WriteString(SubtitleStyle.Render("  enter targets the interface's /24 • i back to devices"))
		return
	}

	devices := m.console.Devices.Value()
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Devices (%d)", len(devices))))
	b.WriteString("\n")
	if len(devices) == 0 {
		b.WriteString(SubtitleStyle.Render("  No devices discovered yet. Press s to run a quick discovery."))
		return
	}

	selectedIP := ""
	if d, ok := sel.Device(); ok {
		selectedIP = d.IP
	}

	b.WriteString(ColumnHeaderStyle.Render(padRight("IP", 16) + padRight("HOSTNAME", 20) + padRight("MAC", 19) + padRight("TYPE", 10) + "PORTS"))
	b.WriteString("\n")
	start, end := m.listWindow(len(devices), cur)
	for i := start; i < end; i++ {
		d := devices[i]
		line := padRight(d.IP, 16) + padRight(d.DisplayHostname(), 20) + padRight(d.DisplayMAC(), 19) +
			padRight(d.DisplayType(), 10) + ui.PortList(d.Ports)
		if d.IP == selectedIP {
			line += "  ◀"
		}
		b.WriteString(m.renderRow(i == cur, line))
		b.WriteString("\n")
	}

	if cur < len(devices) {
		b.WriteString("\n")
		b.WriteString(m.renderDeviceDetail(devices[cur]))
	}
}

func (m AppModel) renderDeviceDetail(d target.Device) string {
	lines := []string{
		fmt.Sprintf("%s  %s", d.ID, d.DisplayHostname()),
		"tags:  " + orDash(strings.Join(d.Tags, ", ")),
		"notes: " + orDash(d.Notes),
	}
	return SubtitleStyle.Render("  " + strings.Join(lines, "\n  "))
}

func (m AppModel) renderWiFi(b *strings.Builder) {
	if m.console.Scan.Busy() {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(ScanLabelStyle.Render(m.scanLabel))
		b.WriteString("\n  ")
		b.WriteString(m.scanBar.ViewAs(m.scanPercent()))
		b.WriteString("\n\n")
	} else {
		b.WriteString(SubtitleStyle.Render("  s " + m.scanLabel + " • enter select • p connect"))
		b.WriteString("\n\n")
	}

	if len(m.networks) == 0 {
		b.WriteString(SubtitleStyle.Render("  No scan results."))
		return
	}

	selected := ""
	if n, ok := m.console.Selection().WiFi(); ok {
		selected = n.BSSID()
	}

	b.WriteString(ColumnHeaderStyle.Render(padRight("BSSID", 19) + padRight("CH", 4) + padRight("PWR", 6) + padRight("ENC", 8) + "ESSID"))
	b.WriteString("\n")
	cur := m.cursors[TabWiFi]
	start, end := m.listWindow(len(m.networks), cur)
	for i := start; i < end; i++ {
		n := m.networks[i]
		line := padRight(n.BSSID, 19) + padRight(fmt.Sprint(int(n.Channel)), 4) + padRight(fmt.Sprint(int(n.Power)), 6) +
			padRight(n.Privacy, 8) + n.DisplayESSID()
		if strings.EqualFold(n.BSSID, selected) {
			line += "  ◀"
		}
		b.WriteString(m.renderRow(i == cur, line))
		b.WriteString("\n")
	}
}

// scanPercent is the elapsed share of the declared scan length
func (m AppModel) scanPercent() float64 {
	if m.scanTotal <= 0 {
		return 0
	}
	return float64(m.scanTotal-m.console.Scan.Remaining()) / float64(m.scanTotal)
}

func (m AppModel) renderAttack(b *strings.Builder) {
	b.WriteString(SubtitleStyle.Render("  Target: " + m.console.Label()))
	b.WriteString("\n")

	cur := m.cursors[TabAttack]
	group := ""
	start, end := m.listWindow(len(actionCatalog), cur)
	for i := start; i < end; i++ {
		item := actionCatalog[i]
		if item.Group != group {
			group = item.Group
			b.WriteString("\n")
			b.WriteString(ColumnHeaderStyle.Render(strings.ToUpper(group)))
			b.WriteString("\n")
		}
		line := padRight(item.Label, 24) + item.Title()
		if !item.Scenario && ui.IsDisruptive(item.Action) {
			line += " " + ui.WarningMarker
		}
		b.WriteString(m.renderRow(i == cur, line))
		b.WriteString("\n")
	}
}

func (m AppModel) renderReports(b *strings.Builder) {
	reports := m.console.Reports.Value()
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Reports (%d)", len(reports))))
	b.WriteString("\n")
	if len(reports) == 0 {
		b.WriteString(SubtitleStyle.Render("  No reports yet."))
		return
	}

	b.WriteString(ColumnHeaderStyle.Render(padRight("TIME", 10) + padRight("TYPE", 18) + padRight("TARGET", 22) + "STATUS"))
	b.WriteString("\n")
	cur := m.cursors[TabReports]
	start, end := m.listWindow(len(reports), cur)
	for i := start; i < end; i++ {
		r := reports[i]
		line := padRight(r.Clock(), 10) + padRight(r.Type, 18) + padRight(r.Target, 22) + renderStatus(r)
		b.WriteString(m.renderRow(i == cur, line))
		b.WriteString("\n")
	}
}

func renderStatus(r backend.Report) string {
	status := strings.ToUpper(r.StatusClass())
	switch r.StatusClass() {
	case backend.ReportSuccess:
		return SuccessTextStyle.Render(status)
	case backend.ReportFailed:
		return ErrorTextStyle.Render(status)
	case backend.ReportRunning:
		return ScanLabelStyle.Render(status)
	default:
		return status
	}
}

func (m AppModel) renderLogs(b *strings.Builder) {
	rows := max((m.Height-16)/2, MinListHeight)

	b.WriteString(TitleStyle.Render("Live log"))
	b.WriteString("\n")
	logs := m.console.Logs.Value()
	if len(logs) == 0 {
		b.WriteString(SubtitleStyle.Render("  Waiting for the backend..."))
		b.WriteString("\n")
	}
	for _, e := range tail(logs, rows) {
		b.WriteString("  " + RenderLogType(strings.ToLower(e.Type), fmt.Sprintf("[%s] %s", e.Time, e.Msg)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Console activity"))
	b.WriteString("\n")
	for _, a := range tail(m.console.Activity().Entries(), rows) {
		b.WriteString("  " + RenderActivity(a))
		b.WriteString("\n")
	}
}

func (m AppModel) renderStatus(width int) string {
	parts := []string{}
	if m.Busy() {
		parts = append(parts, m.spinner.View())
	}
	if a, ok := m.console.Activity().Last(); ok {
		parts = append(parts, RenderActivity(a))
	}
	sys := m.console.System.Value()
	if sys.IP != "" {
		parts = append(parts, fmt.Sprintf("cpu %.0f%% ram %.0f%% temp %s ip %s", sys.CPU, sys.MemPercent, sys.Temp, sys.IP))
	}
	return StatusBarStyle.Width(width - 6).Render(strings.Join(parts, "  │  "))
}

func (m AppModel) wifiSSID() string {
	if n, ok := m.console.Selection().WiFi(); ok {
		return n.SSID()
	}
	return "?"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
