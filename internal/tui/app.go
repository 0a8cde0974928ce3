package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/void0x11/VoidPWN/internal/backend"
	"github.com/void0x11/VoidPWN/internal/console"
	"github.com/void0x11/VoidPWN/internal/resolver"
	"github.com/void0x11/VoidPWN/internal/target"
	"github.com/void0x11/VoidPWN/internal/ui"
)

// Tab is one of the console's views
type Tab int

const (
	TabTargets Tab = iota
	TabWiFi
	TabAttack
	TabReports
	TabLogs
	tabCount
)

// String returns the tab title
func (t Tab) String() string {
	switch t {
	case TabTargets:
		return "Targets"
	case TabWiFi:
		return "WiFi"
	case TabAttack:
		return "Attack"
	case TabReports:
		return "Reports"
	case TabLogs:
		return "Logs"
	default:
		return "?"
	}
}

// Messages for async operations
type consoleEventMsg struct {
	event console.Event
}

type networksMsg struct {
	networks []backend.WiFiNetwork
	err      error
}

type interfacesMsg struct {
	interfaces []target.Interface
	err        error
}

type logViewMsg struct {
	name    string
	content string
	err     error
}

// opDoneMsg ends a request whose outcome is already in the activity log
type opDoneMsg struct {
	err error
}

// appKeyMap defines key bindings shared by every tab
type appKeyMap struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Scan     key.Binding
	Iface    key.Binding
	Connect  key.Binding
	Clear    key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Back     key.Binding
	Approve  key.Binding
	JumpTabs []key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k appKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Enter, k.Scan, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k appKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Up, k.Down, k.Enter},
		{k.Scan, k.Iface, k.Connect, k.Clear, k.Refresh},
		{k.Help, k.Back, k.Quit},
	}
}

func newAppKeyMap() appKeyMap {
	keys := appKeyMap{
		NextTab: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev tab")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
		Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/run")),
		Scan:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scan")),
		Iface:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "interfaces")),
		Connect: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "connect")),
		Clear:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear target")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Approve: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	}
	for t := Tab(0); t < tabCount; t++ {
		n := string(rune('1' + int(t)))
		keys.JumpTabs = append(keys.JumpTabs, key.NewBinding(key.WithKeys(n), key.WithHelp(n, t.String())))
	}
	return keys
}

// AppModel is the interactive console. It holds no target state of its
// own: every view re-reads the Console when an event arrives.
type AppModel struct {
	ctx     context.Context
	console *console.Console
	events  <-chan console.Event

	// UI state
	ActiveTab Tab
	Width     int
	Height    int
	cursors   [tabCount]int

	// Targets tab
	interfaces     []target.Interface
	showInterfaces bool

	// WiFi tab
	networks  []backend.WiFiNetwork
	scanLabel string
	scanTotal int
	scanBar   progress.Model

	// Pending work
	busy     int
	spinner  spinner.Model
	confirm  *actionItem
	password textinput.Model
	asking   bool

	// Log file overlay
	logName    string
	logView    viewport.Model
	viewingLog bool

	showHelp bool
	Help     help.Model
	Keys     appKeyMap
}

// NewAppModel creates the console UI around c. Requests are made with ctx.
func NewAppModel(ctx context.Context, c *console.Console) AppModel {
	events := make(chan console.Event, 64)
	c.Subscribe(func(e console.Event) {
		select {
		case events <- e:
		default:
			// Events are only hints; the next one triggers the same re-read.
		}
	})

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ScanLabelStyle

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 63
	pw.Width = 30

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return AppModel{
		ctx:       ctx,
		console:   c,
		events:    events,
		ActiveTab: TabTargets,
		Width:     MinTerminalWidth,
		scanLabel: c.Scan.Label(),
		scanBar:   bar,
		spinner:   s,
		password:  pw,
		logView:   viewport.New(MinTerminalWidth-8, 10),
		Help:      help.New(),
		Keys:      newAppKeyMap(),
	}
}

// Init restores the backend's selection, polls every view once and starts
// listening for console events
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.restoreCmd(),
		m.refreshCmd(),
		waitForEvent(m.events),
		m.spinner.Tick,
	)
}

// Update handles all messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.logView.Width = SafeModalWidth(msg.Width-8, msg.Width)
		m.logView.Height = max(msg.Height-12, MinListHeight)
		return m, nil

	case consoleEventMsg:
		if msg.event.Kind == console.EventScan {
			m.observeScan(msg.event.Text)
		}
		m.clampCursor()
		return m, waitForEvent(m.events)

	case networksMsg:
		m.busy--
		if msg.err == nil && msg.networks != nil {
			m.networks = msg.networks
			m.cursors[TabWiFi] = 0
		}
		m.scanLabel = m.console.Scan.Label()
		m.scanTotal = 0
		return m, nil

	case interfacesMsg:
		m.busy--
		if msg.err == nil {
			m.interfaces = msg.interfaces
			m.showInterfaces = true
			m.cursors[TabTargets] = 0
		}
		return m, nil

	case logViewMsg:
		m.busy--
		if msg.err == nil {
			m.logName = msg.name
			m.logView.SetContent(msg.content)
			m.logView.GotoTop()
			m.viewingLog = true
		}
		return m, nil

	case opDoneMsg:
		m.busy--
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.viewingLog:
			return m.updateLogView(msg)
		case m.asking:
			return m.updatePassword(msg)
		case m.confirm != nil:
			return m.updateConfirm(msg)
		case m.showHelp:
			m.showHelp = false
			return m, nil
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

// updateNormal handles keys when no prompt or overlay is open
func (m AppModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for i, b := range m.Keys.JumpTabs {
		if key.Matches(msg, b) {
			m.ActiveTab = Tab(i)
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.Keys.NextTab):
		m.ActiveTab = (m.ActiveTab + 1) % tabCount
		return m, nil
	case key.Matches(msg, m.Keys.PrevTab):
		m.ActiveTab = (m.ActiveTab + tabCount - 1) % tabCount
		return m, nil
	case key.Matches(msg, m.Keys.Up):
		if m.cursors[m.ActiveTab] > 0 {
			m.cursors[m.ActiveTab]--
		}
		return m, nil
	case key.Matches(msg, m.Keys.Down):
		if m.cursors[m.ActiveTab] < m.rowCount()-1 {
			m.cursors[m.ActiveTab]++
		}
		return m, nil
	case key.Matches(msg, m.Keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.Keys.Clear):
		m.console.Clear()
		return m, nil
	case key.Matches(msg, m.Keys.Enter):
		return m.activate()
	}

	switch m.ActiveTab {
	case TabTargets:
		switch {
		case key.Matches(msg, m.Keys.Scan):
			m.busy++
			return m, m.deviceScanCmd()
		case key.Matches(msg, m.Keys.Iface):
			if m.showInterfaces {
				m.showInterfaces = false
				m.cursors[TabTargets] = 0
				return m, nil
			}
			m.busy++
			return m, m.interfacesCmd()
		}
	case TabWiFi:
		switch {
		case key.Matches(msg, m.Keys.Scan):
			if m.console.Scan.Busy() {
				return m, nil
			}
			m.busy++
			m.scanLabel = "STARTING..."
			return m, m.wifiScanCmd()
		case key.Matches(msg, m.Keys.Connect):
			if _, ok := m.console.Selection().WiFi(); !ok {
				m.console.Activity().Add(console.LevelError, "%s", console.ErrNoWiFiSelected.Error())
				return m, nil
			}
			m.asking = true
			m.password.SetValue("")
			cmd := m.password.Focus()
			return m, cmd
		}
	}
	return m, nil
}

// activate runs the enter action of the current tab
func (m AppModel) activate() (tea.Model, tea.Cmd) {
	cur := m.cursors[m.ActiveTab]
	switch m.ActiveTab {
	case TabTargets:
		if m.showInterfaces {
			if cur < len(m.interfaces) {
				m.busy++
				return m, m.selectInterfaceCmd(m.interfaces[cur])
			}
			return m, nil
		}
		if devices := m.console.Devices.Value(); cur < len(devices) {
			m.busy++
			return m, m.selectDeviceCmd(devices[cur])
		}
	case TabWiFi:
		if cur < len(m.networks) {
			n, err := m.networks[cur].Target()
			if err != nil {
				m.console.Activity().Add(console.LevelError, "Cannot select %s: %v", m.networks[cur].BSSID, err)
				return m, nil
			}
			m.busy++
			return m, m.selectWiFiCmd(n)
		}
	case TabAttack:
		if cur < len(actionCatalog) {
			item := actionCatalog[cur]
			// Rejected actions go straight through so the hint shows without a prompt
			if !item.Scenario && ui.IsDisruptive(item.Action) {
				if _, err := resolver.Resolve(item.Action, item.Data(), m.console.Selection()); err == nil {
					m.confirm = &item
					return m, nil
				}
			}
			m.busy++
			return m, m.runCmd(item)
		}
	case TabReports:
		if reports := m.console.Reports.Value(); cur < len(reports) && reports[cur].LogFile != "" {
			m.busy++
			return m, m.viewLogCmd(reports[cur].LogFile)
		}
	}
	return m, nil
}

func (m AppModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	item := *m.confirm
	m.confirm = nil
	if key.Matches(msg, m.Keys.Approve) {
		m.busy++
		return m, m.runCmd(item)
	}
	m.console.Activity().Add(console.LevelPlain, "%s cancelled", item.Title())
	return m, nil
}

func (m AppModel) updatePassword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.asking = false
		m.password.Blur()
		return m, nil
	case "enter":
		m.asking = false
		m.password.Blur()
		m.busy++
		return m, m.connectCmd(m.password.Value())
	}
	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m AppModel) updateLogView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.Keys.Back) || key.Matches(msg, m.Keys.Quit) {
		m.viewingLog = false
		return m, nil
	}
	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	return m, cmd
}

// observeScan tracks the countdown so the bar knows the declared length
func (m *AppModel) observeScan(label string) {
	m.scanLabel = label
	if r := m.console.Scan.Remaining(); r > m.scanTotal {
		m.scanTotal = r
	}
}

// rowCount is the number of selectable rows on the active tab
func (m AppModel) rowCount() int {
	switch m.ActiveTab {
	case TabTargets:
		if m.showInterfaces {
			return len(m.interfaces)
		}
		return len(m.console.Devices.Value())
	case TabWiFi:
		return len(m.networks)
	case TabAttack:
		return len(actionCatalog)
	case TabReports:
		return len(m.console.Reports.Value())
	default:
		return 0
	}
}

func (m *AppModel) clampCursor() {
	n := m.rowCount()
	if m.cursors[m.ActiveTab] >= n {
		m.cursors[m.ActiveTab] = max(n-1, 0)
	}
}

// Busy reports whether a request started from the UI is still running
func (m AppModel) Busy() bool {
	return m.busy > 0
}

// --- Commands ---

func waitForEvent(events <-chan console.Event) tea.Cmd {
	return func() tea.Msg {
		return consoleEventMsg{event: <-events}
	}
}

func (m AppModel) restoreCmd() tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.Restore(ctx)
		return opDoneMsg{err: err}
	}
}

func (m AppModel) refreshCmd() tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		c.Refresh(ctx)
		return consoleEventMsg{event: console.Event{Kind: console.EventDevices}}
	}
}

func (m AppModel) selectDeviceCmd(d target.Device) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.SelectDevice(ctx, d)
		return opDoneMsg{err: err}
	}
}

func (m AppModel) selectWiFiCmd(n target.NetworkTarget) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.SelectWiFi(ctx, n)
		return opDoneMsg{err: err}
	}
}

func (m AppModel) selectInterfaceCmd(iface target.Interface) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.SelectInterface(ctx, iface)
		return opDoneMsg{err: err}
	}
}

func (m AppModel) interfacesCmd() tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		ifaces, err := c.Interfaces(ctx)
		return interfacesMsg{interfaces: ifaces, err: err}
	}
}

func (m AppModel) deviceScanCmd() tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.ScanDevices(ctx, "quick")
		return opDoneMsg{err: err}
	}
}

func (m AppModel) wifiScanCmd() tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		nets, err := c.ScanWiFi(ctx)
		return networksMsg{networks: nets, err: err}
	}
}

func (m AppModel) connectCmd(password string) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		_, err := c.ConnectWiFi(ctx, password)
		return opDoneMsg{err: err}
	}
}

func (m AppModel) runCmd(item actionItem) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		var err error
		if item.Scenario {
			_, err = c.RunScenario(ctx, item.Action)
		} else {
			_, err = c.RunAction(ctx, item.Action, item.Data())
		}
		return opDoneMsg{err: err}
	}
}

func (m AppModel) viewLogCmd(name string) tea.Cmd {
	c, ctx := m.console, m.ctx
	return func() tea.Msg {
		content, err := c.ViewLog(ctx, name)
		return logViewMsg{name: name, content: strings.TrimRight(content, "\n"), err: err}
	}
}
