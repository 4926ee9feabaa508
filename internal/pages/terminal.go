package pages

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/console"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/ui"
)

const (
	MonitorOff = -1
	MaxMonitor = 31

	tagMonitor = "monitor"

	// consoleLimit caps the console scrollback, in bytes.
	consoleLimit = 64 * 1024
)

// Console is the USB serial console. *console.Console satisfies it.
type Console interface {
	Connect(portName string, baudRate int) error
	Disconnect()
	Write(data []byte) error
	Connected() bool
	Listen() tea.Cmd
}

type monitorSetMsg struct {
	ch  int
	err error
}

// ConsoleOptions names the local serial console, if any.
type ConsoleOptions struct {
	Console  Console
	Port     string
	BaudRate int
}

// TerminalPage mirrors one virtual serial channel of the bridge and,
// when configured, the bridge's own USB console.
type TerminalPage struct {
	deps    Deps
	channel int
	output  viewport.Model

	con        ConsoleOptions
	conOutput  strings.Builder
	conView    viewport.Model
	conMessage string

	width, height int
}

func NewTerminalPage(deps Deps, con ConsoleOptions) *TerminalPage {
	return &TerminalPage{
		deps:    deps.withDefaults(),
		channel: MonitorOff,
		output:  viewport.New(0, 0),
		con:     con,
		conView: viewport.New(0, 0),
	}
}

func (p *TerminalPage) Init() tea.Cmd {
	if p.con.Console == nil || p.con.Port == "" {
		return nil
	}
	return p.connect()
}

func (p *TerminalPage) connect() tea.Cmd {
	if err := p.con.Console.Connect(p.con.Port, p.con.BaudRate); err != nil {
		p.deps.Log.Warnw("console connect failed", "port", p.con.Port, "err", err)
		p.conMessage = "Cannot open " + p.con.Port + ": " + err.Error()
		return nil
	}
	p.deps.Log.Infow("console connected", "port", p.con.Port, "baud", p.con.BaudRate)
	p.conMessage = ""
	return p.con.Console.Listen()
}

func (p *TerminalPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StatusMsg:
		f := msg.Fragments
		if f.HasTerminal {
			p.output.SetContent(f.Terminal)
			p.output.GotoBottom()
		}
		if f.MonitorChan != nil && *f.MonitorChan != p.channel {
			p.channel = *f.MonitorChan
		}
		return p, nil

	case monitorSetMsg:
		var herr *device.HTTPError
		switch {
		case msg.err == nil:
			p.output.SetContent("")
		case errors.As(msg.err, &herr):
			p.deps.Log.Warnw("monitor channel rejected", "chan", msg.ch, "code", herr.Code)
			p.output.SetContent("")
		default:
			p.deps.Log.Warnw("monitor channel update failed", "chan", msg.ch, "err", msg.err)
		}
		return p, nil

	case app.PickedMsg:
		if msg.Tag != tagMonitor {
			return p, nil
		}
		ch, err := strconv.Atoi(msg.Value)
		if err != nil {
			return p, nil
		}
		return p, p.setChannel(ch)

	case console.OutputMsg:
		p.appendConsole(msg.Text)
		return p, p.con.Console.Listen()

	case console.ClosedMsg:
		p.conMessage = "Console closed"
		if msg.Err != nil {
			p.conMessage += ": " + msg.Err.Error()
			p.deps.Log.Warnw("console closed", "err", msg.Err)
		}
		return p, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "c", "enter":
			return p, p.openChannelPicker()
		case "+", "=":
			if p.channel < MaxMonitor {
				return p, p.setChannel(p.channel + 1)
			}
			return p, nil
		case "-":
			if p.channel > MonitorOff {
				return p, p.setChannel(p.channel - 1)
			}
			return p, nil
		case "o":
			return p, p.toggleConsole()
		case "ctrl+x":
			if p.con.Console != nil && p.con.Console.Connected() {
				// ^C to the REPL
				if err := p.con.Console.Write([]byte{0x03}); err != nil {
					p.conMessage = "Write failed: " + err.Error()
				}
			}
			return p, nil
		}
		var cmd tea.Cmd
		p.output, cmd = p.output.Update(msg)
		return p, cmd
	}
	return p, nil
}

// setChannel asks the device to mirror ch. Out of range values are logged
// and dropped without a request.
func (p *TerminalPage) setChannel(ch int) tea.Cmd {
	if ch < MonitorOff || ch > MaxMonitor {
		p.deps.Log.Errorw("invalid monitor channel", "chan", ch)
		return nil
	}
	p.channel = ch
	ctx, dev := p.deps.Ctx, p.deps.Device
	return func() tea.Msg {
		return monitorSetMsg{ch: ch, err: dev.SetMonitorChannel(ctx, ch)}
	}
}

func (p *TerminalPage) openChannelPicker() tea.Cmd {
	items := make([]app.PickerItem, 0, MaxMonitor+2)
	items = append(items, app.PickerItem{Label: "OFF", Value: strconv.Itoa(MonitorOff)})
	for ch := 0; ch <= MaxMonitor; ch++ {
		items = append(items, app.PickerItem{Label: "CHANNEL " + strconv.Itoa(ch), Value: strconv.Itoa(ch)})
	}
	open := app.OpenPickerMsg{Title: "Monitor Channel", Tag: tagMonitor, Items: items, Cursor: p.channel + 1}
	return func() tea.Msg { return open }
}

func (p *TerminalPage) toggleConsole() tea.Cmd {
	if p.con.Console == nil || p.con.Port == "" {
		p.conMessage = "No console port configured"
		return nil
	}
	if p.con.Console.Connected() {
		p.con.Console.Disconnect()
		p.conMessage = "Disconnected"
		return nil
	}
	return p.connect()
}

func (p *TerminalPage) appendConsole(text string) {
	p.conOutput.WriteString(text)
	if p.conOutput.Len() > consoleLimit {
		keep := p.conOutput.String()[p.conOutput.Len()-consoleLimit/2:]
		p.conOutput.Reset()
		p.conOutput.WriteString(keep)
	}
	p.conView.SetContent(p.conOutput.String())
	p.conView.GotoBottom()
}

func channelLabel(ch int) string {
	if ch == MonitorOff {
		return "OFF"
	}
	return strconv.Itoa(ch)
}

func (p *TerminalPage) View() string {
	var b strings.Builder
	b.WriteString("Monitoring channel: " + ui.BoldStyle.Render(channelLabel(p.channel)) + "\n\n")
	b.WriteString(p.output.View())

	out := ui.Panel("Terminal", b.String(), p.width, p.terminalHeight(), false)
	if p.con.Port == "" {
		return out
	}

	var c strings.Builder
	if p.conMessage != "" {
		c.WriteString(ui.DimStyle.Render(p.conMessage) + "\n")
	}
	c.WriteString(p.conView.View())
	title := "Console " + p.con.Port
	if p.con.Console != nil && p.con.Console.Connected() {
		title += " " + ui.SuccessBadge("LIVE")
	}
	return lipgloss.JoinVertical(lipgloss.Left, out, ui.Panel(title, c.String(), p.width, 0, false))
}

func (p *TerminalPage) terminalHeight() int {
	if p.con.Port == "" {
		return p.height
	}
	return p.height / 2
}

func (p *TerminalPage) Name() string { return "Terminal" }

func (p *TerminalPage) ShortHelp() []key.Binding {
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "channel")),
		key.NewBinding(key.WithKeys("+", "-"), key.WithHelp("+/-", "next/prev channel")),
	}
	if p.con.Port != "" {
		bindings = append(bindings,
			key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "console on/off")),
			key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "interrupt")),
		)
	}
	return bindings
}

func (p *TerminalPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.output.Width = w - 4
	p.output.Height = max(p.terminalHeight()-5, 3)
	p.conView.Width = w - 4
	p.conView.Height = max(h-p.terminalHeight()-4, 3)
}
