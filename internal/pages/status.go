package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

// StatusPage shows protocol counters, the SD card and the device log.
type StatusPage struct {
	counters *device.Counters
	logs     []string
	sd       *device.SDStatus
	viewport viewport.Model

	width, height int
}

func NewStatusPage() *StatusPage {
	return &StatusPage{viewport: viewport.New(0, 0)}
}

func (p *StatusPage) Init() tea.Cmd { return nil }

func (p *StatusPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.StatusMsg:
		f := msg.Fragments
		if f.Stats != nil {
			p.counters = f.Stats
		}
		if f.Logs != nil {
			follow := p.viewport.AtBottom()
			p.logs = f.Logs
			p.viewport.SetContent(validate.Sanitize(strings.Join(view.LogLines(p.logs), "\n")))
			if follow {
				p.viewport.GotoBottom()
			}
		}
		return p, nil

	case app.SDMsg:
		sd := msg.Status
		p.sd = &sd
		return p, nil

	case tea.KeyMsg:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *StatusPage) View() string {
	half := p.width / 2
	if half < 20 {
		half = p.width
	}

	var dw strings.Builder
	dw.WriteString("LAST OPCODE: " + view.Opcode(p.counters) + "\n")
	dw.WriteString("LAST DRIVE:  " + view.LastDrive(p.counters) + "\n\n")
	dw.WriteString(ui.BoldStyle.Render("Serial") + "\n")
	dw.WriteString(strings.Join(view.SerialLines(p.counters), "\n"))

	var sd string
	if p.sd == nil {
		sd = ui.DimStyle.Render("Waiting for SD status...")
	} else {
		sd = validate.Sanitize(strings.Join(view.SDLines(*p.sd), "\n"))
	}

	var top string
	if half == p.width {
		top = ui.Panel("DriveWire", dw.String(), p.width, 0, false) + "\n" +
			ui.Panel("SD Card", sd, p.width, 0, false)
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top,
			ui.Panel("DriveWire", dw.String(), half, 0, false),
			ui.Panel("SD Card", sd, p.width-half, 0, false),
		)
	}

	logs := p.viewport.View()
	if len(p.logs) == 0 {
		logs = ui.DimStyle.Render("No log entries.")
	}
	logHeight := p.height - lipgloss.Height(top)
	if logHeight < 4 {
		logHeight = 0
	}
	return top + "\n" + ui.Panel("Log", logs, p.width, logHeight, false)
}

func (p *StatusPage) Name() string { return "Status" }

func (p *StatusPage) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll log")),
	}
}

func (p *StatusPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	vpHeight := h - 14
	if vpHeight < 3 {
		vpHeight = 3
	}
	p.viewport.Width = w - 4
	p.viewport.Height = vpHeight
}
