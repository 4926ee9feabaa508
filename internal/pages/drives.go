package pages

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

const driveCardWidth = 34

// DrivesPage shows cache counters for every mounted drive.
type DrivesPage struct {
	stats    []*device.DriveStats
	received bool

	width, height int
}

func NewDrivesPage() *DrivesPage {
	return &DrivesPage{}
}

func (p *DrivesPage) Init() tea.Cmd { return nil }

func (p *DrivesPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	if msg, ok := msg.(app.StatusMsg); ok && msg.Fragments.DriveStats != nil {
		p.stats = msg.Fragments.DriveStats
		p.received = true
	}
	return p, nil
}

func (p *DrivesPage) View() string {
	if !p.received {
		return ui.Title("Drives") + "\n" + ui.DimStyle.Render("Waiting for drive statistics...")
	}

	var cards []string
	for slot, s := range p.stats {
		if s == nil {
			continue
		}
		title := truncate.StringWithTail(validate.Sanitize(view.DriveTitle(slot, s)), driveCardWidth-6, "…")
		cards = append(cards, ui.Panel(title, strings.Join(view.DriveLines(s), "\n"), driveCardWidth, 0, false))
	}
	if len(cards) == 0 {
		return ui.Title("Drives") + "\n" + ui.DimStyle.Render("No drives mounted.")
	}

	perRow := p.width / driveCardWidth
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return ui.Title("Drives") + "\n" + lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (p *DrivesPage) Name() string { return "Drives" }

func (p *DrivesPage) ShortHelp() []key.Binding { return nil }

func (p *DrivesPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
