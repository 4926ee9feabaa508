package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/dwpanel/internal/session"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

const sidebarWidth = 22 // 20 content + 2 border/padding

func renderDeviceBar(deviceURL, serverTime string, phase session.Phase, width int) string {
	timeDisplay := validate.Sanitize(serverTime)
	if timeDisplay == "" {
		timeDisplay = "--:--:--"
	}
	content := "Device: " + deviceURL + "  Time: " + timeDisplay
	switch phase {
	case session.Uploading:
		content += "  " + ui.Badge("UPLOADING", ui.Amber)
	case session.DialogOpen:
		content += "  " + ui.Badge("PAUSED", ui.Alert)
	}
	return ui.StatusBarStyle.Width(width).Render(content)
}

func renderSidebar(tabs []view.Tab, active view.Tab, pageMap map[view.Tab]Page, height int, focused bool) string {
	var b strings.Builder
	var title string
	if focused {
		title = ui.BoldStyle.Render("dwpanel [FOCUSED]")
	} else {
		title = ui.TitleStyle.Render("dwpanel")
	}
	b.WriteString(title)
	b.WriteString("\n\n")

	for _, id := range tabs {
		p, ok := pageMap[id]
		if !ok {
			continue
		}
		if id == active {
			b.WriteString(ui.SidebarActiveStyle.Render("▸ " + p.Name()))
		} else {
			b.WriteString(ui.SidebarItemStyle.Render("  " + p.Name()))
		}
		b.WriteString("\n")
	}

	style := ui.SidebarStyle.Height(height)
	if focused {
		style = style.BorderForeground(ui.Green)
	}
	return style.Render(b.String())
}

func renderStatusBar(pageHelp []key.Binding, width int, focus FocusArea) string {
	var parts []string

	// Focus-specific instructions
	if focus == FocusSidebar {
		parts = append(parts,
			ui.StatusKey("↑/↓", "navigate"),
			ui.StatusKey("enter", "select"),
			ui.StatusKey("1-5", "jump"),
		)
	} else {
		// Page-specific keys when content is focused
		for _, kb := range pageHelp {
			if kb.Enabled() {
				parts = append(parts, ui.StatusKey(kb.Help().Key, kb.Help().Desc))
			}
		}
	}

	// Always add global keys
	parts = append(parts,
		ui.StatusKey("tab", "focus"),
		ui.StatusKey("?", "help"),
		ui.StatusKey("q", "quit"),
	)

	line := strings.Join(parts, "  ")
	return ui.StatusBarStyle.Width(width).Render(line)
}

type helpKeys struct {
	page []key.Binding
}

func (h helpKeys) ShortHelp() []key.Binding { return h.page }

func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		h.page,
		{GlobalKeys.JumpTab, GlobalKeys.ToggleFocus, GlobalKeys.Help, GlobalKeys.Quit},
	}
}

func renderHelp(pageHelp []key.Binding, width int) string {
	h := help.New()
	h.ShowAll = true
	h.Width = width - 6
	body := ui.TitleStyle.Render("Keys") + "\n" + h.View(helpKeys{page: pageHelp})
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ui.Green).
		Padding(1, 2).
		Render(body)
}

func renderLayout(deviceBar, sidebar, content, statusBar string) string {
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	return lipgloss.JoinVertical(lipgloss.Left, deviceBar, main, statusBar)
}
