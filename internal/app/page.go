package app

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/view"
)

// Page is the interface every tab in the application implements.
type Page interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Page, tea.Cmd)
	View() string
	Name() string
	ShortHelp() []key.Binding
	SetSize(width, height int)
}

// InputCapturer is an optional interface for pages with text inputs.
// When InputCaptured returns true, the app forwards all keys directly
// to the page instead of processing shortcuts like q, ?, left, etc.
type InputCapturer interface {
	InputCaptured() bool
}

// StatusMsg is broadcast with the accepted fragments of a status poll.
type StatusMsg struct {
	Fragments view.Fragments
}

// SDMsg is broadcast with an accepted SD card poll.
type SDMsg struct {
	Status device.SDStatus
}

// RefreshMsg is broadcast when a tab switch or an upload asks for a reload.
type RefreshMsg struct {
	Refresh view.Refresh
}

// Refresh returns a command that broadcasts r.
func Refresh(r view.Refresh) tea.Cmd {
	return func() tea.Msg { return RefreshMsg{Refresh: r} }
}

// TabActivatedMsg is broadcast after the active tab changes.
type TabActivatedMsg struct {
	Tab view.Tab
}
