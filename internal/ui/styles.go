package ui

import "github.com/charmbracelet/lipgloss"

// Green-screen palette of the CoCo the bridge serves.
var (
	Green     = lipgloss.Color("40")
	DarkGreen = lipgloss.Color("28")
	Bar       = lipgloss.Color("22")
	Ink       = lipgloss.Color("194")
	Amber     = lipgloss.Color("214")
	Alert     = lipgloss.Color("202")
	Gray      = lipgloss.Color("243")

	SidebarStyle = lipgloss.NewStyle().
			Width(20).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderRight(true).
			BorderTop(false).
			BorderBottom(false).
			BorderLeft(false).
			BorderForeground(DarkGreen).
			Padding(1, 1)

	SidebarItemStyle = lipgloss.NewStyle().
				Foreground(DarkGreen).
				PaddingLeft(1)

	SidebarActiveStyle = lipgloss.NewStyle().
				Foreground(Green).
				Bold(true).
				PaddingLeft(1)

	ContentStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Device bar and key hints.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Ink).
			Background(Bar).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Foreground(Green).
				Background(Bar).
				Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true).
			MarginBottom(1)

	BoldStyle     = lipgloss.NewStyle().Bold(true)
	DimStyle      = lipgloss.NewStyle().Foreground(Gray)
	AccentStyle   = lipgloss.NewStyle().Foreground(Amber)
	SelectedStyle = lipgloss.NewStyle().Foreground(Green).Bold(true)

	// MountedStyle and AlertStyle mark healthy and failed states (SD card
	// mounted or not, save succeeded or not).
	MountedStyle = lipgloss.NewStyle().Foreground(Green)
	AlertStyle   = lipgloss.NewStyle().Foreground(Alert)

	// WarnStyle flags a drive slot whose image is missing from the file list.
	WarnStyle = lipgloss.NewStyle().Foreground(Amber)

	// InUseStyle marks images attached to a drive.
	InUseStyle = lipgloss.NewStyle().Foreground(Gray).Italic(true)
)
