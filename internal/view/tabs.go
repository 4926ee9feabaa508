// Package view tracks the active tab and decides which parts of a status
// snapshot each tab gets to render.
package view

import (
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/validate"
)

// Tab is one of the fixed dashboard views.
type Tab int

const (
	Config Tab = iota
	Status
	Terminal
	Drives
	Files
)

// Order is the sidebar order.
var Order = []Tab{Config, Status, Terminal, Drives, Files}

var tabNames = [...]string{"config", "status", "terminal", "drives", "files"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "unknown"
	}
	return tabNames[t]
}

// Valid reports whether t is one of the known tabs.
func (t Tab) Valid() bool { return t >= Config && t <= Files }

// Parse maps a tab name back to its Tab.
func Parse(name string) (Tab, bool) {
	for i, n := range tabNames {
		if n == name {
			return Tab(i), true
		}
	}
	return 0, false
}

// ConsumesStatus reports whether t shows data from the status endpoint.
func ConsumesStatus(t Tab) bool {
	return t == Status || t == Terminal || t == Drives
}

// Refresh is a one-time load triggered by a tab becoming active.
type Refresh int

const (
	RefreshFiles Refresh = iota + 1
	RefreshDriveOptions
)

// Controller holds the active tab.
type Controller struct {
	active Tab
}

func NewController(initial Tab) *Controller {
	return &Controller{active: initial}
}

func (c *Controller) Active() Tab { return c.active }

// Switch activates t and returns the refreshes it needs. Unknown tabs are
// ignored. Switching to the already active tab still refreshes.
func (c *Controller) Switch(t Tab) []Refresh {
	if !t.Valid() {
		return nil
	}
	c.active = t
	switch t {
	case Files:
		return []Refresh{RefreshFiles}
	case Drives:
		return []Refresh{RefreshDriveOptions}
	}
	return nil
}

// ConsumesStatus reports whether the active tab shows status data.
func (c *Controller) ConsumesStatus() bool { return ConsumesStatus(c.active) }

// Fragments are the parts of one snapshot that may be rendered. A nil or
// empty field means "leave the previous rendering alone".
type Fragments struct {
	// ServerTime is shown in the header whatever the tab.
	ServerTime string

	// Status tab.
	Stats *device.Counters
	Logs  []string

	// Terminal tab. Terminal is set only when the device sent bytes.
	Terminal    string
	HasTerminal bool
	MonitorChan *int

	// Drives tab.
	DriveStats []*device.DriveStats

	// Mounted is filled whenever the snapshot carries drive stats, for every
	// tab, so delete protection never goes stale.
	Mounted    []*device.DriveStats
	HasMounted bool
}

// Select picks the fragments of snap that tab t renders.
func Select(t Tab, snap device.StatusSnapshot) Fragments {
	f := Fragments{ServerTime: snap.ServerTime}

	if snap.DriveStats != nil {
		f.Mounted = snap.DriveStats
		f.HasMounted = true
	}

	switch t {
	case Status:
		f.Stats = snap.Stats
		f.Logs = snap.Logs
	case Terminal:
		if len(snap.TermBuf) > 0 {
			f.Terminal = validate.Printable(snap.TermBuf)
			f.HasTerminal = true
		}
		f.MonitorChan = snap.MonitorChan
	case Drives:
		f.DriveStats = snap.DriveStats
	}
	return f
}
