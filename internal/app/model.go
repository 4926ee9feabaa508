package app

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/dialog"
	"github.com/buckleypaul/dwpanel/internal/mounts"
	"github.com/buckleypaul/dwpanel/internal/poll"
	"github.com/buckleypaul/dwpanel/internal/session"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/view"
)

// Poll task names.
const (
	TaskStatus = "status"
	TaskSD     = "sd"
)

type FocusArea int

const (
	FocusSidebar FocusArea = iota
	FocusContent
)

// Options wires the shared services into the root model.
type Options struct {
	DeviceURL string
	Initial   view.Tab

	Session   *session.State
	Scheduler *poll.Scheduler
	Dialog    *dialog.Dialog
	Mounts    *mounts.Tracker
	Log       *zap.SugaredLogger

	StatusFetch    poll.Fetch
	SDFetch        poll.Fetch
	StatusInterval time.Duration
	SDInterval     time.Duration
}

type Model struct {
	pages      map[view.Tab]Page
	tabs       *view.Controller
	focus      FocusArea
	width      int
	height     int
	showHelp   bool
	picker     *Picker
	deviceURL  string
	serverTime string

	session *session.State
	sched   *poll.Scheduler
	dialog  *dialog.Dialog
	mounts  *mounts.Tracker
	log     *zap.SugaredLogger
}

func New(pages map[view.Tab]Page, opts Options) Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	m := Model{
		pages:     pages,
		tabs:      view.NewController(opts.Initial),
		deviceURL: opts.DeviceURL,
		session:   opts.Session,
		sched:     opts.Scheduler,
		dialog:    opts.Dialog,
		mounts:    opts.Mounts,
		log:       log,
	}
	if opts.StatusFetch != nil {
		m.sched.Add(poll.Task{
			Name:     TaskStatus,
			Interval: opts.StatusInterval,
			Guard:    m.tabs.ConsumesStatus,
			Fetch:    opts.StatusFetch,
		})
	}
	if opts.SDFetch != nil {
		m.sched.Add(poll.Task{
			Name:     TaskSD,
			Interval: opts.SDInterval,
			Fetch:    opts.SDFetch,
		})
	}
	return m
}

// ActiveTab returns the visible tab.
func (m Model) ActiveTab() view.Tab { return m.tabs.Active() }

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range view.Order {
		if p, ok := m.pages[id]; ok {
			if cmd := p.Init(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	cmds = append(cmds, m.sched.Start(), m.sched.Trigger(TaskSD))
	for _, r := range m.tabs.Switch(m.tabs.Active()) {
		cmds = append(cmds, Refresh(r))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentWidth := m.width - sidebarWidth
		contentHeight := m.height - 2 - 1 // status bar + device bar
		for _, p := range m.pages {
			p.SetSize(contentWidth, contentHeight)
		}
		m.dialog.SetSize(contentWidth, contentHeight)
		return m, nil

	case poll.TickMsg, poll.ResultMsg:
		reply, cmd := m.sched.Update(msg)
		if reply == nil {
			return m, cmd
		}
		applied := m.applyReply(reply)
		return m, tea.Batch(cmd, applied)

	case dialog.RequestMsg:
		m.dialog.Request(msg.Prompt)
		return m, nil

	case OpenPickerMsg:
		m.picker = NewPicker(msg.Title, msg.Tag)
		m.picker.SetItems(msg.Items)
		m.picker.SetCursor(msg.Cursor)
		m.picker.SetSize(m.width-sidebarWidth, m.height-2-1)
		return m, nil

	case PickedMsg:
		m.picker = nil
		return m, m.broadcast(msg)

	case PickerClosedMsg:
		m.picker = nil
		return m, nil

	case tea.KeyMsg:
		// An open dialog takes every key; only ctrl+c still quits.
		if m.dialog.Open() {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, m.dialog.Update(msg)
		}

		// When picker is open, forward all keys to picker
		if m.picker != nil {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		// When a page has an active text input, forward all keys
		// directly to the page; only ctrl+c still quits.
		if m.focus == FocusContent {
			if ic, ok := m.pages[m.tabs.Active()].(InputCapturer); ok && ic.InputCaptured() {
				if msg.String() == "ctrl+c" {
					return m, tea.Quit
				}
				return m, m.updateActive(msg)
			}
		}

		// Global key handling
		switch {
		case key.Matches(msg, GlobalKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, GlobalKeys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, GlobalKeys.JumpTab):
			i := int(msg.Runes[0] - '1')
			return m, m.switchTab(view.Order[i])
		case key.Matches(msg, GlobalKeys.ToggleFocus):
			if m.focus == FocusSidebar {
				m.focus = FocusContent
				return m, nil
			}
			// When content focused, fall through to page handler
		}

		// Handle arrow keys based on focus
		if m.focus == FocusSidebar {
			switch msg.String() {
			case "up":
				return m, m.switchTab(m.neighbour(-1))
			case "down":
				return m, m.switchTab(m.neighbour(1))
			case "enter", "right":
				m.focus = FocusContent
				return m, nil
			}
			return m, nil
		}
		if msg.String() == "left" {
			m.focus = FocusSidebar
			return m, nil
		}
		return m, m.updateActive(msg)
	}

	// Non-key messages (command results, etc.): forward to all pages
	// so responses reach the page that initiated the command
	return m, m.broadcast(msg)
}

func (m *Model) applyReply(reply *poll.Reply) tea.Cmd {
	switch reply.Task {
	case TaskStatus:
		snap, ok := reply.Value.(device.StatusSnapshot)
		if !ok {
			return nil
		}
		frags := view.Select(m.tabs.Active(), snap)
		if frags.ServerTime != "" {
			m.serverTime = frags.ServerTime
		}
		if frags.HasMounted {
			m.mounts.Update(frags.Mounted)
		}
		return m.broadcast(StatusMsg{Fragments: frags})

	case TaskSD:
		sd, ok := reply.Value.(device.SDStatus)
		if !ok {
			return nil
		}
		return m.broadcast(SDMsg{Status: sd})
	}
	return nil
}

func (m *Model) switchTab(t view.Tab) tea.Cmd {
	if _, ok := m.pages[t]; !ok {
		return nil
	}
	refreshes := m.tabs.Switch(t)
	m.log.Debugw("tab switched", "tab", t.String())

	cmds := []tea.Cmd{func() tea.Msg { return TabActivatedMsg{Tab: t} }}
	for _, r := range refreshes {
		cmds = append(cmds, Refresh(r))
	}
	return tea.Batch(cmds...)
}

func (m Model) neighbour(step int) view.Tab {
	for i, id := range view.Order {
		if id == m.tabs.Active() {
			return view.Order[(i+step+len(view.Order))%len(view.Order)]
		}
	}
	return m.tabs.Active()
}

func (m Model) updateActive(msg tea.Msg) tea.Cmd {
	id := m.tabs.Active()
	page, ok := m.pages[id]
	if !ok {
		return nil
	}
	newPage, cmd := page.Update(msg)
	m.pages[id] = newPage
	return cmd
}

func (m Model) broadcast(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range view.Order {
		page, ok := m.pages[id]
		if !ok {
			continue
		}
		newPage, cmd := page.Update(msg)
		m.pages[id] = newPage
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	contentWidth := m.width - sidebarWidth
	contentHeight := m.height - 2 - 1 // status bar + device bar

	page := m.pages[m.tabs.Active()]

	deviceBar := renderDeviceBar(m.deviceURL, m.serverTime, m.session.Phase(), m.width)
	sidebar := renderSidebar(view.Order, m.tabs.Active(), m.pages, contentHeight, m.focus == FocusSidebar)
	content := ui.ContentStyle.
		Width(contentWidth).
		Height(contentHeight).
		Render(page.View())

	pageHelp := page.ShortHelp()
	switch {
	case m.dialog.Open():
		content = lipgloss.Place(
			contentWidth, contentHeight,
			lipgloss.Center, lipgloss.Center,
			m.dialog.View(),
		)
		pageHelp = m.dialog.ShortHelp()
	case m.picker != nil:
		m.picker.SetSize(contentWidth, contentHeight)
		content = lipgloss.Place(
			contentWidth, contentHeight,
			lipgloss.Center, lipgloss.Center,
			m.picker.View(),
		)
	case m.showHelp:
		content = lipgloss.Place(
			contentWidth, contentHeight,
			lipgloss.Center, lipgloss.Center,
			renderHelp(pageHelp, contentWidth),
		)
	}

	focus := m.focus
	if m.dialog.Open() {
		focus = FocusContent
	}
	statusBar := renderStatusBar(pageHelp, m.width, focus)

	return renderLayout(deviceBar, sidebar, content, statusBar)
}
