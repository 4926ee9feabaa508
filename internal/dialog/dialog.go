// Package dialog is the single confirmation modal. While a prompt is shown
// the session is suspended. Prompts requested while one is showing wait
// in arrival order.
package dialog

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/buckleypaul/dwpanel/internal/session"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/validate"
)

// Prompt is one confirmation request. Kind and Payload are returned
// untouched in the Result so the requester can recognise its answer.
type Prompt struct {
	Kind    string
	Message string
	Payload any
}

// RequestMsg asks the root model to show p.
type RequestMsg struct {
	Prompt Prompt
}

// ResultMsg is broadcast once a prompt is answered.
type ResultMsg struct {
	Prompt    Prompt
	Confirmed bool
}

// Request returns a command that asks for confirmation.
func Request(kind, message string, payload any) tea.Cmd {
	return func() tea.Msg {
		return RequestMsg{Prompt: Prompt{Kind: kind, Message: message, Payload: payload}}
	}
}

var (
	confirmKey = key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "yes"))
	cancelKey  = key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no"))
)

type Dialog struct {
	state   *session.State
	current *Prompt
	queue   []Prompt
	width   int
}

func New(state *session.State) *Dialog {
	return &Dialog{state: state}
}

// Request shows p now if nothing is open, otherwise queues it.
func (d *Dialog) Request(p Prompt) {
	if d.current != nil {
		d.queue = append(d.queue, p)
		return
	}
	d.show(p)
}

func (d *Dialog) show(p Prompt) {
	d.current = &p
	d.state.OpenDialog()
}

// Open reports whether a prompt is showing.
func (d *Dialog) Open() bool { return d.current != nil }

// Current returns the showing prompt.
func (d *Dialog) Current() (Prompt, bool) {
	if d.current == nil {
		return Prompt{}, false
	}
	return *d.current, true
}

// Pending returns how many prompts wait behind the current one.
func (d *Dialog) Pending() int { return len(d.queue) }

// Resolve answers the current prompt. The prompt is detached before the
// next one is shown; the session leaves DialogOpen only when the queue is
// empty. Resolve on a closed dialog returns false.
func (d *Dialog) Resolve(confirmed bool) (ResultMsg, bool) {
	if d.current == nil {
		return ResultMsg{}, false
	}
	res := ResultMsg{Prompt: *d.current, Confirmed: confirmed}
	d.current = nil

	if len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		d.show(next)
	} else {
		d.state.CloseDialog()
	}
	return res, true
}

// Update handles keys while a prompt is showing. Other keys are swallowed.
func (d *Dialog) Update(msg tea.KeyMsg) tea.Cmd {
	var confirmed bool
	switch {
	case key.Matches(msg, confirmKey):
		confirmed = true
	case key.Matches(msg, cancelKey):
	default:
		return nil
	}
	res, ok := d.Resolve(confirmed)
	if !ok {
		return nil
	}
	return func() tea.Msg { return res }
}

func (d *Dialog) SetSize(w, h int) { d.width = w }

// ShortHelp lists the dialog keys.
func (d *Dialog) ShortHelp() []key.Binding {
	return []key.Binding{confirmKey, cancelKey}
}

func (d *Dialog) View() string {
	if d.current == nil {
		return ""
	}
	boxWidth := d.width - 4
	if boxWidth > 56 {
		boxWidth = 56
	}
	if boxWidth < 30 {
		boxWidth = 30
	}

	var b strings.Builder
	b.WriteString(ui.AlertStyle.Bold(true).Render("CONFIRM"))
	b.WriteString("\n\n")
	for _, line := range strings.Split(d.current.Message, "\n") {
		b.WriteString(validate.Sanitize(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(ui.StatusKey("y", "yes") + "  " + ui.StatusKey("n", "no"))
	if n := len(d.queue); n > 0 {
		b.WriteString(ui.DimStyle.Render(fmt.Sprintf("  +%d waiting", n)))
	}

	return lipgloss.NewStyle().
		Width(boxWidth).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ui.Alert).
		Padding(1, 2).
		Render(b.String())
}

