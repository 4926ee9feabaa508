// Package poll runs named recurring fetches on the bubbletea loop.
//
// Each task fires on its own interval. On every tick the session suspension
// and the task's guard are checked once; if either says no, the tick is
// skipped without a request. Replies carry a session token and only take
// effect if the session still accepts the token when the reply arrives.
// Failures are logged and dropped; the next tick tries again.
package poll

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/buckleypaul/dwpanel/internal/session"
)

// Fetch performs one request for a task.
type Fetch func(ctx context.Context) (any, error)

// Task is a named recurring fetch.
type Task struct {
	Name     string
	Interval time.Duration
	// Guard, when set, must return true for the tick to issue a request.
	Guard func() bool
	Fetch Fetch
}

// TickMsg fires a task. Gen ties it to one Start so a restart never
// leaves two timers armed for the same task.
type TickMsg struct {
	Task string
	Gen  int
}

// ResultMsg carries a finished fetch back to the loop.
type ResultMsg struct {
	Task  string
	Token session.Token
	Value any
	Err   error
}

// Reply is an accepted result, ready to be rendered.
type Reply struct {
	Task  string
	Value any
}

type Scheduler struct {
	ctx   context.Context
	state *session.State
	log   *zap.SugaredLogger
	tasks map[string]*Task
	order []string
	gen   int

	// tick arms a timer; replaced in tests.
	tick func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd
}

// New creates a scheduler gated by state. log may be nil.
func New(ctx context.Context, state *session.State, log *zap.SugaredLogger) *Scheduler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Scheduler{
		ctx:   ctx,
		state: state,
		log:   log,
		tasks: map[string]*Task{},
		tick:  tea.Tick,
	}
}

// Add registers a task. Tasks added after Start begin on the next Start.
func (s *Scheduler) Add(t Task) {
	if _, ok := s.tasks[t.Name]; !ok {
		s.order = append(s.order, t.Name)
	}
	task := t
	s.tasks[t.Name] = &task
}

// Gen returns the current timer generation.
func (s *Scheduler) Gen() int { return s.gen }

// Start arms every task. Timers from an earlier Start are orphaned.
func (s *Scheduler) Start() tea.Cmd {
	s.gen++
	cmds := make([]tea.Cmd, 0, len(s.order))
	for _, name := range s.order {
		cmds = append(cmds, s.arm(s.tasks[name]))
	}
	return tea.Batch(cmds...)
}

// Stop orphans all armed timers.
func (s *Scheduler) Stop() {
	s.gen++
}

// Trigger runs one task now, through the same gating as a tick, without
// disturbing its timer.
func (s *Scheduler) Trigger(name string) tea.Cmd {
	t, ok := s.tasks[name]
	if !ok {
		return nil
	}
	return s.dispatch(t)
}

// Update handles TickMsg and ResultMsg. It returns the accepted reply, if
// any, and the follow-up command.
func (s *Scheduler) Update(msg tea.Msg) (*Reply, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		t, ok := s.tasks[msg.Task]
		if !ok || msg.Gen != s.gen {
			return nil, nil
		}
		return nil, tea.Batch(s.arm(t), s.dispatch(t))

	case ResultMsg:
		if _, ok := s.tasks[msg.Task]; !ok {
			return nil, nil
		}
		if msg.Err != nil {
			s.log.Debugw("poll failed", "task", msg.Task, "err", msg.Err)
			return nil, nil
		}
		if !s.state.Accept(msg.Token) {
			s.log.Debugw("discarding stale reply", "task", msg.Task, "seq", msg.Token.Seq, "phase", s.state.Phase())
			return nil, nil
		}
		return &Reply{Task: msg.Task, Value: msg.Value}, nil
	}
	return nil, nil
}

func (s *Scheduler) arm(t *Task) tea.Cmd {
	name, gen := t.Name, s.gen
	return s.tick(t.Interval, func(time.Time) tea.Msg {
		return TickMsg{Task: name, Gen: gen}
	})
}

func (s *Scheduler) dispatch(t *Task) tea.Cmd {
	if s.state.Suspended() {
		s.log.Debugw("skipping poll while suspended", "task", t.Name, "phase", s.state.Phase())
		return nil
	}
	if t.Guard != nil && !t.Guard() {
		return nil
	}
	tok := s.state.Issue(t.Name)
	ctx, fetch, name := s.ctx, t.Fetch, t.Name
	return func() tea.Msg {
		v, err := fetch(ctx)
		return ResultMsg{Task: name, Token: tok, Value: v, Err: err}
	}
}
