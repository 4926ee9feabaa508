package pages

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/mounts"
	"github.com/buckleypaul/dwpanel/internal/session"
	"github.com/buckleypaul/dwpanel/internal/store"
	"github.com/buckleypaul/dwpanel/internal/upload"
)

// statusTTL is how long a transient page message stays on screen.
const statusTTL = 5 * time.Second

// Device is the part of the device API the pages call. *device.Client
// satisfies it.
type Device interface {
	upload.Uploader
	Config(ctx context.Context) (device.Configuration, error)
	SaveConfig(ctx context.Context, cfg device.Configuration) error
	Files(ctx context.Context) ([]string, error)
	DeleteFile(ctx context.Context, path string) error
	SetMonitorChannel(ctx context.Context, ch int) error
}

// History records user actions. *store.Store satisfies it.
type History interface {
	AddUpload(r store.UploadRecord) error
	AddSave(r store.SaveRecord) error
	AddDelete(r store.DeleteRecord) error
}

// Deps are the shared services handed to the pages.
type Deps struct {
	Ctx         context.Context
	Device      Device
	DeviceURL   string
	Session     *session.State
	Mounts      *mounts.Tracker
	History     History
	Log         *zap.SugaredLogger
	SettleDelay time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Ctx == nil {
		d.Ctx = context.Background()
	}
	if d.Session == nil {
		d.Session = session.New()
	}
	if d.Mounts == nil {
		d.Mounts = mounts.NewTracker()
	}
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	return d
}

// flash is a message that clears itself after statusTTL. A newer message
// keeps an older timer from clearing it.
type flash struct {
	text  string
	isErr bool
	seq   int
}

type flashExpiredMsg struct {
	owner string
	seq   int
}

func (f *flash) set(owner, text string, isErr bool) tea.Cmd {
	f.seq++
	f.text = text
	f.isErr = isErr
	seq := f.seq
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return flashExpiredMsg{owner: owner, seq: seq}
	})
}

func (f *flash) expire(owner string, msg flashExpiredMsg) {
	if msg.owner == owner && msg.seq == f.seq {
		f.text = ""
	}
}

// fileListMsg carries a file listing fetched for owner.
type fileListMsg struct {
	owner string
	files []string
	err   error
}

func fetchFiles(ctx context.Context, dev Device, owner string) tea.Cmd {
	return func() tea.Msg {
		files, err := dev.Files(ctx)
		return fileListMsg{owner: owner, files: files, err: err}
	}
}
