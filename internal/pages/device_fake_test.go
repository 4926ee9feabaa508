package pages

import (
	"context"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/store"
)

type fakeDevice struct {
	mu sync.Mutex

	cfg      device.Configuration
	files    []string
	saveErr  error
	delErr   error
	failName map[string]error

	saveCalls    int
	deleted      []string
	monitorCalls []int
	uploaded     []string
}

func (f *fakeDevice) Config(ctx context.Context) (device.Configuration, error) {
	return f.cfg, nil
}

func (f *fakeDevice) SaveConfig(ctx context.Context, cfg device.Configuration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr == nil {
		f.cfg = cfg
	}
	return f.saveErr
}

func (f *fakeDevice) Files(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.files...), nil
}

func (f *fakeDevice) DeleteFile(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return f.delErr
}

func (f *fakeDevice) SetMonitorChannel(ctx context.Context, ch int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monitorCalls = append(f.monitorCalls, ch)
	return nil
}

func (f *fakeDevice) Upload(ctx context.Context, name string, body io.Reader, size int64, progress device.ProgressFunc) error {
	if _, err := io.ReadAll(body); err != nil {
		return err
	}
	progress(size, size)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failName[name]; err != nil {
		return err
	}
	f.uploaded = append(f.uploaded, name)
	f.files = append(f.files, "/sd/"+name)
	return nil
}

type fakeHistory struct {
	uploads []store.UploadRecord
	saves   []store.SaveRecord
	deletes []store.DeleteRecord
}

func (h *fakeHistory) AddUpload(r store.UploadRecord) error {
	h.uploads = append(h.uploads, r)
	return nil
}

func (h *fakeHistory) AddSave(r store.SaveRecord) error {
	h.saves = append(h.saves, r)
	return nil
}

func (h *fakeHistory) AddDelete(r store.DeleteRecord) error {
	h.deletes = append(h.deletes, r)
	return nil
}

// drain runs cmd and every command it batches, returning the messages.
// Only pass commands that do not sleep.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
