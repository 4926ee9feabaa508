package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/dialog"
	"github.com/buckleypaul/dwpanel/internal/dropzone"
	"github.com/buckleypaul/dwpanel/internal/form"
	"github.com/buckleypaul/dwpanel/internal/store"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/upload"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

const (
	filesOwner = "files"
	kindDelete = "delete"

	// DefaultSettleDelay is how long the device gets to finish writing
	// after the last file of a batch.
	DefaultSettleDelay = 3 * time.Second

	maxUploadLog = 50
)

type deletedMsg struct {
	path string
	err  error
}

type uploadSettledMsg struct {
	session string
}

// FilesPage lists the disk images on the device, deletes them and uploads
// new ones.
type FilesPage struct {
	deps Deps

	files   []string
	loading bool
	listErr error
	cursor  int
	status  flash

	entering bool
	input    textinput.Model

	drops     <-chan dropzone.Batch
	dropDir   string
	queued    [][]string
	sessionID string
	events    <-chan upload.Event
	total     int
	current   string
	percent   float64
	uploadLog []string
	settling  bool
	bar       progress.Model

	width, height int
}

// NewFilesPage creates the page. drops may be nil when no drop folder is
// watched.
func NewFilesPage(deps Deps, drops <-chan dropzone.Batch, dropDir string) *FilesPage {
	deps = deps.withDefaults()
	if deps.SettleDelay <= 0 {
		deps.SettleDelay = DefaultSettleDelay
	}
	ti := textinput.New()
	ti.Placeholder = "path to .dsk file or folder, comma separated"
	ti.CharLimit = 1024

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &FilesPage{
		deps:    deps,
		input:   ti,
		drops:   drops,
		dropDir: dropDir,
		bar:     bar,
	}
}

func (p *FilesPage) Init() tea.Cmd {
	return dropzone.Listen(p.drops)
}

func (p *FilesPage) refresh() tea.Cmd {
	p.loading = true
	return fetchFiles(p.deps.Ctx, p.deps.Device, filesOwner)
}

func (p *FilesPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case app.RefreshMsg:
		if msg.Refresh == view.RefreshFiles {
			return p, p.refresh()
		}
		return p, nil

	case fileListMsg:
		if msg.owner != filesOwner {
			return p, nil
		}
		p.loading = false
		p.listErr = msg.err
		if msg.err != nil {
			p.deps.Log.Warnw("file list failed", "err", msg.err)
			p.files = nil
		} else {
			p.files = msg.files
		}
		if p.cursor >= len(p.files) {
			p.cursor = max(len(p.files)-1, 0)
		}
		return p, nil

	case dialog.ResultMsg:
		if msg.Prompt.Kind != kindDelete || !msg.Confirmed {
			return p, nil
		}
		path, ok := msg.Prompt.Payload.(string)
		if !ok {
			return p, nil
		}
		return p, p.delete(path)

	case deletedMsg:
		p.recordDelete(msg)
		if msg.err != nil {
			p.deps.Log.Warnw("delete failed", "path", msg.path, "err", msg.err)
			return p, p.status.set(filesOwner, "DELETE FAILED: "+msg.err.Error(), true)
		}
		p.deps.Log.Infow("file deleted", "path", msg.path)
		return p, tea.Batch(p.refresh(), app.Refresh(view.RefreshDriveOptions))

	case dropzone.BatchMsg:
		listen := dropzone.Listen(p.drops)
		if p.deps.Session.Uploading() {
			p.queued = append(p.queued, msg.Paths)
			p.deps.Log.Infow("drop batch queued", "files", len(msg.Paths))
			return p, listen
		}
		return p, tea.Batch(listen, p.startUpload(msg.Paths))

	case upload.EventMsg:
		if msg.Session != p.sessionID {
			return p, nil
		}
		return p, p.handleEvent(msg.Event)

	case uploadSettledMsg:
		if msg.session != p.sessionID {
			return p, nil
		}
		p.deps.Session.EndUpload()
		p.sessionID = ""
		p.events = nil
		p.settling = false
		p.deps.Log.Infow("upload complete, resuming polls", "session", msg.session)

		cmds := []tea.Cmd{p.refresh(), app.Refresh(view.RefreshDriveOptions)}
		if len(p.queued) > 0 {
			next := p.queued[0]
			p.queued = p.queued[1:]
			cmds = append(cmds, p.startUpload(next))
		}
		return p, tea.Batch(cmds...)

	case flashExpiredMsg:
		p.status.expire(filesOwner, msg)
		return p, nil

	case tea.KeyMsg:
		if p.entering {
			return p, p.updateEntering(msg)
		}
		return p, p.handleKey(msg)
	}
	return p, nil
}

func (p *FilesPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "down":
		if p.cursor < len(p.files)-1 {
			p.cursor++
		}
	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
	case "d", "delete":
		if p.cursor >= len(p.files) {
			return nil
		}
		path := p.files[p.cursor]
		if !p.deps.Mounts.CanDelete(path) {
			return p.status.set(filesOwner, "Disk image mounted and in use", true)
		}
		return dialog.Request(kindDelete, fmt.Sprintf("ARE YOU SURE YOU WANT TO DELETE\n%s?", path), path)
	case "u":
		if p.deps.Session.Uploading() {
			return nil
		}
		p.entering = true
		p.input.SetValue("")
		return p.input.Focus()
	case "r":
		return p.refresh()
	}
	return nil
}

func (p *FilesPage) updateEntering(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		p.entering = false
		p.input.Blur()
		paths, err := expandPaths(p.input.Value())
		if err != nil {
			return p.status.set(filesOwner, err.Error(), true)
		}
		if len(paths) == 0 {
			return nil
		}
		return p.startUpload(paths)
	case "esc":
		p.entering = false
		p.input.Blur()
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// expandPaths splits a comma separated list. A folder stands for the
// regular files directly inside it, in name order.
func expandPaths(text string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(text, ",") {
		path := strings.TrimSpace(part)
		if path == "" {
			continue
		}
		if strings.HasPrefix(path, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, path[2:])
			}
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			out = append(out, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var names []string
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, filepath.Join(path, e.Name()))
			}
		}
		sort.Strings(names)
		out = append(out, names...)
	}
	return out, nil
}

func (p *FilesPage) startUpload(paths []string) tea.Cmd {
	if err := p.deps.Session.BeginUpload(); err != nil {
		p.deps.Log.Warnw("upload not started", "err", err)
		return nil
	}
	files := make([]upload.File, len(paths))
	for i, path := range paths {
		files[i] = upload.NewFile(path)
	}
	s := upload.New(p.deps.Device, files)
	p.deps.Log.Infow("upload started, suspending polls", "session", s.ID, "files", len(files))

	p.sessionID = s.ID
	p.uploadLog = nil
	p.current = ""
	p.percent = 0
	p.total = len(files)

	events, cmd := s.Start(p.deps.Ctx)
	p.events = events
	return cmd
}

func (p *FilesPage) handleEvent(ev upload.Event) tea.Cmd {
	listen := upload.Listen(p.sessionID, p.events)
	switch ev := ev.(type) {
	case upload.Started:
		p.total = ev.Total
	case upload.Progress:
		p.current = ev.Name
		p.percent = ev.Percent / 100
	case upload.Saved:
		p.logUpload(ev.Message())
		p.recordUpload(ev.Name, ev.Size, store.OutcomeSaved, "")
	case upload.Skipped:
		p.logUpload(ev.Message())
		p.recordUpload(ev.Name, 0, store.OutcomeSkipped, ev.Reason)
	case upload.Failed:
		p.logUpload(ev.Message())
		p.recordUpload(ev.Name, 0, store.OutcomeFailed, ev.Reason)
		p.deps.Log.Warnw("upload failed", "file", ev.Name, "reason", ev.Reason)
	case upload.Finished:
		if ev.Abandoned > 0 {
			p.logUpload(fmt.Sprintf("%d FILE(S) NOT ATTEMPTED", ev.Abandoned))
		}
		p.current = ""
		p.settling = true
		id := p.sessionID
		return tea.Tick(p.deps.SettleDelay, func(time.Time) tea.Msg {
			return uploadSettledMsg{session: id}
		})
	}
	return listen
}

func (p *FilesPage) logUpload(line string) {
	p.uploadLog = append(p.uploadLog, line)
	if len(p.uploadLog) > maxUploadLog {
		p.uploadLog = p.uploadLog[len(p.uploadLog)-maxUploadLog:]
	}
}

func (p *FilesPage) recordUpload(name string, size int64, outcome store.Outcome, reason string) {
	if p.deps.History == nil {
		return
	}
	err := p.deps.History.AddUpload(store.UploadRecord{
		Session:   p.sessionID,
		Name:      name,
		Size:      size,
		Outcome:   outcome,
		Reason:    reason,
		Timestamp: time.Now(),
	})
	if err != nil {
		p.deps.Log.Warnw("recording upload failed", "err", err)
	}
}

func (p *FilesPage) delete(path string) tea.Cmd {
	ctx, dev := p.deps.Ctx, p.deps.Device
	return func() tea.Msg {
		return deletedMsg{path: path, err: dev.DeleteFile(ctx, path)}
	}
}

func (p *FilesPage) recordDelete(msg deletedMsg) {
	if p.deps.History == nil {
		return
	}
	r := store.DeleteRecord{Path: msg.path, Timestamp: time.Now(), Success: msg.err == nil}
	if msg.err != nil {
		r.Message = msg.err.Error()
	}
	if err := p.deps.History.AddDelete(r); err != nil {
		p.deps.Log.Warnw("recording delete failed", "err", err)
	}
}

func (p *FilesPage) View() string {
	var b strings.Builder

	switch {
	case p.loading:
		b.WriteString("LOADING FILES...\n")
	case p.listErr != nil:
		b.WriteString(ui.Message("Cannot list files: "+validate.Sanitize(p.listErr.Error()), true) + "\n")
	case len(p.files) == 0:
		b.WriteString("NO DISK IMAGES FOUND.\n")
	default:
		nameWidth := p.width - 24
		if nameWidth < 10 {
			nameWidth = 10
		}
		for i, f := range p.files {
			cursor := "  "
			if i == p.cursor {
				cursor = ui.BoldStyle.Render("> ")
			}
			name := truncate.StringWithTail(validate.Sanitize(device.BaseName(f)), uint(nameWidth), "…")
			line := fmt.Sprintf("%s[%s] %-*s ", cursor, form.StorageBadge(f), nameWidth, name)
			if p.deps.Mounts.IsMounted(f) {
				line += ui.InUseStyle.Render("IN USE")
			} else {
				line += ui.ErrorBadge("DELETE")
			}
			b.WriteString(line + "\n")
		}
	}

	if p.status.text != "" {
		b.WriteString("\n" + ui.Message(p.status.text, p.status.isErr) + "\n")
	}
	if p.entering {
		b.WriteString("\nUpload: " + p.input.View() + "\n")
	}

	out := ui.Panel("Disk Images", b.String(), p.width, 0, false)
	if up := p.renderUpload(); up != "" {
		out += "\n" + up
	}
	return out
}

func (p *FilesPage) renderUpload() string {
	if p.sessionID == "" && len(p.uploadLog) == 0 {
		if p.dropDir == "" {
			return ""
		}
		return ui.DimStyle.Render("Drop .dsk files into " + p.dropDir + " to upload them.")
	}

	var b strings.Builder
	switch {
	case p.settling:
		b.WriteString(ui.DimStyle.Render("Waiting for the device to settle...") + "\n")
	case p.current != "":
		b.WriteString("UPLOADING " + validate.Sanitize(p.current) + "\n")
		b.WriteString(p.bar.ViewAs(p.percent) + fmt.Sprintf("  %d%%", int(p.percent*100)) + "\n")
	}
	if n := len(p.queued); n > 0 {
		b.WriteString(ui.DimStyle.Render(fmt.Sprintf("%d batch(es) queued", n)) + "\n")
	}

	logLines := p.uploadLog
	if room := p.height / 3; room > 0 && len(logLines) > room {
		logLines = logLines[len(logLines)-room:]
	}
	for _, line := range logLines {
		b.WriteString(validate.Sanitize(line) + "\n")
	}
	return ui.Panel(fmt.Sprintf("Upload (%d files)", p.total), b.String(), p.width, 0, p.sessionID != "")
}

func (p *FilesPage) Name() string { return "Files" }

func (p *FilesPage) ShortHelp() []key.Binding {
	if p.entering {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	uploadKey := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload"))
	uploadKey.SetEnabled(!p.deps.Session.Uploading())
	return []key.Binding{
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		uploadKey,
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (p *FilesPage) InputCaptured() bool {
	return p.entering
}

func (p *FilesPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	if w > 20 {
		p.bar.Width = min(w-16, 60)
	}
}
