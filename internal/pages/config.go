package pages

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/form"
	"github.com/buckleypaul/dwpanel/internal/serialmap"
	"github.com/buckleypaul/dwpanel/internal/store"
	"github.com/buckleypaul/dwpanel/internal/ui"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

const (
	configOwner = "config"
	tagBaud     = "baud"
	tagDrive    = "drive:"

	msgSaved        = "Configuration saved successfully!"
	msgNetworkSave  = "Network error while saving."
	configLabelSize = 16
)

type configLoadedMsg struct {
	cfg device.Configuration
	err error
}

type configSavedMsg struct {
	err error
}

type rowKind int

const (
	rowField rowKind = iota
	rowDrive
	rowSerial
)

type configRow struct {
	kind  rowKind
	field form.Field
	index int // drive slot or serial row
}

type ConfigPage struct {
	deps Deps
	form *form.Form

	cursor  int
	col     serialmap.Column
	editing bool
	input   textinput.Model

	files  []string
	sd     *device.SDStatus
	loaded bool
	saving bool
	status flash

	width, height int
}

func NewConfigPage(deps Deps) *ConfigPage {
	ti := textinput.New()
	ti.CharLimit = 128
	return &ConfigPage{
		deps:  deps.withDefaults(),
		form:  form.New(),
		input: ti,
	}
}

func (p *ConfigPage) Init() tea.Cmd {
	return tea.Batch(p.load(), fetchFiles(p.deps.Ctx, p.deps.Device, configOwner))
}

func (p *ConfigPage) load() tea.Cmd {
	ctx, dev := p.deps.Ctx, p.deps.Device
	return func() tea.Msg {
		cfg, err := dev.Config(ctx)
		return configLoadedMsg{cfg: cfg, err: err}
	}
}

func (p *ConfigPage) Update(msg tea.Msg) (app.Page, tea.Cmd) {
	switch msg := msg.(type) {
	case configLoadedMsg:
		if msg.err != nil {
			p.deps.Log.Warnw("config load failed", "err", msg.err)
			return p, p.status.set(configOwner, "Failed to load config: "+msg.err.Error(), true)
		}
		p.form.Load(msg.cfg)
		p.loaded = true
		p.clampCursor()
		return p, nil

	case configSavedMsg:
		p.saving = false
		text, isErr := saveMessage(msg.err)
		p.record(text, msg.err == nil)
		if isErr {
			p.deps.Log.Warnw("config save failed", "err", msg.err)
		} else {
			p.deps.Log.Infow("config saved", "device", p.deps.DeviceURL)
		}
		return p, p.status.set(configOwner, text, isErr)

	case fileListMsg:
		if msg.owner != configOwner {
			return p, nil
		}
		if msg.err != nil {
			p.deps.Log.Debugw("drive options refresh failed", "err", msg.err)
			return p, nil
		}
		p.files = msg.files
		return p, nil

	case app.RefreshMsg:
		if msg.Refresh == view.RefreshDriveOptions {
			return p, fetchFiles(p.deps.Ctx, p.deps.Device, configOwner)
		}
		return p, nil

	case app.SDMsg:
		sd := msg.Status
		p.sd = &sd
		return p, nil

	case app.PickedMsg:
		p.applyPick(msg)
		return p, nil

	case flashExpiredMsg:
		p.status.expire(configOwner, msg)
		return p, nil

	case tea.KeyMsg:
		if p.editing {
			return p, p.updateEditing(msg)
		}
		return p, p.handleKey(msg)
	}
	return p, nil
}

func (p *ConfigPage) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		p.applyValue(p.input.Value())
		p.stopEditing()
		return nil
	case "esc":
		p.stopEditing()
		return nil
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *ConfigPage) handleKey(msg tea.KeyMsg) tea.Cmd {
	rows := p.rows()
	switch msg.String() {
	case "down":
		if p.cursor < len(rows)-1 {
			p.cursor++
		}
	case "up":
		if p.cursor > 0 {
			p.cursor--
		}
	case "tab":
		if rows[p.cursor].kind == rowSerial {
			p.col = (p.col + 1) % serialmap.ColumnCount
		}
	case "enter", "e":
		return p.activate(rows[p.cursor])
	case "a":
		i := p.form.Serial.Add()
		p.cursor = int(form.FieldCount) + device.DriveCount + i
		p.col = serialmap.ColChannel
	case "x":
		if r := rows[p.cursor]; r.kind == rowSerial {
			p.form.Serial.Remove(r.index)
			p.clampCursor()
		}
	case "r":
		return p.load()
	case "s":
		return p.save()
	}
	return nil
}

func (p *ConfigPage) activate(r configRow) tea.Cmd {
	switch r.kind {
	case rowField:
		if r.field == form.FieldBaud {
			return p.openBaudPicker()
		}
		p.input.EchoMode = textinput.EchoNormal
		if r.field.Secret() {
			p.input.EchoMode = textinput.EchoPassword
		}
		return p.startEditing(p.form.Value(r.field))
	case rowDrive:
		return p.openDrivePicker(r.index)
	case rowSerial:
		if p.col == serialmap.ColMode {
			p.form.Serial.ToggleMode(r.index)
			return nil
		}
		p.input.EchoMode = textinput.EchoNormal
		return p.startEditing(p.form.Serial.Cell(r.index, p.col))
	}
	return nil
}

func (p *ConfigPage) startEditing(val string) tea.Cmd {
	p.editing = true
	p.input.SetValue(val)
	p.input.CursorEnd()
	return p.input.Focus()
}

func (p *ConfigPage) stopEditing() {
	p.editing = false
	p.input.Blur()
}

func (p *ConfigPage) applyValue(val string) {
	r := p.rows()[p.cursor]
	switch r.kind {
	case rowField:
		p.form.SetValue(r.field, val)
	case rowSerial:
		p.form.Serial.SetCell(r.index, p.col, val)
	}
}

func (p *ConfigPage) openBaudPicker() tea.Cmd {
	current := p.form.Value(form.FieldBaud)
	items := make([]app.PickerItem, len(form.BaudRates))
	cursor := 0
	for i, b := range form.BaudRates {
		v := strconv.Itoa(b)
		items[i] = app.PickerItem{Label: v, Value: v}
		if v == current {
			cursor = i
		}
	}
	return func() tea.Msg {
		return app.OpenPickerMsg{Title: "Baud Rate", Tag: tagBaud, Items: items, Cursor: cursor}
	}
}

func (p *ConfigPage) openDrivePicker(slot int) tea.Cmd {
	opts := form.DriveOptions(p.files, p.form.Drives[slot])
	items := make([]app.PickerItem, len(opts))
	for i, o := range opts {
		items[i] = app.PickerItem{Label: o.Label, Value: o.Value, Warn: o.Missing}
	}
	open := app.OpenPickerMsg{
		Title:  fmt.Sprintf("Drive %d", slot),
		Tag:    tagDrive + strconv.Itoa(slot),
		Items:  items,
		Cursor: form.OptionIndex(opts, p.form.Drives[slot]),
	}
	return func() tea.Msg { return open }
}

func (p *ConfigPage) applyPick(msg app.PickedMsg) {
	switch {
	case msg.Tag == tagBaud:
		p.form.SetValue(form.FieldBaud, msg.Value)
	case strings.HasPrefix(msg.Tag, tagDrive):
		slot, err := strconv.Atoi(strings.TrimPrefix(msg.Tag, tagDrive))
		if err != nil {
			return
		}
		p.form.SetDrive(slot, msg.Value)
	}
}

func (p *ConfigPage) save() tea.Cmd {
	if p.saving {
		return nil
	}
	cfg, err := p.form.Harvest()
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			return p.status.set(configOwner, verr.Message, true)
		}
		return p.status.set(configOwner, err.Error(), true)
	}
	p.saving = true
	ctx, dev := p.deps.Ctx, p.deps.Device
	return func() tea.Msg {
		return configSavedMsg{err: dev.SaveConfig(ctx, cfg)}
	}
}

// saveMessage maps a save outcome to the message shown under the form.
func saveMessage(err error) (string, bool) {
	if err == nil {
		return msgSaved, false
	}
	var herr *device.HTTPError
	if errors.As(err, &herr) {
		return fmt.Sprintf("Server error: HTTP %d", herr.Code), true
	}
	var aerr *device.APIError
	if errors.As(err, &aerr) {
		return "Error saving: " + aerr.Message, true
	}
	return msgNetworkSave, true
}

func (p *ConfigPage) record(text string, ok bool) {
	if p.deps.History == nil {
		return
	}
	err := p.deps.History.AddSave(store.SaveRecord{
		Device:    p.deps.DeviceURL,
		Timestamp: time.Now(),
		Success:   ok,
		Message:   text,
	})
	if err != nil {
		p.deps.Log.Warnw("recording save failed", "err", err)
	}
}

func (p *ConfigPage) rows() []configRow {
	rows := make([]configRow, 0, int(form.FieldCount)+device.DriveCount+p.form.Serial.Len())
	for f := form.Field(0); f < form.FieldCount; f++ {
		rows = append(rows, configRow{kind: rowField, field: f})
	}
	for i := 0; i < device.DriveCount; i++ {
		rows = append(rows, configRow{kind: rowDrive, index: i})
	}
	for i := 0; i < p.form.Serial.Len(); i++ {
		rows = append(rows, configRow{kind: rowSerial, index: i})
	}
	return rows
}

func (p *ConfigPage) clampCursor() {
	if n := len(p.rows()); p.cursor >= n {
		p.cursor = n - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func (p *ConfigPage) View() string {
	var b strings.Builder
	rows := p.rows()

	for i, r := range rows {
		if i == int(form.FieldCount) {
			b.WriteString("\n" + ui.BoldStyle.Render("Drives") + "\n")
		}
		if i == int(form.FieldCount)+device.DriveCount {
			b.WriteString("\n" + ui.BoldStyle.Render("Serial Map") + "\n")
		}
		cursor := "  "
		if i == p.cursor {
			cursor = ui.BoldStyle.Render("> ")
		}
		b.WriteString(cursor + p.renderRow(r, i == p.cursor))
		b.WriteString("\n")

		if r.kind == rowField && r.field == form.FieldMountPoint {
			b.WriteString("  " + p.renderSD() + "\n")
		}
	}
	if p.form.Serial.Len() == 0 {
		b.WriteString(ui.DimStyle.Render("  No serial stations. Press a to add one.") + "\n")
	}

	if p.editing {
		b.WriteString("\n  " + p.input.View() + "\n")
	}
	if p.status.text != "" {
		b.WriteString("\n  " + ui.Message(p.status.text, p.status.isErr))
	}

	title := "Configuration"
	if !p.loaded {
		title += " (not loaded)"
	}
	return ui.Panel(title, b.String(), p.width, 0, false)
}

func (p *ConfigPage) renderRow(r configRow, selected bool) string {
	switch r.kind {
	case rowField:
		val := p.form.Value(r.field)
		if r.field.Secret() && val != "" {
			val = strings.Repeat("*", len(val))
		}
		if val == "" {
			val = ui.DimStyle.Render("(not set)")
		} else {
			val = validate.Sanitize(val)
		}
		return fmt.Sprintf("%-*s %s", configLabelSize, r.field.Label(), val)

	case rowDrive:
		path := p.form.Drives[r.index]
		val := ui.DimStyle.Render(form.NoDiskLabel)
		if path != "" {
			opts := form.DriveOptions(p.files, path)
			opt := opts[form.OptionIndex(opts, path)]
			val = validate.Sanitize(opt.Label)
			if opt.Missing && p.files != nil {
				val = ui.WarnStyle.Render(val)
			}
		}
		return fmt.Sprintf("%-*s %s", configLabelSize, fmt.Sprintf("Drive %d", r.index), val)

	case rowSerial:
		cells := make([]string, serialmap.ColumnCount)
		for c := serialmap.Column(0); c < serialmap.ColumnCount; c++ {
			text := validate.Sanitize(p.form.Serial.Cell(r.index, c))
			if text == "" {
				text = "_"
			}
			text = fmt.Sprintf("%s:%s", c, text)
			if selected && c == p.col {
				text = ui.AccentStyle.Render("[" + text + "]")
			}
			cells[c] = text
		}
		return strings.Join(cells, "  ")
	}
	return ""
}

func (p *ConfigPage) renderSD() string {
	if p.sd == nil {
		return ui.DimStyle.Render("SD: checking...")
	}
	text := "SD: " + validate.Sanitize(view.SDIndicator(*p.sd))
	if p.sd.Mounted {
		return ui.MountedStyle.Render(text)
	}
	return ui.AlertStyle.Render(text)
}

func (p *ConfigPage) Name() string { return "Config" }

func (p *ConfigPage) ShortHelp() []key.Binding {
	if p.editing {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		}
	}
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next column")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add station")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove station")),
		key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

func (p *ConfigPage) InputCaptured() bool {
	return p.editing
}

func (p *ConfigPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}
