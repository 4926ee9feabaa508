// Package upload sends a batch of disk images to the device one file at a
// time.
//
// A file without the .dsk extension, or one that cannot be read locally, is
// skipped and the batch continues. A transport failure, a non-200 status or
// an unparsable reply stops the batch; the files after it are not attempted.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/buckleypaul/dwpanel/internal/device"
)

// Extension is the only accepted image extension, compared case-insensitively.
const Extension = ".dsk"

// Reasons reported for failed files.
const (
	ReasonWrongType       = "ONLY .DSK ALLOWED"
	ReasonInvalidResponse = "INVALID SERVER RESPONSE"
	ReasonNetwork         = "NETWORK ERROR"
)

// Uploader is satisfied by *device.Client.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, progress device.ProgressFunc) error
}

// File is one local image queued for upload.
type File struct {
	Path string
	Name string
}

// NewFile names a local path by its base name.
func NewFile(path string) File {
	return File{Path: path, Name: filepath.Base(path)}
}

// Accepted reports whether name carries the image extension.
func Accepted(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), Extension)
}

// Event is emitted on the session's channel as the batch progresses.
type Event interface{ event() }

type Started struct {
	Session string
	Total   int
}

type Progress struct {
	Index   int
	Name    string
	Sent    int64
	Total   int64
	Percent float64
}

type Saved struct {
	Index int
	Name  string
	Size  int64
}

type Skipped struct {
	Index  int
	Name   string
	Reason string
}

type Failed struct {
	Index  int
	Name   string
	Reason string
}

// Finished is always the last event. Abandoned counts files that were
// never attempted because an earlier file failed.
type Finished struct {
	Session   string
	Saved     int
	Skipped   int
	Failed    bool
	Abandoned int
}

func (Started) event()  {}
func (Progress) event() {}
func (Saved) event()    {}
func (Skipped) event()  {}
func (Failed) event()   {}
func (Finished) event() {}

// Session is one batch. It is single use.
type Session struct {
	ID    string
	files []File
	up    Uploader
}

// New prepares a batch with a fresh session ID.
func New(up Uploader, files []File) *Session {
	return &Session{
		ID:    uuid.NewString(),
		files: append([]File(nil), files...),
		up:    up,
	}
}

// Files returns the queued files in order.
func (s *Session) Files() []File { return append([]File(nil), s.files...) }

// Run processes the batch and closes events when done. Events are sent
// synchronously; the reader must keep draining until the channel closes.
func (s *Session) Run(ctx context.Context, events chan<- Event) {
	defer close(events)

	fin := Finished{Session: s.ID}
	events <- Started{Session: s.ID, Total: len(s.files)}

	for i, f := range s.files {
		if !Accepted(f.Name) {
			fin.Skipped++
			events <- Skipped{Index: i, Name: f.Name, Reason: ReasonWrongType}
			continue
		}

		size, err := s.send(ctx, i, f, events)
		if err != nil {
			var local *localError
			if errors.As(err, &local) {
				fin.Skipped++
				events <- Skipped{Index: i, Name: f.Name, Reason: local.Error()}
				continue
			}
			fin.Failed = true
			fin.Abandoned = len(s.files) - i - 1
			events <- Failed{Index: i, Name: f.Name, Reason: Reason(err)}
			break
		}
		fin.Saved++
		events <- Saved{Index: i, Name: f.Name, Size: size}
	}

	events <- fin
}

type localError struct{ err error }

func (e *localError) Error() string { return "CANNOT READ FILE: " + e.err.Error() }
func (e *localError) Unwrap() error { return e.err }

func (s *Session) send(ctx context.Context, i int, f File, events chan<- Event) (int64, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return 0, &localError{err}
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return 0, &localError{err}
	}
	size := info.Size()

	err = s.up.Upload(ctx, f.Name, fh, size, func(sent, total int64) {
		events <- Progress{Index: i, Name: f.Name, Sent: sent, Total: total, Percent: percent(sent, total)}
	})
	return size, err
}

func percent(sent, total int64) float64 {
	if total <= 0 {
		return 100
	}
	return float64(sent) / float64(total) * 100
}

// Reason turns an upload error into the text shown next to the file name.
func Reason(err error) string {
	var httpErr *device.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Error()
	case errors.Is(err, device.ErrMalformed):
		return ReasonInvalidResponse
	}
	return fmt.Sprintf("%s: %v", ReasonNetwork, err)
}

// EventMsg delivers one event to the bubbletea loop.
type EventMsg struct {
	Session string
	Event   Event
}

// Listen waits for the next event. It returns nil once the channel closes,
// after Finished has been delivered.
func Listen(id string, events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Session: id, Event: ev}
	}
}

// Start runs the session in the background and returns the command that
// delivers its first event. Re-issue Listen after every EventMsg.
func (s *Session) Start(ctx context.Context) (<-chan Event, tea.Cmd) {
	events := make(chan Event, 1)
	go s.Run(ctx, events)
	return events, Listen(s.ID, events)
}

func (e Skipped) Message() string {
	return fmt.Sprintf("SKIPPING %s: %s", e.Name, e.Reason)
}

func (e Failed) Message() string {
	return fmt.Sprintf("UPLOAD FAILED FOR %s: %s", e.Name, e.Reason)
}

func (e Saved) Message() string {
	return fmt.Sprintf("SAVED %s OK", e.Name)
}
