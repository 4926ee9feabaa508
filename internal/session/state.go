// Package session holds the process-wide suspension state that gates
// background polling, and the request tokens used to disregard stale replies.
package session

import (
	"errors"
	"sync"
)

// Phase is the observable session phase.
type Phase int

const (
	Idle Phase = iota
	Uploading
	DialogOpen
)

func (p Phase) String() string {
	switch p {
	case Uploading:
		return "uploading"
	case DialogOpen:
		return "dialog-open"
	}
	return "idle"
}

// ErrUploadActive is returned when a second upload session is started.
var ErrUploadActive = errors.New("upload session already active")

// Token tags an outgoing request on a named stream.
type Token struct {
	Stream string
	Seq    uint64
	Epoch  uint64
}

// State is safe for concurrent use. Suspension is asserted while an upload
// session runs or a dialog is open; both may hold at once.
type State struct {
	mu        sync.Mutex
	uploading bool
	dialog    bool
	epoch     uint64
	seq       uint64
	accepted  map[string]uint64
}

func New() *State {
	return &State{accepted: map[string]uint64{}}
}

// Phase reports DialogOpen over Uploading over Idle.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phaseLocked()
}

func (s *State) phaseLocked() Phase {
	switch {
	case s.dialog:
		return DialogOpen
	case s.uploading:
		return Uploading
	}
	return Idle
}

// Suspended is the single predicate background work checks.
func (s *State) Suspended() bool {
	return s.Phase() != Idle
}

// Uploading reports whether an upload session holds the suspension.
func (s *State) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

func (s *State) BeginUpload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploading {
		return ErrUploadActive
	}
	s.uploading = true
	s.epoch++
	return nil
}

func (s *State) EndUpload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploading = false
}

func (s *State) OpenDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dialog {
		s.dialog = true
		s.epoch++
	}
}

func (s *State) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = false
}

// Issue returns a new token for a request about to be sent on stream.
// Sequence numbers increase across all streams.
func (s *State) Issue(stream string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return Token{Stream: stream, Seq: s.seq, Epoch: s.epoch}
}

// Accept decides whether the reply to tok may take effect. It is refused
// when the session is suspended now, when a suspension began after tok was
// issued, or when a newer reply on the same stream was already accepted.
func (s *State) Accept(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phaseLocked() != Idle || tok.Epoch != s.epoch || tok.Seq <= s.accepted[tok.Stream] {
		return false
	}
	s.accepted[tok.Stream] = tok.Seq
	return true
}
