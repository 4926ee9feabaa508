package store

import "time"

// Outcome of one file in an upload session.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// UploadRecord captures the result of one file in an upload session.
type UploadRecord struct {
	Session   string    `json:"session"`
	Name      string    `json:"name"`
	Size      int64     `json:"size,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SaveRecord captures a configuration save attempt.
type SaveRecord struct {
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
}

// DeleteRecord captures a file deletion attempt.
type DeleteRecord struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Message   string    `json:"message,omitempty"`
}
