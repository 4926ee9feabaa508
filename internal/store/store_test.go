package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndRetrieveUploads(t *testing.T) {
	s := openTemp(t)

	record := UploadRecord{
		Session:   "5f2c",
		Name:      "GAMES.DSK",
		Size:      161280,
		Outcome:   OutcomeSaved,
		Timestamp: time.Now(),
	}

	if err := s.AddUpload(record); err != nil {
		t.Fatalf("AddUpload failed: %v", err)
	}

	uploads, err := s.Uploads()
	if err != nil {
		t.Fatalf("Uploads failed: %v", err)
	}
	if len(uploads) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(uploads))
	}
	if uploads[0].Name != "GAMES.DSK" || uploads[0].Outcome != OutcomeSaved {
		t.Errorf("unexpected record: %+v", uploads[0])
	}
}

func TestAddMultipleRecords(t *testing.T) {
	s := openTemp(t)

	s.AddUpload(UploadRecord{Session: "a", Name: "one.dsk", Outcome: OutcomeSaved, Timestamp: time.Now()})
	s.AddUpload(UploadRecord{Session: "a", Name: "two.txt", Outcome: OutcomeSkipped, Timestamp: time.Now()})
	s.AddUpload(UploadRecord{Session: "b", Name: "three.dsk", Outcome: OutcomeFailed, Reason: "HTTP 500", Timestamp: time.Now()})
	s.AddSave(SaveRecord{Device: "http://192.168.4.1", Timestamp: time.Now(), Success: true})
	s.AddDelete(DeleteRecord{Path: "/sd/OLD.DSK", Timestamp: time.Now(), Success: true})

	uploads, _ := s.Uploads()
	if len(uploads) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(uploads))
	}
	if uploads[0].Name != "one.dsk" || uploads[2].Name != "three.dsk" {
		t.Errorf("records out of order: %+v", uploads)
	}

	session, _ := s.Session("a")
	if len(session) != 2 {
		t.Errorf("expected 2 records for session a, got %d", len(session))
	}

	saves, _ := s.Saves()
	if len(saves) != 1 {
		t.Errorf("expected 1 save, got %d", len(saves))
	}
	deletes, _ := s.Deletes()
	if len(deletes) != 1 {
		t.Errorf("expected 1 delete, got %d", len(deletes))
	}
}

func TestEmptyStore(t *testing.T) {
	s := openTemp(t)

	uploads, err := s.Uploads()
	if err != nil {
		t.Fatalf("Uploads on empty store failed: %v", err)
	}
	if len(uploads) != 0 {
		t.Errorf("expected 0 uploads, got %d", len(uploads))
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.AddSave(SaveRecord{Timestamp: time.Now(), Success: false, Message: "Server error: HTTP 500"})
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	saves, _ := s.Saves()
	if len(saves) != 1 || saves[0].Message != "Server error: HTTP 500" {
		t.Fatalf("history not persisted: %+v", saves)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
