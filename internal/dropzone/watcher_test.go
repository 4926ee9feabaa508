package dropzone

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherBatchesNewFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.dsk"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := w.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, name := range []string{"B.DSK", "a.dsk"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("image"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case b := <-ch:
		if len(b.Paths) != 2 {
			t.Fatalf("expected 2 files, got %v", b.Paths)
		}
		if filepath.Base(b.Paths[0]) != "B.DSK" || filepath.Base(b.Paths[1]) != "a.dsk" {
			t.Fatalf("expected sorted batch, got %v", b.Paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel closed after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestListenReturnsBatchMsg(t *testing.T) {
	ch := make(chan Batch, 1)
	ch <- Batch{Paths: []string{"/tmp/x.dsk"}}
	close(ch)

	cmd := Listen(ch)
	msg, ok := cmd().(BatchMsg)
	if !ok || len(msg.Paths) != 1 {
		t.Fatalf("unexpected msg %#v", msg)
	}
	if cmd() != nil {
		t.Fatal("expected nil after channel closed")
	}
	if Listen(nil) != nil {
		t.Fatal("expected nil command for nil channel")
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New("", 0, nil); err == nil {
		t.Fatal("expected error for empty dir")
	}
}
