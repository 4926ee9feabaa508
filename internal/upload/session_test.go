package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/devicetest"
)

type fakeUploader struct {
	attempted []string
	fail      map[string]error
}

func (f *fakeUploader) Upload(ctx context.Context, name string, body io.Reader, size int64, progress device.ProgressFunc) error {
	f.attempted = append(f.attempted, name)
	if err := f.fail[name]; err != nil {
		return err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	progress(size, size)
	return nil
}

func writeFiles(t *testing.T, names ...string) []File {
	t.Helper()
	dir := t.TempDir()
	files := make([]File, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("disk image "+n), 0o644); err != nil {
			t.Fatal(err)
		}
		files = append(files, NewFile(p))
	}
	return files
}

func collect(s *Session) []Event {
	events := make(chan Event)
	go s.Run(context.Background(), events)
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func finished(t *testing.T, events []Event) Finished {
	t.Helper()
	fin, ok := events[len(events)-1].(Finished)
	if !ok {
		t.Fatalf("expected Finished last, got %T", events[len(events)-1])
	}
	return fin
}

func TestWrongExtensionDoesNotStopBatch(t *testing.T) {
	up := &fakeUploader{}
	s := New(up, writeFiles(t, "ONE.DSK", "notes.txt", "three.dsk"))
	events := collect(s)

	if strings.Join(up.attempted, ",") != "ONE.DSK,three.dsk" {
		t.Fatalf("unexpected attempts: %v", up.attempted)
	}
	fin := finished(t, events)
	if fin.Saved != 2 || fin.Skipped != 1 || fin.Failed {
		t.Fatalf("unexpected summary: %+v", fin)
	}

	var skipped *Skipped
	for _, ev := range events {
		if e, ok := ev.(Skipped); ok {
			skipped = &e
		}
	}
	if skipped == nil || skipped.Message() != "SKIPPING notes.txt: ONLY .DSK ALLOWED" {
		t.Fatalf("unexpected skip event: %+v", skipped)
	}
}

func TestNetworkFailureStopsBatch(t *testing.T) {
	up := &fakeUploader{fail: map[string]error{
		"two.dsk": errors.New("connection reset by peer"),
	}}
	s := New(up, writeFiles(t, "one.dsk", "two.dsk", "three.dsk"))
	events := collect(s)

	if strings.Join(up.attempted, ",") != "one.dsk,two.dsk" {
		t.Fatalf("third file must not be attempted: %v", up.attempted)
	}
	fin := finished(t, events)
	if !fin.Failed || fin.Saved != 1 || fin.Abandoned != 1 {
		t.Fatalf("unexpected summary: %+v", fin)
	}

	failed, ok := events[len(events)-2].(Failed)
	if !ok {
		t.Fatalf("expected Failed before Finished, got %T", events[len(events)-2])
	}
	if failed.Message() != "UPLOAD FAILED FOR two.dsk: NETWORK ERROR: connection reset by peer" {
		t.Fatalf("unexpected message: %q", failed.Message())
	}
}

func TestReason(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{&device.HTTPError{Code: 400, Message: "SD card not mounted. Cannot upload to SD."}, "SD card not mounted. Cannot upload to SD."},
		{&device.HTTPError{Code: 502}, "HTTP 502"},
		{errors.Join(device.ErrMalformed, errors.New("invalid character '<'")), ReasonInvalidResponse},
		{errors.New("dial tcp: refused"), "NETWORK ERROR: dial tcp: refused"},
	} {
		if got := Reason(tc.err); got != tc.want {
			t.Errorf("Reason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUnreadableFileIsSkipped(t *testing.T) {
	up := &fakeUploader{}
	files := writeFiles(t, "a.dsk")
	files = append([]File{{Path: filepath.Join(t.TempDir(), "gone.dsk"), Name: "gone.dsk"}}, files...)

	fin := finished(t, collect(New(up, files)))
	if fin.Skipped != 1 || fin.Saved != 1 || fin.Failed {
		t.Fatalf("unexpected summary: %+v", fin)
	}
}

func TestUploadAgainstDevice(t *testing.T) {
	dev := devicetest.New()
	defer dev.Close()

	client := device.NewClient(dev.URL, nil)
	s := New(client, writeFiles(t, "GAMES.DSK", "readme.md", "BOOT.DSK"))
	events := collect(s)

	fin := finished(t, events)
	if fin.Saved != 2 || fin.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", fin)
	}
	if got := len(dev.Uploads()); got != 2 {
		t.Fatalf("expected 2 uploads on the device, got %d", got)
	}

	sawFull := false
	for _, ev := range events {
		if p, ok := ev.(Progress); ok && p.Percent == 100 {
			sawFull = true
		}
	}
	if !sawFull {
		t.Fatal("expected a progress event at 100%")
	}
}

func TestServerErrorStopsBatch(t *testing.T) {
	dev := devicetest.New()
	defer dev.Close()
	dev.Lock()
	dev.FailPaths["/api/files/upload"] = 500
	dev.Unlock()

	s := New(device.NewClient(dev.URL, nil), writeFiles(t, "one.dsk", "two.dsk"))
	fin := finished(t, collect(s))
	if !fin.Failed || fin.Abandoned != 1 {
		t.Fatalf("unexpected summary: %+v", fin)
	}
	if dev.Hits("/api/files/upload") != 1 {
		t.Fatalf("expected one request, got %d", dev.Hits("/api/files/upload"))
	}
}
