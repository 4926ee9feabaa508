package device_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/devicetest"
)

func TestDriveSlotsJSONUsesNullForEmpty(t *testing.T) {
	slots := device.DriveSlots{"/sd/GAMES.DSK", "", "/boot.dsk", ""}
	data, err := json.Marshal(slots)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["/sd/GAMES.DSK",null,"/boot.dsk",null]` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestDriveSlotsPadsShortArrays(t *testing.T) {
	var slots device.DriveSlots
	if err := json.Unmarshal([]byte(`["/a.dsk"]`), &slots); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if slots[0] != "/a.dsk" || slots[1] != "" || slots[3] != "" {
		t.Fatalf("unexpected slots: %#v", slots)
	}
}

func TestConfigAbsentFieldsStayNil(t *testing.T) {
	var cfg device.Configuration
	if err := json.Unmarshal([]byte(`{"wifi_ssid":"home","sd_sck":0}`), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.BaudRate != nil {
		t.Fatalf("expected nil baud rate, got %d", *cfg.BaudRate)
	}
	if cfg.SDSCK == nil || *cfg.SDSCK != 0 {
		t.Fatalf("expected explicit sd_sck=0, got %v", cfg.SDSCK)
	}
}

func TestClientConfigRoundTrip(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	c := device.NewClient(srv.URL, nil)
	ctx := context.Background()

	cfg := device.Configuration{
		BaudRate:  device.Int(57600),
		Drives:    device.DriveSlots{"/sd/GAMES.DSK"},
		SerialMap: device.SerialMap{3: {Host: "bbs.example.org", Port: 6800, Mode: device.ModeClient}},
	}
	if err := c.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := c.Config(ctx)
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if *got.BaudRate != 57600 || got.Drives[0] != "/sd/GAMES.DSK" || got.SerialMap[3].Port != 6800 {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestClientStatusHTTPError(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	srv.FailPaths["/api/status"] = 503
	c := device.NewClient(srv.URL, nil)

	_, err := c.Status(context.Background())
	var herr *device.HTTPError
	if !errors.As(err, &herr) || herr.Code != 503 {
		t.Fatalf("expected HTTPError 503, got %v", err)
	}
}

func TestClientDeleteReportsAPIError(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	srv.Cfg.Drives = device.DriveSlots{"/sd/GAMES.DSK"}
	srv.FileList = []string{"/sd/GAMES.DSK"}
	c := device.NewClient(srv.URL, nil)

	err := c.DeleteFile(context.Background(), "/sd/GAMES.DSK")
	var aerr *device.APIError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !strings.Contains(aerr.Message, "mounted in DRIVE 0") {
		t.Fatalf("unexpected message: %q", aerr.Message)
	}
}

func TestClientDeleteKeepsDeviceErrorText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":"Cannot delete system files"}`)
	}))
	defer srv.Close()
	c := device.NewClient(srv.URL, nil)

	err := c.DeleteFile(context.Background(), "/config.json")
	var aerr *device.APIError
	if !errors.As(err, &aerr) || aerr.Message != "Cannot delete system files" {
		t.Fatalf("expected device error text, got %v", err)
	}
}

func TestClientDeleteWithoutJSONBodyIsHTTPError(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	srv.FailPaths["/api/files/delete"] = 500
	c := device.NewClient(srv.URL, nil)

	err := c.DeleteFile(context.Background(), "/sd/GAMES.DSK")
	var herr *device.HTTPError
	if !errors.As(err, &herr) || herr.Code != 500 {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
	if err.Error() != "HTTP 500" {
		t.Fatalf("unexpected text %q", err.Error())
	}
}

func TestClientUploadSendsRawBodyAndReportsProgress(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	c := device.NewClient(srv.URL, nil)

	body := bytes.Repeat([]byte{0xAA}, 4096)
	var last, total int64
	err := c.Upload(context.Background(), "GAMES.DSK", bytes.NewReader(body), int64(len(body)), func(sent, tot int64) {
		last, total = sent, tot
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if last != 4096 || total != 4096 {
		t.Fatalf("expected progress 4096/4096, got %d/%d", last, total)
	}
	ups := srv.Uploads()
	if len(ups) != 1 || ups[0].Name != "GAMES.DSK" || len(ups[0].Body) != 4096 {
		t.Fatalf("unexpected uploads: %+v", ups)
	}
}

func TestClientUploadNonJSONFailure(t *testing.T) {
	srv := devicetest.New()
	defer srv.Close()
	srv.FailPaths["/api/files/upload"] = 413
	c := device.NewClient(srv.URL, nil)

	err := c.Upload(context.Background(), "BIG.DSK", strings.NewReader("x"), 1, nil)
	if err == nil || err.Error() != "HTTP 413" {
		t.Fatalf("expected HTTP 413, got %v", err)
	}
}

func TestOnSD(t *testing.T) {
	if !device.OnSD("/sd/GAMES.DSK") {
		t.Fatal("expected /sd path on SD")
	}
	if device.OnSD("/boot.dsk") {
		t.Fatal("expected root path on flash")
	}
	if device.BaseName("/sd/sub/GAMES.DSK") != "GAMES.DSK" {
		t.Fatal("unexpected base name")
	}
}
