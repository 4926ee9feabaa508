package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := Defaults()
	if cfg.DeviceURL != "http://192.168.4.1" {
		t.Errorf("expected default device URL, got=%s", cfg.DeviceURL)
	}
	if cfg.PollInterval() != time.Second || cfg.SDPollInterval() != 10*time.Second {
		t.Errorf("unexpected poll intervals %s %s", cfg.PollInterval(), cfg.SDPollInterval())
	}
	if cfg.SettleDelay() != 3*time.Second {
		t.Errorf("expected 3s settle delay, got=%s", cfg.SettleDelay())
	}
	if filepath.Base(cfg.HistoryPath) != "history.db" {
		t.Errorf("expected history under config dir, got=%s", cfg.HistoryPath)
	}
}

func TestLoadMerge(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	globalDir := filepath.Join(home, ".config", "dwpanel")
	os.MkdirAll(globalDir, 0o755)
	os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{
		"device_url": "http://pico.local",
		"log_level": "debug"
	}`), 0o644)

	explicit := filepath.Join(t.TempDir(), "bench.json")
	os.WriteFile(explicit, []byte(`{
		"device_url": "http://10.0.0.9",
		"poll_interval_ms": 500
	}`), 0o644)

	cfg := Load(explicit)

	if cfg.DeviceURL != "http://10.0.0.9" {
		t.Errorf("expected device_url from explicit file, got=%s", cfg.DeviceURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level from global file, got=%s", cfg.LogLevel)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Errorf("expected 500ms poll, got=%s", cfg.PollInterval())
	}
	// SD interval should still be default since not overridden
	if cfg.SDPollIntervalMS != DefaultSDPollIntervalMS {
		t.Errorf("expected default SD poll interval, got=%d", cfg.SDPollIntervalMS)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Config{
		DeviceURL:       "http://pico.local",
		ConsolePort:     "/dev/ttyACM0",
		ConsoleBaudRate: 57600,
		DropDir:         "/tmp/drop",
	}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded := Load(path)
	if loaded.ConsolePort != "/dev/ttyACM0" || loaded.ConsoleBaudRate != 57600 {
		t.Errorf("console settings not loaded: %+v", loaded)
	}
	if loaded.DropDir != "/tmp/drop" {
		t.Errorf("expected DropDir=/tmp/drop, got=%s", loaded.DropDir)
	}
	if loaded.SettleDelayMS != DefaultSettleDelayMS {
		t.Errorf("expected default settle delay, got=%d", loaded.SettleDelayMS)
	}
}

func TestLoadIgnoresBadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	if cfg := Load(path); cfg.DeviceURL != DefaultDeviceURL {
		t.Errorf("expected defaults for unreadable file, got=%s", cfg.DeviceURL)
	}
}
