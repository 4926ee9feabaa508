package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultDeviceURL        = "http://192.168.4.1"
	DefaultPollIntervalMS   = 1000
	DefaultSDPollIntervalMS = 10000
	DefaultSettleDelayMS    = 3000
	DefaultLogLevel         = "info"
	DefaultConsoleBaudRate  = 115200
)

// Config holds all dwpanel configuration.
type Config struct {
	DeviceURL        string `json:"device_url,omitempty"`
	PollIntervalMS   int    `json:"poll_interval_ms,omitempty"`
	SDPollIntervalMS int    `json:"sd_poll_interval_ms,omitempty"`
	SettleDelayMS    int    `json:"settle_delay_ms,omitempty"`
	LogLevel         string `json:"log_level,omitempty"`
	LogFile          string `json:"log_file,omitempty"`
	HistoryPath      string `json:"history_path,omitempty"`
	ConsolePort      string `json:"console_port,omitempty"`
	ConsoleBaudRate  int    `json:"console_baud_rate,omitempty"`
	DropDir          string `json:"drop_dir,omitempty"`
}

// Dir returns ~/.config/dwpanel, or "" when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dwpanel")
}

// GlobalPath returns the path of the global config file.
func GlobalPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	cfg := Config{
		DeviceURL:        DefaultDeviceURL,
		PollIntervalMS:   DefaultPollIntervalMS,
		SDPollIntervalMS: DefaultSDPollIntervalMS,
		SettleDelayMS:    DefaultSettleDelayMS,
		LogLevel:         DefaultLogLevel,
		ConsoleBaudRate:  DefaultConsoleBaudRate,
	}
	if dir := Dir(); dir != "" {
		cfg.LogFile = filepath.Join(dir, "dwpanel.log")
		cfg.HistoryPath = filepath.Join(dir, "history.db")
	}
	return cfg
}

// Load reads and merges the global config and an optional explicit file.
// Order: defaults → global (~/.config/dwpanel/config.json) → path.
func Load(path string) Config {
	cfg := Defaults()

	if global := GlobalPath(); global != "" {
		mergeFromFile(&cfg, global)
	}
	if path != "" {
		mergeFromFile(&cfg, path)
	}

	return cfg
}

// Save writes cfg to path, or to the global config file if path is empty.
func Save(cfg Config, path string) error {
	if path == "" {
		path = GlobalPath()
		if path == "" {
			return os.ErrNotExist
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// PollInterval is the status poll period.
func (c Config) PollInterval() time.Duration {
	return millis(c.PollIntervalMS, DefaultPollIntervalMS)
}

// SDPollInterval is the SD card poll period.
func (c Config) SDPollInterval() time.Duration {
	return millis(c.SDPollIntervalMS, DefaultSDPollIntervalMS)
}

// SettleDelay is how long polling stays suspended after an upload batch.
func (c Config) SettleDelay() time.Duration {
	return millis(c.SettleDelayMS, DefaultSettleDelayMS)
}

func millis(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}

func mergeFromFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return
	}

	if fileCfg.DeviceURL != "" {
		cfg.DeviceURL = fileCfg.DeviceURL
	}
	if fileCfg.PollIntervalMS != 0 {
		cfg.PollIntervalMS = fileCfg.PollIntervalMS
	}
	if fileCfg.SDPollIntervalMS != 0 {
		cfg.SDPollIntervalMS = fileCfg.SDPollIntervalMS
	}
	if fileCfg.SettleDelayMS != 0 {
		cfg.SettleDelayMS = fileCfg.SettleDelayMS
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = fileCfg.LogFile
	}
	if fileCfg.HistoryPath != "" {
		cfg.HistoryPath = fileCfg.HistoryPath
	}
	if fileCfg.ConsolePort != "" {
		cfg.ConsolePort = fileCfg.ConsolePort
	}
	if fileCfg.ConsoleBaudRate != 0 {
		cfg.ConsoleBaudRate = fileCfg.ConsoleBaudRate
	}
	if fileCfg.DropDir != "" {
		cfg.DropDir = fileCfg.DropDir
	}
}
