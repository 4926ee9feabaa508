package form

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/buckleypaul/dwpanel/internal/device"
)

// WriteBackup encodes cfg as YAML.
func WriteBackup(w io.Writer, cfg device.Configuration) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	return enc.Close()
}

// ReadBackup decodes a YAML backup and passes it through the same defaults
// and range checks as an interactive save.
func ReadBackup(r io.Reader) (device.Configuration, error) {
	var cfg device.Configuration
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return device.Configuration{}, fmt.Errorf("decode backup: %w", err)
	}
	f := New()
	f.Load(cfg)
	return f.Harvest()
}
