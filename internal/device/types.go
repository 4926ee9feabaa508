package device

import (
	"encoding/json"
	"strings"
)

// DriveCount is the fixed number of virtual drive slots on the bridge.
const DriveCount = 4

// SDRoot is the path prefix of files stored on the SD card.
const SDRoot = "/sd"

// Mode is the role a serial station plays on the network.
type Mode string

const (
	ModeClient Mode = "client"
	ModeServer Mode = "server"
)

// Station is a network endpoint bridged to one virtual serial channel.
type Station struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	Mode Mode   `json:"mode" yaml:"mode"`
}

// SerialMap maps a channel number (0-31) to its station.
type SerialMap map[int]Station

// DriveSlots holds the image path attached to each drive slot.
// An empty string is an empty slot and travels as JSON null.
type DriveSlots [DriveCount]string

func (d DriveSlots) MarshalJSON() ([]byte, error) {
	out := make([]*string, DriveCount)
	for i := range d {
		if d[i] != "" {
			v := d[i]
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts arrays of any length; missing entries stay empty.
func (d *DriveSlots) UnmarshalJSON(data []byte) error {
	var raw []*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DriveSlots{}
	for i := 0; i < len(raw) && i < DriveCount; i++ {
		if raw[i] != nil {
			d[i] = *raw[i]
		}
	}
	return nil
}

// Configuration is the device configuration document served by /api/config.
// Numeric fields are pointers so an absent field can be told apart from zero.
type Configuration struct {
	BaudRate       *int       `json:"baud_rate,omitempty" yaml:"baud_rate,omitempty"`
	WifiSSID       string     `json:"wifi_ssid" yaml:"wifi_ssid"`
	WifiPassword   string     `json:"wifi_password" yaml:"wifi_password"`
	NTPServer      string     `json:"ntp_server" yaml:"ntp_server"`
	TimezoneOffset *int       `json:"timezone_offset,omitempty" yaml:"timezone_offset,omitempty"`
	Drives         DriveSlots `json:"drives" yaml:"drives,flow"`
	SerialMap      SerialMap  `json:"serial_map" yaml:"serial_map"`
	SDSPIID        *int       `json:"sd_spi_id,omitempty" yaml:"sd_spi_id,omitempty"`
	SDSCK          *int       `json:"sd_sck,omitempty" yaml:"sd_sck,omitempty"`
	SDMOSI         *int       `json:"sd_mosi,omitempty" yaml:"sd_mosi,omitempty"`
	SDMISO         *int       `json:"sd_miso,omitempty" yaml:"sd_miso,omitempty"`
	SDCS           *int       `json:"sd_cs,omitempty" yaml:"sd_cs,omitempty"`
	SDMountPoint   string     `json:"sd_mount_point" yaml:"sd_mount_point"`
}

// Int returns a pointer to v, for filling Configuration fields.
func Int(v int) *int { return &v }

// ChannelCounters counts serial traffic on one channel.
type ChannelCounters struct {
	TX int `json:"tx"`
	RX int `json:"rx"`
}

// Counters are the DriveWire protocol activity counters.
type Counters struct {
	LastOpcode *int                    `json:"last_opcode"`
	LastDrive  *int                    `json:"last_drive"`
	Serial     map[int]ChannelCounters `json:"serial"`
}

// DriveStats describes a mounted drive. Filename is the base name, FullPath the
// path the image was mounted from.
type DriveStats struct {
	Filename   string `json:"filename"`
	FullPath   string `json:"full_path"`
	ReadHits   int    `json:"read_hits"`
	ReadMisses int    `json:"read_misses"`
	WriteCount int    `json:"write_count"`
	DirtyCount int    `json:"dirty_count"`
}

// HitRate returns the read cache hit percentage.
func (s DriveStats) HitRate() float64 {
	total := s.ReadHits + s.ReadMisses
	if total == 0 {
		return 0
	}
	return float64(s.ReadHits) / float64(total) * 100
}

// StatusSnapshot is one /api/status response. Each poll replaces the last.
type StatusSnapshot struct {
	ServerTime  string        `json:"server_time"`
	Stats       *Counters     `json:"stats,omitempty"`
	Logs        []string      `json:"logs,omitempty"`
	TermBuf     []int         `json:"term_buf,omitempty"`
	MonitorChan *int          `json:"monitor_chan,omitempty"`
	DriveStats  []*DriveStats `json:"drive_stats,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// SDStatus is the /api/sd/status response.
type SDStatus struct {
	Mounted    bool     `json:"mounted"`
	MountPoint string   `json:"mount_point,omitempty"`
	FreeMB     *float64 `json:"free_mb,omitempty"`
	TotalMB    *float64 `json:"total_mb,omitempty"`
	FilesFound *int     `json:"files_found,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// OnSD reports whether a file path lives on the SD card rather than flash.
func OnSD(path string) bool {
	return strings.HasPrefix(path, SDRoot)
}

// BaseName returns the last path element of a device path.
func BaseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
