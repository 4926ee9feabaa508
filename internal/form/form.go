// Package form binds the device configuration to editable text fields and
// turns edited fields back into a configuration payload.
package form

import (
	"errors"
	"strconv"
	"strings"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/serialmap"
	"github.com/buckleypaul/dwpanel/internal/validate"
)

const (
	DefaultBaudRate   = 115200
	DefaultNTPServer  = "pool.ntp.org"
	DefaultTimezone   = 0
	DefaultSPIID      = 1
	DefaultSCK        = 10
	DefaultMOSI       = 11
	DefaultMISO       = 12
	DefaultCS         = 13
	DefaultMountPoint = "/sd"

	MinTimezone = -12
	MaxTimezone = 14
	MaxGPIO     = 28
)

// BaudRates are the UART speeds the bridge accepts without falling back.
var BaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// Field identifies one scalar form field.
type Field int

const (
	FieldBaud Field = iota
	FieldSSID
	FieldPassword
	FieldNTP
	FieldTimezone
	FieldSPIID
	FieldSCK
	FieldMOSI
	FieldMISO
	FieldCS
	FieldMountPoint
	FieldCount
)

type fieldSpec struct {
	label  string
	secret bool
}

var fieldSpecs = [FieldCount]fieldSpec{
	FieldBaud:       {label: "Baud Rate"},
	FieldSSID:       {label: "Wi-Fi SSID"},
	FieldPassword:   {label: "Wi-Fi Password", secret: true},
	FieldNTP:        {label: "NTP Server"},
	FieldTimezone:   {label: "TZ Offset (h)"},
	FieldSPIID:      {label: "SD SPI Bus"},
	FieldSCK:        {label: "SD SCK Pin"},
	FieldMOSI:       {label: "SD MOSI Pin"},
	FieldMISO:       {label: "SD MISO Pin"},
	FieldCS:         {label: "SD CS Pin"},
	FieldMountPoint: {label: "SD Mount Point"},
}

func (f Field) Label() string { return fieldSpecs[f].label }

// Secret reports whether the field should be masked on screen.
func (f Field) Secret() bool { return fieldSpecs[f].secret }

// ValidationError blocks a save locally. Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Form holds the text of every bound field plus drive slots and serial rows.
type Form struct {
	values [FieldCount]string
	Drives device.DriveSlots
	Serial *serialmap.Editor
}

func New() *Form {
	f := &Form{Serial: serialmap.New()}
	f.Load(device.Configuration{})
	return f
}

// Load replaces every field from cfg. Absent values take their defaults.
func (f *Form) Load(cfg device.Configuration) {
	f.values[FieldBaud] = strconv.Itoa(orDefault(cfg.BaudRate, DefaultBaudRate, true))
	f.values[FieldSSID] = cfg.WifiSSID
	f.values[FieldPassword] = cfg.WifiPassword
	f.values[FieldNTP] = cfg.NTPServer
	if f.values[FieldNTP] == "" {
		f.values[FieldNTP] = DefaultNTPServer
	}
	f.values[FieldTimezone] = strconv.Itoa(orDefault(cfg.TimezoneOffset, DefaultTimezone, true))
	f.values[FieldSPIID] = strconv.Itoa(orDefault(cfg.SDSPIID, DefaultSPIID, false))
	f.values[FieldSCK] = strconv.Itoa(orDefault(cfg.SDSCK, DefaultSCK, false))
	f.values[FieldMOSI] = strconv.Itoa(orDefault(cfg.SDMOSI, DefaultMOSI, false))
	f.values[FieldMISO] = strconv.Itoa(orDefault(cfg.SDMISO, DefaultMISO, false))
	f.values[FieldCS] = strconv.Itoa(orDefault(cfg.SDCS, DefaultCS, false))
	f.values[FieldMountPoint] = cfg.SDMountPoint
	if f.values[FieldMountPoint] == "" {
		f.values[FieldMountPoint] = DefaultMountPoint
	}
	f.Drives = cfg.Drives
	f.Serial.Load(cfg.SerialMap)
}

// orDefault returns def for a nil value, and also for zero when zeroIsAbsent.
func orDefault(v *int, def int, zeroIsAbsent bool) int {
	if v == nil || (zeroIsAbsent && *v == 0) {
		return def
	}
	return *v
}

func (f *Form) Value(fl Field) string { return f.values[fl] }

func (f *Form) SetValue(fl Field, v string) { f.values[fl] = v }

// SetDrive attaches path to slot i; an empty path empties the slot.
func (f *Form) SetDrive(i int, path string) {
	if i < 0 || i >= device.DriveCount {
		return
	}
	f.Drives[i] = strings.TrimSpace(path)
}

// Harvest re-reads every field into a configuration payload. Unparsable
// numbers silently fall back to their defaults; range violations return a
// *ValidationError and no payload.
func (f *Form) Harvest() (device.Configuration, error) {
	baud := validate.SafeInt(f.values[FieldBaud], DefaultBaudRate)
	tz := validate.SafeInt(f.values[FieldTimezone], DefaultTimezone)
	spi := validate.SafeInt(f.values[FieldSPIID], DefaultSPIID)
	sck := validate.SafeInt(f.values[FieldSCK], DefaultSCK)
	mosi := validate.SafeInt(f.values[FieldMOSI], DefaultMOSI)
	miso := validate.SafeInt(f.values[FieldMISO], DefaultMISO)
	cs := validate.SafeInt(f.values[FieldCS], DefaultCS)

	if tz < MinTimezone || tz > MaxTimezone {
		return device.Configuration{}, &ValidationError{Message: "Timezone offset must be -12 to +14"}
	}
	for _, pin := range []int{sck, mosi, miso, cs} {
		if pin < 0 || pin > MaxGPIO {
			return device.Configuration{}, &ValidationError{Message: "GPIO pins must be 0-28"}
		}
	}

	serial, err := f.Serial.Harvest()
	if err != nil {
		if errors.Is(err, serialmap.ErrInvalidRow) {
			return device.Configuration{}, &ValidationError{Message: "Invalid serial config: port 1-65535, channel 0-31"}
		}
		return device.Configuration{}, err
	}

	mount := strings.TrimSpace(f.values[FieldMountPoint])
	if mount == "" {
		mount = DefaultMountPoint
	}

	var drives device.DriveSlots
	for i, d := range f.Drives {
		drives[i] = strings.TrimSpace(d)
	}

	return device.Configuration{
		BaudRate:       device.Int(baud),
		WifiSSID:       f.values[FieldSSID],
		WifiPassword:   f.values[FieldPassword],
		NTPServer:      f.values[FieldNTP],
		TimezoneOffset: device.Int(tz),
		Drives:         drives,
		SerialMap:      serial,
		SDSPIID:        device.Int(spi),
		SDSCK:          device.Int(sck),
		SDMOSI:         device.Int(mosi),
		SDMISO:         device.Int(miso),
		SDCS:           device.Int(cs),
		SDMountPoint:   mount,
	}, nil
}
