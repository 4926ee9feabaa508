package form

import "github.com/buckleypaul/dwpanel/internal/device"

// NoDiskLabel is the option that leaves a slot empty.
const NoDiskLabel = "(NO DISK)"

// DriveOption is one choice in a drive slot selector.
type DriveOption struct {
	Value   string
	Label   string
	Missing bool
}

// StorageBadge marks whether a path lives on the SD card or internal flash.
func StorageBadge(path string) string {
	if device.OnSD(path) {
		return "SD"
	}
	return "FL"
}

// DriveOptions lists the choices for a slot currently holding current: the
// empty option, every known file, and the current value flagged as missing
// when it is no longer in files.
func DriveOptions(files []string, current string) []DriveOption {
	opts := make([]DriveOption, 0, len(files)+2)
	opts = append(opts, DriveOption{Label: NoDiskLabel})
	found := false
	for _, f := range files {
		if f == current {
			found = true
		}
		opts = append(opts, DriveOption{
			Value: f,
			Label: StorageBadge(f) + " " + device.BaseName(f),
		})
	}
	if current != "" && !found {
		opts = append(opts, DriveOption{
			Value:   current,
			Label:   "! " + device.BaseName(current) + " (MISSING)",
			Missing: true,
		})
	}
	return opts
}

// OptionIndex returns the index of value in opts, or 0 (no disk).
func OptionIndex(opts []DriveOption, value string) int {
	for i, o := range opts {
		if o.Value == value {
			return i
		}
	}
	return 0
}
