package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/buckleypaul/dwpanel/internal/device"
)

// Placeholder is shown for a counter the device has not reported.
const Placeholder = "--"

// Opcode formats the last DriveWire opcode as 0x hex.
func Opcode(c *device.Counters) string {
	if c == nil || c.LastOpcode == nil {
		return Placeholder
	}
	return "0x" + strings.ToUpper(strconv.FormatInt(int64(*c.LastOpcode), 16))
}

// LastDrive formats the last drive number touched.
func LastDrive(c *device.Counters) string {
	if c == nil || c.LastDrive == nil {
		return Placeholder
	}
	return strconv.Itoa(*c.LastDrive)
}

// SerialLines lists per-channel traffic in channel order.
func SerialLines(c *device.Counters) []string {
	if c == nil || len(c.Serial) == 0 {
		return []string{"No activity."}
	}
	chans := make([]int, 0, len(c.Serial))
	for ch := range c.Serial {
		chans = append(chans, ch)
	}
	sort.Ints(chans)
	lines := make([]string, 0, len(chans))
	for _, ch := range chans {
		s := c.Serial[ch]
		lines = append(lines, fmt.Sprintf("CH %d: TX %d | RX %d", ch, s.TX, s.RX))
	}
	return lines
}

// LogLines prefixes each log entry the way the device console does.
func LogLines(logs []string) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = "> " + l
	}
	return out
}

// MB formats a megabyte figure without trailing zeros.
func MB(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// SDIndicator is the one-line card state shown under the SD settings.
func SDIndicator(sd device.SDStatus) string {
	if !sd.Mounted {
		return "NOT MOUNTED (NO CARD OR WRONG PINS)"
	}
	text := "MOUNTED AT " + sd.MountPoint
	if sd.FreeMB != nil {
		text += fmt.Sprintf(" | %s MB FREE / %s MB", MB(sd.FreeMB), MB(sd.TotalMB))
	}
	return text
}

// SDLines is the SD card panel on the status tab.
func SDLines(sd device.SDStatus) []string {
	if !sd.Mounted {
		return []string{"NO SD CARD DETECTED"}
	}
	lines := []string{"STATUS: MOUNTED", "PATH: " + sd.MountPoint}
	if sd.FreeMB != nil {
		lines = append(lines, "FREE: "+MB(sd.FreeMB)+" MB", "TOTAL: "+MB(sd.TotalMB)+" MB")
	}
	if sd.FilesFound != nil {
		lines = append(lines, "DSK FILES: "+strconv.Itoa(*sd.FilesFound))
	}
	return lines
}

// DriveTitle heads a drive card.
func DriveTitle(slot int, s *device.DriveStats) string {
	return fmt.Sprintf("DRIVE %d: %s", slot, s.Filename)
}

// DriveLines are the counters in a drive card.
func DriveLines(s *device.DriveStats) []string {
	return []string{
		fmt.Sprintf("READ HITS: %d", s.ReadHits),
		fmt.Sprintf("READ MISSES: %d", s.ReadMisses),
		fmt.Sprintf("HIT RATE: %.1f%%", s.HitRate()),
		fmt.Sprintf("TOTAL WRITES: %d", s.WriteCount),
		fmt.Sprintf("DIRTY SECTORS: %d", s.DirtyCount),
	}
}
