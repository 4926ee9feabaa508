package view

import (
	"strings"
	"testing"

	"github.com/buckleypaul/dwpanel/internal/device"
)

func f64(v float64) *float64 { return &v }

func TestCounters(t *testing.T) {
	if Opcode(nil) != "--" || LastDrive(&device.Counters{}) != "--" {
		t.Fatal("expected placeholders for missing counters")
	}
	c := &device.Counters{
		LastOpcode: device.Int(0xd2),
		LastDrive:  device.Int(0),
		Serial:     map[int]device.ChannelCounters{14: {TX: 5, RX: 9}, 2: {TX: 1}},
	}
	if Opcode(c) != "0xD2" || LastDrive(c) != "0" {
		t.Fatalf("unexpected counters %s %s", Opcode(c), LastDrive(c))
	}
	if got := strings.Join(SerialLines(c), ";"); got != "CH 2: TX 1 | RX 0;CH 14: TX 5 | RX 9" {
		t.Fatalf("unexpected serial lines %q", got)
	}
}

func TestSDIndicator(t *testing.T) {
	if got := SDIndicator(device.SDStatus{}); got != "NOT MOUNTED (NO CARD OR WRONG PINS)" {
		t.Fatalf("unexpected %q", got)
	}
	sd := device.SDStatus{Mounted: true, MountPoint: "/sd", FreeMB: f64(1024.5), TotalMB: f64(30436), FilesFound: device.Int(7)}
	if got := SDIndicator(sd); got != "MOUNTED AT /sd | 1024.5 MB FREE / 30436 MB" {
		t.Fatalf("unexpected %q", got)
	}
	lines := SDLines(sd)
	if lines[len(lines)-1] != "DSK FILES: 7" {
		t.Fatalf("unexpected SD lines %v", lines)
	}
}

func TestDriveLines(t *testing.T) {
	s := &device.DriveStats{Filename: "GAMES.DSK", ReadHits: 2, ReadMisses: 1, WriteCount: 4}
	if DriveTitle(1, s) != "DRIVE 1: GAMES.DSK" {
		t.Fatal("unexpected title")
	}
	if DriveLines(s)[2] != "HIT RATE: 66.7%" {
		t.Fatalf("unexpected hit rate line %q", DriveLines(s)[2])
	}
}
