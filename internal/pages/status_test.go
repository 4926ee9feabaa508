package pages

import (
	"strings"
	"testing"

	"github.com/buckleypaul/dwpanel/internal/app"
	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/view"
)

func TestStatusPageRendersFragments(t *testing.T) {
	p := NewStatusPage()
	p.SetSize(100, 40)

	if !strings.Contains(p.View(), "LAST OPCODE: --") {
		t.Fatal("expected placeholders before the first poll")
	}

	p.Update(app.StatusMsg{Fragments: view.Fragments{
		Stats: &device.Counters{
			LastOpcode: device.Int(0xd2),
			LastDrive:  device.Int(1),
			Serial:     map[int]device.ChannelCounters{2: {TX: 10, RX: 4}},
		},
		Logs: []string{"DW: mounted GAMES.DSK"},
	}})
	p.Update(app.SDMsg{Status: device.SDStatus{Mounted: true, MountPoint: "/sd"}})

	v := p.View()
	for _, want := range []string{"LAST OPCODE: 0xD2", "LAST DRIVE:  1", "CH 2: TX 10 | RX 4", "> DW: mounted GAMES.DSK", "PATH: /sd"} {
		if !strings.Contains(v, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestStatusPageKeepsCountersWithoutStats(t *testing.T) {
	p := NewStatusPage()
	p.Update(app.StatusMsg{Fragments: view.Fragments{Stats: &device.Counters{LastOpcode: device.Int(0x49)}}})
	p.Update(app.StatusMsg{Fragments: view.Fragments{ServerTime: "12:00:00"}})
	if view.Opcode(p.counters) != "0x49" {
		t.Fatal("a fragment set without counters must not reset them")
	}
}

func TestDrivesPage(t *testing.T) {
	p := NewDrivesPage()
	p.SetSize(120, 40)

	if !strings.Contains(p.View(), "Waiting for drive statistics") {
		t.Fatal("expected waiting message")
	}

	p.Update(app.StatusMsg{Fragments: view.Fragments{DriveStats: []*device.DriveStats{
		{Filename: "GAMES.DSK", FullPath: "/sd/GAMES.DSK", ReadHits: 3, ReadMisses: 1},
		nil,
	}}})
	v := p.View()
	if !strings.Contains(v, "DRIVE 0: GAMES.DSK") || !strings.Contains(v, "HIT RATE: 75.0%") {
		t.Fatalf("unexpected view %q", v)
	}

	p.Update(app.StatusMsg{Fragments: view.Fragments{DriveStats: []*device.DriveStats{nil, nil, nil, nil}}})
	if !strings.Contains(p.View(), "No drives mounted.") {
		t.Fatal("expected empty message when every slot is empty")
	}
}
