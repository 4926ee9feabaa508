package view

import (
	"testing"

	"github.com/buckleypaul/dwpanel/internal/device"
)

func snapshot() device.StatusSnapshot {
	return device.StatusSnapshot{
		ServerTime:  "2024-01-02 03:04:05",
		Stats:       &device.Counters{LastOpcode: device.Int(0xd2)},
		Logs:        []string{"boot", "mounted"},
		TermBuf:     []int{'O', 'K', 13, 10, 7},
		MonitorChan: device.Int(3),
		DriveStats:  []*device.DriveStats{{FullPath: "/sd/GAMES.DSK"}, nil, nil, nil},
	}
}

func TestSwitchRefreshes(t *testing.T) {
	c := NewController(Config)

	if got := c.Switch(Files); len(got) != 1 || got[0] != RefreshFiles {
		t.Fatalf("files: unexpected refresh %v", got)
	}
	if got := c.Switch(Drives); len(got) != 1 || got[0] != RefreshDriveOptions {
		t.Fatalf("drives: unexpected refresh %v", got)
	}
	if got := c.Switch(Status); got != nil {
		t.Fatalf("status: expected no refresh, got %v", got)
	}
	if got := c.Switch(Tab(42)); got != nil || c.Active() != Status {
		t.Fatal("unknown tab must be ignored")
	}
}

func TestConsumesStatus(t *testing.T) {
	for tab, want := range map[Tab]bool{
		Config: false, Status: true, Terminal: true, Drives: true, Files: false,
	} {
		if got := ConsumesStatus(tab); got != want {
			t.Errorf("%s: expected %v, got %v", tab, want, got)
		}
	}
}

func TestSelectOnlyActiveFragments(t *testing.T) {
	snap := snapshot()

	f := Select(Status, snap)
	if f.Stats == nil || len(f.Logs) != 2 {
		t.Fatal("status tab should get counters and logs")
	}
	if f.HasTerminal || f.DriveStats != nil {
		t.Fatal("status tab must not get terminal or drive fragments")
	}

	f = Select(Terminal, snap)
	if !f.HasTerminal || f.Terminal != "OK\n\n." {
		t.Fatalf("unexpected terminal text %q", f.Terminal)
	}
	if f.Logs != nil || f.Stats != nil {
		t.Fatal("terminal tab must not get status fragments")
	}

	f = Select(Drives, snap)
	if len(f.DriveStats) != 4 || f.Logs != nil {
		t.Fatal("drives tab should get only drive stats")
	}
}

func TestSelectAlwaysTracksMounts(t *testing.T) {
	for _, tab := range Order {
		f := Select(tab, snapshot())
		if !f.HasMounted || f.Mounted[0].FullPath != "/sd/GAMES.DSK" {
			t.Fatalf("%s: mount tracking fragment missing", tab)
		}
	}

	if f := Select(Files, device.StatusSnapshot{}); f.HasMounted {
		t.Fatal("snapshot without drive stats must not reset mounts")
	}
}

func TestEmptyTerminalBufferKeepsDisplay(t *testing.T) {
	snap := snapshot()
	snap.TermBuf = nil
	if f := Select(Terminal, snap); f.HasTerminal {
		t.Fatal("empty buffer should leave the terminal alone")
	}
}

func TestParse(t *testing.T) {
	for _, tab := range Order {
		got, ok := Parse(tab.String())
		if !ok || got != tab {
			t.Fatalf("Parse(%q) = %v, %v", tab.String(), got, ok)
		}
	}
	if _, ok := Parse("settings"); ok {
		t.Fatal("unknown name should not parse")
	}
}
