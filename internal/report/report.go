// Package report writes a one-shot HTML snapshot of the bridge's state.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/validate"
	"github.com/buckleypaul/dwpanel/internal/view"
)

// Source is satisfied by *device.Client.
type Source interface {
	Status(ctx context.Context) (device.StatusSnapshot, error)
	SDStatus(ctx context.Context) (device.SDStatus, error)
	Config(ctx context.Context) (device.Configuration, error)
	Files(ctx context.Context) ([]string, error)
}

type Report struct {
	Device    string
	Generated time.Time
	Status    device.StatusSnapshot
	SD        device.SDStatus
	Config    device.Configuration
	Files     []string
}

// Collect fetches everything the report shows. Any failure aborts.
func Collect(ctx context.Context, deviceURL string, src Source) (Report, error) {
	r := Report{Device: deviceURL, Generated: time.Now()}
	var err error
	if r.Status, err = src.Status(ctx); err != nil {
		return r, fmt.Errorf("status: %w", err)
	}
	if r.SD, err = src.SDStatus(ctx); err != nil {
		return r, fmt.Errorf("sd status: %w", err)
	}
	if r.Config, err = src.Config(ctx); err != nil {
		return r, fmt.Errorf("config: %w", err)
	}
	if r.Files, err = src.Files(ctx); err != nil {
		return r, fmt.Errorf("files: %w", err)
	}
	return r, nil
}

// Write renders r as a standalone HTML page. Every device-supplied string
// goes through validate.EscapeHTML.
func Write(w io.Writer, r Report) error {
	b := bufio.NewWriter(w)
	e := validate.EscapeHTML

	fmt.Fprintf(b, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>DriveWire status %s</title></head><body>\n", e(r.Device))
	fmt.Fprintf(b, "<h1>DriveWire status</h1>\n<p>Device: %s<br>Generated: %s<br>Server time: %s</p>\n",
		e(r.Device), r.Generated.Format(time.RFC3339), e(r.Status.ServerTime))

	fmt.Fprintf(b, "<h2>Activity</h2>\n<ul>\n<li>Last opcode: %s</li>\n<li>Last drive: %s</li>\n",
		view.Opcode(r.Status.Stats), view.LastDrive(r.Status.Stats))
	for _, l := range view.SerialLines(r.Status.Stats) {
		fmt.Fprintf(b, "<li>%s</li>\n", e(l))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h2>Drives</h2>\n<table>\n<tr><th>Slot</th><th>Configured</th><th>Mounted</th><th>Hit rate</th><th>Writes</th><th>Dirty</th></tr>\n")
	for i := 0; i < device.DriveCount; i++ {
		configured := r.Config.Drives[i]
		if configured == "" {
			configured = "(NO DISK)"
		}
		var st *device.DriveStats
		if i < len(r.Status.DriveStats) {
			st = r.Status.DriveStats[i]
		}
		if st == nil {
			fmt.Fprintf(b, "<tr><td>%d</td><td>%s</td><td>-</td><td>-</td><td>-</td><td>-</td></tr>\n", i, e(configured))
			continue
		}
		fmt.Fprintf(b, "<tr><td>%d</td><td>%s</td><td>%s</td><td>%.1f%%</td><td>%d</td><td>%d</td></tr>\n",
			i, e(configured), e(st.FullPath), st.HitRate(), st.WriteCount, st.DirtyCount)
	}
	b.WriteString("</table>\n")

	b.WriteString("<h2>SD card</h2>\n<ul>\n")
	for _, l := range view.SDLines(r.SD) {
		fmt.Fprintf(b, "<li>%s</li>\n", e(l))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h2>Files</h2>\n<ul>\n")
	for _, f := range r.Files {
		badge := "FL"
		if device.OnSD(f) {
			badge = "SD"
		}
		fmt.Fprintf(b, "<li>[%s] %s</li>\n", badge, e(f))
	}
	b.WriteString("</ul>\n")

	b.WriteString("<h2>Log</h2>\n<pre>\n")
	for _, l := range view.LogLines(r.Status.Logs) {
		b.WriteString(e(l))
		b.WriteString("\n")
	}
	b.WriteString("</pre>\n</body></html>\n")
	return b.Flush()
}
