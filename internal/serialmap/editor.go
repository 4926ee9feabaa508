// Package serialmap edits the channel to station table as a list of text rows.
package serialmap

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/buckleypaul/dwpanel/internal/device"
	"github.com/buckleypaul/dwpanel/internal/validate"
)

const (
	MaxChannel = 31
	MaxPort    = 65535

	// WildcardHost is used for server rows left without a host.
	WildcardHost = "0.0.0.0"
)

// ErrInvalidRow is returned by Harvest when a complete row is out of range.
var ErrInvalidRow = errors.New("invalid serial config: port 1-65535, channel 0-31")

// Column identifies an editable cell in a row.
type Column int

const (
	ColChannel Column = iota
	ColMode
	ColHost
	ColPort
	ColumnCount
)

var columnNames = [...]string{"CH", "MODE", "HOST / IP", "PORT"}

func (c Column) String() string { return columnNames[c] }

// Row is one station as the user typed it.
type Row struct {
	Channel string
	Host    string
	Port    string
	Mode    device.Mode
}

// Editor is the in-progress list of rows. Order is the order rows were
// rendered or added; it does not affect the harvested map.
type Editor struct {
	rows []Row
}

func New() *Editor {
	return &Editor{}
}

// Load replaces all rows with the stations of m, sorted by channel.
func (e *Editor) Load(m device.SerialMap) {
	chans := make([]int, 0, len(m))
	for ch := range m {
		chans = append(chans, ch)
	}
	sort.Ints(chans)

	e.rows = e.rows[:0]
	for _, ch := range chans {
		st := m[ch]
		mode := st.Mode
		if mode == "" {
			mode = device.ModeClient
		}
		port := ""
		if st.Port != 0 {
			port = strconv.Itoa(st.Port)
		}
		e.rows = append(e.rows, Row{
			Channel: strconv.Itoa(ch),
			Host:    st.Host,
			Port:    port,
			Mode:    mode,
		})
	}
}

// Add appends a blank client row and returns its index.
func (e *Editor) Add() int {
	e.rows = append(e.rows, Row{Mode: device.ModeClient})
	return len(e.rows) - 1
}

// Remove deletes row i. Other rows are untouched.
func (e *Editor) Remove(i int) {
	if i < 0 || i >= len(e.rows) {
		return
	}
	e.rows = append(e.rows[:i], e.rows[i+1:]...)
}

// Len returns the number of rows.
func (e *Editor) Len() int { return len(e.rows) }

// Row returns a copy of row i.
func (e *Editor) Row(i int) Row { return e.rows[i] }

// Rows returns a copy of all rows.
func (e *Editor) Rows() []Row { return append([]Row(nil), e.rows...) }

// Cell returns the text of one cell.
func (e *Editor) Cell(i int, col Column) string {
	r := e.rows[i]
	switch col {
	case ColChannel:
		return r.Channel
	case ColMode:
		return string(r.Mode)
	case ColHost:
		return r.Host
	case ColPort:
		return r.Port
	}
	return ""
}

// SetCell replaces the text of one cell.
func (e *Editor) SetCell(i int, col Column, val string) {
	r := &e.rows[i]
	switch col {
	case ColChannel:
		r.Channel = val
	case ColMode:
		r.Mode = device.Mode(val)
	case ColHost:
		r.Host = val
	case ColPort:
		r.Port = val
	}
}

// ToggleMode flips row i between client and server.
func (e *Editor) ToggleMode(i int) {
	if e.rows[i].Mode == device.ModeServer {
		e.rows[i].Mode = device.ModeClient
	} else {
		e.rows[i].Mode = device.ModeServer
	}
}

// Harvest builds the serial map from every row. Rows missing a channel, a
// host, or a positive port are dropped silently; complete rows with an out of
// range channel or port fail the whole harvest. A later row for the same
// channel replaces an earlier one.
func (e *Editor) Harvest() (device.SerialMap, error) {
	out := device.SerialMap{}
	for _, r := range e.rows {
		ch := strings.TrimSpace(r.Channel)
		host := strings.TrimSpace(r.Host)
		mode := r.Mode
		if mode != device.ModeServer {
			mode = device.ModeClient
		}
		port := validate.SafeInt(r.Port, 0)

		if mode == device.ModeServer && host == "" {
			host = WildcardHost
		}
		if ch == "" || host == "" || port <= 0 {
			continue
		}
		if port > MaxPort {
			return nil, ErrInvalidRow
		}
		chNum := validate.SafeInt(ch, -1)
		if chNum < 0 || chNum > MaxChannel {
			return nil, ErrInvalidRow
		}
		out[chNum] = device.Station{Host: host, Port: port, Mode: mode}
	}
	return out, nil
}
