// Package mounts tracks which disk images are attached to a drive slot.
package mounts

import (
	"sort"

	"github.com/buckleypaul/dwpanel/internal/device"
)

// Tracker holds the set of mounted image paths derived from the latest
// status snapshot. It is advisory: the device re-checks on delete.
type Tracker struct {
	paths map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{paths: map[string]struct{}{}}
}

// Update replaces the set from a drive-stats array. Nil entries are empty
// slots and entries without a path are ignored.
func (t *Tracker) Update(stats []*device.DriveStats) {
	next := make(map[string]struct{}, len(stats))
	for _, s := range stats {
		if s == nil || s.FullPath == "" {
			continue
		}
		next[s.FullPath] = struct{}{}
	}
	t.paths = next
}

// IsMounted reports whether path is attached to any drive slot.
func (t *Tracker) IsMounted(path string) bool {
	_, ok := t.paths[path]
	return ok
}

// CanDelete is the inverse of IsMounted, for the file list's delete action.
func (t *Tracker) CanDelete(path string) bool {
	return !t.IsMounted(path)
}

// Paths returns the mounted paths in sorted order.
func (t *Tracker) Paths() []string {
	out := make([]string, 0, len(t.paths))
	for p := range t.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
