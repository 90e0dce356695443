// Package clipboard implements per-clipboard ownership, sequence
// numbering, and fan-out to the active screen. It holds no lock of
// its own: callers serialize access through the same server-wide
// mutex that guards the screen registry and active-screen pointer.
package clipboard

import (
	"github.com/screenlink/screenlink/internal/screen"
)

// Entry is the current state of a single clipboard id.
type Entry struct {
	Owner  string
	SeqNum uint32
	Data   []byte
	Ready  bool // contents known, vs. only an announcement received
}

// Manager tracks every clipboard id's ownership and contents.
type Manager struct {
	registry *screen.Registry
	entries  map[uint8]*Entry
}

// New creates a Manager for the given registry, with one empty entry
// per clipboard id in ids.
func New(registry *screen.Registry, ids []uint8) *Manager {
	m := &Manager{
		registry: registry,
		entries:  make(map[uint8]*Entry, len(ids)),
	}
	for _, id := range ids {
		m.entries[id] = &Entry{}
	}
	return m
}

func (m *Manager) entry(c uint8) *Entry {
	e, ok := m.entries[c]
	if !ok {
		e = &Entry{}
		m.entries[c] = e
	}
	return e
}

// Entry returns a copy of clipboard c's current state.
func (m *Manager) Entry(c uint8) Entry {
	return *m.entry(c)
}

// Grab records new ownership of clipboard c at seqNum, clearing every
// other screen's gotClipboard flag for c. Stale grabs (seqNum not
// strictly greater than the current sequence number) are dropped
// silently and Grab returns false.
func (m *Manager) Grab(c uint8, seqNum uint32, owner string) bool {
	e := m.entry(c)
	if seqNum <= e.SeqNum {
		return false
	}

	e.Owner = owner
	e.SeqNum = seqNum
	e.Ready = false

	m.registry.Iter(func(s *screen.Screen) {
		if s.Name != owner {
			s.SetHasClipboard(c, false)
		}
	})

	return true
}

// SetData installs clipboard c's contents if seqNum matches the
// entry's current sequence number exactly (meaning it comes from the
// grab that currently owns it); a mismatched seqNum is dropped
// silently. The active screen is handed the data if it does not
// already have it.
func (m *Manager) SetData(c uint8, seqNum uint32, data []byte, active *screen.Screen) bool {
	e := m.entry(c)
	if seqNum != e.SeqNum {
		return false
	}

	e.Data = data
	e.Ready = true

	if active != nil && !active.HasClipboard(c) {
		if err := active.Handle.ClipboardSet(c, e.SeqNum, e.Data); err == nil {
			active.SetHasClipboard(c, true)
		}
	}

	return true
}

// UpdateFromPrimary is called when the primary driver signals it now
// owns the OS clipboard: it grabs then sets atomically relative to
// other Manager calls (the caller's lock makes this atomic).
func (m *Manager) UpdateFromPrimary(c uint8, seqNum uint32, data []byte, active *screen.Screen) {
	m.Grab(c, seqNum, m.registry.PrimaryName())
	m.SetData(c, seqNum, data, active)
}

// OnScreenActivated pushes every ready clipboard the screen doesn't
// already have.
func (m *Manager) OnScreenActivated(s *screen.Screen) {
	for c, e := range m.entries {
		if !e.Ready || s.HasClipboard(c) {
			continue
		}
		if err := s.Handle.ClipboardSet(c, e.SeqNum, e.Data); err == nil {
			s.SetHasClipboard(c, true)
		}
	}
}
