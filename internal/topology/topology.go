// Package topology implements the pure, stateless edge-crossing
// geometry: given a screen, a direction, and a cursor position, it
// finds the neighboring screen and the position at which the cursor
// re-enters it.
package topology

import (
	"fmt"

	"github.com/screenlink/screenlink/internal/config"
)

// Direction is a screen edge.
type Direction int

const (
	None Direction = iota
	Left
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection converts a config string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "top", "up":
		return Up, nil
	case "bottom", "down":
		return Down, nil
	default:
		return None, fmt.Errorf("topology: unknown edge %q", s)
	}
}

// Extent is a screen's local size, origin always (0,0); screens carry
// no absolute position, only width/height and a jump-zone thickness.
type Extent struct {
	W, H     int32
	ZoneSize int32
}

// Contains reports whether the local point lies within the extent.
func (e Extent) Contains(x, y int32) bool {
	return x >= 0 && x < e.W && y >= 0 && y < e.H
}

// EdgeAt returns the edge (if any) that (x, y) is within ZoneSize of.
// Horizontal edges take precedence over vertical ones at a corner.
func (e Extent) EdgeAt(x, y int32) Direction {
	if e.ZoneSize <= 0 {
		return None
	}
	if x < e.ZoneSize {
		return Left
	}
	if e.W-x <= e.ZoneSize {
		return Right
	}
	if y < e.ZoneSize {
		return Up
	}
	if e.H-y <= e.ZoneSize {
		return Down
	}
	return None
}

type edgeKey struct {
	screen string
	dir    Direction
}

// Topology is the configured screen adjacency map. Safe for
// concurrent read access once built; callers wishing to swap it
// entirely (setConfig) should build a new instance and replace the
// pointer under their own lock.
type Topology struct {
	edges map[edgeKey]string
}

// GeometryLookup resolves a screen name to its current extent. It
// returns ok=false for unknown or not-yet-ready screens.
type GeometryLookup func(name string) (Extent, bool)

// New builds a Topology from configured edge mappings. It does not
// validate; call Validate separately against a known-screens set.
func New(mappings []config.EdgeMapping) (*Topology, error) {
	edges := make(map[edgeKey]string, len(mappings))
	for _, m := range mappings {
		dir, err := ParseDirection(m.Edge)
		if err != nil {
			return nil, fmt.Errorf("topology: edge %s/%s: %w", m.Screen, m.Edge, err)
		}
		edges[edgeKey{m.Screen, dir}] = m.Target
	}
	return &Topology{edges: edges}, nil
}

// Validate checks a set of edge mappings against a set of known
// screen names. Self-edges are rejected; edges to unknown screens are
// tolerated (they become inactive until that screen connects) and
// reported back as warnings, not errors.
func Validate(mappings []config.EdgeMapping, primaryName string, known func(name string) bool) (warnings []string, err error) {
	for _, m := range mappings {
		if _, derr := ParseDirection(m.Edge); derr != nil {
			return nil, derr
		}
		if m.Screen == m.Target {
			return nil, fmt.Errorf("topology: self-edge not allowed: %s/%s -> %s", m.Screen, m.Edge, m.Target)
		}
		if !known(m.Target) {
			warnings = append(warnings, fmt.Sprintf("edge %s/%s targets unregistered screen %q", m.Screen, m.Edge, m.Target))
		}
	}
	if primaryName == "" {
		return warnings, fmt.Errorf("topology: primary screen name must not be empty")
	}
	return warnings, nil
}

// Neighbor returns the screen configured on the given edge of from, if any.
func (t *Topology) Neighbor(from string, dir Direction) (string, bool) {
	name, ok := t.edges[edgeKey{from, dir}]
	return name, ok
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

const maxChainHops = 64

// Project walks the topology starting at `from` in direction `dir`
// from local point (x, y), translating across however many screens a
// single move spans (relevant to fast relative mouse deltas that
// overshoot more than one screen's width in a single tick). It
// returns ok=false if the chain terminates at an edge with no
// configured neighbor; callers must then clamp rather than switch.
//
// Tie-break at exact corner coincidence is the caller's
// responsibility (EdgeAt already prefers horizontal over vertical).
func (t *Topology) Project(geoms GeometryLookup, from string, dir Direction, x, y int32) (to string, nx, ny int32, ok bool) {
	cur := from
	switch dir {
	case Right, Left:
		cross := x
		for hop := 0; hop < maxChainHops; hop++ {
			target, found := t.Neighbor(cur, dir)
			if !found {
				return "", 0, 0, false
			}
			fromExt, fOK := geoms(cur)
			toExt, tOK := geoms(target)
			if !fOK || !tOK {
				return "", 0, 0, false
			}

			var excess int32
			if dir == Right {
				excess = abs32(cross - fromExt.W)
			} else {
				excess = abs32(cross)
			}

			if excess < toExt.W {
				var localX int32
				if dir == Right {
					localX = excess
				} else {
					localX = toExt.W - excess
				}
				return target, localX, clamp(y, 0, toExt.H-1), true
			}

			residual := excess - toExt.W
			if dir == Right {
				cross = excess
			} else {
				cross = -residual
			}
			cur = target
		}
		return "", 0, 0, false

	case Down, Up:
		cross := y
		for hop := 0; hop < maxChainHops; hop++ {
			target, found := t.Neighbor(cur, dir)
			if !found {
				return "", 0, 0, false
			}
			fromExt, fOK := geoms(cur)
			toExt, tOK := geoms(target)
			if !fOK || !tOK {
				return "", 0, 0, false
			}

			var excess int32
			if dir == Down {
				excess = abs32(cross - fromExt.H)
			} else {
				excess = abs32(cross)
			}

			if excess < toExt.H {
				var localY int32
				if dir == Down {
					localY = excess
				} else {
					localY = toExt.H - excess
				}
				return target, clamp(x, 0, toExt.W-1), localY, true
			}

			residual := excess - toExt.H
			if dir == Down {
				cross = excess
			} else {
				cross = -residual
			}
			cur = target
		}
		return "", 0, 0, false

	default:
		return "", 0, 0, false
	}
}
