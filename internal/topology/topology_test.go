package topology

import (
	"testing"

	"github.com/screenlink/screenlink/internal/config"
)

func extents(m map[string]Extent) GeometryLookup {
	return func(name string) (Extent, bool) {
		e, ok := m[name]
		return e, ok
	}
}

func TestEdgeCrossing(t *testing.T) {
	topo, err := New([]config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "R"},
		{Screen: "R", Edge: "left", Target: "primary"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	geoms := extents(map[string]Extent{
		"primary": {W: 100, H: 100, ZoneSize: 5},
		"R":       {W: 100, H: 100, ZoneSize: 5},
	})

	to, x, y, ok := topo.Project(geoms, "primary", Right, 98, 50)
	if !ok || to != "R" || x != 2 || y != 50 {
		t.Fatalf("got (%s,%d,%d,%v), want (R,2,50,true)", to, x, y, ok)
	}
}

func TestSwitchBackWithOvershoot(t *testing.T) {
	topo, err := New([]config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "R"},
		{Screen: "R", Edge: "left", Target: "primary"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	geoms := extents(map[string]Extent{
		"primary": {W: 100, H: 100, ZoneSize: 5},
		"R":       {W: 100, H: 100, ZoneSize: 5},
	})

	// cursor at (12, 50) on R, moved by (-20, 0): local x = -8
	to, x, y, ok := topo.Project(geoms, "R", Left, -8, 50)
	if !ok || to != "primary" || x != 92 || y != 50 {
		t.Fatalf("got (%s,%d,%d,%v), want (primary,92,50,true)", to, x, y, ok)
	}
}

func TestProjectNoNeighbor(t *testing.T) {
	topo, _ := New(nil)
	geoms := extents(map[string]Extent{"primary": {W: 100, H: 100, ZoneSize: 5}})

	_, _, _, ok := topo.Project(geoms, "primary", Right, 98, 50)
	if ok {
		t.Fatal("expected no neighbor, got ok=true")
	}
}

func TestProjectMultiScreenChain(t *testing.T) {
	topo, err := New([]config.EdgeMapping{
		{Screen: "A", Edge: "right", Target: "B"},
		{Screen: "B", Edge: "right", Target: "C"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	geoms := extents(map[string]Extent{
		"A": {W: 100, H: 100, ZoneSize: 5},
		"B": {W: 100, H: 100, ZoneSize: 5},
		"C": {W: 100, H: 100, ZoneSize: 5},
	})

	// a flick landing 150 past A's right edge: crosses all of B (100
	// wide), lands 50 into C.
	to, x, y, ok := topo.Project(geoms, "A", Right, 250, 50)
	if !ok || to != "C" || x != 50 || y != 50 {
		t.Fatalf("got (%s,%d,%d,%v), want (C,50,50,true)", to, x, y, ok)
	}
}

func TestValidateRejectsSelfEdge(t *testing.T) {
	_, err := Validate([]config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "primary"},
	}, "primary", func(string) bool { return true })
	if err == nil {
		t.Fatal("expected error for self-edge")
	}
}

func TestValidateWarnsOnUnknownTarget(t *testing.T) {
	warnings, err := Validate([]config.EdgeMapping{
		{Screen: "primary", Edge: "right", Target: "ghost"},
	}, "primary", func(string) bool { return false })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(warnings))
	}
}

func TestEdgeAtPrecedence(t *testing.T) {
	e := Extent{W: 100, H: 100, ZoneSize: 5}
	// exact corner: horizontal wins over vertical
	if got := e.EdgeAt(2, 2); got != Left {
		t.Fatalf("corner tie-break: got %v, want Left", got)
	}
}
