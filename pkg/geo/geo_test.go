package geo

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func TestFeatureArea(t *testing.T) {
	tests := []struct {
		name string
		geom geom.Polygonal
		want float64
	}{
		{"unit square", rect(0, 0, 1, 1), 1},
		{"10x10 square", rect(0, 0, 10, 10), 100},
		{"nil geometry", nil, 0},
		{"multi-part", geom.MultiPolygon{rect(0, 0, 1, 1), rect(5, 5, 7, 7)}, 5},
		// Clockwise ring: signed area is negative, reported area must not be.
		{"reversed winding", geom.Polygon{{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0},
		}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Feature{ID: "f", Geom: tt.geom}
			if got := f.Area(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Area() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartAreas(t *testing.T) {
	multi := geom.MultiPolygon{rect(0, 0, 2, 2), rect(10, 0, 11, 1)}
	areas, total := PartAreas(multi)
	if len(areas) != 2 {
		t.Fatalf("len(areas) = %d, want 2", len(areas))
	}
	if areas[0] != 4 || areas[1] != 1 {
		t.Errorf("areas = %v, want [4 1]", areas)
	}
	if total != 5 {
		t.Errorf("total = %v, want 5", total)
	}
}

func TestFeatureAttrDefaultsToZero(t *testing.T) {
	f := &Feature{ID: "f"}
	if got := f.Attr("pop"); got != 0 {
		t.Errorf("Attr() on nil map = %v, want 0", got)
	}
	f.SetAttr("pop", 42)
	if got := f.Attr("pop"); got != 42 {
		t.Errorf("Attr() after SetAttr = %v, want 42", got)
	}
}

func TestLayerSameCRS(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "EPSG:5070", "EPSG:5070", true},
		{"case insensitive", "epsg:5070", "EPSG:5070", true},
		{"whitespace ignored", " EPSG:5070 ", "EPSG:5070", true},
		{"different", "EPSG:5070", "EPSG:4326", false},
		{"both empty", "", "", true},
		{"one empty", "EPSG:5070", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			la, lb := NewLayer(tt.a), NewLayer(tt.b)
			if got := la.SameCRS(lb); got != tt.want {
				t.Errorf("SameCRS(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// Compile-time check: indexed features are full geometries.
var _ geom.Geom = &Feature{}

func TestFeatureGeomDelegation(t *testing.T) {
	f := &Feature{ID: "f", Geom: rect(0, 0, 2, 2)}
	if got := f.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
	if !f.Similar(rect(0, 0, 2, 2), 1e-9) {
		t.Error("Similar() = false for identical geometry")
	}

	next := f.Points()
	first := next()
	if first.X != 0 || first.Y != 0 {
		t.Errorf("first point = %v, want (0,0)", first)
	}
}

func TestFeatureGeomDelegationNil(t *testing.T) {
	f := &Feature{ID: "ghost"}
	if got := f.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
	if f.Similar(rect(0, 0, 1, 1), 1e-9) {
		t.Error("Similar() = true for feature without geometry")
	}
	if f.Similar(nil, 1e-9) != true {
		t.Error("Similar(nil) = false, want true")
	}
}

func TestLayerIndexHitsMapBackToFeatures(t *testing.T) {
	l := NewLayer("EPSG:5070")
	l.Add(&Feature{ID: "a", Geom: rect(0, 0, 1, 1)})
	l.Add(&Feature{ID: "b", Geom: rect(10, 0, 11, 1)})

	tree := l.Index()
	hits := tree.SearchIntersect(rect(0, 0, 2, 2).Bounds())
	if len(hits) != 1 {
		t.Fatalf("SearchIntersect hits = %d, want 1", len(hits))
	}
	f, ok := hits[0].(*Feature)
	if !ok {
		t.Fatalf("hit type = %T, want *Feature", hits[0])
	}
	if f.ID != "a" {
		t.Errorf("hit ID = %q, want a", f.ID)
	}
}

func TestLayerIndexSkipsEmptyGeometry(t *testing.T) {
	l := NewLayer("EPSG:5070")
	l.Add(&Feature{ID: "a", Geom: rect(0, 0, 1, 1)})
	l.Add(&Feature{ID: "ghost"})
	l.Add(&Feature{ID: "b", Geom: rect(2, 0, 3, 1)})

	tree := l.Index()
	hits := tree.SearchIntersect(rect(0, 0, 5, 5).Bounds())
	if len(hits) != 2 {
		t.Errorf("SearchIntersect hits = %d, want 2 (empty geometry excluded)", len(hits))
	}
}

func TestLayerSortedByID(t *testing.T) {
	l := NewLayer("EPSG:5070")
	l.Add(&Feature{ID: "c"})
	l.Add(&Feature{ID: "a"})
	l.Add(&Feature{ID: "b"})

	sorted := l.SortedByID()
	for i, want := range []string{"a", "b", "c"} {
		if sorted[i].ID != want {
			t.Errorf("sorted[%d].ID = %q, want %q", i, sorted[i].ID, want)
		}
	}
	// The layer's own order is untouched.
	if l.Features[0].ID != "c" {
		t.Errorf("layer order changed: Features[0].ID = %q, want %q", l.Features[0].ID, "c")
	}
}
