// Package geo defines the polygon feature model shared by the apportionment,
// assignment, and dot-synthesis engines.
//
// # Data Model
//
// A [Feature] is a polygon with a unique identifier, an optional multi-part
// geometry, numeric attributes (population counts, vote totals), and string
// tags (district labels, county names). A [Layer] is an ordered collection of
// features in a single coordinate reference system.
//
// Layers carry their CRS as an opaque identifier (e.g. "EPSG:5070"). The
// engines never reinterpret coordinates; they only refuse to combine layers
// whose identifiers differ, since intersecting geometries expressed in
// different projections produces numbers that look valid and are wrong.
//
// # Geometry
//
// Geometries use github.com/ctessum/geom, a pure-Go 2D geometry library with
// polygon clipping, area computation, and point-in-polygon predicates. Spatial
// candidate lookup uses its companion R-tree index. Features with nil or empty
// geometry are valid: they carry zero area and never match any overlap query,
// but they are never dropped from a layer.
package geo

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Feature is a polygon with attached attribute values.
//
// Attrs holds numeric columns (counts, totals); Tags holds string columns
// (labels, names). Both maps may be nil for a bare geometry.
type Feature struct {
	ID    string
	Geom  geom.Polygonal
	Attrs map[string]float64
	Tags  map[string]string
}

// Bounds returns the bounding box of the feature's geometry,
// or an empty box for features without geometry. Together with Similar,
// Transform, Len, and Points below, this makes *Feature a geom.Geom so
// features can be inserted into the R-tree directly and search hits map
// back to the feature, attributes included.
func (f *Feature) Bounds() *geom.Bounds {
	if f.Geom == nil {
		return geom.NewBounds()
	}
	return f.Geom.Bounds()
}

// Similar reports whether the feature's geometry is similar to g within
// tolerance. A feature without geometry is similar only to nil.
func (f *Feature) Similar(g geom.Geom, tolerance float64) bool {
	if f.Geom == nil {
		return g == nil
	}
	return f.Geom.Similar(g, tolerance)
}

// Transform returns the feature's geometry projected through t. The
// feature itself is not modified.
func (f *Feature) Transform(t proj.Transformer) (geom.Geom, error) {
	if f.Geom == nil {
		return nil, nil
	}
	return f.Geom.Transform(t)
}

// Len returns the total number of points in the feature's geometry.
func (f *Feature) Len() int {
	if f.Geom == nil {
		return 0
	}
	return f.Geom.Len()
}

// Points returns an iterator over the points of the feature's geometry.
// For features without geometry the iterator has nothing to yield.
func (f *Feature) Points() func() geom.Point {
	if f.Geom == nil {
		return func() geom.Point { return geom.Point{} }
	}
	return f.Geom.Points()
}

// Area returns the total area of the feature's geometry. Features with nil
// geometry have zero area. The value is always non-negative regardless of
// ring winding.
func (f *Feature) Area() float64 {
	if f.Geom == nil {
		return 0
	}
	return Area(f.Geom)
}

// Attr returns the named numeric attribute, or 0 if the feature does not
// carry it. Sparse attribute coverage across a layer is expected and is not
// an error.
func (f *Feature) Attr(name string) float64 {
	if f.Attrs == nil {
		return 0
	}
	return f.Attrs[name]
}

// SetAttr sets a numeric attribute, allocating the map if needed.
func (f *Feature) SetAttr(name string, value float64) {
	if f.Attrs == nil {
		f.Attrs = make(map[string]float64)
	}
	f.Attrs[name] = value
}

// Tag returns the named string attribute and whether it is present.
func (f *Feature) Tag(name string) (string, bool) {
	if f.Tags == nil {
		return "", false
	}
	v, ok := f.Tags[name]
	return v, ok
}

// Layer is an ordered collection of features in one coordinate system.
type Layer struct {
	// CRS identifies the coordinate reference system of all geometries in
	// the layer (e.g. "EPSG:5070"). Comparison is case-insensitive on the
	// identifier; an empty CRS matches nothing except another empty CRS.
	CRS string

	Features []*Feature
}

// NewLayer creates an empty layer in the given coordinate system.
func NewLayer(crs string) *Layer {
	return &Layer{CRS: crs}
}

// Add appends a feature to the layer.
func (l *Layer) Add(f *Feature) { l.Features = append(l.Features, f) }

// Len returns the number of features, including those with empty geometry.
func (l *Layer) Len() int { return len(l.Features) }

// SameCRS reports whether two layers share a coordinate reference system.
func (l *Layer) SameCRS(other *Layer) bool {
	return normalizeCRS(l.CRS) == normalizeCRS(other.CRS)
}

// Index builds an R-tree over the layer's features for overlap candidate
// search. Features without geometry are skipped; they can never intersect
// anything.
func (l *Layer) Index() *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	for _, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		tree.Insert(f)
	}
	return tree
}

// SortedByID returns the layer's features ordered by identifier. The layer
// itself is not modified. Engines that consume randomness iterate in this
// order so results do not depend on input file ordering.
func (l *Layer) SortedByID() []*Feature {
	out := make([]*Feature, len(l.Features))
	copy(out, l.Features)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Area returns the total area of a polygonal geometry, summing the absolute
// area of each part so winding order cannot produce a negative total.
func Area(p geom.Polygonal) float64 {
	var total float64
	for _, part := range p.Polygons() {
		total += math.Abs(part.Area())
	}
	return total
}

// PartAreas returns the absolute area of each part of a multi-part geometry,
// in part order, along with the total.
func PartAreas(p geom.Polygonal) (areas []float64, total float64) {
	parts := p.Polygons()
	areas = make([]float64, len(parts))
	for i, part := range parts {
		a := math.Abs(part.Area())
		areas[i] = a
		total += a
	}
	return areas, total
}

func normalizeCRS(crs string) string {
	out := make([]rune, 0, len(crs))
	for _, r := range crs {
		switch {
		case r == ' ' || r == '\t':
			continue
		case 'a' <= r && r <= 'z':
			out = append(out, r-'a'+'A')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
