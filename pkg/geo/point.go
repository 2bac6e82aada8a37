package geo

import (
	"sort"

	"github.com/ctessum/geom"
)

// Contains reports whether the point lies in the interior of the geometry.
// Points exactly on a ring edge are treated as outside. This is the predicate
// used by rejection sampling, where edge points would bias density toward
// shared boundaries.
func Contains(p geom.Polygonal, pt geom.Point) bool {
	return pt.Within(p) == geom.Inside
}

// Covers reports whether the point lies inside or on the boundary of the
// geometry. Containment lookups for representative points use this weaker
// predicate so a point that lands exactly on a shared boundary still finds
// its container instead of reporting a spurious coverage gap.
func Covers(p geom.Polygonal, pt geom.Point) bool {
	w := pt.Within(p)
	return w == geom.Inside || w == geom.OnEdge
}

// RepresentativePoint returns a deterministic point guaranteed to lie inside
// the geometry. The centroid is used when it falls inside; otherwise a point
// is constructed on the horizontal midline of the largest part, at the middle
// of the widest interior span. Degenerate geometries (zero area, empty) fall
// back to the centroid, or the origin for nil geometry.
//
// The result depends only on the geometry, never on any random state, so it
// is safe to use as the terminal fallback for seeded sampling.
func RepresentativePoint(p geom.Polygonal) geom.Point {
	if p == nil {
		return geom.Point{}
	}
	c := p.Centroid()
	if Covers(p, c) {
		return c
	}

	part := largestPart(p)
	if part == nil {
		return c
	}
	b := part.Bounds()
	y := (b.Min.Y + b.Max.Y) / 2
	spans := interiorSpans(part, y)
	if len(spans) == 0 {
		return c
	}
	// Widest span keeps the point away from thin slivers near the midline.
	best := spans[0]
	for _, s := range spans[1:] {
		if s[1]-s[0] > best[1]-best[0] {
			best = s
		}
	}
	return geom.Point{X: (best[0] + best[1]) / 2, Y: y}
}

func largestPart(p geom.Polygonal) geom.Polygon {
	var best geom.Polygon
	bestArea := -1.0
	for _, part := range p.Polygons() {
		if a := Area(part); a > bestArea {
			best, bestArea = part, a
		}
	}
	return best
}

// interiorSpans computes the x-intervals where the horizontal line at y lies
// inside the polygon, by collecting ring crossings and pairing them off.
func interiorSpans(p geom.Polygon, y float64) [][2]float64 {
	var xs []float64
	for _, ring := range p {
		n := len(ring)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]
			// Half-open rule: count a crossing when the segment straddles y.
			if (a.Y <= y) == (b.Y <= y) {
				continue
			}
			t := (y - a.Y) / (b.Y - a.Y)
			xs = append(xs, a.X+t*(b.X-a.X))
		}
	}
	if len(xs) < 2 {
		return nil
	}
	sort.Float64s(xs)
	spans := make([][2]float64, 0, len(xs)/2)
	for i := 0; i+1 < len(xs); i += 2 {
		if xs[i+1] > xs[i] {
			spans = append(spans, [2]float64{xs[i], xs[i+1]})
		}
	}
	return spans
}
