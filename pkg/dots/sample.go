package dots

import (
	"math/rand/v2"

	"github.com/ctessum/geom"

	"github.com/dotatlas/dotatlas/pkg/geo"
)

// sampler draws uniform points inside one polygonal geometry. Part areas
// are computed once so every dot of the polygon reuses them.
type sampler struct {
	parts       []geom.Polygon
	cumAreas    []float64 // cumulative part areas for weighted selection
	totalArea   float64
	maxAttempts int
}

func newSampler(p geom.Polygonal, maxAttempts int) *sampler {
	parts := p.Polygons()
	areas, total := geo.PartAreas(p)
	cum := make([]float64, len(areas))
	running := 0.0
	for i, a := range areas {
		running += a
		cum[i] = running
	}
	return &sampler{parts: parts, cumAreas: cum, totalArea: total, maxAttempts: maxAttempts}
}

// sample draws one uniform point. The second return reports whether the
// deterministic fallback was used instead of an accepted rejection-sampling
// draw.
//
// Multi-part geometries consume one draw to pick a part in proportion to
// its area, keeping density uniform across the whole polygon. Single-part
// geometries skip that draw.
func (s *sampler) sample(r *rand.Rand) (geom.Point, bool) {
	if len(s.parts) == 0 || s.totalArea <= 0 {
		return fallbackPoint(s.parts), true
	}
	part := s.parts[0]
	if len(s.parts) > 1 {
		u := r.Float64() * s.totalArea
		for i, c := range s.cumAreas {
			if u < c {
				part = s.parts[i]
				break
			}
		}
	}
	return samplePart(r, part, s.maxAttempts)
}

// samplePart rejection-samples a uniform point inside one part: draw in
// the bounding box, accept on interior containment. A degenerate box skips
// sampling entirely, and attempt exhaustion (pathological thin geometry)
// resolves to the part's representative point so the routine always
// terminates.
func samplePart(r *rand.Rand, part geom.Polygon, maxAttempts int) (geom.Point, bool) {
	b := part.Bounds()
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	if dx <= 0 || dy <= 0 {
		return geo.RepresentativePoint(part), true
	}
	for i := 0; i < maxAttempts; i++ {
		pt := geom.Point{
			X: b.Min.X + r.Float64()*dx,
			Y: b.Min.Y + r.Float64()*dy,
		}
		// Strict interior test: accepting edge points would bias density
		// toward boundaries shared with neighboring polygons.
		if geo.Contains(part, pt) {
			return pt, false
		}
	}
	return geo.RepresentativePoint(part), true
}

// fallbackPoint is the terminal fallback for geometry with no usable area.
func fallbackPoint(parts []geom.Polygon) geom.Point {
	if len(parts) == 0 {
		return geom.Point{}
	}
	return geo.RepresentativePoint(parts[0])
}
