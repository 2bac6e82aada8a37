package apportion

import (
	"sort"

	"github.com/ctessum/geom/index/rtree"

	"github.com/dotatlas/dotatlas/pkg/geo"
)

// Weight is one entry of the overlap weight table: Fraction of the source
// polygon's area that falls inside the target polygon.
type Weight struct {
	SourceID string
	TargetID string
	Fraction float64
}

// weightEntry is the internal index-based form.
type weightEntry struct {
	sourceIdx int
	targetIdx int
	Fraction  float64
}

type weightStats struct {
	coverageGaps int
	slivers      int
	empty        int

	// leftover[i] is the fraction of source i's area covered by no target
	// (1.0 for coverage gaps and empty geometries).
	leftover []float64
}

// weightTable computes overlap weights for every (source, target) pair with
// nonzero intersection. Candidate pairs come from an R-tree over the target
// layer; candidates are intersected in target-ID order so the table is
// deterministic regardless of index internals.
func weightTable(source, target *geo.Layer, sliverArea float64) ([]weightEntry, *weightStats, error) {
	tree := target.Index()
	targetIdx := make(map[*geo.Feature]int, target.Len())
	for i, f := range target.Features {
		targetIdx[f] = i
	}

	stats := &weightStats{leftover: make([]float64, source.Len())}
	var table []weightEntry

	for si, sf := range source.Features {
		if sf.Geom == nil || len(sf.Geom.Polygons()) == 0 {
			stats.empty++
			stats.leftover[si] = 1
			continue
		}

		candidates := searchSorted(tree, sf, targetIdx)
		area := sf.Area()

		if area <= sliverArea {
			// Near-zero area: dividing by it amplifies noise. Attribute the
			// sliver wholly to the target covering its representative point.
			stats.slivers++
			ti, ok := containerOf(sf, candidates, target)
			if !ok {
				stats.coverageGaps++
				stats.leftover[si] = 1
				continue
			}
			table = append(table, weightEntry{sourceIdx: si, targetIdx: ti, Fraction: 1})
			continue
		}

		sumW := 0.0
		matched := false
		for _, ti := range candidates {
			tf := target.Features[ti]
			isect := sf.Geom.Intersection(tf.Geom)
			if isect == nil {
				continue
			}
			a := geo.Area(isect)
			if a <= 0 {
				continue
			}
			w := a / area
			if w > 1 {
				w = 1 // geometric precision can push a full overlap past 1
			}
			table = append(table, weightEntry{sourceIdx: si, targetIdx: ti, Fraction: w})
			sumW += w
			matched = true
		}

		if !matched {
			stats.coverageGaps++
			stats.leftover[si] = 1
			continue
		}
		if leftover := 1 - sumW; leftover > 0 {
			stats.leftover[si] = leftover
		}
	}

	return table, stats, nil
}

// searchSorted returns the indices of target features whose bounding boxes
// intersect the source feature, in ascending index (and therefore input)
// order.
func searchSorted(tree *rtree.Rtree, sf *geo.Feature, targetIdx map[*geo.Feature]int) []int {
	hits := tree.SearchIntersect(sf.Bounds())
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		if tf, ok := h.(*geo.Feature); ok {
			out = append(out, targetIdx[tf])
		}
	}
	sort.Ints(out)
	return out
}

// containerOf finds the candidate target whose geometry covers the source's
// representative point. With overlapping candidates the lowest-index target
// wins, which keeps the fallback deterministic.
func containerOf(sf *geo.Feature, candidates []int, target *geo.Layer) (int, bool) {
	pt := geo.RepresentativePoint(sf.Geom)
	for _, ti := range candidates {
		tf := target.Features[ti]
		if tf.Geom != nil && geo.Covers(tf.Geom, pt) {
			return ti, true
		}
	}
	return 0, false
}
