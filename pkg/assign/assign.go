// Package assign resolves membership of one polygon layer in another:
// each member polygon (a precinct) is assigned to the container polygon
// (a district) that covers the largest share of its area.
//
// Containers carry a district label attribute. Labels are parsed into a
// tagged form (see Label) so that numeric identifiers, reserved
// out-of-band codes, and genuinely uncovered members stay distinguishable
// all the way to export. A member overlapping no container is recorded as
// Unassigned rather than dropped, so downstream totals can account for
// every member.
package assign

import (
	"io"
	"sort"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/ctessum/geom/index/rtree"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// DefaultLabelTag is the container attribute holding the district label.
const DefaultLabelTag = "DISTRICT"

// DefaultSliverArea is the area (in squared layer units) below which a
// member is matched by representative point instead of by overlap area.
const DefaultSliverArea = 1e-6

// Options configures an assignment run.
type Options struct {
	// LabelTag names the container tag carrying the district label.
	// Defaults to DefaultLabelTag.
	LabelTag string

	// SliverArea is the degenerate-member threshold. Defaults to
	// DefaultSliverArea; zero or negative selects the default.
	SliverArea float64

	// Logger receives per-run diagnostics. Defaults to a discard logger.
	Logger *log.Logger
}

func (o *Options) validate() error {
	if o.LabelTag == "" {
		o.LabelTag = DefaultLabelTag
	}
	if err := errors.ValidateAttrName(o.LabelTag); err != nil {
		return err
	}
	if o.SliverArea <= 0 {
		o.SliverArea = DefaultSliverArea
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Record is the assignment of a single member.
type Record struct {
	MemberID string  `json:"member_id"`
	Label    Label   `json:"district"`
	Overlap  float64 `json:"overlap"` // covered fraction of the member's area, 0 when unassigned
}

// Result holds the outcome of an assignment run.
type Result struct {
	Records []Record

	// Unassigned counts members no container covers.
	Unassigned int
	// Reserved counts members assigned to a reserved-code container.
	Reserved int
	// Slivers counts members resolved by representative point.
	Slivers int
	// EmptyGeometries counts members with no usable geometry.
	EmptyGeometries int
}

// Assign resolves every member of members to the container covering the
// largest share of its area. Both layers must share a CRS. The run fails
// when no container carries a parseable label under opts.LabelTag; a
// label missing on individual containers demotes only those containers.
func Assign(members, containers *geo.Layer, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if members == nil || containers == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayer, "assignment requires both a member and a container layer")
	}
	if !members.SameCRS(containers) {
		return nil, errors.New(errors.ErrCodeCRSMismatch,
			"mismatched coordinate reference: members %q vs containers %q", members.CRS, containers.CRS)
	}

	labels, labeled := containerLabels(containers, opts.LabelTag)
	if labeled == 0 {
		return nil, errors.New(errors.ErrCodeMissingLabel,
			"no container carries a %q label; cannot resolve district identifiers", opts.LabelTag)
	}
	if labeled < containers.Len() {
		opts.Logger.Warn("containers without a district label are skipped",
			"tag", opts.LabelTag, "missing", containers.Len()-labeled)
	}

	tree := containers.Index()
	containerIdx := make(map[*geo.Feature]int, containers.Len())
	for i, cf := range containers.Features {
		containerIdx[cf] = i
	}

	res := &Result{Records: make([]Record, 0, members.Len())}
	for _, mf := range members.Features {
		rec := assignOne(mf, containers, tree, containerIdx, labels, opts.SliverArea, res)
		res.Records = append(res.Records, rec)
	}

	opts.Logger.Debug("assignment complete",
		"members", members.Len(),
		"unassigned", res.Unassigned,
		"reserved", res.Reserved,
		"slivers", res.Slivers,
		"empty", res.EmptyGeometries)
	return res, nil
}

// assignOne resolves a single member and updates the run counters.
func assignOne(mf *geo.Feature, containers *geo.Layer, tree *rtree.Rtree, containerIdx map[*geo.Feature]int, labels []*Label, sliverArea float64, res *Result) Record {
	if mf.Geom == nil {
		res.EmptyGeometries++
		res.Unassigned++
		return Record{MemberID: mf.ID, Label: Unassigned}
	}
	area := mf.Area()
	if area <= sliverArea {
		res.Slivers++
		if ci, ok := containerByPoint(mf, tree, containerIdx, labels); ok {
			rec := Record{MemberID: mf.ID, Label: *labels[ci], Overlap: 1}
			if labels[ci].Kind == LabelReserved {
				res.Reserved++
			}
			return rec
		}
		res.Unassigned++
		return Record{MemberID: mf.ID, Label: Unassigned}
	}

	bestIdx, bestArea := -1, 0.0
	for _, ci := range sortedCandidates(tree, mf, containerIdx) {
		if labels[ci] == nil {
			continue
		}
		cf := containers.Features[ci]
		isect := mf.Geom.Intersection(cf.Geom)
		if isect == nil {
			continue
		}
		a := geo.Area(isect)
		if a > bestArea {
			bestIdx, bestArea = ci, a
		}
	}
	if bestIdx < 0 {
		res.Unassigned++
		return Record{MemberID: mf.ID, Label: Unassigned}
	}
	frac := bestArea / area
	if frac > 1 {
		frac = 1
	}
	if labels[bestIdx].Kind == LabelReserved {
		res.Reserved++
	}
	return Record{MemberID: mf.ID, Label: *labels[bestIdx], Overlap: frac}
}

// containerLabels parses the label column for every container. District
// files carry the label as either a string tag ("07", "ZZZ") or a bare
// numeric attribute; both forms are accepted. The returned slice is
// indexed by container position; nil marks an unlabeled container. The
// second return is the labeled count.
func containerLabels(containers *geo.Layer, tag string) ([]*Label, int) {
	labels := make([]*Label, containers.Len())
	n := 0
	for i, cf := range containers.Features {
		var l Label
		if raw, ok := cf.Tag(tag); ok {
			l = ParseLabel(raw)
		} else if cf.Attrs != nil {
			v, ok := cf.Attrs[tag]
			if !ok {
				continue
			}
			l = ParseLabel(strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			continue
		}
		labels[i] = &l
		n++
	}
	return labels, n
}

// containerByPoint finds the labeled container covering the member's
// representative point. Ties resolve to the lowest container index.
func containerByPoint(mf *geo.Feature, tree *rtree.Rtree, containerIdx map[*geo.Feature]int, labels []*Label) (int, bool) {
	pt := geo.RepresentativePoint(mf.Geom)
	best, found := -1, false
	for _, hit := range tree.SearchIntersect(mf.Bounds()) {
		cf, ok := hit.(*geo.Feature)
		if !ok || cf.Geom == nil {
			continue
		}
		ci := containerIdx[cf]
		if labels[ci] == nil || !geo.Covers(cf.Geom, pt) {
			continue
		}
		if !found || ci < best {
			best, found = ci, true
		}
	}
	return best, found
}

// sortedCandidates returns container indexes whose bounds intersect the
// member's, in ascending index order for deterministic tie-breaking.
func sortedCandidates(tree *rtree.Rtree, mf *geo.Feature, containerIdx map[*geo.Feature]int) []int {
	hits := tree.SearchIntersect(mf.Bounds())
	out := make([]int, 0, len(hits))
	for _, hit := range hits {
		cf, ok := hit.(*geo.Feature)
		if !ok || cf.Geom == nil {
			continue
		}
		out = append(out, containerIdx[cf])
	}
	sort.Ints(out)
	return out
}
