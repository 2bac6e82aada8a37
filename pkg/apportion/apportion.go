// Package apportion implements conservative areal apportionment: splitting
// attribute counts attached to one polygon layer (census block groups) across
// an overlapping, non-aligned polygon layer (election precincts) in proportion
// to shared area.
//
// # Algorithm
//
// For every source polygon S and target polygon T with nonempty intersection,
// the engine computes
//
//	weight(S, T) = area(S ∩ T) / area(S)
//
// and redistributes each requested attribute as
//
//	value(T, a) = Σ_S weight(S, T) · value(S, a)
//
// Weights for a given S sum to at most 1. Any leftover (source area covered
// by no target) is attributed to no target and surfaced as unapportioned mass
// in the reconciliation report — it is never silently rescaled away, so the
// conservation law reads: target total + unapportioned ≈ source total.
//
// Degenerate sources (area below [Options.SliverArea]) cannot be divided by
// their near-zero area; they are instead attributed wholly to the target whose
// interior or boundary holds their representative point.
//
// # Derived Columns
//
// Columns that are by definition the sum of other columns (a combined
// non-Hispanic total, a households total over income buckets) must be
// recomputed on the target side from their already-apportioned components.
// Apportioning a derived total independently would let rounding drift break
// the internal identity between the total and its parts.
//
// # Failure Semantics
//
// A CRS mismatch between the layers is fatal. A source polygon overlapping no
// target is a coverage gap: counted, reported, never raised.
package apportion

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// DefaultSliverArea is the area (in squared CRS units) below which a source
// polygon is treated as degenerate. In the meter-based work projection this
// is one square millimeter.
const DefaultSliverArea = 1e-6

// Derived declares a target-side column recomputed as the sum of component
// columns after redistribution.
type Derived struct {
	Name  string
	Terms []string
}

// Options configures an apportionment run.
type Options struct {
	// Attrs is the list of source attribute columns to redistribute.
	Attrs []string

	// Derived lists columns recomputed on the target side by summation.
	// Derived columns must not also appear in Attrs.
	Derived []Derived

	// SliverArea is the degenerate-source threshold. Zero means
	// [DefaultSliverArea].
	SliverArea float64

	// Logger receives per-run progress. Nil means discard.
	Logger *log.Logger
}

// validate checks options and applies defaults.
func (o *Options) validate() error {
	if err := errors.ValidateAttrNames(o.Attrs); err != nil {
		return err
	}
	direct := make(map[string]bool, len(o.Attrs))
	for _, a := range o.Attrs {
		direct[a] = true
	}
	for _, d := range o.Derived {
		if err := errors.ValidateAttrName(d.Name); err != nil {
			return err
		}
		if direct[d.Name] {
			return errors.New(errors.ErrCodeInvalidAttr,
				"column %q is both redistributed and derived; derived columns must only be recomputed", d.Name)
		}
		if len(d.Terms) == 0 {
			return errors.New(errors.ErrCodeInvalidAttr, "derived column %q has no component terms", d.Name)
		}
		for _, term := range d.Terms {
			if err := errors.ValidateAttrName(term); err != nil {
				return err
			}
		}
	}
	if o.SliverArea == 0 {
		o.SliverArea = DefaultSliverArea
	}
	if o.SliverArea < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "sliver area threshold must be non-negative, got %g", o.SliverArea)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Result holds the apportioned target layer and run diagnostics.
type Result struct {
	// Target is a new layer: the input target features with copied
	// attribute maps, augmented with one redistributed value per requested
	// attribute and one recomputed value per derived column. Targets with
	// no overlapping source carry explicit zeros.
	Target *geo.Layer

	// Weights is the full (source, target) weight table, ordered by source
	// then target identifier.
	Weights []Weight

	// Report reconciles source and target totals per attribute, including
	// derived columns.
	Report []Reconciliation

	// CoverageGaps counts source polygons that overlap no target. Their
	// whole attribute mass is unapportioned.
	CoverageGaps int

	// Slivers counts degenerate sources resolved by representative-point
	// containment instead of area division.
	Slivers int

	// EmptyGeometries counts source features with nil or zero-part
	// geometry. They carry zero weight everywhere but stay in the record
	// set.
	EmptyGeometries int
}

// Apportion redistributes the configured attributes from the source layer
// onto the target layer. Neither input layer is modified.
//
// Apportionment is deterministic: identical inputs produce identical results,
// including the order of the weight table and report.
func Apportion(source, target *geo.Layer, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := errors.ValidateCRS(source.CRS); err != nil {
		return nil, err
	}
	if !source.SameCRS(target) {
		return nil, errors.New(errors.ErrCodeCRSMismatch,
			"mismatched coordinate reference: source %q vs target %q", source.CRS, target.CRS)
	}

	table, stats, err := weightTable(source, target, opts.SliverArea)
	if err != nil {
		return nil, err
	}

	// Accumulate redistributed values per target.
	sums := make(map[string][]float64, len(opts.Attrs)) // attr -> per-target index
	for _, a := range opts.Attrs {
		sums[a] = make([]float64, target.Len())
	}
	for _, w := range table {
		src := source.Features[w.sourceIdx]
		for _, a := range opts.Attrs {
			sums[a][w.targetIdx] += w.Fraction * src.Attr(a)
		}
	}

	out := geo.NewLayer(target.CRS)
	for i, tf := range target.Features {
		nf := &geo.Feature{ID: tf.ID, Geom: tf.Geom, Tags: tf.Tags}
		nf.Attrs = make(map[string]float64, len(tf.Attrs)+len(opts.Attrs)+len(opts.Derived))
		for k, v := range tf.Attrs {
			nf.Attrs[k] = v
		}
		for _, a := range opts.Attrs {
			nf.Attrs[a] = sums[a][i]
		}
		for _, d := range opts.Derived {
			var total float64
			for _, term := range d.Terms {
				total += nf.Attrs[term]
			}
			nf.Attrs[d.Name] = total
		}
		out.Add(nf)
	}

	report := reconcile(source, out, opts, stats)

	opts.Logger.Debug("apportioned attributes",
		"sources", source.Len(),
		"targets", target.Len(),
		"weights", len(table),
		"coverage_gaps", stats.coverageGaps,
		"slivers", stats.slivers)

	return &Result{
		Target:          out,
		Weights:         exportWeights(source, target, table),
		Report:          report,
		CoverageGaps:    stats.coverageGaps,
		Slivers:         stats.slivers,
		EmptyGeometries: stats.empty,
	}, nil
}

// exportWeights converts internal index pairs to the public table.
func exportWeights(source, target *geo.Layer, table []weightEntry) []Weight {
	out := make([]Weight, len(table))
	for i, w := range table {
		out[i] = Weight{
			SourceID: source.Features[w.sourceIdx].ID,
			TargetID: target.Features[w.targetIdx].ID,
			Fraction: w.Fraction,
		}
	}
	return out
}
