package apportion

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dotatlas/dotatlas/pkg/geo"
)

// Reconciliation compares source and target totals for one attribute.
//
// When target polygons fully cover the source polygons, AbsDiff is bounded by
// geometric precision alone. With coverage gaps the difference equals the
// unapportioned mass: the engine never rescales weights to force the totals
// to match.
type Reconciliation struct {
	Attr          string  `json:"attr"`
	SourceTotal   float64 `json:"source_total"`
	TargetTotal   float64 `json:"target_total"`
	Unapportioned float64 `json:"unapportioned"`
	AbsDiff       float64 `json:"abs_diff"`
	RelDiff       float64 `json:"rel_diff"`
}

// reconcile builds the per-attribute report. Derived columns are reconciled
// against the sum of their source-side components, since the derived value
// itself may be absent from the source layer.
func reconcile(source, target *geo.Layer, opts Options, stats *weightStats) []Reconciliation {
	report := make([]Reconciliation, 0, len(opts.Attrs)+len(opts.Derived))

	for _, attr := range opts.Attrs {
		terms := []string{attr}
		report = append(report, reconcileColumn(attr, terms, source, target, stats))
	}
	for _, d := range opts.Derived {
		report = append(report, reconcileColumn(d.Name, d.Terms, source, target, stats))
	}
	return report
}

// reconcileColumn reconciles one target column whose source-side value is the
// sum of the given source terms.
func reconcileColumn(name string, terms []string, source, target *geo.Layer, stats *weightStats) Reconciliation {
	r := Reconciliation{Attr: name}

	for si, f := range source.Features {
		var v float64
		for _, term := range terms {
			v += f.Attr(term)
		}
		r.SourceTotal += v
		if stats.leftover[si] > 0 {
			r.Unapportioned += stats.leftover[si] * v
		}
	}
	vals := make([]float64, target.Len())
	for i, f := range target.Features {
		vals[i] = f.Attr(name)
	}
	r.TargetTotal = floats.Sum(vals)

	r.AbsDiff = math.Abs(r.TargetTotal - r.SourceTotal)
	if r.SourceTotal != 0 {
		r.RelDiff = r.AbsDiff / math.Abs(r.SourceTotal)
	}
	return r
}
