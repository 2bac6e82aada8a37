// Package dots synthesizes dot-density point layers from polygon-level
// category counts: each dot stands for a fixed number of people of one
// demographic group, placed uniformly at random inside its polygon.
//
// # Stochastic Rounding
//
// A count c and unit U give expected = c/U dots. Plain truncation would
// systematically undercount (a precinct of 49 people at U=50 would never
// draw a dot anywhere). Instead the fractional part becomes a Bernoulli
// trial: floor(expected) dots always, plus one more with probability
// frac(expected). The expected dot count then equals c/U exactly, so group
// totals converge to the true population as U shrinks.
//
// # Reproducibility
//
// All randomness derives from Options.Seed through two explicitly ordered
// streams: one for rounding (and presence tie-breaks), one for part
// selection and in-polygon placement. Polygons are visited in identifier
// order and groups in name order, so the same seed and input always
// reproduce the same dot list, independent of map iteration or input file
// ordering.
package dots

import (
	"io"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// DefaultMaxAttempts bounds rejection sampling per dot before falling back
// to the polygon part's deterministic interior point.
const DefaultMaxAttempts = 2000

// Dot is one synthesized point: a location, the demographic group it
// represents, and the polygon it was sampled from.
type Dot struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Group   string  `json:"group"`
	Polygon string  `json:"polygon"`
}

// Options configures a synthesis run.
type Options struct {
	// Unit is the people-per-dot divisor. Must be positive.
	Unit float64

	// Seed drives both random streams. The same seed and inputs
	// reproduce the same dot list exactly.
	Seed uint64

	// Groups maps demographic group names to the attribute columns
	// holding their counts. A column absent from a polygon counts as
	// zero there; sparse coverage is expected.
	Groups map[string]string

	// TotalAttr names the true total-population column used by the
	// presence guarantee. When empty, the total is the sum of the group
	// counts.
	TotalAttr string

	// MaxAttempts bounds rejection sampling per dot. Zero means
	// DefaultMaxAttempts.
	MaxAttempts int

	// Logger receives per-run diagnostics. Nil means discard.
	Logger *log.Logger
}

func (o *Options) validate() error {
	if err := errors.ValidateUnit(o.Unit); err != nil {
		return err
	}
	if len(o.Groups) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "dot synthesis requires at least one group column mapping")
	}
	for group, attr := range o.Groups {
		if group == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "group name must not be empty")
		}
		if err := errors.ValidateAttrName(attr); err != nil {
			return err
		}
	}
	if o.TotalAttr != "" {
		if err := errors.ValidateAttrName(o.TotalAttr); err != nil {
			return err
		}
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxAttempts < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max sampling attempts must be positive, got %d", o.MaxAttempts)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// sortedGroups returns the group names in the fixed iteration order both
// random streams depend on.
func (o *Options) sortedGroups() []string {
	names := make([]string, 0, len(o.Groups))
	for g := range o.Groups {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// Result holds the synthesized dots and run diagnostics.
type Result struct {
	// Dots is ordered by polygon identifier, then group name, then draw
	// order within the group.
	Dots []Dot

	// Forced counts presence-guarantee dots: polygons whose population
	// is positive but whose rounded dot count was zero everywhere.
	Forced int

	// Fallbacks counts dots placed at a deterministic interior point
	// after rejection sampling exhausted its attempt budget.
	Fallbacks int

	// EmptyGeometries counts polygons whose counts produced dots but
	// whose geometry is missing; their dots are dropped.
	EmptyGeometries int
}

// counts is the per-polygon rounded dot allocation, keyed by group.
type counts map[string]int

// Synthesize converts the layer's per-group counts into a reproducible
// dot-density point set.
func Synthesize(layer *geo.Layer, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if layer == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayer, "dot synthesis requires a polygon layer")
	}

	// Stream 1 drives rounding and presence tie-breaks, stream 2 part
	// selection and placement. Separating them keeps placement draws from
	// shifting rounding outcomes when geometry changes.
	roundRand := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xdeadbeef))
	placeRand := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0xd07a7145))

	features := layer.SortedByID()
	groups := opts.sortedGroups()

	res := &Result{}
	allocs := make([]counts, len(features))
	for i, f := range features {
		allocs[i] = roundPolygon(f, groups, opts, roundRand)
	}
	for i, f := range features {
		forcePresence(f, allocs[i], groups, opts, roundRand, res)
	}
	for i, f := range features {
		placePolygon(f, allocs[i], groups, opts, placeRand, res)
	}

	opts.Logger.Debug("synthesized dots",
		"polygons", len(features),
		"dots", len(res.Dots),
		"forced", res.Forced,
		"fallbacks", res.Fallbacks)
	return res, nil
}

// roundPolygon applies stochastic rounding to every group of one polygon.
// Exactly one uniform draw is consumed per group, including groups with a
// zero count, so the rounding stream's alignment depends only on the
// polygon and group orderings.
func roundPolygon(f *geo.Feature, groups []string, opts Options, r *rand.Rand) counts {
	alloc := make(counts, len(groups))
	for _, g := range groups {
		c := f.Attr(opts.Groups[g])
		u := r.Float64()
		if c <= 0 {
			continue
		}
		expected := c / opts.Unit
		base := math.Floor(expected)
		n := int(base)
		if u < expected-base {
			n++
		}
		if n > 0 {
			alloc[g] = n
		}
	}
	return alloc
}

// forcePresence adds a single dot to a populated polygon that rounded to
// zero dots everywhere, in the group with the largest true count. Ties are
// broken by one extra draw from the rounding stream.
func forcePresence(f *geo.Feature, alloc counts, groups []string, opts Options, r *rand.Rand, res *Result) {
	if len(alloc) > 0 {
		return
	}
	var total float64
	if opts.TotalAttr != "" {
		total = f.Attr(opts.TotalAttr)
	} else {
		for _, g := range groups {
			total += f.Attr(opts.Groups[g])
		}
	}
	if total <= 0 {
		return
	}

	best := math.Inf(-1)
	var tied []string
	for _, g := range groups {
		c := f.Attr(opts.Groups[g])
		switch {
		case c > best:
			best, tied = c, tied[:0]
			tied = append(tied, g)
		case c == best:
			tied = append(tied, g)
		}
	}
	if best <= 0 {
		// Total populated but every group column is zero; nothing to
		// represent the population with.
		return
	}
	winner := tied[0]
	if len(tied) > 1 {
		winner = tied[r.IntN(len(tied))]
	}
	alloc[winner] = 1
	res.Forced++
}

// placePolygon samples locations for every allocated dot of one polygon,
// in group order.
func placePolygon(f *geo.Feature, alloc counts, groups []string, opts Options, r *rand.Rand, res *Result) {
	if len(alloc) == 0 {
		return
	}
	if f.Geom == nil {
		res.EmptyGeometries++
		return
	}
	sampler := newSampler(f.Geom, opts.MaxAttempts)
	for _, g := range groups {
		for i := 0; i < alloc[g]; i++ {
			pt, fell := sampler.sample(r)
			if fell {
				res.Fallbacks++
			}
			res.Dots = append(res.Dots, Dot{X: pt.X, Y: pt.Y, Group: g, Polygon: f.ID})
		}
	}
}
