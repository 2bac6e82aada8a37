package apportion

import (
	"math"
	"testing"

	"github.com/ctessum/geom"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// rect builds an axis-aligned rectangle polygon.
func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func feature(id string, g geom.Polygonal, attrs map[string]float64) *geo.Feature {
	return &geo.Feature{ID: id, Geom: g, Attrs: attrs}
}

func layer(crs string, features ...*geo.Feature) *geo.Layer {
	l := geo.NewLayer(crs)
	for _, f := range features {
		l.Add(f)
	}
	return l
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestApportionSplitsByAreaShare(t *testing.T) {
	// Source A: 10x10 square, pop=100. Target X covers the left 60%,
	// target Y the right 40%.
	source := layer("EPSG:5070",
		feature("A", rect(0, 0, 10, 10), map[string]float64{"pop": 100}),
	)
	target := layer("EPSG:5070",
		feature("X", rect(0, 0, 6, 10), nil),
		feature("Y", rect(6, 0, 10, 10), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}

	got := map[string]float64{}
	for _, f := range res.Target.Features {
		got[f.ID] = f.Attr("pop")
	}
	if !approx(got["X"], 60, 1e-9) {
		t.Errorf("pop(X) = %v, want 60", got["X"])
	}
	if !approx(got["Y"], 40, 1e-9) {
		t.Errorf("pop(Y) = %v, want 40", got["Y"])
	}

	if len(res.Weights) != 2 {
		t.Fatalf("len(Weights) = %d, want 2", len(res.Weights))
	}
	if res.Weights[0].TargetID != "X" || !approx(res.Weights[0].Fraction, 0.6, 1e-9) {
		t.Errorf("Weights[0] = %+v, want X with fraction 0.6", res.Weights[0])
	}
}

func TestApportionConservesTotals(t *testing.T) {
	// Two sources fully covered by three targets with messy overlaps.
	source := layer("EPSG:5070",
		feature("S1", rect(0, 0, 10, 10), map[string]float64{"pop": 250, "cvap": 80}),
		feature("S2", rect(10, 0, 20, 10), map[string]float64{"pop": 130, "cvap": 40}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 7, 10), nil),
		feature("T2", rect(7, 0, 13, 10), nil),
		feature("T3", rect(13, 0, 20, 10), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop", "cvap"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}

	for _, rec := range res.Report {
		if !approx(rec.SourceTotal, rec.TargetTotal, 1e-6) {
			t.Errorf("%s: target total = %v, want %v", rec.Attr, rec.TargetTotal, rec.SourceTotal)
		}
		if rec.Unapportioned != 0 {
			t.Errorf("%s: unapportioned = %v, want 0", rec.Attr, rec.Unapportioned)
		}
	}
	if res.CoverageGaps != 0 {
		t.Errorf("CoverageGaps = %d, want 0", res.CoverageGaps)
	}
}

func TestApportionCRSMismatchFatal(t *testing.T) {
	source := layer("EPSG:5070", feature("A", rect(0, 0, 1, 1), nil))
	target := layer("EPSG:4326", feature("X", rect(0, 0, 1, 1), nil))

	_, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err == nil {
		t.Fatal("Apportion() error = nil, want CRS mismatch")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeCRSMismatch {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeCRSMismatch)
	}
}

func TestApportionCoverageGapReported(t *testing.T) {
	// S2 overlaps no target: its mass must show up as unapportioned,
	// never rescaled onto other targets.
	source := layer("EPSG:5070",
		feature("S1", rect(0, 0, 10, 10), map[string]float64{"pop": 100}),
		feature("S2", rect(100, 100, 110, 110), map[string]float64{"pop": 50}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 10, 10), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	if res.CoverageGaps != 1 {
		t.Errorf("CoverageGaps = %d, want 1", res.CoverageGaps)
	}
	rec := res.Report[0]
	if !approx(rec.Unapportioned, 50, 1e-9) {
		t.Errorf("unapportioned = %v, want 50", rec.Unapportioned)
	}
	if !approx(rec.TargetTotal, 100, 1e-9) {
		t.Errorf("target total = %v, want 100", rec.TargetTotal)
	}
	if !approx(rec.TargetTotal+rec.Unapportioned, rec.SourceTotal, 1e-9) {
		t.Errorf("target+unapportioned = %v, want source total %v",
			rec.TargetTotal+rec.Unapportioned, rec.SourceTotal)
	}
}

func TestApportionPartialOverlapLeftover(t *testing.T) {
	// Half of S lies outside every target. That half's mass stays
	// unapportioned.
	source := layer("EPSG:5070",
		feature("S", rect(0, 0, 10, 10), map[string]float64{"pop": 100}),
	)
	target := layer("EPSG:5070",
		feature("T", rect(0, 0, 5, 10), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	if got := res.Target.Features[0].Attr("pop"); !approx(got, 50, 1e-9) {
		t.Errorf("pop(T) = %v, want 50", got)
	}
	if !approx(res.Report[0].Unapportioned, 50, 1e-9) {
		t.Errorf("unapportioned = %v, want 50", res.Report[0].Unapportioned)
	}
}

func TestApportionSliverFallsBackToContainment(t *testing.T) {
	// A degenerate source well below the sliver threshold is assigned
	// wholly to the target containing its representative point.
	sliver := rect(2, 2, 2+1e-5, 2+1e-5)
	source := layer("EPSG:5070",
		feature("S", sliver, map[string]float64{"pop": 7}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 5, 5), nil),
		feature("T2", rect(5, 0, 10, 5), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}, SliverArea: 1e-6})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	if res.Slivers != 1 {
		t.Errorf("Slivers = %d, want 1", res.Slivers)
	}
	if got := res.Target.Features[0].Attr("pop"); !approx(got, 7, 1e-9) {
		t.Errorf("pop(T1) = %v, want 7", got)
	}
	if got := res.Target.Features[1].Attr("pop"); got != 0 {
		t.Errorf("pop(T2) = %v, want 0", got)
	}
}

func TestApportionEmptyGeometrySkipped(t *testing.T) {
	source := layer("EPSG:5070",
		feature("S1", rect(0, 0, 10, 10), map[string]float64{"pop": 100}),
		feature("S2", nil, map[string]float64{"pop": 30}),
	)
	target := layer("EPSG:5070",
		feature("T", rect(0, 0, 10, 10), nil),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	if res.EmptyGeometries != 1 {
		t.Errorf("EmptyGeometries = %d, want 1", res.EmptyGeometries)
	}
	if !approx(res.Report[0].Unapportioned, 30, 1e-9) {
		t.Errorf("unapportioned = %v, want 30", res.Report[0].Unapportioned)
	}
}

func TestApportionZeroFillsUnmatchedTargets(t *testing.T) {
	source := layer("EPSG:5070",
		feature("S", rect(0, 0, 10, 10), map[string]float64{"pop": 100}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 10, 10), nil),
		feature("far", rect(100, 100, 110, 110), map[string]float64{"existing": 3}),
	)

	res, err := Apportion(source, target, Options{Attrs: []string{"pop"}})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	far := res.Target.Features[1]
	if v, ok := far.Attrs["pop"]; !ok || v != 0 {
		t.Errorf("pop(far) = %v (present=%v), want explicit 0", v, ok)
	}
	// Pre-existing attributes survive untouched.
	if far.Attr("existing") != 3 {
		t.Errorf("existing(far) = %v, want 3", far.Attr("existing"))
	}
}

func TestApportionDerivedRecomputed(t *testing.T) {
	source := layer("EPSG:5070",
		feature("S", rect(0, 0, 10, 10), map[string]float64{
			"hsp": 40, "nhsp": 60,
			// A stale source-side total must not leak through: the target
			// value is recomputed from the apportioned components.
			"tot": 9999,
		}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 5, 10), nil),
		feature("T2", rect(5, 0, 10, 10), nil),
	)

	res, err := Apportion(source, target, Options{
		Attrs:   []string{"hsp", "nhsp"},
		Derived: []Derived{{Name: "tot", Terms: []string{"hsp", "nhsp"}}},
	})
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	for _, f := range res.Target.Features {
		want := f.Attr("hsp") + f.Attr("nhsp")
		if !approx(f.Attr("tot"), want, 1e-9) {
			t.Errorf("tot(%s) = %v, want hsp+nhsp = %v", f.ID, f.Attr("tot"), want)
		}
	}
}

func TestApportionDeterministic(t *testing.T) {
	source := layer("EPSG:5070",
		feature("S1", rect(0, 0, 10, 10), map[string]float64{"pop": 250}),
		feature("S2", rect(5, 0, 15, 10), map[string]float64{"pop": 130}),
	)
	target := layer("EPSG:5070",
		feature("T1", rect(0, 0, 8, 10), nil),
		feature("T2", rect(8, 0, 15, 10), nil),
	)
	opts := Options{Attrs: []string{"pop"}}

	first, err := Apportion(source, target, opts)
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}
	second, err := Apportion(source, target, opts)
	if err != nil {
		t.Fatalf("Apportion() error = %v", err)
	}

	if len(first.Weights) != len(second.Weights) {
		t.Fatalf("weight table lengths differ: %d vs %d", len(first.Weights), len(second.Weights))
	}
	for i := range first.Weights {
		if first.Weights[i] != second.Weights[i] {
			t.Errorf("Weights[%d] differs: %+v vs %+v", i, first.Weights[i], second.Weights[i])
		}
	}
	for i := range first.Target.Features {
		a, b := first.Target.Features[i], second.Target.Features[i]
		if a.Attr("pop") != b.Attr("pop") {
			t.Errorf("pop(%s) differs: %v vs %v", a.ID, a.Attr("pop"), b.Attr("pop"))
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"plain attrs", Options{Attrs: []string{"pop"}}, false},
		{"empty attr name", Options{Attrs: []string{""}}, true},
		{"derived without terms", Options{Derived: []Derived{{Name: "tot"}}}, true},
		{"derived shadows attr", Options{
			Attrs:   []string{"tot"},
			Derived: []Derived{{Name: "tot", Terms: []string{"a"}}},
		}, true},
		{"negative sliver area", Options{Attrs: []string{"pop"}, SliverArea: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
