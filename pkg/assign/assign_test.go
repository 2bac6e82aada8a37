package assign

import (
	"math"
	"testing"

	"github.com/ctessum/geom"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

func rect(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func member(id string, g geom.Polygonal, attrs map[string]float64) *geo.Feature {
	return &geo.Feature{ID: id, Geom: g, Attrs: attrs}
}

func district(id string, g geom.Polygonal, label string) *geo.Feature {
	f := &geo.Feature{ID: id, Geom: g}
	if label != "" {
		f.Tags = map[string]string{"DISTRICT": label}
	}
	return f
}

func layer(crs string, features ...*geo.Feature) *geo.Layer {
	l := geo.NewLayer(crs)
	for _, f := range features {
		l.Add(f)
	}
	return l
}

func TestAssignLargestOverlapWins(t *testing.T) {
	// Precinct P straddles two districts: 70% in district 1, 30% in
	// district 2. It must resolve to district 1.
	members := layer("EPSG:5070",
		member("P", rect(0, 0, 10, 10), nil),
	)
	containers := layer("EPSG:5070",
		district("D1", rect(0, 0, 7, 10), "1"),
		district("D2", rect(7, 0, 20, 10), "2"),
	)

	res, err := Assign(members, containers, Options{})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	rec := res.Records[0]
	if rec.Label != Numeric(1) {
		t.Errorf("label = %v, want 1", rec.Label)
	}
	if math.Abs(rec.Overlap-0.7) > 1e-9 {
		t.Errorf("overlap = %v, want 0.7", rec.Overlap)
	}
}

func TestAssignUnassignedOutsideEveryContainer(t *testing.T) {
	members := layer("EPSG:5070",
		member("in", rect(0, 0, 1, 1), nil),
		member("out", rect(100, 100, 101, 101), nil),
	)
	containers := layer("EPSG:5070",
		district("D1", rect(0, 0, 10, 10), "1"),
	)

	res, err := Assign(members, containers, Options{})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if res.Unassigned != 1 {
		t.Errorf("Unassigned = %d, want 1", res.Unassigned)
	}
	if got := res.Records[1]; got.Label != Unassigned || got.Overlap != 0 {
		t.Errorf("Records[1] = %+v, want unassigned with zero overlap", got)
	}
	// The unassigned member stays in the record set.
	if len(res.Records) != 2 {
		t.Errorf("len(Records) = %d, want 2", len(res.Records))
	}
}

func TestAssignReservedCodePreserved(t *testing.T) {
	members := layer("EPSG:5070",
		member("P", rect(0, 0, 10, 10), nil),
	)
	containers := layer("EPSG:5070",
		district("water", rect(0, 0, 20, 20), "ZZZ"),
	)

	res, err := Assign(members, containers, Options{})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	rec := res.Records[0]
	if rec.Label != Reserved("ZZZ") {
		t.Errorf("label = %v, want reserved(ZZZ)", rec.Label)
	}
	if res.Reserved != 1 {
		t.Errorf("Reserved = %d, want 1", res.Reserved)
	}
}

func TestAssignMissingLabelColumnFatal(t *testing.T) {
	members := layer("EPSG:5070", member("P", rect(0, 0, 1, 1), nil))
	containers := layer("EPSG:5070",
		district("D1", rect(0, 0, 10, 10), ""),
		district("D2", rect(10, 0, 20, 10), ""),
	)

	_, err := Assign(members, containers, Options{})
	if err == nil {
		t.Fatal("Assign() error = nil, want missing-label error")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeMissingLabel {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeMissingLabel)
	}
}

func TestAssignPartiallyLabeledContainers(t *testing.T) {
	// One container has no label: it is skipped, not fatal, and the
	// member falls to the labeled container it also overlaps.
	members := layer("EPSG:5070",
		member("P", rect(0, 0, 10, 10), nil),
	)
	containers := layer("EPSG:5070",
		district("unlabeled", rect(0, 0, 9, 10), ""),
		district("D2", rect(4, 0, 10, 10), "2"),
	)

	res, err := Assign(members, containers, Options{})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if got := res.Records[0].Label; got != Numeric(2) {
		t.Errorf("label = %v, want 2", got)
	}
}

func TestAssignCRSMismatchFatal(t *testing.T) {
	members := layer("EPSG:5070", member("P", rect(0, 0, 1, 1), nil))
	containers := layer("EPSG:4326", district("D1", rect(0, 0, 1, 1), "1"))

	_, err := Assign(members, containers, Options{})
	if err == nil {
		t.Fatal("Assign() error = nil, want CRS mismatch")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeCRSMismatch {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeCRSMismatch)
	}
}

func TestAssignSliverByRepresentativePoint(t *testing.T) {
	sliver := rect(2, 2, 2+1e-5, 2+1e-5)
	members := layer("EPSG:5070",
		member("tiny", sliver, nil),
	)
	containers := layer("EPSG:5070",
		district("D1", rect(0, 0, 5, 5), "1"),
		district("D2", rect(5, 0, 10, 5), "2"),
	)

	res, err := Assign(members, containers, Options{SliverArea: 1e-6})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if res.Slivers != 1 {
		t.Errorf("Slivers = %d, want 1", res.Slivers)
	}
	if got := res.Records[0].Label; got != Numeric(1) {
		t.Errorf("label = %v, want 1", got)
	}
}

func TestAssignEmptyGeometryUnassigned(t *testing.T) {
	members := layer("EPSG:5070",
		member("ghost", nil, nil),
	)
	containers := layer("EPSG:5070",
		district("D1", rect(0, 0, 10, 10), "1"),
	)

	res, err := Assign(members, containers, Options{})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if res.EmptyGeometries != 1 || res.Unassigned != 1 {
		t.Errorf("EmptyGeometries = %d, Unassigned = %d, want 1 and 1",
			res.EmptyGeometries, res.Unassigned)
	}
}

func TestAssignDeterministicTieBreak(t *testing.T) {
	// Exactly even split: the lower-index container wins, every run.
	members := layer("EPSG:5070",
		member("P", rect(0, 0, 10, 10), nil),
	)
	containers := layer("EPSG:5070",
		district("D2", rect(5, 0, 10, 10), "2"),
		district("D1", rect(0, 0, 5, 10), "1"),
	)

	for i := 0; i < 5; i++ {
		res, err := Assign(members, containers, Options{})
		if err != nil {
			t.Fatalf("Assign() error = %v", err)
		}
		if got := res.Records[0].Label; got != Numeric(2) {
			t.Errorf("run %d: label = %v, want 2 (first container in layer order)", i, got)
		}
	}
}
