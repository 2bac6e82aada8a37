package store

import (
	"testing"

	"github.com/ctessum/geom"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

func TestPrecinctDoc(t *testing.T) {
	f := &geo.Feature{
		ID: "P1",
		Geom: geom.Polygon{{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		}},
		Attrs: map[string]float64{"TOT_POP23": 1200},
		Tags:  map[string]string{"COUNTY": "Wake"},
	}
	batch := newBatch("NC")

	doc := precinctDoc(f, batch)
	if doc["_id"] != "P1" {
		t.Errorf("_id = %v, want P1", doc["_id"])
	}
	if doc["batch_id"] != batch.ID {
		t.Errorf("batch_id = %v, want %v", doc["batch_id"], batch.ID)
	}

	props, ok := doc["properties"].(bson.M)
	if !ok {
		t.Fatalf("properties = %T, want bson.M", doc["properties"])
	}
	if props["TOT_POP23"] != float64(1200) || props["COUNTY"] != "Wake" {
		t.Errorf("properties = %v, want numeric and string attrs merged", props)
	}

	g, ok := doc["geometry"].(bson.M)
	if !ok {
		t.Fatalf("geometry = %T, want bson.M", doc["geometry"])
	}
	if g["type"] != "MultiPolygon" {
		t.Errorf("geometry type = %v, want MultiPolygon", g["type"])
	}
}

func TestGeometryDocClosesRings(t *testing.T) {
	// Open ring on input: the document must repeat the first position.
	p := geom.Polygon{{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2},
	}}

	doc := geometryDoc(p)
	coords := doc["coordinates"].(bson.A)
	ring := coords[0].(bson.A)[0].(bson.A)

	if len(ring) != 5 {
		t.Fatalf("ring length = %d, want 5 (closed)", len(ring))
	}
	first := ring[0].(bson.A)
	last := ring[len(ring)-1].(bson.A)
	if first[0] != last[0] || first[1] != last[1] {
		t.Errorf("ring not closed: first %v, last %v", first, last)
	}
}

func TestGeometryDocNil(t *testing.T) {
	if doc := geometryDoc(nil); doc != nil {
		t.Errorf("geometryDoc(nil) = %v, want nil", doc)
	}
}

func TestDotDoc(t *testing.T) {
	batch := newBatch("NC")
	doc := dotDoc(dots.Dot{X: -78.6, Y: 35.8, Group: "black", Polygon: "P1"}, batch)

	loc := doc["geometry"].(bson.M)
	if loc["type"] != "Point" {
		t.Errorf("geometry type = %v, want Point", loc["type"])
	}
	coords := loc["coordinates"].(bson.A)
	if coords[0] != -78.6 || coords[1] != 35.8 {
		t.Errorf("coordinates = %v, want [-78.6 35.8]", coords)
	}
	if doc["group"] != "black" || doc["polygon"] != "P1" {
		t.Errorf("doc = %v, want group/polygon preserved", doc)
	}
}

func TestAssignmentDocLabelForms(t *testing.T) {
	tests := []struct {
		name  string
		label assign.Label
		want  any
	}{
		{"numeric", assign.Numeric(3), int64(3)},
		{"reserved", assign.Reserved("ZZZ"), "ZZZ"},
		{"unassigned", assign.Unassigned, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := assignmentDoc("NC_CONG_ENACTED_2023", assign.Record{
				MemberID: "P1", Label: tt.label, Overlap: 0.9,
			})
			if doc["district"] != tt.want {
				t.Errorf("district = %v (%T), want %v", doc["district"], doc["district"], tt.want)
			}
			if doc["plan_id"] != "NC_CONG_ENACTED_2023" || doc["precinct_id"] != "P1" {
				t.Errorf("keys = %v/%v, want plan and precinct ids", doc["plan_id"], doc["precinct_id"])
			}
		})
	}
}

func TestBatchIDsUnique(t *testing.T) {
	a, b := newBatch("NC"), newBatch("NC")
	if a.ID == b.ID {
		t.Error("consecutive batches share an ID")
	}
	if a.State != "NC" {
		t.Errorf("State = %q, want NC", a.State)
	}
}

func TestCollectionNames(t *testing.T) {
	if got := precinctCollection("NC"); got != "nc_precincts" {
		t.Errorf("precinctCollection(NC) = %q, want nc_precincts", got)
	}
	if got := dotCollection("tx"); got != "tx_dots" {
		t.Errorf("dotCollection(tx) = %q, want tx_dots", got)
	}
}

func TestOptionsValidate(t *testing.T) {
	var opts Options
	if err := opts.validate(); err == nil {
		t.Error("validate() error = nil, want error for missing uri")
	}

	opts = Options{URI: "mongodb://localhost:27017"}
	if err := opts.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if opts.Database != DefaultDatabase {
		t.Errorf("Database = %q, want %q", opts.Database, DefaultDatabase)
	}
	if opts.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", opts.Timeout, DefaultTimeout)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}
