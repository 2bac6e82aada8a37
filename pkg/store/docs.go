package store

import (
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// Batch identifies one replace-style upload. Every document written by the
// upload carries the batch ID, so a stray document from an older batch is
// detectable.
type Batch struct {
	ID         string    `json:"id" bson:"batch_id"`
	State      string    `json:"state" bson:"state"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

func newBatch(state string) Batch {
	return Batch{
		ID:         uuid.NewString(),
		State:      state,
		UploadedAt: time.Now().UTC(),
	}
}

// precinctDoc flattens a feature into a frontend-queryable document:
// GeoJSON geometry at the top level for the 2dsphere index, numeric and
// string attributes merged under "properties".
func precinctDoc(f *geo.Feature, batch Batch) bson.M {
	props := bson.M{}
	for k, v := range f.Attrs {
		props[k] = v
	}
	for k, v := range f.Tags {
		props[k] = v
	}
	return bson.M{
		"_id":         f.ID,
		"geometry":    geometryDoc(f.Geom),
		"properties":  props,
		"batch_id":    batch.ID,
		"uploaded_at": batch.UploadedAt,
	}
}

func dotDoc(d dots.Dot, batch Batch) bson.M {
	return bson.M{
		"geometry": bson.M{
			"type":        "Point",
			"coordinates": bson.A{d.X, d.Y},
		},
		"group":    d.Group,
		"polygon":  d.Polygon,
		"batch_id": batch.ID,
	}
}

func assignmentDoc(planID string, rec assign.Record) bson.M {
	return bson.M{
		"plan_id":     planID,
		"precinct_id": rec.MemberID,
		"district":    labelValue(rec.Label),
		"overlap":     rec.Overlap,
	}
}

// labelValue maps a district label to its BSON form: numeric districts as
// integers, reserved codes as strings, unassigned as null. This mirrors the
// JSON encoding of assign.Label.
func labelValue(l assign.Label) any {
	switch l.Kind {
	case assign.LabelNumeric:
		return int64(l.Number)
	case assign.LabelReserved:
		return l.Code
	default:
		return nil
	}
}

// geometryDoc encodes a polygonal geometry as a GeoJSON MultiPolygon
// document. Rings are closed explicitly since 2dsphere validation
// requires it. Nil geometry maps to nil.
func geometryDoc(p geom.Polygonal) bson.M {
	if p == nil {
		return nil
	}
	var coords bson.A
	for _, part := range p.Polygons() {
		var rings bson.A
		for _, ring := range part {
			if len(ring) == 0 {
				continue
			}
			var positions bson.A
			for _, pt := range ring {
				positions = append(positions, bson.A{pt.X, pt.Y})
			}
			if first, last := ring[0], ring[len(ring)-1]; first != last {
				positions = append(positions, bson.A{first.X, first.Y})
			}
			rings = append(rings, positions)
		}
		if len(rings) > 0 {
			coords = append(coords, rings)
		}
	}
	return bson.M{
		"type":        "MultiPolygon",
		"coordinates": coords,
	}
}
