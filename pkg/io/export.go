package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dotatlas/dotatlas/pkg/assign"
	"github.com/dotatlas/dotatlas/pkg/dots"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// WriteLayer encodes a polygon layer as a GeoJSON FeatureCollection.
// The feature identifier is written under idProp, attributes and tags as
// properties, and the layer's CRS as a named crs member. The output can be
// re-imported with [ReadLayer] for round-trip processing.
func WriteLayer(l *geo.Layer, idProp string, w io.Writer) error {
	fc := featureCollection{
		Type:     "FeatureCollection",
		CRS:      namedCRS(l.CRS),
		Features: make([]featureJSON, 0, l.Len()),
	}
	for _, f := range l.Features {
		g, err := encodePolygonal(f.Geom)
		if err != nil {
			return fmt.Errorf("feature %s: %w", f.ID, err)
		}
		props := make(map[string]any, len(f.Attrs)+len(f.Tags)+1)
		props[idProp] = f.ID
		for k, v := range f.Attrs {
			props[k] = v
		}
		for k, v := range f.Tags {
			props[k] = v
		}
		fc.Features = append(fc.Features, featureJSON{
			Type:       "Feature",
			Geometry:   g,
			Properties: props,
		})
	}
	return encodeIndented(fc, w)
}

// ExportLayer writes a layer to a GeoJSON file at path.
// This is a convenience wrapper around [WriteLayer] for file-based output.
func ExportLayer(l *geo.Layer, idProp, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayer(l, idProp, f)
}

// WriteDots encodes a dot list as a GeoJSON FeatureCollection of points,
// each carrying its group and owning polygon as properties. Dot order is
// preserved so seeded runs export byte-identical files.
func WriteDots(ds []dots.Dot, crs string, w io.Writer) error {
	fc := featureCollection{
		Type:     "FeatureCollection",
		CRS:      namedCRS(crs),
		Features: make([]featureJSON, 0, len(ds)),
	}
	for _, d := range ds {
		coords, err := json.Marshal(position{d.X, d.Y})
		if err != nil {
			return err
		}
		fc.Features = append(fc.Features, featureJSON{
			Type:     "Feature",
			Geometry: &geometryJSON{Type: "Point", Coordinates: coords},
			Properties: map[string]any{
				"group":   d.Group,
				"polygon": d.Polygon,
			},
		})
	}
	return encodeIndented(fc, w)
}

// ExportDots writes a dot list to a GeoJSON file at path.
func ExportDots(ds []dots.Dot, crs, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDots(ds, crs, f)
}

// assignmentFile is the on-disk form of one assignment run.
type assignmentFile struct {
	Plan    assign.Plan     `json:"plan"`
	Records []assign.Record `json:"records"`
}

// WriteAssignments encodes an assignment run, sorted by member identifier
// so output is stable across runs.
func WriteAssignments(plan assign.Plan, records []assign.Record, w io.Writer) error {
	sorted := make([]assign.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MemberID < sorted[j].MemberID })
	return encodeIndented(assignmentFile{Plan: plan, Records: sorted}, w)
}

// ExportAssignments writes an assignment run to a JSON file at path.
func ExportAssignments(plan assign.Plan, records []assign.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteAssignments(plan, records, f)
}

// planFile is the on-disk form of plan metadata with its district totals.
type planFile struct {
	Plan      assign.Plan           `json:"plan"`
	Districts []assign.DistrictStat `json:"districts"`
}

// WritePlan encodes plan metadata together with per-district aggregate
// totals. Stats keep the order DistrictStats produced them in.
func WritePlan(plan assign.Plan, stats []assign.DistrictStat, w io.Writer) error {
	return encodeIndented(planFile{Plan: plan, Districts: stats}, w)
}

// ExportPlan writes plan metadata and district totals to a JSON file at path.
func ExportPlan(plan assign.Plan, stats []assign.DistrictStat, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WritePlan(plan, stats, f)
}

func encodeIndented(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
