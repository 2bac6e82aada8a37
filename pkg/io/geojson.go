package io

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ctessum/geom"
)

// featureCollection is the GeoJSON wire form of a polygon or point layer.
// The crs member is the legacy named-CRS convention; files produced in the
// working projection carry it so consumers cannot mistake meters for
// degrees.
type featureCollection struct {
	Type     string        `json:"type"`
	CRS      *crsSpec      `json:"crs,omitempty"`
	Features []featureJSON `json:"features"`
}

type crsSpec struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

func namedCRS(name string) *crsSpec {
	if name == "" {
		return nil
	}
	c := &crsSpec{Type: "name"}
	c.Properties.Name = name
	return c
}

type featureJSON struct {
	Type       string         `json:"type"`
	Geometry   *geometryJSON  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// geometryJSON defers coordinate decoding until the type tag is known.
type geometryJSON struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

type position = []float64

// decodePolygonal converts a GeoJSON geometry into a polygonal geom value.
// Only Polygon and MultiPolygon are accepted; a nil geometry maps to nil.
func decodePolygonal(g *geometryJSON) (geom.Polygonal, error) {
	if g == nil || g.Type == "" {
		return nil, nil
	}
	switch g.Type {
	case "Polygon":
		var rings [][]position
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("polygon coordinates: %w", err)
		}
		return ringsToPolygon(rings)
	case "MultiPolygon":
		var polys [][][]position
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("multipolygon coordinates: %w", err)
		}
		mp := make(geom.MultiPolygon, 0, len(polys))
		for _, rings := range polys {
			p, err := ringsToPolygon(rings)
			if err != nil {
				return nil, err
			}
			mp = append(mp, p)
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func ringsToPolygon(rings [][]position) (geom.Polygon, error) {
	p := make(geom.Polygon, 0, len(rings))
	for _, ring := range rings {
		r := make([]geom.Point, 0, len(ring))
		for _, pos := range ring {
			if len(pos) < 2 {
				return nil, fmt.Errorf("position has %d ordinates, want at least 2", len(pos))
			}
			r = append(r, geom.Point{X: pos[0], Y: pos[1]})
		}
		// GeoJSON rings repeat the first position at the end; the geometry
		// library treats rings as implicitly closed.
		if len(r) > 1 && r[0] == r[len(r)-1] {
			r = r[:len(r)-1]
		}
		p = append(p, r)
	}
	return p, nil
}

// encodePolygonal converts a polygonal geometry to its GeoJSON form. Nil
// geometry encodes as a null geometry member.
func encodePolygonal(g geom.Polygonal) (*geometryJSON, error) {
	if g == nil {
		return nil, nil
	}
	parts := g.Polygons()
	if len(parts) == 1 {
		coords, err := json.Marshal(polygonToRings(parts[0]))
		if err != nil {
			return nil, err
		}
		return &geometryJSON{Type: "Polygon", Coordinates: coords}, nil
	}
	polys := make([][][]position, 0, len(parts))
	for _, p := range parts {
		polys = append(polys, polygonToRings(p))
	}
	coords, err := json.Marshal(polys)
	if err != nil {
		return nil, err
	}
	return &geometryJSON{Type: "MultiPolygon", Coordinates: coords}, nil
}

func polygonToRings(p geom.Polygon) [][]position {
	rings := make([][]position, 0, len(p))
	for _, ring := range p {
		r := make([]position, 0, len(ring)+1)
		for _, pt := range ring {
			r = append(r, position{pt.X, pt.Y})
		}
		if len(ring) > 0 {
			r = append(r, position{ring[0].X, ring[0].Y}) // close the ring
		}
		rings = append(rings, r)
	}
	return rings
}

// propertyString renders a property value as a feature identifier.
func propertyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
