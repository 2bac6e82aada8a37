package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dotatlas/dotatlas/pkg/errors"
	"github.com/dotatlas/dotatlas/pkg/geo"
)

// ReadLayer decodes a GeoJSON FeatureCollection from r into a polygon layer.
//
// Each feature's identifier is taken from the idProp property. Numeric
// properties become layer attributes, string properties become tags; other
// value types are dropped. Features with a null geometry are kept with nil
// geometry, matching the layer model where empty geometry carries zero
// weight but is never dropped.
//
// The layer's CRS comes from the collection's named crs member when present,
// otherwise from defaultCRS. Files without either are an error: overlap math
// on coordinates of unknown units produces plausible-looking garbage.
//
// ReadLayer returns an error if the JSON is malformed, a geometry is not
// Polygon or MultiPolygon, or a feature is missing the identifier property.
// It does not close r.
func ReadLayer(r io.Reader, idProp, defaultCRS string) (*geo.Layer, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("top-level type is %q, want FeatureCollection", fc.Type)
	}

	crs := defaultCRS
	if fc.CRS != nil && fc.CRS.Properties.Name != "" {
		crs = fc.CRS.Properties.Name
	}
	if err := errors.ValidateCRS(crs); err != nil {
		return nil, err
	}

	layer := geo.NewLayer(crs)
	for i, fj := range fc.Features {
		g, err := decodePolygonal(fj.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		idVal, ok := fj.Properties[idProp]
		if !ok {
			return nil, fmt.Errorf("feature %d: missing identifier property %q", i, idProp)
		}
		// The identifier property stays in the attribute maps too, so a
		// column that doubles as an identifier (a district label) is still
		// addressable by name.
		f := &geo.Feature{ID: propertyString(idVal), Geom: g}
		for k, v := range fj.Properties {
			switch t := v.(type) {
			case float64:
				f.SetAttr(k, t)
			case string:
				if f.Tags == nil {
					f.Tags = make(map[string]string)
				}
				f.Tags[k] = t
			}
		}
		layer.Add(f)
	}
	return layer, nil
}

// ImportLayer reads a GeoJSON file at path and returns the decoded layer.
// The error wraps the underlying cause with the file path for context.
func ImportLayer(path, idProp, defaultCRS string) (*geo.Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	l, err := ReadLayer(f, idProp, defaultCRS)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
