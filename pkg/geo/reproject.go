package geo

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/dotatlas/dotatlas/pkg/errors"
)

// Well-known proj4 definitions for the projections the pipeline moves
// between. Work happens in an equal-area projection; interchange files use
// geographic lon/lat.
const (
	// ConusAlbersProj4 is NAD83 / Conus Albers (EPSG:5070), the equal-area
	// projection used for all overlap and area computation.
	ConusAlbersProj4 = "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs"

	// LonLatProj4 is geographic WGS84 (EPSG:4326), the interchange CRS for
	// GeoJSON input and output. Never compute areas in it.
	LonLatProj4 = "+proj=longlat +datum=WGS84 +no_defs"
)

// Reproject transforms every geometry in the layer from the source projection
// to the destination projection and returns a new layer tagged with dstCRS.
// Attribute maps are shared with the input layer, not copied; only geometry
// changes.
//
// Projections are proj4 strings ([ConusAlbersProj4], [LonLatProj4]); dstCRS is
// the identifier recorded on the result (e.g. "EPSG:5070"). A parse failure or
// an unprojectable geometry aborts the whole layer: a transform that works for
// some features and not others would silently mix units.
func Reproject(layer *Layer, srcProj4, dstProj4, dstCRS string) (*Layer, error) {
	src, err := proj.Parse(srcProj4)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "parse source projection %q", srcProj4)
	}
	dst, err := proj.Parse(dstProj4)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "parse destination projection %q", dstProj4)
	}
	tr, err := src.NewTransform(dst)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "build transform")
	}

	out := NewLayer(dstCRS)
	for _, f := range layer.Features {
		nf := &Feature{ID: f.ID, Attrs: f.Attrs, Tags: f.Tags}
		if f.Geom != nil {
			g, err := f.Geom.Transform(tr)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "reproject feature %s", f.ID)
			}
			pg, ok := g.(geom.Polygonal)
			if !ok {
				return nil, errors.New(errors.ErrCodeUnprojectable, "feature %s: transform produced non-polygonal geometry", f.ID)
			}
			nf.Geom = pg
		}
		out.Add(nf)
	}
	return out, nil
}

// PointTransform returns a function mapping single coordinates from the
// source to the destination projection. Useful for point sets that are not
// organized as a layer.
func PointTransform(srcProj4, dstProj4 string) (func(x, y float64) (float64, float64, error), error) {
	src, err := proj.Parse(srcProj4)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "parse source projection %q", srcProj4)
	}
	dst, err := proj.Parse(dstProj4)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "parse destination projection %q", dstProj4)
	}
	tr, err := src.NewTransform(dst)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnprojectable, err, "build transform")
	}

	return func(x, y float64) (float64, float64, error) {
		g, err := geom.Point{X: x, Y: y}.Transform(tr)
		if err != nil {
			return 0, 0, errors.Wrap(errors.ErrCodeUnprojectable, err, "transform point")
		}
		pt, ok := g.(geom.Point)
		if !ok {
			return 0, 0, errors.New(errors.ErrCodeUnprojectable, "transform produced non-point geometry")
		}
		return pt.X, pt.Y, nil
	}, nil
}
