// Package io provides GeoJSON import and export for polygon layers, dot
// sets, and assignment records.
//
// # Layers
//
// Polygon layers read and write as GeoJSON FeatureCollections. Only Polygon
// and MultiPolygon geometries are accepted; null geometries survive a round
// trip as features with nil geometry. On import, numeric properties become
// layer attributes and string properties become tags, so census counts and
// district labels travel through the same file without a schema:
//
//	layer, err := io.ImportLayer("bg.geojson", "GEOID20", "EPSG:4326")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The one structural requirement is the identifier property (the census
// GEOID, a precinct code): every feature must carry it, and it becomes the
// feature ID on import.
//
// # Coordinate Systems
//
// Collections may carry the legacy named crs member
// ({"crs": {"type": "name", "properties": {"name": "EPSG:5070"}}}); when
// present it overrides the caller's default. Exported files always include
// it when the layer has a CRS, so a file in the meter-based working
// projection is never mistaken for lon/lat.
//
// # Dots and Assignments
//
// Dot sets export as Point FeatureCollections with group and polygon
// properties, preserving synthesis order so a seeded run exports a
// byte-identical file. Assignment runs export as a JSON document holding
// the plan metadata plus records sorted by member identifier.
package io
