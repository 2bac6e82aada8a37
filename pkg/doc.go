// Package pkg provides the core libraries for dotatlas dot-density mapping.
//
// # Overview
//
// Dotatlas turns census geography into frontend-ready election map data.
// The pkg directory is organized around three processing stages plus the
// infrastructure they share:
//
//  1. [apportion] - Redistribute block-group counts onto precincts by area overlap
//  2. [assign] - Resolve precinct-to-district assignments by largest overlap
//  3. [dots] - Synthesize reproducible dot-density point clouds
//  4. [pipeline] - Orchestration (load → apportion → assign → dots) with caching
//
// # Architecture
//
// The typical data flow through dotatlas:
//
//	Block-group GeoJSON (demographics)      Precinct GeoJSON
//	         ↓                                    ↓
//	    [apportion] package (area-weighted redistribution)
//	         ↓
//	    [assign] package (district plan resolution)
//	         ↓
//	    [dots] package (seeded dot synthesis)
//	         ↓
//	    GeoJSON output / MongoDB upload
//
// # Quick Start
//
// Run the full pipeline for one state:
//
//	import (
//	    "context"
//	    "github.com/dotatlas/dotatlas/pkg/cache"
//	    "github.com/dotatlas/dotatlas/pkg/config"
//	    "github.com/dotatlas/dotatlas/pkg/pipeline"
//	)
//
//	cfg := config.Default()
//	_ = cfg.ValidateAndSetDefaults()
//
//	fc, _ := cache.NewFileCache("/tmp/dotatlas-cache")
//	runner := pipeline.NewRunner(fc, nil, nil)
//
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    State:       "NC",
//	    BlockGroups: "nc_bg.geojson",
//	    Precincts:   "nc_precincts.geojson",
//	    Districts:   "nc_districts.geojson",
//	    Config:      cfg,
//	})
//
// # Main Packages
//
// ## Processing Stages
//
// [apportion] - Area-weighted apportionment of numeric columns from a source
// layer onto a target layer, with derived-column recomputation, sliver
// fallback, and a conservation report that never rescales.
//
// [assign] - Largest-overlap assignment of precincts to district plans, with
// tagged district labels (numeric, reserved, unassigned) and per-district
// aggregation.
//
// [dots] - Deterministic dot synthesis: stochastic rounding, presence
// guarantees, and area-weighted point placement from a single seed.
//
// ## Geometry and IO
//
// [geo] - Layers, features, projection helpers, spatial indexing, and
// point-in-polygon predicates shared by all stages.
//
// [io] - GeoJSON import/export for layers, dot sets, and assignment files.
//
// ## Infrastructure
//
// [pipeline] - Complete stage orchestration used by the CLI and the HTTP
// server. Caches the expensive stages keyed on input content and options.
//
// [cache] - Stage-result cache with file and Redis backends, content
// hashing, and retry with backoff.
//
// [store] - MongoDB publisher for precincts, dots, plans, and assignments.
//
// [config] - TOML configuration with census column registries, dot groups,
// and the state registry.
//
// [errors] - Structured errors with machine-readable codes.
//
// [observability] - Optional hooks for stage, cache, and upload events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/dots/...       # Specific package
//
// [apportion]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/apportion
// [assign]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/assign
// [dots]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/dots
// [geo]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/geo
// [io]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/cache
// [store]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/store
// [config]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/config
// [errors]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/errors
// [observability]: https://pkg.go.dev/github.com/dotatlas/dotatlas/pkg/observability
package pkg
