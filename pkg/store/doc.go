// Package store publishes pipeline outputs to MongoDB for the map frontend.
//
// Collections are per-state for the heavy layers ("nc_precincts",
// "nc_dots") and shared for the small ones ("plans", "assignments").
// Precinct and dot documents carry GeoJSON geometry so the frontend can
// run 2dsphere queries against them directly.
//
// # Upload Semantics
//
// Precinct and dot uploads replace the state's collection wholesale:
// every upload deletes the existing documents and inserts the new set
// under a fresh batch ID, so a partial re-run never leaves a mix of old
// and new geometry. Plans and assignments are upserted by their natural
// keys (plan ID, and plan ID plus precinct ID), so re-running a plan
// supersedes its previous records instead of duplicating them.
package store
