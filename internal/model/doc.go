// Package model defines the data structures shared across the harvesting
// pipeline: archive categories, per-archive results, and the run summary
// with its performance counters.
//
// The types live in their own package because the pipeline, report, and
// command layers all consume them; centralizing them keeps the import
// graph acyclic. Everything here serializes to JSON for report output.
package model
