// Package domain contains the core entities and errors for gpwatch.
//
// This package has no dependencies on infrastructure concerns (file system,
// logging, watching) and contains only the plate model and its invariants.
//
// # Entities
//
//   - [PlateInfo]: plate geometry and identity read from an export header
//   - [GrowthSample]: the well growth readings for one timepoint
//
// # Errors
//
// Every failure surfaced by the ingest pipeline wraps one of [ErrIO],
// [ErrFormat] or [ErrValidation]. Use [Kind] to classify an error for logs.
package domain
