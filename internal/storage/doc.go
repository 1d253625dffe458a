// Package storage defines the persistence interfaces for the AAS repository.
//
// It provides a high-level abstraction for storing packages, entities
// (shells, submodels, concept descriptions), registry descriptors, the
// activity log, and aggregate counters. The SQLite implementation of these
// interfaces lives in the sqlite subpackage.
//
// # Error Types
//
// The package defines common error values used across storage implementations:
//   - ErrNotFound: a requested record is missing.
//   - ErrImportInFlight: an import already holds the package.
//   - ErrDeleteImporting: deletion attempted while an import is running.
package storage
