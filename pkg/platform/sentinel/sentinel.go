package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the report archive
// return these (optionally wrapped) so services and handlers can translate
// them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity or file does not exist
// - ErrConflict: entity cannot be mutated in its current state
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
