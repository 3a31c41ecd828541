package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Persistence backends return
// these (optionally wrapped) so callers can branch on the fact rather than
// the backend.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the backend
// - ErrCorrupted: record exists but cannot be decoded
// - ErrUnavailable: backend temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrCorrupted   = errors.New("corrupted record")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
