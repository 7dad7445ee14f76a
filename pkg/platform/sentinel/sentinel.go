package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and caches return these
// (optionally wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: key or record does not exist (or has expired)
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrUnavailable: backing service could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
