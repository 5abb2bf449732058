package job

import "errors"

// Sentinel errors returned by Controller operations. A job that the analyzer
// reports as failed is not an error here; it is the PhaseError phase.
var (
	ErrNoFile      = errors.New("no video selected")
	ErrJobInFlight = errors.New("an analysis is already in flight")
	ErrClosed      = errors.New("controller closed")
	ErrNoResults   = errors.New("results not loaded")
	ErrRallyIndex  = errors.New("rally index out of range")
)
