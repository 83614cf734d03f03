package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Ledgers, mesh state backends and
// sinks return these (optionally wrapped) so services can translate them into
// domain errors.
//
// - ErrNotFound: scroll or key does not exist in the backing store
// - ErrUnavailable: backing store or broker cannot be reached
// - ErrClosed: publisher or sink used after Close
//
// For bad input (unsignable records, short funding), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
