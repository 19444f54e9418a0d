package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, probes and adapters return
// these (optionally wrapped) so callers can branch on them with errors.Is.
//
// These represent factual states about resources, not validation failures:
// - ErrNotConfigured: a dependency has no credentials or address configured
// - ErrUnavailable: a configured dependency did not answer usefully
// - ErrRevoked: a credential was explicitly revoked
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotConfigured = errors.New("not configured")
	ErrUnavailable   = errors.New("unavailable")
	ErrRevoked       = errors.New("revoked")
)
