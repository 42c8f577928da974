package domain

import "errors"

var (
	// ErrInputContract marks malformed bet terms or observations. Fatal, never retried.
	ErrInputContract = errors.New("input contract violation")
	// ErrProviderUnavailable marks a transient stats provider failure. Retried, then deferred.
	ErrProviderUnavailable = errors.New("stats provider unavailable")
	// ErrAmbiguousObservation marks minutes reported without PRA. The bet stays PENDING.
	ErrAmbiguousObservation = errors.New("ambiguous observation")
	ErrNotFound             = errors.New("not found")
)
