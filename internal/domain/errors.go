package domain

import "errors"

var (
	// ErrUnsupportedBatch marks order combinations the router cannot express,
	// such as mixing a no-router protocol with other orders. Always fatal.
	ErrUnsupportedBatch = errors.New("unsupported batch")

	// ErrOrderUnfillable marks a single order that could not be completed:
	// partial-order resolution failed, an off-chain signature fetch failed,
	// or the adapter rejected the payload. Recoverable in partial mode.
	ErrOrderUnfillable = errors.New("order unfillable")

	// ErrSwapUnavailable means no liquidity route could satisfy a required
	// currency conversion. Recoverable in partial mode; failure cascades to
	// every order funded by the missing swap.
	ErrSwapUnavailable = errors.New("swap unavailable")

	// ErrNoFillsPossible is returned when zero fragments survive compilation.
	// Always fatal: the caller supplied nothing fillable.
	ErrNoFillsPossible = errors.New("no fills possible")

	// ErrUnauthorized is returned by platform clients on 401/403 responses.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned by platform clients on 429 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned by caches and platform clients for missing keys.
	ErrNotFound = errors.New("not found")
)
