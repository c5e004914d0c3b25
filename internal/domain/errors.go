package domain

import "errors"

// Failure variants surfaced by the exporter. Wrapped with fmt.Errorf("%w")
// and matched with errors.Is, so the retry loop can single out
// authorization failures and propagate everything else unchanged.
var (
	// ErrConfiguration marks invalid or missing run configuration,
	// detected before any network activity.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAuthorization marks a credential rejection by the server.
	// This is the only retryable failure.
	ErrAuthorization = errors.New("authorization failed")

	// ErrTransport marks any non-authorization connection failure
	// (network, protocol, misconfigured address). Never retried.
	ErrTransport = errors.New("connection failed")

	// ErrNotConnected marks enumeration attempted without an
	// established session. An ordering bug in the caller.
	ErrNotConnected = errors.New("not connected")

	// ErrFilesystem marks a rejected write during export. Files already
	// written are not rolled back.
	ErrFilesystem = errors.New("filesystem error")
)
