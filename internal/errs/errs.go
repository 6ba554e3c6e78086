// Package errs collects the error taxonomy spec.md §7 requires every
// component surface to its caller as a wrapped sentinel, so a caller can
// branch with errors.Is regardless of which component produced the error.
package errs

import (
	"errors"

	"github.com/operator-framework/deppy/internal/version"
)

var (
	// ErrVersionSyntax is internal/version.ErrVersionSyntax, re-exported so
	// callers outside the version package can branch on it without
	// importing internal/version directly.
	ErrVersionSyntax = version.ErrVersionSyntax

	// ErrContradictoryRange is internal/version.ErrContradictoryRange,
	// re-exported for the same reason; internal/blueprint also wraps it
	// when the same name is requested with contradictory ranges across
	// blueprint files.
	ErrContradictoryRange = version.ErrContradictoryRange

	// ErrParse covers a malformed control stanza or blueprint line.
	ErrParse = errors.New("parse error")

	// ErrNetwork covers transport failures in the metadata pipeline, after
	// exhausting retries within a single fetch.
	ErrNetwork = errors.New("network error")

	// ErrSignature is returned when no trusted key validates an
	// InRelease file's signature.
	ErrSignature = errors.New("signature verification failed")

	// ErrIntegrity is returned when a fetched file's size or hash does not
	// match its InRelease record.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrCancelled is returned when a cooperative cancellation signal is
	// observed at a suspension point.
	ErrCancelled = errors.New("cancelled")
)
