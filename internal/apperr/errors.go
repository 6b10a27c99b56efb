// Package apperr defines the sentinel error taxonomy shared by every
// content-cache service, matching the canonical error kinds the core reports.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks rejected input: bad URL, empty field, duplicate
	// name, sync interval below the floor, empty identifier.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an absent profile or series detail.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName marks a profile name collision.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrIntegrity marks a credential HMAC mismatch or unknown schema version.
	ErrIntegrity = errors.New("integrity error")

	// ErrConcurrency marks a lock-acquisition failure. Callers treat it as
	// fatal for the in-flight operation.
	ErrConcurrency = errors.New("concurrency error")

	// ErrTransientNetwork marks a remote fetch failure recoverable on the
	// next sync tick.
	ErrTransientNetwork = errors.New("transient network error")

	// ErrCancelled marks cooperative sync cancellation. Not an operator-
	// facing error; the sync state machine treats it distinctly from failure.
	ErrCancelled = errors.New("sync cancelled")

	// ErrDatabase marks an unexpected storage error.
	ErrDatabase = errors.New("database error")

	// ErrSyncActive marks a register_sync call against a profile that
	// already has an active sync registered.
	ErrSyncActive = errors.New("sync already active for profile")
)

// Wrap annotates err with a message while preserving errors.Is matching
// against the sentinel kind.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// UserMessage maps an error kind to the single canonical human-readable
// string the core exposes; internal detail stays in logs only.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrIntegrity):
		return "credentials may be corrupted"
	case errors.Is(err, ErrValidation):
		return "invalid input"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrDuplicateName):
		return "name already in use"
	case errors.Is(err, ErrConcurrency):
		return "temporarily unavailable"
	case errors.Is(err, ErrTransientNetwork):
		return "remote server unavailable"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	default:
		return "internal error"
	}
}
