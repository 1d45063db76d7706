package memory

import "errors"

var (
	// ErrTextMismatch indicates a verified trim was rejected because the
	// newest message no longer matches the caller's expected text, or the
	// session is empty. State is left untouched.
	ErrTextMismatch = errors.New("memory: message text mismatch")

	// ErrInvalidRole indicates a message role contains the "role: content"
	// delimiter and cannot be encoded losslessly.
	ErrInvalidRole = errors.New(`memory: role must not contain ": "`)

	// ErrInvalidCount indicates a non-positive count for a verified trim.
	ErrInvalidCount = errors.New("memory: count must be at least 1")
)

// IsClientError reports whether err should surface as a rejected request
// rather than a server-side failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrTextMismatch) ||
		errors.Is(err, ErrInvalidRole) ||
		errors.Is(err, ErrInvalidCount)
}
