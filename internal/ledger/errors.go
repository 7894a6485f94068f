package ledger

import "errors"

// ErrNotFound reports that an operation referenced an id or item with no
// matching row. Callers treat it as recoverable and tell the user.
var ErrNotFound = errors.New("ledger: entry not found")

// ValidationError reports malformed input (non-numeric price, missing
// item or store, bad currency code). Recoverable; reported to the user.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "ledger: " + e.Reason
}

// StorageError wraps an I/O or database failure. Logged server-side and
// surfaced to the user as a generic failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return "ledger: " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
