package store

import "errors"

var (
	// ErrNotFound covers absent entities as well as expired share links
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller doesn't own the entity
	ErrForbidden = errors.New("you may not do this")
	// ErrBackendUnavailable means the managed backend was never configured
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrAuthRequired asks the caller to sign in again
	ErrAuthRequired = errors.New("authentication required")

	ErrInvalidInput     = errors.New("invalid input")
	ErrUploadIncomplete = errors.New("invoice upload incomplete")
	ErrQuotaExceeded    = errors.New("not enough storage space")

	// ErrAccessDenied is reported by payload stores, DataAccess turns it into
	// ErrAuthRequired
	ErrAccessDenied = errors.New("access denied")
)

// UploadError is returned by ArchiveInvoice when the record was created but
// the payload could not be attached to it.
type UploadError struct {
	InvoiceID string
	Err       error
}

func (e *UploadError) Error() string {
	return "invoice " + e.InvoiceID + " upload incomplete: " + e.Err.Error()
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUploadIncomplete, e.Err}
}
