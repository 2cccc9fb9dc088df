package domain

import "errors"

var (
	// ErrNotFound indicates a ledger object could not be resolved by any strategy
	ErrNotFound = errors.New("object not found")

	// ErrBusy indicates a write was rejected because another write on the
	// same surface is still in flight
	ErrBusy = errors.New("transaction already in progress")

	// ErrNoMarketplace indicates the shared marketplace object could not be
	// located by configuration or discovery
	ErrNoMarketplace = errors.New("marketplace object not found")

	// ErrStale indicates a read result was superseded by a newer
	// invalidation token and must be discarded
	ErrStale = errors.New("read superseded by newer invalidation")
)

// ValidationError is an input error caught before any network call. It is
// rendered next to the offending field, never sent to the ledger.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
