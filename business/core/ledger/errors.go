package ledger

import "errors"

// Set of error variables for the ledger.
var (
	ErrUnavailable   = errors.New("data is not available for the session")
	ErrInvalidStatus = errors.New("status must be pending or confirmed")
)
