package receipts

import "errors"

// Sentinel kinds for receipts queries. The HTTP layer maps the first two to
// 400 and ErrNoData to 404.
var (
	ErrInvalidLimit = errors.New("limit out of range")
	ErrUnknownYear  = errors.New("year not found in data")
	ErrNoData       = errors.New("no receipt data found")
	ErrNoBackend    = errors.New("no receipts backend configured")
)
