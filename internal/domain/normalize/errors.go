package normalize

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidValue   = errors.New("invalid value")
	ErrDecode         = errors.New("decode payload failed")
	ErrUnknownVariant = errors.New("unknown row variant")
)
