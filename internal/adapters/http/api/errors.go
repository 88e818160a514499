package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNoState    = errors.New("no dashboard loaded yet")
	ErrRender     = errors.New("render failed")
)

// wrapKind tags err with op and kind so callers can match the kind with
// errors.Is while the message keeps the cause.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
