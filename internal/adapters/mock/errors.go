package mock

import "errors"

var (
	// ErrInvalidDataset is returned when a dataset file cannot be parsed or
	// lacks required fields.
	ErrInvalidDataset = errors.New("invalid mock dataset")
	// ErrNoTotals is returned when a build yields no yearly totals at all.
	ErrNoTotals = errors.New("mock dataset has no totals")
)
