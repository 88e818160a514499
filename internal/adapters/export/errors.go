package export

import "errors"

var (
	// ErrNoRows is returned when there is nothing to export.
	ErrNoRows = errors.New("no rows to export")
	// ErrMalformed is returned by ParseCSV for input not in the export layout.
	ErrMalformed = errors.New("malformed receipts csv")
)
