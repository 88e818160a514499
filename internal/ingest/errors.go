package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrMissingFile = errors.New("source file missing")
	ErrBadHeader   = errors.New("unexpected csv header")
	ErrRead        = errors.New("read source csv")
)
