package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNoPath  = errors.New("database path is required")
	ErrOpen    = errors.New("open receipts store")
	ErrMigrate = errors.New("migrate receipts store")
	ErrQuery   = errors.New("query receipts store")
	ErrWrite   = errors.New("write receipts store")
)
