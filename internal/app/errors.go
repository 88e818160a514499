package service

import "errors"

var (
	// ErrNoData is returned when neither the receipts API nor the bundled
	// dataset could produce a dashboard.
	ErrNoData = errors.New("no dashboard data available")
	// ErrNoRemote is the fallback warning when no receipts API client is configured.
	ErrNoRemote = errors.New("receipts api not configured")
)
