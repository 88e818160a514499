package smoke

import "errors"

// Sentinel kinds for smoke failures.
var (
	ErrUnhealthy  = errors.New("service health check failed")
	ErrChecks     = errors.New("dashboard checks failed")
	ErrStateOrder = errors.New("state did not settle on the newest filters")
)
