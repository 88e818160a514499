package service

import "github.com/okian/tourism/internal/domain/model"

// fallbackSuffix is appended to the original failure when mock data is shown.
const fallbackSuffix = " (showing mock data)"

// Result is a successful load. Warning is set when the data came from the
// bundled dataset because the receipts API failed; it holds the original
// failure.
type Result struct {
	Data    model.Dashboard
	Warning error
}

// Degraded reports whether the data is a fallback.
func (r Result) Degraded() bool {
	return r.Warning != nil
}

// Notice is the user-facing degraded-mode message, empty when not degraded.
func (r Result) Notice() string {
	if r.Warning == nil {
		return ""
	}
	return r.Warning.Error() + fallbackSuffix
}
