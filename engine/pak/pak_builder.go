package pak

import (
	"golang.org/x/time/rate"
)

// ArchiveBuilderOption is a functional option applied to an archive during construction.
type ArchiveBuilderOption func(*archiveImpl)

// WithCaseInsensitiveLookup resolves request paths ignoring case when no exact match exists.
//
// Parameters:
//   - enabled: true to enable the fallback lookup
//
// Returns:
//   - ArchiveBuilderOption: a function that applies the lookup option to an archive
func WithCaseInsensitiveLookup(enabled bool) ArchiveBuilderOption {
	return func(a *archiveImpl) {
		a.caseInsensitive = enabled
	}
}

// WithMissLogLimit throttles the warning logged for requests that resolve to no file.
//
// Parameters:
//   - limit: the sustained number of warnings per second
//   - burst: the number of warnings allowed at once
//
// Returns:
//   - ArchiveBuilderOption: a function that applies the log limit to an archive
func WithMissLogLimit(limit rate.Limit, burst int) ArchiveBuilderOption {
	return func(a *archiveImpl) {
		a.missLog = rate.NewLimiter(limit, burst)
	}
}
