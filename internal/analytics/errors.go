package analytics

import "errors"

var (
	// ErrInvalidMonth indicates a malformed YYYY-MM reference month.
	ErrInvalidMonth = errors.New("analytics: invalid reference month")
	// ErrRepositoryMissing is returned when the service has no data source.
	ErrRepositoryMissing = errors.New("analytics: repository not configured")
)
