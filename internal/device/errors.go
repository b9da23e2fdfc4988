package device

import "errors"

// Domain errors for the device package.
var (
	// ErrUnknownProduct is returned when a product ID has no registered
	// typed wrapper.
	ErrUnknownProduct = errors.New("device: unknown product")

	// ErrStatsIndexRejected is returned when the node refuses a write to
	// the statistics or fault history index register during a table scan.
	ErrStatsIndexRejected = errors.New("device: history index write rejected")
)
