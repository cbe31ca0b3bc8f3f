// Package ivferrors collects the sentinel errors shared across the index's
// build, search, and persistence paths.
package ivferrors

import "errors"

var (
	// ErrCapacityExceeded is returned when addVector targets an id outside
	// [0,N) or an IntList would overflow without growth.
	ErrCapacityExceeded = errors.New("ivfann: capacity exceeded")

	// ErrDimensionMismatch is returned when a vector's length disagrees
	// with the store's configured dimension.
	ErrDimensionMismatch = errors.New("ivfann: vector dimension mismatch")

	// ErrNotBuilt is returned by Search/Write when called before Build
	// has completed successfully.
	ErrNotBuilt = errors.New("ivfann: index not built")

	// ErrIoFailure wraps an underlying open/read/write/truncate error.
	ErrIoFailure = errors.New("ivfann: io failure")

	// ErrMissingFile is returned by Read when one of the .clus/.vec pair
	// is absent.
	ErrMissingFile = errors.New("ivfann: missing index file")

	// ErrInvalidFormat is returned when a persisted file's structure
	// cannot be trusted: disagreeing widths, bad sentinels, EOF mid-record.
	ErrInvalidFormat = errors.New("ivfann: invalid index format")
)
