package etl

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoData               = errors.New("no source data for partition")
	ErrAllObjectsUnreadable = errors.New("every source object was unreadable")
	ErrPartitionFailed      = errors.New("partition run failed")
)
