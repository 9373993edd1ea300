package gold

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyPartition      = errors.New("partition has no rows")
	ErrValidationFailed    = errors.New("gold validation failed")
	ErrCrossTableInvariant = errors.New("cross-table invariant violated")
)
