package batch

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyBatch     = errors.New("batch is empty")
	ErrBatchTooLarge  = errors.New("batch too large")
	ErrBatchRejected  = errors.New("batch rejected")
	ErrMalformedInput = errors.New("malformed input")
)
