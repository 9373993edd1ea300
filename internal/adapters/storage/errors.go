package storage

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFound    = errors.New("object not found")
	ErrReadFailed  = errors.New("object read failed")
	ErrWriteFailed = errors.New("object write failed")
	ErrListFailed  = errors.New("object list failed")
)
