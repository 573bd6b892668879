package storage

import "errors"

var (
	ErrNotFound           = errors.New("storage: not found")
	ErrDuplicateContainer = errors.New("storage: container already exists")
	ErrBatchInconsistent  = errors.New("storage: contribution batch inconsistent")
	ErrInvalidCID         = errors.New("storage: invalid cid")
	ErrCIDMismatch        = errors.New("storage: cid mismatch")
	ErrImmutable          = errors.New("storage: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
