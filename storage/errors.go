package storage

import "errors"

var (
	ErrNotFound   = errors.New("storage: not found")
	ErrInvalidKey = errors.New("storage: invalid key")
	ErrClosed     = errors.New("storage: closed")
	ErrDiverged   = errors.New("storage: replicas diverged")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
