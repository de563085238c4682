package service

import (
	"errors"
	"fmt"
)

// ErrPersistence marks an operation that succeeded in memory but whose snapshot could not be saved
var ErrPersistence = errors.New("snapshot persistence failed")

// PersistError is returned alongside a successful result when the snapshot save failed.
// The in-memory change is kept.
type PersistError struct {
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrPersistence, e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrPersistence) match
func (e *PersistError) Is(target error) bool {
	return target == ErrPersistence
}

// IsPersistWarning reports whether err only signals a failed snapshot save
func IsPersistWarning(err error) bool {
	return errors.Is(err, ErrPersistence)
}
