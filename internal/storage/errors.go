package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicate      = errors.New("already exists")
	ErrStatusConflict = errors.New("status changed concurrently")
)

// Error — сбой бэкенда (соединение, нарушение ограничений и т.п.).
// Операция, вызвавшая его, считается непримененной.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap оборачивает err в *Error; nil и доменные sentinel-ошибки возвращаются как есть.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStatusConflict) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorageError — true для сбоев бэкенда (не для NotFound/конфликтов).
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
