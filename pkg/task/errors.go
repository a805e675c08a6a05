package task

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeConflict is matched by every *ConflictError.
	ErrTimeConflict = errors.New("time conflict")
	ErrDuplicateID  = errors.New("id already in use")
	ErrInvalid      = errors.New("invalid input")
	ErrSave         = errors.New("save failed")
	ErrLoad         = errors.New("load failed")
)

// ConflictError is returned when a create or update would overlap an
// existing scheduled task or subtask.
type ConflictError struct {
	Kind  Kind
	Title string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q overlaps an existing scheduled task", e.Kind, e.Title)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrTimeConflict
}
