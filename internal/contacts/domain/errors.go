package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the typed errors below unwrap to these.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDuplicatePerson  = errors.New("person already exists")
	ErrNotFound         = errors.New("not found")
	ErrPersistence      = errors.New("persistence failure")
	ErrSnapshotNotFound = errors.New("no saved snapshot")

	ErrPinMismatch   = errors.New("pin variant must be the same person with a different pin status")
	ErrAlreadyPinned = errors.New("person is already pinned")
	ErrNotPinned     = errors.New("person is not pinned")
)

// ValidationError reports input that does not satisfy a value object's format rule.
type ValidationError struct {
	Field      string
	Value      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Constraint)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DuplicatePersonError reports an identity collision on add or edit.
type DuplicatePersonError struct {
	Name Name
}

func (e *DuplicatePersonError) Error() string {
	return fmt.Sprintf("a person named %q already exists", e.Name)
}

func (e *DuplicatePersonError) Unwrap() error { return ErrDuplicatePerson }

// NotFoundError reports an operation target missing from the list or the index.
type NotFoundError struct {
	Kind string // "person", "module" or "tutorial"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError reports a load or save failure in a Repository.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s snapshot: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s snapshot %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
