package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrConflict      = errors.New("conflict")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrIncompleteDay = errors.New("day incomplete")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	// ErrCorrupt marks a stored document that no longer decodes.
	ErrCorrupt = errors.New("corrupt document")
)
