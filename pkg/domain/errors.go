package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a session token cannot be accepted
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNoSession is returned by operations that need a signed-in user
	ErrNoSession = errors.New("no active session")
	// ErrMissingLocalID is returned when a record has not been committed locally yet
	ErrMissingLocalID = errors.New("record has no local id")
	// ErrClosed is returned by stores after Close
	ErrClosed = errors.New("store closed")
)

// Record validation errors. All of them match ErrValidation with errors.Is.
var (
	ErrInvalidAmount   = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrAmountPrecision = fmt.Errorf("%w: amount must have at most 13 integer digits and 2 decimal places", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: category must not be empty", ErrValidation)
	ErrInvalidKind     = fmt.Errorf("%w: kind must be EXPENSE or INCOME", ErrValidation)
)
