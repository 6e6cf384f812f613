package errors

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a storefront resource does not exist
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation is returned when request input is rejected
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrUpstream is returned when a third-party service answers with a non-success status
type ErrUpstream struct {
	Service string
	Status  int
	Body    string
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, e.Body)
}

// IsNotFound reports whether err (or anything it wraps) is an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// IsValidation reports whether err (or anything it wraps) is an ErrValidation
func IsValidation(err error) bool {
	var v *ErrValidation
	return errors.As(err, &v)
}
