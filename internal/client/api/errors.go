package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the backend answers 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict is returned when the backend answers 409.
	ErrConflict = errors.New("conflict")
)

// StatusError is any other non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Body)
}
