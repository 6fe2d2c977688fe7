package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrModNotFound    = fmt.Errorf("mod %w", ErrNotFound)
	ErrPresetNotFound = fmt.Errorf("preset %w", ErrNotFound)
	ErrBusy           = errors.New("operation already in progress")
	ErrValidation     = errors.New("validation failed")
	ErrGateway        = errors.New("gateway request failed")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrDuplicateID    = errors.New("duplicate id")
)

// ValidationError reports caller input rejected before any remote call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// GatewayError wraps a failed Remote Gateway call. Message is meant for display.
type GatewayError struct {
	Op      string
	Message string
	Err     error
}

// NewGatewayError wraps err as a failure of the named gateway operation.
func NewGatewayError(op string, err error) *GatewayError {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &GatewayError{Op: op, Message: msg, Err: err}
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrGateway) match any GatewayError.
func (e *GatewayError) Is(target error) bool {
	return target == ErrGateway
}
