package errors

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ValidationError reports a request that is malformed or internally
// inconsistent, such as an email repeated inside one batch.
type ValidationError struct {
	Message string
	Errors  []string
}

// NewValidationError creates a new validation error
func NewValidationError(message string, errs ...string) *ValidationError {
	return &ValidationError{
		Message: message,
		Errors:  errs,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return joinDetails(e.Message, e.Errors)
}

// GRPCStatus returns the gRPC status for this error
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// ConflictError reports emails that collide with rows already persisted.
type ConflictError struct {
	Message string
	Errors  []string
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, errs ...string) *ConflictError {
	return &ConflictError{
		Message: message,
		Errors:  errs,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return joinDetails(e.Message, e.Errors)
}

// GRPCStatus returns the gRPC status for this error
func (e *ConflictError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Error())
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       int64
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, id int64, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// GRPCStatus returns the gRPC status for this error
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// PersistenceError represents a failure of the storage layer. The
// transaction it happened in has already been rolled back.
type PersistenceError struct {
	Message string
	Err     error
}

// NewPersistenceError creates a new persistence error
func NewPersistenceError(message string, err error) *PersistenceError {
	return &PersistenceError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// GRPCStatus returns the gRPC status for this error
func (e *PersistenceError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Error())
}

// GRPCStatuser interface for errors that can provide gRPC status
type GRPCStatuser interface {
	GRPCStatus() *status.Status
}

func joinDetails(message string, details []string) string {
	if len(details) == 0 {
		return message
	}
	return fmt.Sprintf("%s: %s", message, strings.Join(details, "; "))
}
