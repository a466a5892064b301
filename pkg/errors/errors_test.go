package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("Validation error", "Duplicate email in request: a@example.com")

	assert.Equal(t, "Validation error: Duplicate email in request: a@example.com", err.Error())
	assert.Equal(t, codes.InvalidArgument, err.GRPCStatus().Code())
}

func TestConflictError(t *testing.T) {
	err := NewConflictError("Email already exists",
		"Email already exists: a@example.com",
		"Email already exists: b@example.com",
	)

	assert.Contains(t, err.Error(), "a@example.com; Email already exists: b@example.com")
	assert.Equal(t, codes.AlreadyExists, err.GRPCStatus().Code())
}

func TestNotFoundError(t *testing.T) {
	t.Run("with message", func(t *testing.T) {
		err := NewNotFoundError("user", 7, "User 7 not found")
		assert.Equal(t, "User 7 not found", err.Error())
		assert.Equal(t, codes.NotFound, err.GRPCStatus().Code())
	})

	t.Run("without message", func(t *testing.T) {
		err := NewNotFoundError("user", 7, "")
		assert.Equal(t, "user 7 not found", err.Error())
	})
}

func TestPersistenceError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("wrapped: %w", NewPersistenceError("Error creating users", cause))

	var pe *PersistenceError
	assert.True(t, stderrors.As(err, &pe))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Error creating users: connection reset", pe.Error())
	assert.Equal(t, codes.Internal, pe.GRPCStatus().Code())
}
