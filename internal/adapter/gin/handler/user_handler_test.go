package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	usecase "users-service/internal/usecase/user"
	pkgerrors "users-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockUserUsecase is a mock implementation of user.UserUsecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUsers(ctx context.Context, req usecase.CreateUsersRequest) (*usecase.CreateUsersResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) ListUsers(ctx context.Context) (*usecase.ListUsersResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ListUsersResponse), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) (*usecase.DeleteUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DeleteUserResponse), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	handler := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/users/user", handler.CreateUsers)
	r.GET("/users/users", handler.ListUsers)
	r.DELETE("/users/user/:id", handler.DeleteUser)
	return r, mockUsecase
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCreateUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUsers", mock.Anything, usecase.CreateUsersRequest{Users: []usecase.CreateUserInput{
			{Name: "John", Surname: "Doe", Email: "john@example.com"},
		}}).Return(&usecase.CreateUsersResponse{
			Message: "Successfully created 1 users",
			Users:   []usecase.User{{ID: 1, Name: "John", Surname: "Doe", Email: "john@example.com"}},
		}, nil)

		w := serve(r, http.MethodPost, "/users/user", `[{"name":"John","surname":"Doe","email":"john@example.com"}]`)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp CreateUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Successfully created 1 users", resp.Message)
		assert.Equal(t, []UserResponse{{ID: 1, Name: "John", Surname: "Doe", Email: "john@example.com"}}, resp.Users)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Invalid Request Body", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := serve(r, http.MethodPost, "/users/user", "invalid json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w).Error)
		mockUsecase.AssertNotCalled(t, "CreateUsers", mock.Anything, mock.Anything)
	})

	t.Run("Object Instead Of Array", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := serve(r, http.MethodPost, "/users/user", `{"name":"John","surname":"Doe","email":"john@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUsecase.AssertNotCalled(t, "CreateUsers", mock.Anything, mock.Anything)
	})

	t.Run("Validation Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUsers", mock.Anything, mock.Anything).Return(nil,
			pkgerrors.NewValidationError("Validation error", "Duplicate email in request: a@example.com"))

		w := serve(r, http.MethodPost, "/users/user", `[{"name":"A","surname":"A","email":"a@example.com"},{"name":"B","surname":"B","email":"a@example.com"}]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeError(t, w)
		assert.Equal(t, "validation_error", resp.Error)
		assert.Equal(t, "Validation error", resp.Message)
		assert.Equal(t, []string{"Duplicate email in request: a@example.com"}, resp.Errors)
	})

	t.Run("Conflict Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUsers", mock.Anything, mock.Anything).Return(nil,
			pkgerrors.NewConflictError("Email already exists", "Email already exists: a@example.com"))

		w := serve(r, http.MethodPost, "/users/user", `[{"name":"A","surname":"A","email":"a@example.com"}]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeError(t, w)
		assert.Equal(t, "already_exists", resp.Error)
		assert.Equal(t, "Email already exists", resp.Message)
		assert.Equal(t, []string{"Email already exists: a@example.com"}, resp.Errors)
	})

	t.Run("Persistence Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("CreateUsers", mock.Anything, mock.Anything).Return(nil,
			pkgerrors.NewPersistenceError("Error creating users", errors.New("connection reset")))

		w := serve(r, http.MethodPost, "/users/user", `[{"name":"A","surname":"A","email":"a@example.com"}]`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		resp := decodeError(t, w)
		assert.Equal(t, "internal_error", resp.Error)
		assert.Equal(t, "Error creating users: connection reset", resp.Message)
	})
}

func TestListUsers(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{Users: []usecase.User{
			{ID: 1, Name: "John", Surname: "Doe", Email: "john@example.com"},
			{ID: 2, Name: "Jane", Surname: "Roe", Email: "jane@example.com"},
		}}, nil)

		w := serve(r, http.MethodGet, "/users/users", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp []UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, int64(1), resp[0].ID)
		assert.Equal(t, "jane@example.com", resp[1].Email)
	})

	t.Run("Empty", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(&usecase.ListUsersResponse{}, nil)

		w := serve(r, http.MethodGet, "/users/users", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("Untyped Error", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("ListUsers", mock.Anything).Return(nil, errors.New("boom"))

		w := serve(r, http.MethodGet, "/users/users", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "An internal error occurred", decodeError(t, w).Message)
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 1}).Return(&usecase.DeleteUserResponse{
			ID:      1,
			Email:   "john@example.com",
			Message: "User john@example.com deleted successfully",
		}, nil)

		w := serve(r, http.MethodDelete, "/users/user/1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User john@example.com deleted successfully"}`, w.Body.String())
	})

	t.Run("Not Found", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 999}).Return(nil,
			pkgerrors.NewNotFoundError("user", 999, "User 999 not found"))

		w := serve(r, http.MethodDelete, "/users/user/999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		resp := decodeError(t, w)
		assert.Equal(t, "not_found", resp.Error)
		assert.Equal(t, "User 999 not found", resp.Message)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := serve(r, http.MethodDelete, "/users/user/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_id", decodeError(t, w).Error)
		mockUsecase.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})
}
