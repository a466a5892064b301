package handler

import (
	"errors"
	"net/http"
	"strconv"

	"users-service/internal/usecase/user"
	pkgerrors "users-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.UserUsecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.UserUsecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest is one element of the POST /users/user body
type CreateUserRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// CreateUsersResponse represents the HTTP response for a bulk create
type CreateUsersResponse struct {
	Message string         `json:"message"`
	Users   []UserResponse `json:"users"`
}

// MessageResponse carries a single human-readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// CreateUsers handles POST /users/user
func (h *UserHandler) CreateUsers(c *gin.Context) {
	var req []CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create users request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Gin CreateUsers request", zap.Int("count", len(req)))

	ucReq := user.CreateUsersRequest{Users: make([]user.CreateUserInput, len(req))}
	for i, r := range req {
		ucReq.Users[i] = user.CreateUserInput{
			Name:    r.Name,
			Surname: r.Surname,
			Email:   r.Email,
		}
	}

	resp, err := h.uc.CreateUsers(c.Request.Context(), ucReq)
	if err != nil {
		h.log.Warn("Gin CreateUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateUsersResponse{
		Message: resp.Message,
		Users:   toResponses(resp.Users),
	})
}

// ListUsers handles GET /users/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.log.Info("Gin ListUsers request")

	resp, err := h.uc.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error("Gin ListUsers failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toResponses(resp.Users))
}

// DeleteUser handles DELETE /users/user/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.log.Warn("Invalid user ID", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "User ID must be a valid number",
		})
		return
	}

	h.log.Info("Gin DeleteUser request", zap.Int64("id", id))

	resp, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id})
	if err != nil {
		h.log.Warn("Gin DeleteUser failed", zap.Error(err))
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: resp.Message})
}

// handleError converts usecase errors to appropriate HTTP responses
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var (
		validationErr  *pkgerrors.ValidationError
		conflictErr    *pkgerrors.ConflictError
		notFoundErr    *pkgerrors.NotFoundError
		persistenceErr *pkgerrors.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Message,
			Errors:  validationErr.Errors,
		})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "already_exists",
			Message: conflictErr.Message,
			Errors:  conflictErr.Errors,
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: notFoundErr.Error(),
		})
	case errors.As(err, &persistenceErr):
		h.log.Error("persistence failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: persistenceErr.Error(),
		})
	default:
		h.log.Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func toResponses(users []user.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = UserResponse{
			ID:      u.ID,
			Name:    u.Name,
			Surname: u.Surname,
			Email:   u.Email,
		}
	}
	return out
}
