package user

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	domain "users-service/internal/domain/user"
	pkgerrors "users-service/pkg/errors"

	"github.com/go-playground/validator/v10"
)

const (
	msgValidationError   = "Validation error"
	msgEmailExists       = "Email already exists"
	msgCreateFailed      = "Error creating users"
	msgListFailed        = "Error listing users"
	msgDeleteFailed      = "Error deleting user"
	msgConcurrentCollide = "Email already exists: a concurrent request created one of the submitted emails"
)

// Repository defines the data access operations available to the usecase.
// Inside Store.WithinTx the same interface is bound to the open transaction.
type Repository interface {
	domain.EmailCounter
	CreateBatch(ctx context.Context, users []*domain.User) error // Insert users and assign their IDs
	GetByID(ctx context.Context, id int64) (*domain.User, error)  // Returns nil, nil when the user does not exist
	Delete(ctx context.Context, id int64) error                   // Delete user by ID
	List(ctx context.Context) ([]domain.User, error)              // List all users ordered by ID
}

// Store is a Repository that can open a scoped transaction. WithinTx commits
// when fn returns nil and rolls back otherwise; the connection is released
// on every path.
type Store interface {
	Repository
	WithinTx(ctx context.Context, fn func(tx Repository) error) error
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	store    Store               // Store for data access and transactions
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Usecase with the provided store and logger.
func New(s Store, log *zap.Logger) *Usecase {
	return &Usecase{store: s, log: log, validate: validator.New()}
}

// formatValidationError converts validator.ValidationErrors into a ValidationError
// carrying one human-readable message per failed field.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := fieldPath(e)
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			if e.Kind() == reflect.Slice {
				messages = append(messages, fmt.Sprintf("%s must contain at least %s item(s)", field, e.Param()))
			} else {
				messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
			}
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return pkgerrors.NewValidationError(msgValidationError, messages...)
}

// fieldPath drops the root struct name, turning
// "CreateUsersRequest.Users[1].Email" into "Users[1].Email".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// CreateUsers validates a batch and persists it atomically.
// Duplicate emails inside the batch are checked first, then collisions with
// persisted users; the insert only runs when both checks pass.
func (uc *Usecase) CreateUsers(ctx context.Context, in CreateUsersRequest) (*CreateUsersResponse, error) {
	uc.log.Info("creating users", zap.Int("count", len(in.Users)))

	if err := uc.validate.Struct(in); err != nil {
		uc.log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	candidates := make([]domain.Candidate, len(in.Users))
	for i, u := range in.Users {
		candidates[i] = domain.Candidate{Name: u.Name, Surname: u.Surname, Email: u.Email}
	}

	if dups := domain.ValidateUniqueEmails(candidates); len(dups) > 0 {
		uc.log.Warn("duplicate emails in request", zap.Strings("errors", dups))
		return nil, pkgerrors.NewValidationError(msgValidationError, dups...)
	}

	var created []*domain.User
	err := uc.store.WithinTx(ctx, func(tx Repository) error {
		collisions, err := uc.collisions(ctx, tx, candidates)
		if err != nil {
			return err
		}
		if len(collisions) > 0 {
			return pkgerrors.NewConflictError(msgEmailExists, collisions...)
		}

		users := make([]*domain.User, len(candidates))
		for i, c := range candidates {
			users[i] = c.ToUser()
		}
		if err := tx.CreateBatch(ctx, users); err != nil {
			return err
		}
		created = users
		return nil
	})
	if err != nil {
		return nil, uc.createError(ctx, candidates, err)
	}

	resp := &CreateUsersResponse{
		Message: fmt.Sprintf("Successfully created %d users", len(created)),
		Users:   make([]User, len(created)),
	}
	for i, u := range created {
		resp.Users[i] = toDTO(*u)
	}

	uc.log.Info("users created", zap.Int("count", len(created)))
	return resp, nil
}

// collisions returns one message per candidate whose email is already persisted.
func (uc *Usecase) collisions(ctx context.Context, r Repository, candidates []domain.Candidate) ([]string, error) {
	var msgs []string
	for _, c := range candidates {
		exists, err := domain.EmailExists(ctx, r, c.Email, nil)
		if err != nil {
			uc.log.Error("failed to check existing email", zap.String("email", c.Email), zap.Error(err))
			return nil, err
		}
		if exists {
			uc.log.Warn("email already exists", zap.String("email", c.Email))
			msgs = append(msgs, domain.EmailExistsMessage(c.Email))
		}
	}
	return msgs, nil
}

// createError maps a failed create transaction onto the error taxonomy.
// A unique violation means a concurrent request won the race after our
// pre-check; it is reported as a conflict, never as an internal error.
func (uc *Usecase) createError(ctx context.Context, candidates []domain.Candidate, err error) error {
	var conflict *pkgerrors.ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}

	if errors.Is(err, domain.ErrEmailTaken) {
		uc.log.Warn("unique email constraint rejected batch", zap.Error(err))
		collisions, lookupErr := uc.collisions(ctx, uc.store, candidates)
		if lookupErr != nil || len(collisions) == 0 {
			return pkgerrors.NewConflictError(msgEmailExists, msgConcurrentCollide)
		}
		return pkgerrors.NewConflictError(msgEmailExists, collisions...)
	}

	uc.log.Error("failed to create users", zap.Error(err))
	return pkgerrors.NewPersistenceError(msgCreateFailed, err)
}

// ListUsers retrieves every persisted user ordered by ID.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	uc.log.Info("listing users")

	domainUsers, err := uc.store.List(ctx)
	if err != nil {
		uc.log.Error("failed to list users", zap.Error(err))
		return nil, pkgerrors.NewPersistenceError(msgListFailed, err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = toDTO(du)
	}

	return &ListUsersResponse{
		Users: users,
	}, nil
}

// DeleteUser removes a user by ID and reports the deleted email.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	uc.log.Info("deleting user", zap.Int64("id", in.ID))

	notFound := pkgerrors.NewNotFoundError("user", in.ID, fmt.Sprintf("User %d not found", in.ID))
	if in.ID <= 0 {
		uc.log.Warn("delete user validation failed", zap.Int64("id", in.ID), zap.String("reason", "invalid id"))
		return nil, notFound
	}

	var deleted *domain.User
	err := uc.store.WithinTx(ctx, func(tx Repository) error {
		u, err := tx.GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return notFound
		}
		if err := tx.Delete(ctx, in.ID); err != nil {
			// a concurrent delete removed the row after it was read
			if errors.Is(err, domain.ErrNotFound) {
				return notFound
			}
			return err
		}
		deleted = u
		return nil
	})
	if err != nil {
		var nf *pkgerrors.NotFoundError
		if errors.As(err, &nf) {
			uc.log.Warn("user not found", zap.Int64("id", in.ID))
			return nil, nf
		}
		uc.log.Error("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, pkgerrors.NewPersistenceError(msgDeleteFailed, err)
	}

	return &DeleteUserResponse{
		ID:      deleted.ID,
		Email:   deleted.Email,
		Message: fmt.Sprintf("User %s deleted successfully", deleted.Email),
	}, nil
}

func toDTO(u domain.User) User {
	return User{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
	}
}
