package user

import "context"

// UserUsecase defines the interface for user business logic operations.
type UserUsecase interface {
	CreateUsers(ctx context.Context, in CreateUsersRequest) (*CreateUsersResponse, error)
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
}
