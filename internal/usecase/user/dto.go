package user

// CreateUserInput is one entry of a bulk create request.
type CreateUserInput struct {
	Name    string `validate:"required"`
	Surname string `validate:"required"`
	Email   string `validate:"required"`
}

// CreateUsersRequest represents the request payload for creating a batch of users.
type CreateUsersRequest struct {
	Users []CreateUserInput `validate:"min=1,dive"`
}

// CreateUsersResponse pairs a summary message with the created users,
// in the same order as the request.
type CreateUsersResponse struct {
	Message string
	Users   []User
}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID      int64
	Email   string
	Message string
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID      int64
	Name    string
	Surname string
	Email   string
}
