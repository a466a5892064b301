package user

// User represents a user entity in the system.
type User struct {
	ID      int64  // ID is assigned by storage on insert; zero until persisted
	Name    string // Name is the user's given name
	Surname string // Surname is the user's family name
	Email   string // Email is unique across all persisted users
}

// Candidate is a user submitted for creation that has not been persisted yet.
type Candidate struct {
	Name    string
	Surname string
	Email   string
}

// ToUser converts the candidate into an unsaved User.
func (c Candidate) ToUser() *User {
	return &User{
		Name:    c.Name,
		Surname: c.Surname,
		Email:   c.Email,
	}
}
