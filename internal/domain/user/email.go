package user

import (
	"context"
	"errors"
	"fmt"
)

// EmailCounter counts persisted users holding an email. When excludeID is
// set, the row with that id is not counted.
type EmailCounter interface {
	CountByEmail(ctx context.Context, email string, excludeID *int64) (int64, error)
}

// DuplicateEmailMessage formats the batch-duplicate error for email.
func DuplicateEmailMessage(email string) string {
	return fmt.Sprintf("Duplicate email in request: %s", email)
}

// EmailExistsMessage formats the collision error for email.
func EmailExistsMessage(email string) string {
	return fmt.Sprintf("Email already exists: %s", email)
}

// ValidateUniqueEmails returns one message per distinct email that appears
// more than once in candidates, ordered by first occurrence. Emails are
// compared exactly (case-sensitive).
func ValidateUniqueEmails(candidates []Candidate) []string {
	counts := make(map[string]int, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if counts[c.Email] == 0 {
			order = append(order, c.Email)
		}
		counts[c.Email]++
	}

	var errs []string
	for _, email := range order {
		if counts[email] > 1 {
			errs = append(errs, DuplicateEmailMessage(email))
		}
	}
	return errs
}

// EmailExists reports whether a persisted user already has email.
// excludeID is reserved for an update path; pass nil to check every row.
func EmailExists(ctx context.Context, counter EmailCounter, email string, excludeID *int64) (bool, error) {
	n, err := counter.CountByEmail(ctx, email, excludeID)
	if err != nil {
		return false, fmt.Errorf("count users by email: %w", err)
	}
	return n > 0, nil
}

// ErrEmailTaken is returned by storage when an insert violates the unique
// email constraint.
var ErrEmailTaken = errors.New("email already taken")

// ErrNotFound is returned by storage when no row matches the requested id.
var ErrNotFound = errors.New("user not found")
