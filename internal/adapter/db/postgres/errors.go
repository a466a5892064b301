package postgres

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"users-service/internal/domain/user"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// translateError maps a unique constraint violation onto user.ErrEmailTaken
// and returns any other error unchanged. Users have a single unique column, so
// every unique violation is an email collision.
func translateError(err error) error {
	if err == nil || errors.Is(err, user.ErrEmailTaken) {
		return err
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", user.ErrEmailTaken, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// pgx exposes *pgconn.PgError with SQLState().
	type sqlStater interface{ SQLState() string }
	var pgErr sqlStater
	if errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolation {
		return true
	}

	// The SQLite driver only reports constraint failures in the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
