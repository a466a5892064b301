package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"users-service/internal/domain/user"
	usecase "users-service/internal/usecase/user"
)

// UserRepoPG implements usecase.Repository on top of a GORM handle. The handle
// is either the connection pool or an open transaction.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection or transaction
	log *zap.Logger // Structured logger for database operations
}

// Store is the pool-bound repository that also opens scoped transactions.
type Store struct {
	*UserRepoPG
}

// NewStore creates a new Store backed by db.
func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	return &Store{UserRepoPG: &UserRepoPG{db: db, log: log}}
}

var (
	_ usecase.Repository = (*UserRepoPG)(nil)
	_ usecase.Store      = (*Store)(nil)
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`                    // Unique identifier with auto-increment
	Name    string `gorm:"not null;index"`                              // Given name (required, indexed)
	Surname string `gorm:"not null;index"`                              // Family name (required, indexed)
	Email   string `gorm:"not null;uniqueIndex:idx_users_email_unique"` // Unique email address (required)
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// Migrate creates the users table and its indexes if they do not exist.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back when fn returns an error or panics; a panic is
// re-raised after the rollback.
func (s *Store) WithinTx(ctx context.Context, fn func(tx usecase.Repository) error) (err error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		s.log.Error("failed to begin transaction", zap.Error(tx.Error))
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
				s.log.Error("failed to roll back transaction", zap.Error(rbErr))
				err = fmt.Errorf("rollback failed (%v) after: %w", rbErr, err)
			}
		}
	}()

	if err = fn(&UserRepoPG{db: tx, log: s.log}); err != nil {
		return err
	}

	if err = tx.Commit().Error; err != nil {
		s.log.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", translateError(err))
	}
	return nil
}

// CountByEmail counts users holding email, ignoring excludeID when set.
func (r *UserRepoPG) CountByEmail(ctx context.Context, email string, excludeID *int64) (int64, error) {
	q := r.db.WithContext(ctx).Model(&UserSchema{}).Where("email = ?", email)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		r.log.Error("failed to count users by email", zap.Error(err), zap.String("email", email))
		return 0, fmt.Errorf("failed to count users by email: %w", err)
	}
	return n, nil
}

// CreateBatch inserts users in one statement and writes the assigned IDs back
// into the slice, preserving order.
func (r *UserRepoPG) CreateBatch(ctx context.Context, users []*user.User) error {
	if len(users) == 0 {
		return errors.New("users cannot be empty")
	}

	models := make([]UserSchema, len(users))
	for i, u := range users {
		if u == nil {
			return fmt.Errorf("user at index %d cannot be nil", i)
		}
		models[i] = UserSchema{
			Name:    u.Name,
			Surname: u.Surname,
			Email:   u.Email,
		}
	}

	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		r.log.Error("failed to create users in db", zap.Error(err), zap.Int("count", len(users)))
		return fmt.Errorf("failed to create users: %w", translateError(err))
	}

	for i := range models {
		users[i].ID = models[i].ID
	}

	r.log.Info("users created in db", zap.Int("count", len(users)))
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to delete user: id=%d: %w", id, user.ErrNotFound)
	}

	r.log.Info("user deleted in db", zap.Int64("id", id))
	return nil
}

// GetByID retrieves a user by ID. It returns nil, nil when no row matches.
func (r *UserRepoPG) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.Int64("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u := toDomain(model)
	return &u, nil
}

// List retrieves every user ordered by ID.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, model := range models {
		users[i] = toDomain(model)
	}

	return users, nil
}

func toDomain(m UserSchema) user.User {
	return user.User{
		ID:      m.ID,
		Name:    m.Name,
		Surname: m.Surname,
		Email:   m.Email,
	}
}
