package repository

import (
	"context"
	"errors"
	"fmt"

	"contact_book/internal/model"

	"github.com/jackc/pgx/v5"
)

// ErrDuplicateUsername signals that the username unique constraint rejected
// an insert.
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository defines operations for user accounts and profiles
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindProfile(ctx context.Context, id int64) (*model.User, error)
	UpdateProfileWithPhones(ctx context.Context, user *model.User, phones []string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	sql := `INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, sql, user.Username, user.PasswordHash, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user by username, credentials included
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`
	err := r.db.QueryRow(ctx, sql, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found is not an error for this method's contract, service layer handles it
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

// FindProfile retrieves the user's profile with its phones in insertion
// order. Returns (nil, nil) when the user does not exist.
func (r *userRepository) FindProfile(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	sql := `SELECT id, username, role, full_name, email, avatar_url, bio, created_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&user.ID, &user.Username, &user.Role, &user.FullName,
		&user.Email, &user.AvatarURL, &user.Bio, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to find user profile: %w", err)
	}

	phones, err := userPhones.forOwner(ctx, r.db, user.ID, user.ID)
	if err != nil {
		return nil, err
	}
	user.Phones = phones
	return user, nil
}

// UpdateProfileWithPhones replaces the user's profile attributes and the
// entire personal phone collection atomically. Returns ErrNotFound when the
// user row is gone.
func (r *userRepository) UpdateProfileWithPhones(ctx context.Context, user *model.User, phones []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	sql := `UPDATE users SET full_name = $1, email = $2, avatar_url = $3, bio = $4 WHERE id = $5`
	cmdTag, err := tx.Exec(ctx, sql, user.FullName, user.Email, user.AvatarURL, user.Bio, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := userPhones.replaceAll(ctx, tx, user.ID, user.ID, phones); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit profile update: %w", err)
	}
	return nil
}
