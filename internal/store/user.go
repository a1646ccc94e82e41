package store

import (
	"context"
	"database/sql"

	"github.com/portfolio-cms/apiserver/types"
)

const userColumns = `id, username, email, role, password_hash, refresh_token_hash, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var refreshHash sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
		&user.PasswordHash,
		&refreshHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	user.RefreshTokenHash = refreshHash.String
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id), scanUser)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, email), scanUser)
}

func (r *UserRepository) GetByRefreshTokenHash(ctx context.Context, hash string) (types.User, error) {
	if hash == "" {
		return types.User{}, ErrNotFound
	}
	const query = `SELECT ` + userColumns + ` FROM users WHERE refresh_token_hash = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, hash), scanUser)
}

// Create inserts a user. A duplicate email yields ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (username, email, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.Role, user.PasswordHash)
	return scanOne(row, scanUser)
}

// SetRefreshTokenHash overwrites whatever refresh token the user held.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id int, hash string) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = $1, ` + touchUpdatedAt + `
		WHERE id = $2`
	return r.execOne(ctx, query, hash, id)
}

// RotateRefreshTokenHash swaps oldHash for newHash only if oldHash is still
// the stored value, so a refresh token can be redeemed at most once.
func (r *UserRepository) RotateRefreshTokenHash(ctx context.Context, id int, oldHash, newHash string) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = $1, ` + touchUpdatedAt + `
		WHERE id = $2 AND refresh_token_hash = $3`
	return r.execOne(ctx, query, newHash, id, oldHash)
}

func (r *UserRepository) ClearRefreshTokenHash(ctx context.Context, id int) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = NULL, ` + touchUpdatedAt + `
		WHERE id = $1`
	return r.execOne(ctx, query, id)
}

// UpdatePasswordHash replaces the password and revokes the refresh token.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	const query = `
		UPDATE users
		SET password_hash = $1, refresh_token_hash = NULL, ` + touchUpdatedAt + `
		WHERE id = $2`
	return r.execOne(ctx, query, hash, id)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
