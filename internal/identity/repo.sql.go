package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-mel/compass-mel/internal/platform/db"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

const userColumns = `id, email, full_name, password_hash, role, partner_id, center_id, is_active, is_verified, created_at, updated_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new account row.
func (r *PGRepository) Create(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (email, full_name, password_hash, role, partner_id, center_id, is_active, is_verified)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+userColumns,
		user.Email, user.FullName, user.PasswordHash, string(user.Role), user.PartnerID, user.CenterID, user.IsActive, user.IsVerified)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return User{}, fmt.Errorf("identity: email %s taken: %w", user.Email, shared.ErrAlreadyExists)
		}
		return User{}, err
	}
	return created, nil
}

// FindByID fetches an account by primary key.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("identity: user %d: %w", id, shared.ErrNotFound)
		}
		return User{}, err
	}
	return user, nil
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("identity: email: %w", shared.ErrNotFound)
		}
		return User{}, err
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.PartnerID, &u.CenterID, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	u.Role = shared.Role(role)
	return u, nil
}

var _ Repository = (*PGRepository)(nil)
