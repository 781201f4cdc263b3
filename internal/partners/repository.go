package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/compass-mel/compass-mel/internal/platform/db"
	"github.com/compass-mel/compass-mel/internal/shared"
)

// Repository defines persistence for partner reference data.
type Repository interface {
	List(ctx context.Context) ([]Partner, error)
	Get(ctx context.Context, id int64) (Partner, error)
	Create(ctx context.Context, partner Partner) (Partner, error)
	GetCenter(ctx context.Context, id int64) (Center, error)
	ListCenters(ctx context.Context, partnerID int64) ([]Center, error)
	CreateCenter(ctx context.Context, center Center) (Center, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns all partners ordered by code.
func (r *PGRepository) List(ctx context.Context) ([]Partner, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, country, is_active, created_at, updated_at FROM partners ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Country, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Get fetches a partner by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Partner, error) {
	var p Partner
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, country, is_active, created_at, updated_at FROM partners WHERE id = $1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Country, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, fmt.Errorf("partners: partner %d: %w", id, shared.ErrNotFound)
		}
		return Partner{}, err
	}
	return p, nil
}

// Create inserts a partner.
func (r *PGRepository) Create(ctx context.Context, partner Partner) (Partner, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO partners (code, name, country, is_active) VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`,
		partner.Code, partner.Name, partner.Country, partner.IsActive).
		Scan(&partner.ID, &partner.CreatedAt, &partner.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "partners_code_key") {
			return Partner{}, fmt.Errorf("partners: code %s taken: %w", partner.Code, shared.ErrAlreadyExists)
		}
		return Partner{}, err
	}
	return partner, nil
}

// GetCenter fetches a center by id.
func (r *PGRepository) GetCenter(ctx context.Context, id int64) (Center, error) {
	var c Center
	err := r.pool.QueryRow(ctx, `SELECT id, partner_id, name, city, is_active, created_at, updated_at FROM centers WHERE id = $1`, id).
		Scan(&c.ID, &c.PartnerID, &c.Name, &c.City, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Center{}, fmt.Errorf("partners: center %d: %w", id, shared.ErrNotFound)
		}
		return Center{}, err
	}
	return c, nil
}

// ListCenters returns the centers of a partner.
func (r *PGRepository) ListCenters(ctx context.Context, partnerID int64) ([]Center, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, partner_id, name, city, is_active, created_at, updated_at FROM centers WHERE partner_id = $1 ORDER BY name`, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Center
	for rows.Next() {
		var c Center
		if err := rows.Scan(&c.ID, &c.PartnerID, &c.Name, &c.City, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CreateCenter inserts a center.
func (r *PGRepository) CreateCenter(ctx context.Context, center Center) (Center, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO centers (partner_id, name, city, is_active) VALUES ($1, $2, $3, $4)
RETURNING id, created_at, updated_at`,
		center.PartnerID, center.Name, center.City, center.IsActive).
		Scan(&center.ID, &center.CreatedAt, &center.UpdatedAt)
	if err != nil {
		return Center{}, err
	}
	return center, nil
}

var _ Repository = (*PGRepository)(nil)
