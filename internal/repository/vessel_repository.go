package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
)

// VesselRepository encapsulates vessel persistence.
type VesselRepository interface {
	Create(ctx context.Context, vessel *domain.Vessel) error
	GetByID(ctx context.Context, id string) (*domain.Vessel, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Vessel, error)
	SetTracking(ctx context.Context, id string, active bool) error
	DeactivateTrackingForUser(ctx context.Context, userID string) (int64, error)
	ListUsersWithActiveTracking(ctx context.Context) ([]string, error)
}

type vesselRepository struct {
	pool *pgxpool.Pool
}

// NewVesselRepository instantiates repository.
func NewVesselRepository(pool *pgxpool.Pool) VesselRepository {
	return &vesselRepository{pool: pool}
}

func (r *vesselRepository) Create(ctx context.Context, vessel *domain.Vessel) error {
	const query = `
        INSERT INTO vessels (user_id, name, mmsi, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		vessel.UserID,
		vessel.Name,
		vessel.MMSI,
		vessel.IsActive,
	).Scan(&vessel.ID, &vessel.CreatedAt, &vessel.UpdatedAt)
}

func (r *vesselRepository) GetByID(ctx context.Context, id string) (*domain.Vessel, error) {
	const query = `
        SELECT id, user_id, name, mmsi, is_active, created_at, updated_at
        FROM vessels WHERE id=$1`
	var v domain.Vessel
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.UserID, &v.Name, &v.MMSI, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vesselRepository) ListByUser(ctx context.Context, userID string) ([]domain.Vessel, error) {
	const query = `
        SELECT id, user_id, name, mmsi, is_active, created_at, updated_at
        FROM vessels WHERE user_id=$1
        ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vessels []domain.Vessel
	for rows.Next() {
		var v domain.Vessel
		if err := rows.Scan(&v.ID, &v.UserID, &v.Name, &v.MMSI, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		vessels = append(vessels, v)
	}
	return vessels, rows.Err()
}

func (r *vesselRepository) SetTracking(ctx context.Context, id string, active bool) error {
	const query = `UPDATE vessels SET is_active=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vesselRepository) DeactivateTrackingForUser(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE vessels SET is_active=false, updated_at=NOW() WHERE user_id=$1 AND is_active`
	cmd, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *vesselRepository) ListUsersWithActiveTracking(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT user_id FROM vessels WHERE is_active ORDER BY user_id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
