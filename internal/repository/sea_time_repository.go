package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
)

// SeaTimeRepository persists sea-time entries.
type SeaTimeRepository interface {
	Create(ctx context.Context, entry *domain.SeaTimeEntry) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SeaTimeEntry, error)
}

type seaTimeRepository struct {
	pool *pgxpool.Pool
}

// NewSeaTimeRepository instantiates repository.
func NewSeaTimeRepository(pool *pgxpool.Pool) SeaTimeRepository {
	return &seaTimeRepository{pool: pool}
}

func (r *seaTimeRepository) Create(ctx context.Context, entry *domain.SeaTimeEntry) error {
	const query = `
        INSERT INTO sea_time_entries (user_id, vessel_id, start_time, end_time, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.UserID,
		entry.VesselID,
		entry.StartTime,
		entry.EndTime,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *seaTimeRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.SeaTimeEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, user_id, vessel_id, start_time, end_time, notes, created_at
        FROM sea_time_entries WHERE user_id=$1
        ORDER BY start_time DESC
        LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SeaTimeEntry, error) {
		var e domain.SeaTimeEntry
		err := row.Scan(&e.ID, &e.UserID, &e.VesselID, &e.StartTime, &e.EndTime, &e.Notes, &e.CreatedAt)
		return e, err
	})
}
