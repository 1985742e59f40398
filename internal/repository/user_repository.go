package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forelandmarine/sea-time-tracker/internal/domain"
	"github.com/forelandmarine/sea-time-tracker/pkg/subscription"
)

// UserRepository defines persistence access for mariner accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SubscriptionReader loads the raw subscription fields of a user. A missing
// user is reported as pgx.ErrNoRows.
type SubscriptionReader interface {
	GetSubscription(ctx context.Context, userID string) (*subscription.Record, error)
}

// UserStore is the full user persistence surface backed by Postgres.
type UserStore interface {
	UserRepository
	SubscriptionReader
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserStore {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, subscription_status, subscription_expires_at,
               trial_ends_at, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanUser(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, password_hash, subscription_status, subscription_expires_at,
               trial_ends_at, created_at, updated_at
        FROM users WHERE email=$1`

	return r.scanUser(ctx, query, email)
}

func (r *userRepository) GetSubscription(ctx context.Context, userID string) (*subscription.Record, error) {
	const query = `
        SELECT subscription_status, subscription_expires_at, trial_ends_at
        FROM users WHERE id=$1`

	var (
		status *string
		rec    subscription.Record
	)
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&status, &rec.ExpiresAt, &rec.TrialEndsAt); err != nil {
		return nil, err
	}
	if status != nil {
		rec.Status = *status
	}
	return &rec, nil
}

func (r *userRepository) scanUser(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.SubscriptionStatus,
		&user.SubscriptionExpiresAt,
		&user.TrialEndsAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
