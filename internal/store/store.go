package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool used by the repositories.
//
// Tests supply a scripted mock in its place.
type Pool interface {
	PgxPool
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

var _ Pool = (*pgxpool.Pool)(nil)

// Store aggregates repositories backed by PostgreSQL.
type Store struct {
	pool Pool

	Users       UserRepository
	HoursCache  HoursCache
	Credentials CredentialRepository
	Analytics   AnalyticsRepository
}

// New wires concrete repository implementations with a shared connection pool.
func New(pool Pool) *Store {
	return &Store{
		pool:        pool,
		Users:       &userRepo{pool: pool},
		HoursCache:  &hoursCacheRepo{pool: pool},
		Credentials: &credentialRepo{pool: pool},
		Analytics:   &analyticsRepo{pool: pool},
	}
}

// Migrate applies pending embedded migrations.
func (s *Store) Migrate(ctx context.Context) error {
	return ApplyMigrations(ctx, s.pool)
}

// HealthCheck verifies that the underlying database is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	defer observeDB(ctx, "db.healthcheck")()
	return s.pool.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
