package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	shared "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

// PostgresConnectionRepository stores formed connections with the pair
// normalized, one row per linked pair.
type PostgresConnectionRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresConnectionRepository(pool *pgxpool.Pool) *PostgresConnectionRepository {
	return &PostgresConnectionRepository{pool: pool}
}

func (r *PostgresConnectionRepository) Insert(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (id, user_a_id, user_b_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_a_id, user_b_id) DO NOTHING`

	_, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		conn.ID, conn.UserA, conn.UserB, conn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting connection %s: %w", conn.ID, err)
	}
	return nil
}

func (r *PostgresConnectionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at
		FROM connections
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY created_at DESC`

	rows, err := shared.Executor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		var (
			id, userA, userB uuid.UUID
			createdAt        time.Time
		)
		if err := rows.Scan(&id, &userA, &userB, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		conns = append(conns, &domain.Connection{ID: id, UserA: userA, UserB: userB, CreatedAt: createdAt})
	}
	return conns, rows.Err()
}

func (r *PostgresConnectionRepository) Exists(ctx context.Context, first, second uuid.UUID) (bool, error) {
	a, b := domain.NormalizePair(first, second)
	query := `SELECT EXISTS (SELECT 1 FROM connections WHERE user_a_id = $1 AND user_b_id = $2)`

	var exists bool
	if err := shared.Executor(ctx, r.pool).QueryRow(ctx, query, a, b).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking connection existence: %w", err)
	}
	return exists, nil
}
