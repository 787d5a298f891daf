package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

// SQLiteConnectionRepository implements domain.ConnectionRepository on SQLite.
type SQLiteConnectionRepository struct {
	db *sql.DB
}

func NewSQLiteConnectionRepository(db *sql.DB) *SQLiteConnectionRepository {
	return &SQLiteConnectionRepository{db: db}
}

func (r *SQLiteConnectionRepository) Insert(ctx context.Context, conn *domain.Connection) error {
	query := `
		INSERT INTO connections (id, user_a_id, user_b_id, created_at)
		VALUES (?, ?, ?, ?)`

	_, err := sqliteDB(ctx, r.db).ExecContext(ctx, query,
		conn.ID.String(), conn.UserA.String(), conn.UserB.String(),
		conn.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if sharedPersistence.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("inserting connection %s: %w", conn.ID, err)
	}
	return nil
}

func (r *SQLiteConnectionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Connection, error) {
	query := `
		SELECT id, user_a_id, user_b_id, created_at
		FROM connections
		WHERE user_a_id = ? OR user_b_id = ?
		ORDER BY created_at DESC`

	rows, err := sqliteDB(ctx, r.db).QueryContext(ctx, query, userID.String(), userID.String())
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}
	defer rows.Close()

	var conns []*domain.Connection
	for rows.Next() {
		var idStr, aStr, bStr, createdStr string
		if err := rows.Scan(&idStr, &aStr, &bStr, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing connection id: %w", err)
		}
		userA, err := uuid.Parse(aStr)
		if err != nil {
			return nil, fmt.Errorf("parsing user id: %w", err)
		}
		userB, err := uuid.Parse(bStr)
		if err != nil {
			return nil, fmt.Errorf("parsing user id: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		conns = append(conns, &domain.Connection{ID: id, UserA: userA, UserB: userB, CreatedAt: createdAt})
	}
	return conns, rows.Err()
}

func (r *SQLiteConnectionRepository) Exists(ctx context.Context, first, second uuid.UUID) (bool, error) {
	a, b := domain.NormalizePair(first, second)
	query := `SELECT EXISTS (SELECT 1 FROM connections WHERE user_a_id = ? AND user_b_id = ?)`

	var exists bool
	if err := sqliteDB(ctx, r.db).QueryRowContext(ctx, query, a.String(), b.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking connection existence: %w", err)
	}
	return exists, nil
}
