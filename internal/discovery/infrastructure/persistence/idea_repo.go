// Package persistence provides postgres and sqlite idea repositories.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturebridge/venturebridge/internal/discovery/domain"
	shared "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

// PostgresIdeaRepository stores the idea catalog in postgres.
type PostgresIdeaRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresIdeaRepository(pool *pgxpool.Pool) *PostgresIdeaRepository {
	return &PostgresIdeaRepository{pool: pool}
}

func (r *PostgresIdeaRepository) Insert(ctx context.Context, idea *domain.Idea) error {
	query := `
		INSERT INTO ideas (id, proposer_id, title, summary, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		idea.ID, idea.ProposerID, idea.Title, idea.Summary, idea.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting idea %s: %w", idea.ID, err)
	}
	return nil
}

func (r *PostgresIdeaRepository) ListAll(ctx context.Context) ([]*domain.Idea, error) {
	query := `SELECT id, proposer_id, title, summary, created_at FROM ideas ORDER BY created_at, id`

	rows, err := shared.Executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	var ideas []*domain.Idea
	for rows.Next() {
		idea := &domain.Idea{}
		if err := rows.Scan(&idea.ID, &idea.ProposerID, &idea.Title, &idea.Summary, &idea.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// SQLiteIdeaRepository stores the idea catalog in SQLite.
type SQLiteIdeaRepository struct {
	db *sql.DB
}

func NewSQLiteIdeaRepository(db *sql.DB) *SQLiteIdeaRepository {
	return &SQLiteIdeaRepository{db: db}
}

type sqliteExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *SQLiteIdeaRepository) getDB(ctx context.Context) sqliteExecutor {
	if info, ok := shared.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.db
}

func (r *SQLiteIdeaRepository) Insert(ctx context.Context, idea *domain.Idea) error {
	query := `
		INSERT INTO ideas (id, proposer_id, title, summary, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.getDB(ctx).ExecContext(ctx, query,
		idea.ID.String(), idea.ProposerID.String(), idea.Title, idea.Summary,
		idea.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting idea %s: %w", idea.ID, err)
	}
	return nil
}

func (r *SQLiteIdeaRepository) ListAll(ctx context.Context) ([]*domain.Idea, error) {
	query := `SELECT id, proposer_id, title, summary, created_at FROM ideas ORDER BY created_at, id`

	rows, err := r.getDB(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing ideas: %w", err)
	}
	defer rows.Close()

	var ideas []*domain.Idea
	for rows.Next() {
		var idStr, proposerStr, title, summary, createdStr string
		if err := rows.Scan(&idStr, &proposerStr, &title, &summary, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning idea: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing idea id: %w", err)
		}
		proposerID, err := uuid.Parse(proposerStr)
		if err != nil {
			return nil, fmt.Errorf("parsing proposer id: %w", err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		ideas = append(ideas, &domain.Idea{
			ID: id, ProposerID: proposerID, Title: title, Summary: summary, CreatedAt: createdAt,
		})
	}
	return ideas, rows.Err()
}
