// Package persistence provides postgres repositories for the connections
// context.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	shared "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

const requestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

// PostgresRequestRepository stores connection requests. The partial
// unique index on (sender_id, receiver_id) WHERE status = 'pending'
// backs the one-pending-request-per-pair rule.
type PostgresRequestRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRequestRepository(pool *pgxpool.Pool) *PostgresRequestRepository {
	return &PostgresRequestRepository{pool: pool}
}

func (r *PostgresRequestRepository) Insert(ctx context.Context, req *domain.ConnectionRequest) error {
	query := `
		INSERT INTO connection_requests (id, sender_id, receiver_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		req.ID(), req.SenderID(), req.ReceiverID(), string(req.Status()),
		req.CreatedAt(), req.UpdatedAt())
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return fmt.Errorf("inserting connection request %s: %w", req.ID(), err)
	}
	return nil
}

func (r *PostgresRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM connection_requests WHERE id = $1`

	row := shared.Executor(ctx, r.pool).QueryRow(ctx, query, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection request: %w", err)
	}
	return req, nil
}

// UpdateStatus moves a request out of pending. The WHERE clause is the
// compare-and-set: a request some other transaction already resolved
// matches zero rows and the caller gets ErrAlreadyResolved.
func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, req *domain.ConnectionRequest) error {
	query := `
		UPDATE connection_requests
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'`

	tag, err := shared.Executor(ctx, r.pool).Exec(ctx, query,
		req.ID(), string(req.Status()), req.UpdatedAt())
	if err != nil {
		return fmt.Errorf("updating connection request %s: %w", req.ID(), err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}

func (r *PostgresRequestRepository) ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM connection_requests
		WHERE receiver_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`
	return r.list(ctx, query, receiverID)
}

func (r *PostgresRequestRepository) ListSentBySender(ctx context.Context, senderID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM connection_requests
		WHERE sender_id = $1
		ORDER BY created_at DESC`
	return r.list(ctx, query, senderID)
}

func (r *PostgresRequestRepository) list(ctx context.Context, query string, arg any) ([]*domain.ConnectionRequest, error) {
	rows, err := shared.Executor(ctx, r.pool).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing connection requests: %w", err)
	}
	defer rows.Close()

	var reqs []*domain.ConnectionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanRequest(row pgx.Row) (*domain.ConnectionRequest, error) {
	var (
		id, senderID, receiverID uuid.UUID
		status                   string
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(&id, &senderID, &receiverID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateConnectionRequest(
		id, senderID, receiverID,
		domain.RequestStatus(status), createdAt, updatedAt,
	), nil
}
