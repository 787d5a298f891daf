package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venturebridge/venturebridge/internal/connections/domain"
	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

type sqliteExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sqliteDB(ctx context.Context, db *sql.DB) sqliteExecutor {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return db
}

// SQLiteRequestRepository implements domain.RequestRepository on SQLite.
type SQLiteRequestRepository struct {
	db *sql.DB
}

func NewSQLiteRequestRepository(db *sql.DB) *SQLiteRequestRepository {
	return &SQLiteRequestRepository{db: db}
}

func (r *SQLiteRequestRepository) Insert(ctx context.Context, req *domain.ConnectionRequest) error {
	query := `
		INSERT INTO connection_requests (id, sender_id, receiver_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := sqliteDB(ctx, r.db).ExecContext(ctx, query,
		req.ID().String(), req.SenderID().String(), req.ReceiverID().String(), string(req.Status()),
		req.CreatedAt().UTC().Format(time.RFC3339Nano), req.UpdatedAt().UTC().Format(time.RFC3339Nano))
	if err != nil {
		if sharedPersistence.IsUniqueViolation(err) {
			return domain.ErrDuplicateRequest
		}
		return fmt.Errorf("inserting connection request %s: %w", req.ID(), err)
	}
	return nil
}

func (r *SQLiteRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM connection_requests WHERE id = ?`

	row := sqliteDB(ctx, r.db).QueryRowContext(ctx, query, id.String())
	req, err := scanSQLiteRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection request: %w", err)
	}
	return req, nil
}

func (r *SQLiteRequestRepository) UpdateStatus(ctx context.Context, req *domain.ConnectionRequest) error {
	query := `
		UPDATE connection_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`

	result, err := sqliteDB(ctx, r.db).ExecContext(ctx, query,
		string(req.Status()), req.UpdatedAt().UTC().Format(time.RFC3339Nano), req.ID().String())
	if err != nil {
		return fmt.Errorf("updating connection request %s: %w", req.ID(), err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyResolved
	}
	return nil
}

func (r *SQLiteRequestRepository) ListPendingForReceiver(ctx context.Context, receiverID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM connection_requests
		WHERE receiver_id = ? AND status = 'pending'
		ORDER BY created_at DESC`
	return r.list(ctx, query, receiverID.String())
}

func (r *SQLiteRequestRepository) ListSentBySender(ctx context.Context, senderID uuid.UUID) ([]*domain.ConnectionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM connection_requests
		WHERE sender_id = ?
		ORDER BY created_at DESC`
	return r.list(ctx, query, senderID.String())
}

func (r *SQLiteRequestRepository) list(ctx context.Context, query string, arg any) ([]*domain.ConnectionRequest, error) {
	rows, err := sqliteDB(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing connection requests: %w", err)
	}
	defer rows.Close()

	var reqs []*domain.ConnectionRequest
	for rows.Next() {
		req, err := scanSQLiteRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning connection request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func scanSQLiteRequest(scan func(dest ...any) error) (*domain.ConnectionRequest, error) {
	var idStr, senderStr, receiverStr, status, createdStr, updatedStr string
	if err := scan(&idStr, &senderStr, &receiverStr, &status, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing request id: %w", err)
	}
	senderID, err := uuid.Parse(senderStr)
	if err != nil {
		return nil, fmt.Errorf("parsing sender id: %w", err)
	}
	receiverID, err := uuid.Parse(receiverStr)
	if err != nil {
		return nil, fmt.Errorf("parsing receiver id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return domain.RehydrateConnectionRequest(
		id, senderID, receiverID,
		domain.RequestStatus(status), createdAt, updatedAt,
	), nil
}
