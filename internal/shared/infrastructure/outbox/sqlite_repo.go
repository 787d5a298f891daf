package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	sharedPersistence "github.com/venturebridge/venturebridge/internal/shared/infrastructure/persistence"
)

const sqliteInsertQuery = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

type sqliteExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *SQLiteRepository) getDB(ctx context.Context) sqliteExecutor {
	if info, ok := sharedPersistence.SQLiteTxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return r.db
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	db := r.getDB(ctx)

	var nextRetryAt sql.NullString
	if msg.NextRetryAt != nil {
		nextRetryAt = sql.NullString{String: msg.NextRetryAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	result, err := db.ExecContext(ctx, sqliteInsertQuery,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		string(msg.Metadata),
		msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		nextRetryAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

// SaveBatch stores multiple outbox messages sequentially. Callers run this
// inside a unit of work when atomicity matters.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	for _, msg := range msgs {
		if err := r.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// GetUnpublished retrieves unpublished, non-dead messages due for delivery.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	db := r.getDB(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	rows, err := db.QueryContext(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at,
		       retry_count, last_error, dead_lettered_at, dead_letter_reason
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	db := r.getDB(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.ExecContext(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, now, id)
	return err
}

// MarkFailed records a publish failure and schedules the next retry.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	db := r.getDB(ctx)
	_, err := db.ExecContext(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?
	`, errMsg, nextRetryAt.UTC().Format(time.RFC3339Nano), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	db := r.getDB(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.ExecContext(ctx, `
		UPDATE outbox
		SET dead_lettered_at = ?, dead_letter_reason = ?,
		    retry_count = retry_count + 1, last_error = ?
		WHERE id = ?
	`, now, reason, reason, id)
	return err
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	db := r.getDB(ctx)
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339Nano)
	result, err := db.ExecContext(ctx, `
		DELETE FROM outbox
		WHERE published_at IS NOT NULL AND published_at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSQLiteMessage(rows *sql.Rows) (*Message, error) {
	var (
		msg              Message
		eventID          string
		aggregateID      string
		payload          string
		metadata         string
		createdAt        string
		publishedAt      sql.NullString
		nextRetryAt      sql.NullString
		lastError        sql.NullString
		deadLetteredAt   sql.NullString
		deadLetterReason sql.NullString
	)

	err := rows.Scan(
		&msg.ID,
		&eventID,
		&msg.AggregateType,
		&aggregateID,
		&msg.EventType,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&createdAt,
		&publishedAt,
		&nextRetryAt,
		&msg.RetryCount,
		&lastError,
		&deadLetteredAt,
		&deadLetterReason,
	)
	if err != nil {
		return nil, err
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, err
	}
	msg.Payload = []byte(payload)
	msg.Metadata = []byte(metadata)
	if msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, err
	}

	parseOptional := func(v sql.NullString) (*time.Time, error) {
		if !v.Valid {
			return nil, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, v.String)
		if err != nil {
			return nil, err
		}
		return &ts, nil
	}

	if msg.PublishedAt, err = parseOptional(publishedAt); err != nil {
		return nil, err
	}
	if msg.NextRetryAt, err = parseOptional(nextRetryAt); err != nil {
		return nil, err
	}
	if msg.DeadLetteredAt, err = parseOptional(deadLetteredAt); err != nil {
		return nil, err
	}
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadLetterReason.Valid {
		msg.DeadLetterReason = &deadLetterReason.String
	}

	return &msg, nil
}
