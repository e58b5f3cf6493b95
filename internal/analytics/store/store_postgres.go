// Package store persists analytics events in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/UltraQuamfy/contentify/internal/analytics/models"
	txcontext "github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed analytics store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed analytics store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append records one analytics event. Joins the context transaction when
// present so issuance bookkeeping commits atomically.
func (s *PostgresStore) Append(ctx context.Context, event *models.Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	query := `
		INSERT INTO analytics (id, user_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		event.UserID.String(),
		event.EventType,
		nullJSON(event.Payload),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// CountByType returns the number of recorded events of one type.
func (s *PostgresStore) CountByType(ctx context.Context, eventType string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM analytics WHERE event_type = $1`
	if err := s.execer(ctx).QueryRowContext(ctx, query, eventType).Scan(&count); err != nil {
		return 0, fmt.Errorf("count analytics events: %w", err)
	}
	return count, nil
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
