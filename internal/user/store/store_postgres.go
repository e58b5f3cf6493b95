// Package store persists user accounts in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
	txcontext "github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed user store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
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

const userColumns = `id, email, api_key, cheqd_api_key_hash, cheqd_api_key_hint,
	subscription_tier, credits_remaining, created_at, updated_at`

// FindByAPIKey looks up a user by their access token.
func (s *PostgresStore) FindByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE api_key = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, apiKey)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user by api key: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find user by api key: %w", err)
	}
	return user, nil
}

// Create inserts a new user row. A duplicate api_key reports
// sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	query := `
		INSERT INTO users (id, email, api_key, cheqd_api_key_hash, cheqd_api_key_hint,
			subscription_tier, credits_remaining, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(user.ID),
		nullString(user.Email),
		user.APIKey,
		nullString(user.CheqdAPIKeyHash),
		nullString(user.CheqdAPIKeyHint),
		user.SubscriptionTier,
		user.CreditsRemaining,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("user api key already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// DecrementCredits spends one issuance credit. The floor expression keeps
// the balance at zero under concurrent callers instead of going negative.
func (s *PostgresStore) DecrementCredits(ctx context.Context, userID id.UserID) error {
	query := `
		UPDATE users
		SET credits_remaining = GREATEST(credits_remaining - 1, 0),
		    updated_at = NOW()
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("decrement credits: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement credits rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	return nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var (
		user      models.User
		rawID     uuid.UUID
		email     sql.NullString
		cheqdHash sql.NullString
		cheqdHint sql.NullString
	)
	err := row.Scan(
		&rawID,
		&email,
		&user.APIKey,
		&cheqdHash,
		&cheqdHint,
		&user.SubscriptionTier,
		&user.CreditsRemaining,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.ID = id.UserID(rawID)
	user.Email = email.String
	user.CheqdAPIKeyHash = cheqdHash.String
	user.CheqdAPIKeyHint = cheqdHint.String
	return &user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
