// Package store persists AI providers in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UltraQuamfy/contentify/internal/provider/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
	txcontext "github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed provider store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed provider store.
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

const providerColumns = `id, name, display_name, did, keypair_id, active, created_at, updated_at`

// FindByName looks up a provider by its unique name.
func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM ai_providers WHERE name = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, name)
	provider, err := scanProvider(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("provider %q: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find provider by name: %w", err)
	}
	return provider, nil
}

// List returns all active providers ordered by name.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM ai_providers WHERE active ORDER BY name`
	rows, err := s.execer(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var providers []*models.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, provider)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return providers, nil
}

// Upsert inserts the provider or leaves an existing row with the same name
// untouched. Used for seeding the catalog at startup.
func (s *PostgresStore) Upsert(ctx context.Context, provider *models.Provider) error {
	if provider == nil {
		return fmt.Errorf("provider is required")
	}
	query := `
		INSERT INTO ai_providers (id, name, display_name, did, keypair_id, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(provider.ID),
		provider.Name,
		provider.DisplayName,
		nullString(provider.DID),
		nullString(provider.KeypairID),
		provider.Active,
		provider.CreatedAt,
		provider.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("provider name already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("upsert provider: %w", err)
	}
	return nil
}

// AttachDID persists a freshly minted DID onto a provider row that does not
// have one yet. When a concurrent issuance already attached a DID the update
// matches no rows and ErrConflict is reported; the caller re-reads the row
// and uses the DID that won.
func (s *PostgresStore) AttachDID(ctx context.Context, providerID id.ProviderID, did, keypairID string) error {
	query := `
		UPDATE ai_providers
		SET did = $2, keypair_id = $3, updated_at = NOW()
		WHERE id = $1 AND did IS NULL
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(providerID), did, keypairID)
	if err != nil {
		return fmt.Errorf("attach provider did: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach provider did rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("provider %s already has a did: %w", providerID, sentinel.ErrConflict)
	}
	return nil
}

// Count returns the number of active providers.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM ai_providers WHERE active`
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count providers: %w", err)
	}
	return count, nil
}

func scanProvider(row interface{ Scan(dest ...any) error }) (*models.Provider, error) {
	var (
		provider  models.Provider
		rawID     uuid.UUID
		did       sql.NullString
		keypairID sql.NullString
	)
	err := row.Scan(
		&rawID,
		&provider.Name,
		&provider.DisplayName,
		&did,
		&keypairID,
		&provider.Active,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	provider.ID = id.ProviderID(rawID)
	provider.DID = did.String
	provider.KeypairID = keypairID.String
	return &provider, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
