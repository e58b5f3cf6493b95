// Package store persists credentials and their verification history in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/UltraQuamfy/contentify/internal/credential/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
	txcontext "github.com/UltraQuamfy/contentify/pkg/platform/tx"
)

// PostgresStore is the PostgreSQL-backed credential store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed credential store.
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

// enrichedColumns joins issuer display fields and the owner's email onto the
// credential row so read endpoints avoid N+1 lookups.
const enrichedColumns = `
	c.id, c.user_id, c.provider_id, c.content_hash, c.content_preview,
	c.authenticity_score, c.payment_amount, c.status, c.verification_count,
	c.revenue_earned, c.metadata, c.created_at, c.updated_at,
	p.name, p.display_name, COALESCE(p.did, ''), COALESCE(u.email, '')`

const enrichedJoins = `
	FROM credentials c
	JOIN ai_providers p ON p.id = c.provider_id
	JOIN users u ON u.id = c.user_id`

// Insert persists a new credential row. Joins the context transaction when
// present so the insert commits together with the credit decrement and
// analytics append.
func (s *PostgresStore) Insert(ctx context.Context, credential *models.Credential) error {
	if credential == nil {
		return fmt.Errorf("credential is required")
	}
	metadata, err := marshalMetadata(credential.Metadata)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO credentials (id, user_id, provider_id, content_hash, content_preview,
			authenticity_score, payment_amount, status, verification_count, revenue_earned,
			metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		credential.ID.String(),
		uuid.UUID(credential.UserID),
		uuid.UUID(credential.ProviderID),
		credential.ContentHash,
		credential.ContentPreview,
		credential.AuthenticityScore,
		credential.PaymentAmount,
		string(credential.Status),
		credential.VerificationCount,
		credential.RevenueEarned,
		metadata,
		credential.CreatedAt,
		credential.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("credential %s already exists: %w", credential.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// FindByID returns one credential enriched with issuer and owner fields.
func (s *PostgresStore) FindByID(ctx context.Context, credentialID id.CredentialID) (*models.EnrichedCredential, error) {
	query := `SELECT` + enrichedColumns + enrichedJoins + ` WHERE c.id = $1`
	row := s.execer(ctx).QueryRowContext(ctx, query, credentialID.String())
	credential, err := scanEnriched(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential %s: %w", credentialID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return credential, nil
}

// ListByUser returns a user's credentials, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.EnrichedCredential, error) {
	query := `SELECT` + enrichedColumns + enrichedJoins + ` WHERE c.user_id = $1 ORDER BY c.created_at DESC`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list user credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*models.EnrichedCredential
	for rows.Next() {
		credential, err := scanEnriched(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		credentials = append(credentials, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return credentials, nil
}

// BumpVerification adds one verification to the credential's counters and
// returns the fresh values. Both columns move in a single atomic statement
// so concurrent verifiers never lose updates; revenue grows by the
// credential's own stored payment amount.
func (s *PostgresStore) BumpVerification(ctx context.Context, credentialID id.CredentialID) (count int, revenue float64, err error) {
	query := `
		UPDATE credentials
		SET verification_count = verification_count + 1,
		    revenue_earned = revenue_earned + payment_amount,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING verification_count, revenue_earned
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, credentialID.String())
	if err := row.Scan(&count, &revenue); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("credential %s: %w", credentialID, sentinel.ErrNotFound)
		}
		return 0, 0, fmt.Errorf("bump verification counters: %w", err)
	}
	return count, revenue, nil
}

// InsertVerification records one verification event row.
func (s *PostgresStore) InsertVerification(ctx context.Context, verification *models.Verification) error {
	if verification == nil {
		return fmt.Errorf("verification is required")
	}
	query := `
		INSERT INTO verifications (id, credential_id, verifier_address, verifier_device,
			payment_amount, payment_tx_hash, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(verification.ID),
		verification.CredentialID.String(),
		verification.VerifierAddress,
		nullString(verification.VerifierDevice),
		verification.PaymentAmount,
		nullString(verification.PaymentTxHash),
		verification.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

// Totals aggregates service-wide issuance and verification counters.
func (s *PostgresStore) Totals(ctx context.Context) (credentials, verifications int64, revenue float64, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM credentials),
			(SELECT COUNT(*) FROM verifications),
			(SELECT COALESCE(SUM(revenue_earned), 0) FROM credentials)
	`
	if err := s.execer(ctx).QueryRowContext(ctx, query).Scan(&credentials, &verifications, &revenue); err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate credential totals: %w", err)
	}
	return credentials, verifications, revenue, nil
}

func scanEnriched(row interface{ Scan(dest ...any) error }) (*models.EnrichedCredential, error) {
	var (
		enriched   models.EnrichedCredential
		rawID      string
		userID     uuid.UUID
		providerID uuid.UUID
		status     string
		metadata   []byte
	)
	err := row.Scan(
		&rawID,
		&userID,
		&providerID,
		&enriched.ContentHash,
		&enriched.ContentPreview,
		&enriched.AuthenticityScore,
		&enriched.PaymentAmount,
		&status,
		&enriched.VerificationCount,
		&enriched.RevenueEarned,
		&metadata,
		&enriched.CreatedAt,
		&enriched.UpdatedAt,
		&enriched.ProviderName,
		&enriched.ProviderDisplayName,
		&enriched.ProviderDID,
		&enriched.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	enriched.ID = id.CredentialID(rawID)
	enriched.UserID = id.UserID(userID)
	enriched.ProviderID = id.ProviderID(providerID)
	enriched.Status = models.Status(status)
	if len(metadata) > 0 {
		var meta models.Metadata
		if err := json.Unmarshal(metadata, &meta); err != nil {
			return nil, fmt.Errorf("decode credential metadata: %w", err)
		}
		enriched.Metadata = &meta
	}
	return &enriched, nil
}

func marshalMetadata(meta *models.Metadata) (any, error) {
	if meta == nil {
		return nil, nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode credential metadata: %w", err)
	}
	return raw, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
