package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// defaultTimeout bounds transactions whose caller context carries no deadline.
const defaultTimeout = 5 * time.Second

// WithTx stores a SQL transaction in context for downstream store usage.
// Stores resolve their executor through From, so every store call made with
// the returned context joins the same transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Run executes fn inside a database transaction. The transaction is placed in
// the context handed to fn, so stores that honor From participate
// automatically. If the context already carries a transaction, fn joins it
// and commit/rollback stay with the outer Run call.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistence, "commit transaction")
	}
	return nil
}

// Runner draws transactional boundaries without exposing *sql.DB to
// services.
type Runner struct {
	db *sql.DB
}

// NewRunner creates a Runner over the given database handle.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// RunInTx executes fn inside a database transaction.
func (r *Runner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

// Passthrough runs fn with no transaction. Memory-backed stores provide
// their own per-call atomicity, so tests and cache-only deployments use
// this in place of Runner.
type Passthrough struct{}

// RunInTx executes fn directly.
func (Passthrough) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
