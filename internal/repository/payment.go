package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tehorna/checkout-api/internal/domain/payment"
)

const (
	createAttemptSQL = `INSERT INTO payment_attempts
		(id, order_id, provider, reference, amount_cents, currency, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	getAttemptSQL = `SELECT id, order_id, provider, reference, amount_cents, currency,
		status, verified_at, created_at FROM payment_attempts WHERE id = $1`

	// Attempts never revert from paid; the predicate enforces that.
	markAttemptPaidSQL = `UPDATE payment_attempts SET status = 'paid', verified_at = $2
		WHERE id = $1 AND status <> 'paid'`

	appendEventSQL = `INSERT INTO payment_events (order_id, provider, event_type, raw)
		VALUES ($1,$2,$3,$4)`
)

var _ payment.AttemptRepository = (*AttemptRepository)(nil)

// AttemptRepository implements payment.AttemptRepository backed by PostgreSQL.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository returns an AttemptRepository that uses the given pool.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create persists a new payment attempt.
func (r *AttemptRepository) Create(ctx context.Context, a *payment.Attempt) error {
	_, err := r.pool.Exec(ctx, createAttemptSQL,
		a.ID, a.OrderID, a.Provider, a.Reference, a.AmountCents, a.Currency, a.Status, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating attempt %q: %w", a.ID, err)
	}
	return nil
}

// GetByID returns the attempt with the given id. Returns
// payment.ErrAttemptNotFound when no matching row exists.
func (r *AttemptRepository) GetByID(ctx context.Context, id string) (*payment.Attempt, error) {
	rows, err := r.pool.Query(ctx, getAttemptSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting attempt %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAttempt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("getting attempt %q: %w", id, err)
	}
	return &a, nil
}

// MarkPaid sets the attempt to paid. Returns false when the attempt was
// already paid (a concurrent writer won).
func (r *AttemptRepository) MarkPaid(ctx context.Context, id string, verifiedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, markAttemptPaidSQL, id, verifiedAt)
	if err != nil {
		return false, fmt.Errorf("marking attempt %q paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanAttempt(row pgx.CollectableRow) (payment.Attempt, error) {
	var a payment.Attempt
	err := row.Scan(&a.ID, &a.OrderID, &a.Provider, &a.Reference,
		&a.AmountCents, &a.Currency, &a.Status, &a.VerifiedAt, &a.CreatedAt)
	return a, err
}

var _ payment.EventRepository = (*EventRepository)(nil)

// EventRepository implements payment.EventRepository backed by PostgreSQL.
// The table is append-only; there are no update or delete operations.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository returns an EventRepository that uses the given pool.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Append writes one audit entry.
func (r *EventRepository) Append(ctx context.Context, orderID, provider, eventType string, raw []byte) error {
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	_, err := r.pool.Exec(ctx, appendEventSQL, orderID, provider, eventType, raw)
	if err != nil {
		return fmt.Errorf("appending %s event for order %q: %w", eventType, orderID, err)
	}
	return nil
}
