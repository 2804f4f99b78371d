package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tehorna/checkout-api/internal/domain/order"
)

const orderColumns = `id, order_number, user_id, customer_name, customer_email, customer_phone,
	address_street, address_city, address_postal_code, address_country,
	items, subtotal_cents, shipping_cents, tax_cents, total_cents, currency,
	payment_method, payment_provider, status, provider_session_id, provider_metadata,
	guest_token_hash, guest_token_expires_at, created_at, paid_at`

const (
	createOrderSQL = `INSERT INTO orders (id, order_number, user_id, customer_name, customer_email,
		customer_phone, address_street, address_city, address_postal_code, address_country,
		items, subtotal_cents, shipping_cents, tax_cents, total_cents, currency,
		payment_method, payment_provider, status, provider_metadata, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

	getOrderByIDSQL      = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	getOrderByNumberSQL  = `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	getOrderBySessionSQL = `SELECT ` + orderColumns + ` FROM orders WHERE provider_session_id = $1`

	setSessionSQL = `UPDATE orders SET provider_session_id = $2, provider_metadata = $3 WHERE id = $1`

	setGuestTokenSQL = `UPDATE orders SET guest_token_hash = $2, guest_token_expires_at = $3
		WHERE id = $1 AND user_id IS NULL`

	// Conditional writes: the status predicates mirror order.CanTransition,
	// so racing writers lose cleanly instead of overwriting a settled
	// payment and a late confirmation cannot resurrect a cancelled order.
	markPaidSQL = `UPDATE orders SET status = 'PAID', paid_at = $2
		WHERE id = $1 AND status = 'AWAITING_PAYMENT'`

	markCancelledSQL = `UPDATE orders SET status = 'CANCELLED'
		WHERE id = $1 AND status = 'AWAITING_PAYMENT'`

	overrideStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order with its frozen item snapshot. It returns
// order.ErrNumberTaken when the order number collides so the caller can
// regenerate and retry.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}
	metaJSON, err := json.Marshal(orEmpty(o.Metadata))
	if err != nil {
		return fmt.Errorf("marshaling provider metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.Number, nullable(o.UserID), o.CustomerName, o.CustomerEmail, o.CustomerPhone,
		o.Address.Street, o.Address.City, o.Address.PostalCode, o.Address.Country,
		itemsJSON, o.Totals.SubtotalCents, o.Totals.ShippingCents, o.Totals.TaxCents,
		o.Totals.TotalCents, o.Currency, string(o.Method), o.Provider, string(o.Status),
		metaJSON, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrNumberTaken
		}
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}
	return nil
}

// GetByID returns the order with the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

// GetByNumber returns the order with the given order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return r.getOne(ctx, getOrderByNumberSQL, number)
}

// GetBySessionID returns the order holding the given provider session id.
func (r *OrderRepository) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	return r.getOne(ctx, getOrderBySessionSQL, sessionID)
}

func (r *OrderRepository) getOne(ctx context.Context, sql string, arg any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}
	return &o, nil
}

// List returns orders, newest first, optionally filtered by status.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	sql := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if f.Status != "" {
		sql += ` WHERE status = $1`
		args = append(args, string(f.Status))
	}
	sql += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// SetProviderSession stores the hosted session id and metadata.
func (r *OrderRepository) SetProviderSession(ctx context.Context, id, sessionID string, metadata map[string]string) error {
	metaJSON, err := json.Marshal(orEmpty(metadata))
	if err != nil {
		return fmt.Errorf("marshaling provider metadata: %w", err)
	}
	_, err = r.pool.Exec(ctx, setSessionSQL, id, sessionID, metaJSON)
	if err != nil {
		return fmt.Errorf("storing session for order %q: %w", id, err)
	}
	return nil
}

// SetGuestToken stores the guest token hash and expiry. The predicate keeps
// authenticated orders token-free.
func (r *OrderRepository) SetGuestToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, setGuestTokenSQL, id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("storing guest token for order %q: %w", id, err)
	}
	return nil
}

// MarkPaid performs the conditional PAID transition. The row count tells the
// caller whether this writer won the race.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, markPaidSQL, id, paidAt)
	if err != nil {
		return false, fmt.Errorf("marking order %q paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCancelled performs the conditional CANCELLED transition.
func (r *OrderRepository) MarkCancelled(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, markCancelledSQL, id)
	if err != nil {
		return false, fmt.Errorf("cancelling order %q: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// OverrideStatus sets the status unconditionally (operator escape hatch).
func (r *OrderRepository) OverrideStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, overrideStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("overriding status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o            order.Order
		userID       *string
		sessionID    *string
		tokenHash    *string
		itemsJSON    []byte
		metaJSON     []byte
		method       string
		status       string
		tokenExpires *time.Time
		paidAt       *time.Time
	)
	err := row.Scan(
		&o.ID, &o.Number, &userID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Address.Street, &o.Address.City, &o.Address.PostalCode, &o.Address.Country,
		&itemsJSON, &o.Totals.SubtotalCents, &o.Totals.ShippingCents, &o.Totals.TaxCents,
		&o.Totals.TotalCents, &o.Currency, &method, &o.Provider, &status,
		&sessionID, &metaJSON, &tokenHash, &tokenExpires, &o.CreatedAt, &paidAt,
	)
	if err != nil {
		return order.Order{}, err
	}

	if userID != nil {
		o.UserID = *userID
	}
	if sessionID != nil {
		o.SessionID = *sessionID
	}
	if tokenHash != nil {
		o.TokenHash = *tokenHash
	}
	o.TokenExpires = tokenExpires
	o.PaidAt = paidAt
	o.Method = order.PaymentMethod(method)
	o.Status = order.Status(status)

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if err := json.Unmarshal(metaJSON, &o.Metadata); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling provider metadata: %w", err)
	}
	return o, nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
