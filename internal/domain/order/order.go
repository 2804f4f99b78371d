// Package order holds the persisted Order aggregate and its payment status
// state machine. The order row is the single source of truth for payment
// state; it is mutated only through the transition operations defined here
// and implemented by the repository.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrNumberTaken is returned by Create when the generated order number
	// collides with an existing row. Callers regenerate and retry.
	ErrNumberTaken = errors.New("order number already taken")
)

// PaymentMethod selects the provider integration used to pay an order.
type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CARD"
	MethodManual PaymentMethod = "MANUAL"
)

// Address is the shipping address captured at checkout.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Item is a line-item snapshot frozen at order time. Later catalog edits do
// not affect it.
type Item struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// Totals holds the server-computed money amounts for an order.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	ShippingCents int64 `json:"shipping_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// Order is the durable record of a checkout attempt.
type Order struct {
	ID            string
	Number        string
	UserID        string // empty for guests
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       Address
	Items         []Item
	Totals        Totals
	Currency      string
	Method        PaymentMethod
	Provider      string
	Status        Status
	SessionID     string // redirect flow only
	Metadata      map[string]string
	TokenHash     string // guest access token, one-way hash; never the raw token
	TokenExpires  *time.Time
	CreatedAt     time.Time
	PaidAt        *time.Time
}

// Receipt is the sanitized projection returned to guest lookups. It carries
// no token material and no internal identifiers beyond the order number.
type Receipt struct {
	Number        string        `json:"order_number"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email,omitempty"`
	Address       Address       `json:"address"`
	Items         []Item        `json:"items"`
	Totals        Totals        `json:"totals"`
	Currency      string        `json:"currency"`
	Method        PaymentMethod `json:"payment_method"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
}

// ReceiptView returns the guest-safe projection of the order.
func (o *Order) ReceiptView() Receipt {
	return Receipt{
		Number:        o.Number,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Address:       o.Address,
		Items:         o.Items,
		Totals:        o.Totals,
		Currency:      o.Currency,
		Method:        o.Method,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		PaidAt:        o.PaidAt,
	}
}

// ListFilter narrows admin order listings.
type ListFilter struct {
	Status Status // zero value means all
	Limit  int
}

// Repository defines persistence operations for orders. Status transitions
// are conditional writes: they include the expected prior status in the
// predicate and report whether a row was actually updated, so racing writers
// detect a lost race instead of silently overwriting.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)

	// SetProviderSession stores the hosted-session id and provider metadata
	// after a successful redirect-provider call.
	SetProviderSession(ctx context.Context, id, sessionID string, metadata map[string]string) error

	// SetGuestToken stores the one-way hash and expiry of a guest access
	// token. The raw token never reaches the repository.
	SetGuestToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error

	// MarkPaid transitions the order to PAID unless it is already in a
	// terminal paid state. Returns true when this call performed the
	// transition, false when it was a no-op.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)

	// MarkCancelled transitions AWAITING_PAYMENT to CANCELLED. Returns true
	// when this call performed the transition.
	MarkCancelled(ctx context.Context, id string) (bool, error)

	// OverrideStatus sets the status unconditionally. Operator escape hatch
	// only; callers must log the override as a distinct event.
	OverrideStatus(ctx context.Context, id string, status Status) error
}
