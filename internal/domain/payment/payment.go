// Package payment defines the provider-facing contracts: payment attempts,
// the append-only event log, and the adapter interface both provider
// integrations implement.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/tehorna/checkout-api/internal/domain/order"
)

// Provider identifiers.
const (
	ProviderStripe = "stripe"
	ProviderSwish  = "swish"
)

// Event types written to the audit log.
const (
	EventSessionCreated = "checkout.session.created"
	EventSwishCreated   = "swish_manual.created"
	EventSwishVerified  = "swish_manual.verified_paid"
	EventSessionPaid    = "checkout.session.completed"
	EventSessionExpired = "checkout.session.expired"
	EventAdminOverride  = "admin.status_override"
)

// Attempt statuses. An attempt never reverts from paid.
const (
	AttemptPending       = "pending"
	AttemptPendingReview = "pending_review"
	AttemptPaid          = "paid"
)

var (
	// ErrAttemptNotFound is returned when a payment attempt does not exist.
	ErrAttemptNotFound = errors.New("payment attempt not found")
	// ErrAttemptOrderMismatch is returned when an attempt does not belong to
	// the order named in the same request.
	ErrAttemptOrderMismatch = errors.New("attempt does not belong to order")
)

// Attempt is one attempt to pay an order through the manual-transfer path.
// An order may accumulate several if the buyer retries.
type Attempt struct {
	ID          string
	OrderID     string
	Provider    string
	Reference   string
	AmountCents int64
	Currency    string
	Status      string
	VerifiedAt  *time.Time
	CreatedAt   time.Time
}

// Event is an append-only audit entry. Rows are never mutated or deleted.
type Event struct {
	ID        int64
	OrderID   string
	Provider  string
	EventType string
	Raw       []byte
	CreatedAt time.Time
}

// AttemptRepository persists payment attempts.
type AttemptRepository interface {
	Create(ctx context.Context, a *Attempt) error
	GetByID(ctx context.Context, id string) (*Attempt, error)
	// MarkPaid sets the attempt to paid with a verification timestamp.
	// Returns false when the attempt was already paid.
	MarkPaid(ctx context.Context, id string, verifiedAt time.Time) (bool, error)
}

// EventRepository appends audit entries.
type EventRepository interface {
	Append(ctx context.Context, orderID, provider, eventType string, raw []byte) error
}

// ManualDetails is the manual-transfer half of an attempt result: the
// payer-visible reference, the scannable payload rendered as SVG, and the
// app deep-link carrying the same fields.
type ManualDetails struct {
	AttemptID   string
	PayeeNumber string
	Reference   string
	AmountCents int64
	Currency    string
	QRSVG       string
	Deeplink    string
	// GuestToken is set only for unauthenticated buyers, exactly once, at
	// creation. It is never stored and never recoverable.
	GuestToken string
	PendingURL string
}

// AttemptResult is what a provider adapter returns from CreateAttempt.
// Exactly one of RedirectURL or Manual is populated, matching the adapter.
type AttemptResult struct {
	Provider    string
	RedirectURL string
	Manual      *ManualDetails
}

// Provider is the single contract both adapters implement. The orchestrator
// selects the adapter by payment method at its boundary; nothing else
// branches on provider strings.
type Provider interface {
	Name() string
	CreateAttempt(ctx context.Context, o *order.Order) (*AttemptResult, error)
}

// ProviderError wraps a downstream processor failure. The client sees a
// generic message; the wrapped detail is for server logs only.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return "payment provider " + e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }
