// Package swish implements the manual-transfer payment adapter: the buyer
// pays by scanning a generated code (or following an app deep-link) and a
// human operator later verifies the transfer. No API call leaves the process;
// the "provider" is the payload itself.
package swish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
	"github.com/tehorna/checkout-api/internal/guesttoken"
)

// Currency is the only currency Swish settles in. The checkout orchestrator
// rejects other currencies before this adapter is ever invoked.
const Currency = "SEK"

// Config holds the store's Swish identity and URL construction inputs.
type Config struct {
	// PayeeNumber is the numeric Swish number receiving payments, digits only.
	PayeeNumber string
	// BaseURL is the storefront origin used to build pending-receipt URLs.
	BaseURL string
}

// Adapter implements payment.Provider for manual Swish transfers.
type Adapter struct {
	cfg      Config
	orders   order.Repository
	attempts payment.AttemptRepository
	events   payment.EventRepository
	now      func() time.Time
}

// New creates a Swish Adapter.
func New(cfg Config, orders order.Repository, attempts payment.AttemptRepository, events payment.EventRepository) *Adapter {
	return &Adapter{
		cfg:      cfg,
		orders:   orders,
		attempts: attempts,
		events:   events,
		now:      time.Now,
	}
}

// Name implements payment.Provider.
func (a *Adapter) Name() string { return payment.ProviderSwish }

// CreateAttempt derives the payer-visible reference from the order number,
// builds the scannable payload and deep-link, persists one pending attempt,
// and records the creation event. For guest orders it additionally issues an
// access token, storing only its hash and expiry; the raw token is returned
// exactly once here and is unrecoverable afterwards.
func (a *Adapter) CreateAttempt(ctx context.Context, o *order.Order) (*payment.AttemptResult, error) {
	reference := o.Number

	qrSVG, err := renderQRSVG(buildPayload(a.cfg.PayeeNumber, o.Totals.TotalCents, reference))
	if err != nil {
		return nil, err
	}

	attempt := &payment.Attempt{
		ID:          uuid.New().String(),
		OrderID:     o.ID,
		Provider:    payment.ProviderSwish,
		Reference:   reference,
		AmountCents: o.Totals.TotalCents,
		Currency:    o.Currency,
		Status:      payment.AttemptPending,
		CreatedAt:   a.now(),
	}
	if err := a.attempts.Create(ctx, attempt); err != nil {
		return nil, errors.Wrap(err, "create attempt")
	}

	details := &payment.ManualDetails{
		AttemptID:   attempt.ID,
		PayeeNumber: a.cfg.PayeeNumber,
		Reference:   reference,
		AmountCents: attempt.AmountCents,
		Currency:    attempt.Currency,
		QRSVG:       qrSVG,
		Deeplink:    buildDeeplink(a.cfg.PayeeNumber, o.Totals.TotalCents, reference),
	}

	if o.UserID == "" {
		raw, hash, err := guesttoken.New()
		if err != nil {
			return nil, err
		}
		expires := a.now().Add(guesttoken.TTL)
		if err := a.orders.SetGuestToken(ctx, o.ID, hash, expires); err != nil {
			return nil, errors.Wrap(err, "store guest token")
		}
		details.GuestToken = raw
		details.PendingURL = a.cfg.BaseURL + "/order/" + o.Number + "/pending?token=" + raw
	}

	rawEvent, _ := json.Marshal(map[string]any{
		"attempt_id":   attempt.ID,
		"reference":    reference,
		"amount_cents": attempt.AmountCents,
		"currency":     attempt.Currency,
	})
	if err := a.events.Append(ctx, o.ID, payment.ProviderSwish, payment.EventSwishCreated, rawEvent); err != nil {
		return nil, errors.Wrap(err, "append event")
	}

	return &payment.AttemptResult{
		Provider: payment.ProviderSwish,
		Manual:   details,
	}, nil
}
