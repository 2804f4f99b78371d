// Package stripecheckout implements the redirect payment adapter: it opens a
// Stripe-hosted checkout session for the order's frozen line items and hands
// the buyer a redirect URL.
package stripecheckout

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/coupon"

	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
)

// Config holds the Stripe credentials and URL construction inputs.
type Config struct {
	SecretKey string
	// BaseURL is the storefront origin for success/cancel redirects.
	BaseURL string
}

// sessionCreator matches session.New; injected so tests run without Stripe.
type sessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// couponCreator matches coupon.New; injected for the same reason.
type couponCreator func(params *stripe.CouponParams) (*stripe.Coupon, error)

// Adapter implements payment.Provider for Stripe-hosted checkout sessions.
type Adapter struct {
	cfg           Config
	orders        order.Repository
	events        payment.EventRepository
	createSession sessionCreator
	createCoupon  couponCreator
}

// New creates a Stripe Adapter. The secret key is installed globally, which
// is how stripe-go expects to be configured.
func New(cfg Config, orders order.Repository, events payment.EventRepository) *Adapter {
	stripe.Key = cfg.SecretKey
	return &Adapter{
		cfg:           cfg,
		orders:        orders,
		events:        events,
		createSession: session.New,
		createCoupon:  coupon.New,
	}
}

// Name implements payment.Provider.
func (a *Adapter) Name() string { return payment.ProviderStripe }

// CreateAttempt opens a hosted session denominated in the order's currency
// with line items matching the frozen snapshot, then stores the session id
// and mode flag on the order and records the creation event. If the Stripe
// call fails the order keeps its AWAITING_PAYMENT status with no session id;
// the error surfaces to the caller and the row stays visible as stuck in
// admin views.
func (a *Adapter) CreateAttempt(ctx context.Context, o *order.Order) (*payment.AttemptResult, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(a.cfg.BaseURL + "/order/" + o.Number + "/success"),
		CancelURL:  stripe.String(a.cfg.BaseURL + "/checkout"),
		LineItems:  lineItems(o),
	}
	params.Context = ctx
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("order_number", o.Number)

	// Line items carry the frozen pre-discount snapshot, so cart promotions
	// are applied as a session-level coupon to keep the charged amount equal
	// to the order total.
	if d := discountCents(o); d > 0 {
		c, err := a.createCoupon(&stripe.CouponParams{
			Params:    stripe.Params{Context: ctx},
			AmountOff: stripe.Int64(d),
			Currency:  stripe.String(strings.ToLower(o.Currency)),
			Duration:  stripe.String(string(stripe.CouponDurationOnce)),
			Name:      stripe.String("Promotions " + o.Number),
		})
		if err != nil {
			return nil, errors.Wrap(err, "create discount coupon")
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(c.ID)},
		}
	}

	sess, err := a.createSession(params)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}

	metadata := map[string]string{
		"livemode": strconv.FormatBool(sess.Livemode),
	}
	if err := a.orders.SetProviderSession(ctx, o.ID, sess.ID, metadata); err != nil {
		return nil, errors.Wrap(err, "store session id")
	}

	raw, _ := json.Marshal(map[string]any{
		"session_id": sess.ID,
		"livemode":   sess.Livemode,
	})
	if err := a.events.Append(ctx, o.ID, payment.ProviderStripe, payment.EventSessionCreated, raw); err != nil {
		return nil, errors.Wrap(err, "append event")
	}

	return &payment.AttemptResult{
		Provider:    payment.ProviderStripe,
		RedirectURL: sess.URL,
	}, nil
}

// discountCents recovers the promotion total from the persisted totals; the
// order row stores subtotal and total but not the discount itself.
func discountCents(o *order.Order) int64 {
	return o.Totals.SubtotalCents + o.Totals.ShippingCents + o.Totals.TaxCents - o.Totals.TotalCents
}

func lineItems(o *order.Order) []*stripe.CheckoutSessionLineItemParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, len(o.Items))
	for i, it := range o.Items {
		items[i] = &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(it.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(it.Currency)),
				UnitAmount: stripe.Int64(it.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(it.Title),
				},
			},
		}
	}
	return items
}
