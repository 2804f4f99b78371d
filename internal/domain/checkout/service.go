// Package checkout validates checkout requests, re-prices them against
// authoritative product data, creates the order, and dispatches to the
// selected payment provider. Client-submitted totals are advisory only and
// never reach settlement.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
	"github.com/tehorna/checkout-api/internal/domain/pricing"
	"github.com/tehorna/checkout-api/internal/domain/product"
)

// Sentinel validation errors, each a distinct kind so handlers can map them
// to specific client messages.
var (
	ErrEmptyItems          = errors.New("items required")
	ErrMissingCustomer     = errors.New("customer name required")
	ErrMissingAddress      = errors.New("address incomplete")
	ErrMixedCurrency       = errors.New("cart mixes currencies")
	ErrUnsupportedMethod   = errors.New("unsupported payment method")
	ErrUnsupportedCurrency = errors.New("currency not supported by payment method")
)

// InvalidQuantityError indicates a line item has a non-positive or
// non-integer quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ProductUnavailableError indicates a requested product is missing or no
// longer purchasable.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductID)
}

// ItemInput is one cart line as submitted by the client.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// Request is a checkout submission.
type Request struct {
	Items         []ItemInput
	UserID        string // set by the session layer for authenticated buyers
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       order.Address
	Method        order.PaymentMethod
}

// Result is the outcome of a successful checkout: the persisted order plus
// whatever the provider adapter returned.
type Result struct {
	Order   *order.Order
	Attempt *payment.AttemptResult
}

const numberCreateRetries = 3

// Service is the checkout orchestrator.
type Service struct {
	products product.Repository
	orders   order.Repository
	rules    []pricing.Rule
	// adapters keyed by payment method; selected once, here, at the boundary.
	adapters map[order.PaymentMethod]payment.Provider
	// manualCurrency is the single currency the manual-transfer provider
	// settles in (SEK for Swish).
	manualCurrency string
	now            func() time.Time
}

// NewService creates a checkout Service.
func NewService(
	products product.Repository,
	orders order.Repository,
	rules []pricing.Rule,
	card, manual payment.Provider,
	manualCurrency string,
) *Service {
	return &Service{
		products: products,
		orders:   orders,
		rules:    rules,
		adapters: map[order.PaymentMethod]payment.Provider{
			order.MethodCard:   card,
			order.MethodManual: manual,
		},
		manualCurrency: strings.ToUpper(manualCurrency),
		now:            time.Now,
	}
}

// Checkout validates the request, re-prices it, persists the order in
// AWAITING_PAYMENT, and dispatches to the provider adapter. On any
// validation or re-pricing failure no order row is created. If the provider
// call fails the order remains persisted without a provider reference; the
// buyer retries with a fresh checkout and the stuck order stays visible in
// admin views.
func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	adapter, ok := s.adapters[req.Method]
	if !ok || adapter == nil {
		return nil, ErrUnsupportedMethod
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	items, quote, currency, err := s.reprice(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// The manual provider settles in exactly one currency. Rejected here,
	// before any row exists, even if the client forced the method through.
	if req.Method == order.MethodManual && currency != s.manualCurrency {
		return nil, ErrUnsupportedCurrency
	}

	o := s.buildOrder(req, items, quote, currency, adapter.Name())
	if err := s.createWithRetry(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	attempt, err := adapter.CreateAttempt(ctx, o)
	if err != nil {
		zctx.From(ctx).Error("provider attempt failed; order left awaiting payment",
			zap.String("order_number", o.Number),
			zap.String("provider", adapter.Name()),
			zap.Error(err),
		)
		return nil, &payment.ProviderError{Provider: adapter.Name(), Err: err}
	}

	return &Result{Order: o, Attempt: attempt}, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyItems
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return &InvalidQuantityError{ProductID: it.ProductID}
		}
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return ErrMissingCustomer
	}
	a := req.Address
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.PostalCode) == "" || strings.TrimSpace(a.Country) == "" {
		return ErrMissingAddress
	}
	return nil
}

// reprice loads authoritative product rows and recomputes all totals. The
// requested id set must exactly match what was found, and every product must
// share one currency.
func (s *Service) reprice(ctx context.Context, inputs []ItemInput) ([]pricing.Item, pricing.Quote, string, error) {
	ids := make([]string, len(inputs))
	for i, it := range inputs {
		ids[i] = it.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pricing.Quote{}, "", errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]pricing.Item, 0, len(inputs))
	currency := ""
	for _, it := range inputs {
		p, ok := byID[it.ProductID]
		if !ok || !p.Active {
			return nil, pricing.Quote{}, "", &ProductUnavailableError{ProductID: it.ProductID}
		}
		if currency == "" {
			currency = strings.ToUpper(p.Currency)
		} else if currency != strings.ToUpper(p.Currency) {
			return nil, pricing.Quote{}, "", ErrMixedCurrency
		}
		items = append(items, pricing.Item{Product: p, Quantity: it.Quantity})
	}

	return items, pricing.Price(items, s.rules), currency, nil
}

func (s *Service) buildOrder(req Request, items []pricing.Item, quote pricing.Quote, currency, provider string) *order.Order {
	snapshot := make([]order.Item, len(items))
	for i, it := range items {
		snapshot[i] = order.Item{
			ProductID:  it.Product.ID,
			Title:      it.Product.Title,
			Quantity:   it.Quantity,
			PriceCents: it.Product.PriceCents,
			Currency:   currency,
		}
	}

	return &order.Order{
		ID:            uuid.New().String(),
		Number:        order.NewNumber(s.now()),
		UserID:        req.UserID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Address:       req.Address,
		Items:         snapshot,
		Totals: order.Totals{
			SubtotalCents: quote.SubtotalCents,
			TotalCents:    quote.TotalCents,
		},
		Currency:  currency,
		Method:    req.Method,
		Provider:  provider,
		Status:    order.StatusAwaitingPayment,
		CreatedAt: s.now(),
	}
}

// createWithRetry regenerates the order number and retries when the
// uniqueness constraint fires. Random suffixes make collisions negligible
// but the constraint is the real guard.
func (s *Service) createWithRetry(ctx context.Context, o *order.Order) error {
	var err error
	for range numberCreateRetries {
		err = s.orders.Create(ctx, o)
		if !errors.Is(err, order.ErrNumberTaken) {
			return err
		}
		o.Number = order.NewNumber(s.now())
	}
	return err
}
