// Package receipt implements token-gated guest access to a single order's
// sanitized receipt. It only reads.
package receipt

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/guesttoken"
)

var (
	// ErrTokenInvalid is returned on a token mismatch, or when the order has
	// no stored token hash at all (authenticated-buyer orders never do).
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrTokenExpired is returned when the stored expiry has passed.
	ErrTokenExpired = errors.New("access token expired")
)

// Service resolves guest receipt lookups.
type Service struct {
	orders order.Repository
	now    func() time.Time
}

// NewService creates a receipt Service.
func NewService(orders order.Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// Lookup returns the sanitized receipt for the given order number when the
// supplied token matches the stored hash and has not expired. The comparison
// is constant-time; lookups for orders without a stored hash fail identically
// to a mismatch.
func (s *Service) Lookup(ctx context.Context, number, token string) (*order.Receipt, error) {
	o, err := s.orders.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	if o.TokenHash == "" || !guesttoken.Matches(token, o.TokenHash) {
		return nil, ErrTokenInvalid
	}
	if o.TokenExpires == nil || s.now().After(*o.TokenExpires) {
		return nil, ErrTokenExpired
	}

	r := o.ReceiptView()
	return &r, nil
}
