// Package reconcile brings an order's persisted status in line with the
// payment processor's true settlement state. Its two entry points, provider
// webhooks and operator verification, can race on the same order row, so
// every transition here is a conditional write: whichever writer arrives
// first wins and the second is an idempotent no-op.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
	"github.com/tehorna/checkout-api/internal/notify"
)

// Service applies payment outcomes to orders.
type Service struct {
	orders   order.Repository
	attempts payment.AttemptRepository
	events   payment.EventRepository
	notifier notify.Notifier
	now      func() time.Time
}

// NewService creates a reconciliation Service.
func NewService(
	orders order.Repository,
	attempts payment.AttemptRepository,
	events payment.EventRepository,
	notifier notify.Notifier,
) *Service {
	return &Service{
		orders:   orders,
		attempts: attempts,
		events:   events,
		notifier: notifier,
		now:      time.Now,
	}
}

// ResolveBySession finds the order a webhook event refers to: by the order id
// the session metadata carries, falling back to the stored session id when
// metadata is absent.
func (s *Service) ResolveBySession(ctx context.Context, orderID, sessionID string) (*order.Order, error) {
	if orderID != "" {
		o, err := s.orders.GetByID(ctx, orderID)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, order.ErrNotFound) {
			return nil, err
		}
	}
	if sessionID == "" {
		return nil, order.ErrNotFound
	}
	return s.orders.GetBySessionID(ctx, sessionID)
}

// SessionCompleted applies the PAID transition for a completed provider
// session. Already-paid orders are a no-op success: webhook deliveries are
// retried by the provider and may arrive after the operator path won.
func (s *Service) SessionCompleted(ctx context.Context, o *order.Order, raw []byte) error {
	transitioned, err := s.orders.MarkPaid(ctx, o.ID, s.now())
	if err != nil {
		return errors.Wrap(err, "mark paid")
	}
	if !transitioned {
		zctx.From(ctx).Info("completed event for already-settled order",
			zap.String("order_number", o.Number),
			zap.String("status", string(o.Status)),
		)
		return nil
	}

	if err := s.events.Append(ctx, o.ID, o.Provider, payment.EventSessionPaid, raw); err != nil {
		return errors.Wrap(err, "append event")
	}
	s.dispatchPaid(ctx, o)
	return nil
}

// SessionExpired applies the CANCELLED transition for an expired provider
// session. A late expiry arriving after settlement must not regress a PAID
// order; the conditional write refuses it and we log the lost race.
func (s *Service) SessionExpired(ctx context.Context, o *order.Order, raw []byte) error {
	transitioned, err := s.orders.MarkCancelled(ctx, o.ID)
	if err != nil {
		return errors.Wrap(err, "mark cancelled")
	}
	if !transitioned {
		// Losing to a settlement is worth an operator's attention; an
		// expiry redelivered for an already-cancelled order is not.
		lg := zctx.From(ctx).Info
		if o.Status.Terminal() {
			lg = zctx.From(ctx).Warn
		}
		lg("expired event ignored, order already left awaiting payment",
			zap.String("order_number", o.Number),
			zap.String("status", string(o.Status)),
		)
		return nil
	}

	if err := s.events.Append(ctx, o.ID, o.Provider, payment.EventSessionExpired, raw); err != nil {
		return errors.Wrap(err, "append event")
	}
	return nil
}

// VerifyResult reports the outcome of an operator verification.
type VerifyResult struct {
	AlreadyPaid bool
}

// VerifyManualAttempt marks a manual-transfer attempt as paid after human
// review and settles the order. Verifying an already-paid attempt is a
// success with AlreadyPaid set: no second event, no second notification.
func (s *Service) VerifyManualAttempt(ctx context.Context, operatorID, attemptID, orderID string) (*VerifyResult, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.OrderID != orderID {
		return nil, payment.ErrAttemptOrderMismatch
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if attempt.Status == payment.AttemptPaid {
		return &VerifyResult{AlreadyPaid: true}, nil
	}

	now := s.now()
	marked, err := s.attempts.MarkPaid(ctx, attempt.ID, now)
	if err != nil {
		return nil, errors.Wrap(err, "mark attempt paid")
	}
	if !marked {
		// Lost the race to a concurrent verification.
		return &VerifyResult{AlreadyPaid: true}, nil
	}

	if _, err := s.orders.MarkPaid(ctx, o.ID, now); err != nil {
		return nil, errors.Wrap(err, "mark order paid")
	}

	raw, _ := json.Marshal(map[string]string{
		"operator_id": operatorID,
		"attempt_id":  attempt.ID,
	})
	if err := s.events.Append(ctx, o.ID, payment.ProviderSwish, payment.EventSwishVerified, raw); err != nil {
		return nil, errors.Wrap(err, "append event")
	}

	s.dispatchPaid(ctx, o)
	return &VerifyResult{}, nil
}

// OverrideStatus is the operator escape hatch: it sets the status directly,
// outside the automatic transition rules, and records a distinct audit event
// naming the operator.
func (s *Service) OverrideStatus(ctx context.Context, operatorID, orderID string, status order.Status) error {
	if !status.Valid() {
		return errors.Errorf("unknown status %q", status)
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.CanTransition(o.Status, status) {
		zctx.From(ctx).Warn("status override leaves the automatic transition rules",
			zap.String("order_number", o.Number),
			zap.String("operator_id", operatorID),
			zap.String("from", string(o.Status)),
			zap.String("to", string(status)),
		)
	}

	if err := s.orders.OverrideStatus(ctx, o.ID, status); err != nil {
		return errors.Wrap(err, "override status")
	}

	raw, _ := json.Marshal(map[string]string{
		"operator_id": operatorID,
		"from":        string(o.Status),
		"to":          string(status),
	})
	if err := s.events.Append(ctx, o.ID, o.Provider, payment.EventAdminOverride, raw); err != nil {
		return errors.Wrap(err, "append event")
	}
	return nil
}

// dispatchPaid sends the paid notification best-effort.
func (s *Service) dispatchPaid(ctx context.Context, o *order.Order) {
	if err := s.notifier.OrderPaid(ctx, o); err != nil {
		zctx.From(ctx).Error("paid notification failed",
			zap.String("order_number", o.Number),
			zap.Error(err),
		)
	}
}
