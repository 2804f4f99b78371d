// Package notify dispatches order notifications to the external notification
// service. Dispatch is best-effort everywhere it is used: a failed
// notification is logged and never rolls back the payment state that
// triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tehorna/checkout-api/internal/domain/order"
)

// Notifier announces order lifecycle events.
type Notifier interface {
	OrderPaid(ctx context.Context, o *order.Order) error
}

// LogNotifier writes notifications to the log only. Used when no dispatcher
// URL is configured (local development).
type LogNotifier struct{}

func (LogNotifier) OrderPaid(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("order paid notification",
		zap.String("order_number", o.Number),
		zap.Int64("total_cents", o.Totals.TotalCents),
	)
	return nil
}

// HTTPNotifier posts notifications to the dispatcher service.
type HTTPNotifier struct {
	url    string
	client *http.Client
}

// NewHTTPNotifier creates a notifier posting to the given URL.
func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type paidPayload struct {
	Event         string `json:"event"`
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// OrderPaid posts an order.paid event to the dispatcher.
func (n *HTTPNotifier) OrderPaid(ctx context.Context, o *order.Order) error {
	body, err := json.Marshal(paidPayload{
		Event:         "order.paid",
		OrderNumber:   o.Number,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		TotalCents:    o.Totals.TotalCents,
		Currency:      o.Currency,
	})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build notification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post notification")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return errors.Errorf("notification dispatcher returned %d", resp.StatusCode)
	}
	return nil
}
