package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"

	"github.com/tehorna/checkout-api/internal/domain/order"
)

// maxWebhookBody caps the raw payload size read from the wire.
const maxWebhookBody = 1 << 16

const stripeSignatureHeader = "Stripe-Signature"

// postStripeWebhook receives provider-signed events. The signature check runs
// on the raw request body; parsing anything before verification would break
// it. Unknown event types are acknowledged so the provider does not retry
// them forever.
func (h *Handler) postStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	sig := r.Header.Get(stripeSignatureHeader)
	if sig == "" {
		writeError(w, http.StatusBadRequest, "missing signature")
		return
	}

	event, err := h.verifyWebhook(body, sig, h.webhookSecret)
	if err != nil {
		zctx.From(r.Context()).Warn("webhook signature rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		err = h.applySessionEvent(r, event, true)
	case "checkout.session.expired":
		err = h.applySessionEvent(r, event, false)
	default:
		// Accepted and ignored.
	}
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) applySessionEvent(r *http.Request, event stripe.Event, completed bool) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return errors.Wrap(err, "decode session payload")
	}

	ctx := r.Context()
	o, err := h.reconcile.ResolveBySession(ctx, sess.Metadata["order_id"], sess.ID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// Nothing to reconcile against; retrying will not help, so
			// acknowledge and log.
			zctx.From(ctx).Warn("webhook for unknown order",
				zap.String("session_id", sess.ID),
				zap.String("event_type", string(event.Type)),
			)
			return nil
		}
		return err
	}

	if completed {
		return h.reconcile.SessionCompleted(ctx, o, event.Data.Raw)
	}
	return h.reconcile.SessionExpired(ctx, o, event.Data.Raw)
}

// verifyStripeSignature is the production webhook verifier.
func verifyStripeSignature(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}
