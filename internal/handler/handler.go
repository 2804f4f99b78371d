// Package handler exposes the HTTP API. Handlers decode and validate the
// transport layer, delegate business logic to the domain services, and map
// domain errors onto status codes. No business rules live here.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	stripe "github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/tehorna/checkout-api/internal/domain/auth"
	"github.com/tehorna/checkout-api/internal/domain/checkout"
	"github.com/tehorna/checkout-api/internal/domain/order"
	"github.com/tehorna/checkout-api/internal/domain/payment"
	"github.com/tehorna/checkout-api/internal/domain/product"
	"github.com/tehorna/checkout-api/internal/domain/receipt"
	"github.com/tehorna/checkout-api/internal/domain/reconcile"
)

// Handler wires the HTTP routes to the domain services.
type Handler struct {
	products      product.Repository
	checkout      *checkout.Service
	reconcile     *reconcile.Service
	receipts      *receipt.Service
	orders        order.Repository
	auth          *auth.Authenticator
	webhookSecret string
	verifyWebhook func(payload []byte, sigHeader, secret string) (stripe.Event, error)
}

// New constructs a Handler with the required domain dependencies.
func New(
	products product.Repository,
	orders order.Repository,
	checkoutSvc *checkout.Service,
	reconcileSvc *reconcile.Service,
	receipts *receipt.Service,
	authenticator *auth.Authenticator,
	webhookSecret string,
) *Handler {
	return &Handler{
		products:      products,
		orders:        orders,
		checkout:      checkoutSvc,
		reconcile:     reconcileSvc,
		receipts:      receipts,
		auth:          authenticator,
		webhookSecret: webhookSecret,
		verifyWebhook: verifyStripeSignature,
	}
}

// Router builds the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.With(h.withOptionalUser).Post("/checkout", h.postCheckout)
	r.Post("/webhooks/stripe", h.postStripeWebhook)
	r.Post("/orders/lookup", h.postGuestLookup)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/orders/verify-swish", h.postVerifySwish)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Patch("/orders/{id}/status", h.patchOrderStatus)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// mapDomainError translates domain errors to client responses. Provider and
// unknown errors surface as a generic message; their detail is logged, never
// exposed.
func mapDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr *checkout.InvalidQuantityError
		puErr *checkout.ProductUnavailableError
		pvErr *payment.ProviderError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyItems),
		errors.Is(err, checkout.ErrMissingCustomer),
		errors.Is(err, checkout.ErrMissingAddress),
		errors.Is(err, checkout.ErrUnsupportedMethod):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &iqErr):
		writeError(w, http.StatusBadRequest, iqErr.Error())
	case errors.Is(err, checkout.ErrMixedCurrency),
		errors.Is(err, checkout.ErrUnsupportedCurrency):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &puErr):
		writeError(w, http.StatusUnprocessableEntity, puErr.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, payment.ErrAttemptNotFound),
		errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, payment.ErrAttemptOrderMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, receipt.ErrTokenInvalid),
		errors.Is(err, receipt.ErrTokenExpired):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "admin role required")
	case errors.As(err, &pvErr):
		zctx.From(r.Context()).Error("provider call failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not start payment, please try again")
	default:
		zctx.From(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
