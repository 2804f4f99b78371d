package handler

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tehorna/checkout-api/internal/domain/checkout"
	"github.com/tehorna/checkout-api/internal/domain/order"
)

type checkoutItem struct {
	ProductID string `json:"product_id"`
	// Decoded as a json.Number so a fractional quantity surfaces as an
	// invalid-quantity error instead of a generic decode failure.
	Quantity json.Number `json:"quantity"`
}

type checkoutAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type checkoutRequest struct {
	Items         []checkoutItem  `json:"items"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	Address       checkoutAddress `json:"address"`
	Lang          string          `json:"lang"`
	PaymentMethod string          `json:"payment_method"`
}

type cardCheckoutResponse struct {
	URL         string `json:"url"`
	OrderNumber string `json:"order_number"`
}

type manualCheckoutResponse struct {
	OK          bool   `json:"ok"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	AttemptID   string `json:"attempt_id"`
	SwishNumber string `json:"swish_number"`
	Reference   string `json:"reference"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	QRSVG       string `json:"qr_svg"`
	Deeplink    string `json:"deeplink"`
	Guest       bool   `json:"guest"`
	GuestToken  string `json:"guest_token,omitempty"`
	PendingURL  string `json:"pending_url,omitempty"`
}

func (h *Handler) postCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	items := make([]checkout.ItemInput, len(req.Items))
	for i, it := range req.Items {
		qty, err := it.Quantity.Int64()
		if err != nil {
			mapDomainError(w, r, &checkout.InvalidQuantityError{ProductID: it.ProductID})
			return
		}
		items[i] = checkout.ItemInput{ProductID: it.ProductID, Quantity: int(qty)}
	}

	result, err := h.checkout.Checkout(r.Context(), checkout.Request{
		Items:         items,
		UserID:        userIDFromContext(r.Context()),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address: order.Address{
			Street:     req.Address.Street,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
		Method: order.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("order.number", result.Order.Number),
		attribute.String("order.payment_method", string(result.Order.Method)),
	)

	if result.Attempt.Manual != nil {
		m := result.Attempt.Manual
		writeJSON(w, http.StatusCreated, manualCheckoutResponse{
			OK:          true,
			OrderID:     result.Order.ID,
			OrderNumber: result.Order.Number,
			AttemptID:   m.AttemptID,
			SwishNumber: m.PayeeNumber,
			Reference:   m.Reference,
			AmountCents: m.AmountCents,
			Currency:    m.Currency,
			QRSVG:       m.QRSVG,
			Deeplink:    m.Deeplink,
			Guest:       m.GuestToken != "",
			GuestToken:  m.GuestToken,
			PendingURL:  m.PendingURL,
		})
		return
	}

	writeJSON(w, http.StatusCreated, cardCheckoutResponse{
		URL:         result.Attempt.RedirectURL,
		OrderNumber: result.Order.Number,
	})
}
