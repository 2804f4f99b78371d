package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tehorna/checkout-api/internal/domain/order"
)

type verifySwishRequest struct {
	AttemptID string `json:"attempt_id"`
	OrderID   string `json:"order_id"`
}

type verifySwishResponse struct {
	OK          bool `json:"ok"`
	AlreadyPaid bool `json:"already_paid,omitempty"`
}

// postVerifySwish marks a manual-transfer attempt as paid after human
// review. Verifying twice is a success both times, with exactly one
// transition event and one notification in total.
func (h *Handler) postVerifySwish(w http.ResponseWriter, r *http.Request) {
	var req verifySwishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.AttemptID == "" || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "attempt_id and order_id required")
		return
	}

	operator := userFromContext(r.Context())
	result, err := h.reconcile.VerifyManualAttempt(r.Context(), operator.ID, req.AttemptID, req.OrderID)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, verifySwishResponse{OK: true, AlreadyPaid: result.AlreadyPaid})
}

type adminOrder struct {
	ID        string            `json:"id"`
	Number    string            `json:"order_number"`
	Customer  string            `json:"customer_name"`
	Email     string            `json:"customer_email,omitempty"`
	Items     []order.Item      `json:"items"`
	Totals    order.Totals      `json:"totals"`
	Currency  string            `json:"currency"`
	Method    string            `json:"payment_method"`
	Provider  string            `json:"payment_provider"`
	Status    string            `json:"status"`
	SessionID string            `json:"provider_session_id,omitempty"`
	Metadata  map[string]string `json:"provider_metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	PaidAt    *string           `json:"paid_at,omitempty"`
}

func toAdminOrder(o *order.Order) adminOrder {
	out := adminOrder{
		ID:        o.ID,
		Number:    o.Number,
		Customer:  o.CustomerName,
		Email:     o.CustomerEmail,
		Items:     o.Items,
		Totals:    o.Totals,
		Currency:  o.Currency,
		Method:    string(o.Method),
		Provider:  o.Provider,
		Status:    string(o.Status),
		SessionID: o.SessionID,
		Metadata:  o.Metadata,
		CreatedAt: o.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if o.PaidAt != nil {
		s := o.PaidAt.Format("2006-01-02T15:04:05Z07:00")
		out.PaidAt = &s
	}
	return out
}

// listOrders returns recent orders, optionally filtered by status. Stuck
// AWAITING_PAYMENT orders with no session id show up here.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{Status: order.Status(r.URL.Query().Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	ords, err := h.orders.List(r.Context(), filter)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	out := make([]adminOrder, len(ords))
	for i := range ords {
		out[i] = toAdminOrder(&ords[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "orders": out})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "order": toAdminOrder(o)})
}

type statusPatchRequest struct {
	Status string `json:"status"`
}

// patchOrderStatus is the operator escape hatch: a direct status edit,
// logged as its own event type, outside the automatic transition rules.
func (h *Handler) patchOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !order.Status(req.Status).Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	operator := userFromContext(r.Context())
	err := h.reconcile.OverrideStatus(r.Context(), operator.ID, chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		mapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
