package handler

import (
	"encoding/json"
	"net/http"
)

type guestLookupRequest struct {
	OrderNumber string `json:"order_number"`
	Token       string `json:"token"`
}

// postGuestLookup is the token-gated, unauthenticated receipt endpoint. It
// only works for guest manual-transfer orders; anything else fails exactly
// like a wrong token.
func (h *Handler) postGuestLookup(w http.ResponseWriter, r *http.Request) {
	var req guestLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OrderNumber == "" || req.Token == "" {
		writeError(w, http.StatusBadRequest, "order_number and token required")
		return
	}

	receipt, err := h.receipts.Lookup(r.Context(), req.OrderNumber, req.Token)
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "order": receipt})
}
