package handler

import (
	"net/http"
)

type productResponse struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// listProducts returns the active catalog for the cart UI.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		mapDomainError(w, r, err)
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = productResponse{
			ID:         p.ID,
			Slug:       p.Slug,
			Title:      p.Title,
			Category:   p.Category,
			PriceCents: p.PriceCents,
			Currency:   p.Currency,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
