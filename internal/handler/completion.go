package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// complete retries order completion for the session's cart. Used after an
// unresolved completion: the cart identifier is still stored, payment is
// already confirmed, and the same idempotency key is reused underneath.
func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	cartID, store, ok := h.requireCartID(w, r)
	if !ok {
		return
	}

	order, err := h.completion.Complete(r.Context(), store, cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.flows.Remove(cartID)

	view := newOrderView(order)
	respondJSON(w, http.StatusOK, map[string]any{"order": view})
}

// getOrder serves the read-only order lookup for the success view.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, chi.URLParam(r, "order_id"))
}

// getOrderByQuery is the query-parameter form used by success-page URLs
// (?order_id=...).
func (h *Handler) getOrderByQuery(w http.ResponseWriter, r *http.Request) {
	h.respondOrder(w, r, r.URL.Query().Get("order_id"))
}

func (h *Handler) respondOrder(w http.ResponseWriter, r *http.Request, orderID string) {
	if orderID == "" {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "order_id is required", false)
		return
	}
	order, err := h.commerce.RetrieveOrder(r.Context(), orderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	view := newOrderView(order)
	respondJSON(w, http.StatusOK, map[string]any{"order": view})
}
