package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ensureCart resolves the session's cart, creating one when the stored
// identifier is missing or no longer valid.
func (h *Handler) ensureCart(w http.ResponseWriter, r *http.Request) {
	store := h.store(w, r)
	cart, err := h.sessions.EnsureCart(r.Context(), store)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartView(cart))
}

type addLineItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addLineItem(w http.ResponseWriter, r *http.Request) {
	var req addLineItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.VariantID == "" || req.Quantity <= 0 {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest,
			"variant_id and a positive quantity are required", false)
		return
	}

	store := h.store(w, r)
	cart, err := h.sessions.EnsureCart(r.Context(), store)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	updated, err := h.commerce.AddLineItem(r.Context(), cart.ID, req.VariantID, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	// Editing items returns the session to the cart step; any checkout
	// transition still in flight is superseded and will be discarded.
	h.flows.Get(updated.ID).Reset()
	respondJSON(w, http.StatusOK, newCartView(updated))
}

type updateLineItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateLineItem(w http.ResponseWriter, r *http.Request) {
	var req updateLineItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest,
			"quantity must be greater than 0", false)
		return
	}

	cartID, _, ok := h.requireCartID(w, r)
	if !ok {
		return
	}
	updated, err := h.commerce.UpdateLineItem(r.Context(), cartID, chi.URLParam(r, "item_id"), req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.flows.Get(cartID).Reset()
	respondJSON(w, http.StatusOK, newCartView(updated))
}

func (h *Handler) deleteLineItem(w http.ResponseWriter, r *http.Request) {
	cartID, _, ok := h.requireCartID(w, r)
	if !ok {
		return
	}
	updated, err := h.commerce.DeleteLineItem(r.Context(), cartID, chi.URLParam(r, "item_id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.flows.Get(cartID).Reset()
	respondJSON(w, http.StatusOK, newCartView(updated))
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.sessions.Regions(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"regions": regions})
}
