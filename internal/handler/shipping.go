package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/checkout/flow"
)

// listShippingOptions returns the fulfillment options for the session's
// cart, fallback pair included when the backend has none. Entering this step
// moves the flow to shipping.
func (h *Handler) listShippingOptions(w http.ResponseWriter, r *http.Request) {
	cartID, _, ok := h.requireCartID(w, r)
	if !ok {
		return
	}

	cart, err := h.commerce.RetrieveCart(r.Context(), cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if cart.RegionID == "" {
		respondErrorCode(w, http.StatusConflict, codeConfiguration,
			"Cart region not set. Please go back and set your address.", false)
		return
	}

	m := h.flows.Get(cartID)
	_, epoch := m.Snapshot()

	opts, err := h.shipping.ListOptions(r.Context(), cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := m.Apply(epoch, flow.StateShipping); errors.Is(err, flow.ErrStale) {
		respondErrorCode(w, http.StatusConflict, codeStaleFlow, "Checkout session was reset.", false)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"shipping_options": newShippingOptionViews(opts, cart.CurrencyCode),
	})
}

type selectShippingRequest struct {
	OptionID string `json:"option_id"`
}

// selectShipping commits the chosen option. Unresolved calculated options
// are rejected; fallback options advance the flow without a backend call.
func (h *Handler) selectShipping(w http.ResponseWriter, r *http.Request) {
	var req selectShippingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OptionID == "" {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "option_id is required", false)
		return
	}

	cartID, _, ok := h.requireCartID(w, r)
	if !ok {
		return
	}

	m := h.flows.Get(cartID)
	_, epoch := m.Snapshot()

	cart, err := h.shipping.Attach(r.Context(), cartID, req.OptionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// Late response after a reset is discarded; the backend write stands,
	// but this session no longer advances on it.
	if err := applySequence(m, epoch, flow.StateShipping, flow.StatePayment); err != nil {
		if errors.Is(err, flow.ErrStale) {
			respondErrorCode(w, http.StatusConflict, codeStaleFlow, "Checkout session was reset.", false)
			return
		}
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartView(cart))
}

// applySequence applies transitions in order with one snapshot epoch,
// tolerating steps the machine has already passed.
func applySequence(m *flow.Machine, epoch uint64, states ...flow.State) error {
	for _, s := range states {
		if err := m.Apply(epoch, s); err != nil && !errors.Is(err, flow.ErrInvalidTransition) {
			return err
		}
	}
	return nil
}
