package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/checkout/flow"
	"github.com/xenking/storefront-checkout/internal/checkout/payment"
)

// listPaymentProviders returns the providers valid for the cart's region,
// each tagged with its adapter kind so the client renders the right surface
// without re-inspecting identifiers.
func (h *Handler) listPaymentProviders(w http.ResponseWriter, r *http.Request) {
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
		h.respondError(w, r, payment.ErrNoRegion)
		return
	}

	providers, err := h.negotiator.ListProviders(r.Context(), cart.RegionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	views := make([]providerView, len(providers))
	for i, p := range providers {
		views[i] = providerView{ID: p.ID, Kind: p.Kind.String()}
	}
	respondJSON(w, http.StatusOK, map[string]any{"payment_providers": views})
}

type selectProviderRequest struct {
	ProviderID string `json:"provider_id"`
}

// selectPaymentProvider initiates a payment session with the chosen provider
// and returns the re-fetched cart, session payload included. A new selection
// supersedes any previous session.
func (h *Handler) selectPaymentProvider(w http.ResponseWriter, r *http.Request) {
	var req selectProviderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProviderID == "" {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "provider_id is required", false)
		return
	}

	cartID, _, ok := h.requireCartID(w, r)
	if !ok {
		return
	}
	cart, err := h.commerce.RetrieveCart(r.Context(), cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	m := h.flows.Get(cartID)
	_, epoch := m.Snapshot()

	updated, err := h.negotiator.Select(r.Context(), cart, req.ProviderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := applySequence(m, epoch, flow.StatePayment, flow.StateConfirm); err != nil {
		if errors.Is(err, flow.ErrStale) {
			respondErrorCode(w, http.StatusConflict, codeStaleFlow, "Checkout session was reset.", false)
			return
		}
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartView(updated))
}

type confirmResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message,omitempty"`
	Order   *orderView `json:"order,omitempty"`
}

// confirmPayment runs the provider adapter for the active session and, on
// success, hands off to the completion coordinator. The response status maps
// one-to-one to the adapter outcome:
//
//   - initializing: no confirmation token yet, retry shortly (202)
//   - requires_action: out-of-band authentication pending; the cart is left
//     untouched (200)
//   - failed: decline or validation failure, recoverable in place (422)
//   - succeeded: order creation attempted; see Order or completion error
func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	cartID, store, ok := h.requireCartID(w, r)
	if !ok {
		return
	}
	cart, err := h.commerce.RetrieveCart(r.Context(), cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	sess := payment.ActiveSession(cart)
	if sess == nil {
		respondErrorCode(w, http.StatusConflict, codeConfiguration,
			"No payment session. Select a payment method first.", false)
		return
	}

	m := h.flows.Get(cartID)
	_, epoch := m.Snapshot()

	provider := h.providers.Resolve(sess.ProviderID)
	result, err := provider.Confirm(r.Context(), sess, h.cfg.ReturnURL)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	switch result.Status {
	case payment.StatusInitializing:
		respondJSON(w, http.StatusAccepted, confirmResponse{Status: result.Status.String()})
		return
	case payment.StatusRequiresAction:
		respondJSON(w, http.StatusOK, confirmResponse{Status: result.Status.String()})
		return
	case payment.StatusFailed:
		respondJSON(w, http.StatusUnprocessableEntity, confirmResponse{
			Status:  result.Status.String(),
			Message: result.Message,
		})
		return
	}

	order, err := h.completion.Complete(r.Context(), store, cartID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// A reset while completion was in flight cannot unmake the order; the
	// stale transition is discarded and the machine dropped either way.
	if err := applySequence(m, epoch, flow.StateConfirm, flow.StateCompleted); err != nil && !errors.Is(err, flow.ErrStale) {
		h.respondError(w, r, err)
		return
	}
	h.flows.Remove(cartID)

	view := newOrderView(order)
	respondJSON(w, http.StatusOK, confirmResponse{Status: payment.StatusSucceeded.String(), Order: &view})
}
