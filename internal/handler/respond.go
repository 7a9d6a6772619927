package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/checkout/completion"
	"github.com/xenking/storefront-checkout/internal/checkout/payment"
	"github.com/xenking/storefront-checkout/internal/checkout/session"
	"github.com/xenking/storefront-checkout/internal/checkout/shipping"
	"github.com/xenking/storefront-checkout/internal/commerce"
)

// Error codes of the response envelope, one per class of the error
// taxonomy. Retryable tells the client whether a retry affordance makes
// sense; nothing retries automatically.
const (
	codeInvalidRequest = "invalid_request"
	// codeConfiguration: terminal for the current step (no cart, no
	// region, no providers); user is routed back with a message.
	codeConfiguration = "configuration_error"
	// codeTransient: network or backend failure; retry affordance, no
	// automatic retry.
	codeTransient = "transient_error"
	// codeUnsupportedProvider: dev/unsupported provider cannot confirm.
	codeUnsupportedProvider = "provider_unsupported"
	// codeCompletionUnresolved: payment may be captured, order creation is
	// unconfirmed. The cart identifier stays alive; retry with the same
	// cart or contact support. Never paired with a new payment attempt.
	codeCompletionUnresolved = "completion_unresolved"
	// codeStaleFlow: the session was reset while the call was in flight;
	// the result was discarded.
	codeStaleFlow = "stale_flow"
)

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string, retryable bool) {
	respondJSON(w, status, errorResponse{Code: code, Message: message, Retryable: retryable})
}

// respondError maps a component error to the envelope. Each step handles its
// own errors here; nothing propagates further up.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var ambiguous *completion.AmbiguousError
	if errors.As(err, &ambiguous) {
		msg := "Payment was received but the order could not be confirmed. " +
			"Retry placing the order or contact support; do not pay again."
		if ambiguous.Message != "" {
			msg = ambiguous.Message
		}
		respondErrorCode(w, http.StatusConflict, codeCompletionUnresolved, msg, true)
		return
	}

	switch {
	case errors.Is(err, session.ErrNoRegions), errors.Is(err, payment.ErrNoRegion):
		respondErrorCode(w, http.StatusConflict, codeConfiguration, err.Error(), false)
		return
	case errors.Is(err, shipping.ErrUnresolvedPrice):
		respondErrorCode(w, http.StatusUnprocessableEntity, codeInvalidRequest,
			"The price for this shipping option is still being calculated. Please try again.", true)
		return
	case errors.Is(err, payment.ErrConfirmUnsupported):
		respondErrorCode(w, http.StatusConflict, codeUnsupportedProvider,
			"The selected payment provider is not available yet.", false)
		return
	case commerce.IsNotFound(err):
		respondErrorCode(w, http.StatusNotFound, codeConfiguration, "Not found.", false)
		return
	}

	var apiErr *commerce.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		respondErrorCode(w, http.StatusUnprocessableEntity, codeInvalidRequest, apiErr.Message, false)
		return
	}

	zctx.From(r.Context()).Error("Checkout step failed", zap.Error(err))
	respondErrorCode(w, http.StatusBadGateway, codeTransient,
		"The store is temporarily unavailable. Please try again.", true)
}

// decodeBody decodes a JSON request body, responding with 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		respondErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "malformed request body", false)
		return false
	}
	return true
}

// requireCartID reads the stored cart identifier without creating a cart.
// Steps past the cart itself treat a missing identifier as a configuration
// error that routes the user back.
func (h *Handler) requireCartID(w http.ResponseWriter, r *http.Request) (string, session.Store, bool) {
	store := h.store(w, r)
	id, ok := store.CartID()
	if !ok {
		respondErrorCode(w, http.StatusConflict, codeConfiguration,
			"No cart found. Please add items to your cart first.", false)
		return "", nil, false
	}
	return id, store, true
}
