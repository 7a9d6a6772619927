package payment

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

// ConfirmStatus is the outcome of a confirmation attempt.
type ConfirmStatus uint8

const (
	// StatusInitializing: the session payload carries no confirmation
	// token yet. Transient and retryable, not an error.
	StatusInitializing ConfirmStatus = iota
	// StatusSucceeded: payment authorised; advance to completion.
	StatusSucceeded
	// StatusRequiresAction: out-of-band authentication in progress. The
	// orchestrator must not advance state or touch the cart until the
	// provider reports a terminal status.
	StatusRequiresAction
	// StatusFailed: definite decline or validation failure. Recoverable in
	// place; the user may correct input and resubmit.
	StatusFailed
)

func (s ConfirmStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusRequiresAction:
		return "requires_action"
	case StatusFailed:
		return "failed"
	default:
		return "initializing"
	}
}

// ConfirmResult is the classified outcome of Provider.Confirm. Message is
// user-facing and only set for failures.
type ConfirmResult struct {
	Status  ConfirmStatus
	Message string
}

// ErrConfirmUnsupported is returned by the unsupported/dev adapter, which
// never advances the flow.
var ErrConfirmUnsupported = errors.New("provider does not support confirmation")

// Provider implements render-and-confirm semantics for one adapter kind.
type Provider interface {
	Kind() Kind
	Confirm(ctx context.Context, sess *commerce.PaymentSession, returnURL string) (ConfirmResult, error)
}

// IntentConfirmer performs the external hosted-form confirmation call.
// status is the provider's terminal wire status ("succeeded",
// "requires_action", or anything else for a failure); failureMessage is set
// on declines.
type IntentConfirmer interface {
	ConfirmIntent(ctx context.Context, clientSecret, returnURL string) (status, failureMessage string, err error)
}

// HostedForm confirms through an external hosted card form. The session
// payload must carry a confirmation token; until the provider populates it,
// confirmation reports an initializing state instead of erroring.
type HostedForm struct {
	confirmer IntentConfirmer
}

// NewHostedForm creates the hosted-form adapter.
func NewHostedForm(confirmer IntentConfirmer) *HostedForm {
	return &HostedForm{confirmer: confirmer}
}

func (h *HostedForm) Kind() Kind { return KindHostedForm }

func (h *HostedForm) Confirm(ctx context.Context, sess *commerce.PaymentSession, returnURL string) (ConfirmResult, error) {
	secret, ok := sess.ClientSecret()
	if !ok {
		return ConfirmResult{Status: StatusInitializing}, nil
	}

	status, message, err := h.confirmer.ConfirmIntent(ctx, secret, returnURL)
	if err != nil {
		return ConfirmResult{}, errors.Wrap(err, "confirm intent")
	}
	switch status {
	case "succeeded":
		return ConfirmResult{Status: StatusSucceeded}, nil
	case "requires_action":
		return ConfirmResult{Status: StatusRequiresAction}, nil
	default:
		if message == "" {
			message = "Payment failed"
		}
		return ConfirmResult{Status: StatusFailed, Message: message}, nil
	}
}

// Manual is the pay-later adapter. There is no external confirmation step:
// the explicit "place order" action is the confirmation.
type Manual struct{}

func (Manual) Kind() Kind { return KindManual }

func (Manual) Confirm(context.Context, *commerce.PaymentSession, string) (ConfirmResult, error) {
	return ConfirmResult{Status: StatusSucceeded}, nil
}

// Unsupported is the read-only dev adapter.
type Unsupported struct{}

func (Unsupported) Kind() Kind { return KindUnsupported }

func (Unsupported) Confirm(context.Context, *commerce.PaymentSession, string) (ConfirmResult, error) {
	return ConfirmResult{}, ErrConfirmUnsupported
}

// Registry resolves provider adapters by session provider identifier.
type Registry struct {
	byKind map[Kind]Provider
}

// NewRegistry builds a Registry from the given adapters. Kinds without an
// adapter resolve to Unsupported.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byKind: make(map[Kind]Provider, len(providers))}
	for _, p := range providers {
		r.byKind[p.Kind()] = p
	}
	return r
}

// Resolve returns the adapter for the provider identifier.
func (r *Registry) Resolve(providerID string) Provider {
	if p, ok := r.byKind[Classify(providerID)]; ok {
		return p
	}
	return Unsupported{}
}
