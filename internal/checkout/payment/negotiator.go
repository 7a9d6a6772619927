package payment

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

// API is the slice of the commerce client the negotiator needs.
type API interface {
	ListPaymentProviders(ctx context.Context, regionID string) ([]commerce.PaymentProvider, error)
	InitiatePaymentSession(ctx context.Context, cart *commerce.Cart, providerID string) error
	RetrieveCart(ctx context.Context, cartID string) (*commerce.Cart, error)
}

// Negotiator lists providers for a region and establishes the active payment
// session on a cart.
type Negotiator struct {
	api API
}

// NewNegotiator creates a Negotiator.
func NewNegotiator(api API) *Negotiator {
	return &Negotiator{api: api}
}

// ListProviders returns the providers valid for the cart's region, each
// classified once into its adapter kind.
func (n *Negotiator) ListProviders(ctx context.Context, regionID string) ([]ProviderOption, error) {
	providers, err := n.api.ListPaymentProviders(ctx, regionID)
	if err != nil {
		return nil, errors.Wrap(err, "list providers")
	}
	opts := make([]ProviderOption, len(providers))
	for i, p := range providers {
		opts[i] = ProviderOption{ID: p.ID, Kind: Classify(p.ID)}
	}
	return opts, nil
}

// ProviderOption is a payment provider with its resolved adapter kind.
type ProviderOption struct {
	ID   string
	Kind Kind
}

// Select initiates a payment session for the provider on the cart, then
// re-retrieves the cart. Initiation and retrieval are not atomic on the
// backend; the session payload (confirmation token included) is only
// observable through the re-fetch, so Select always performs it. Selecting a
// new provider supersedes any previous session.
func (n *Negotiator) Select(ctx context.Context, cart *commerce.Cart, providerID string) (*commerce.Cart, error) {
	if cart.RegionID == "" {
		return nil, ErrNoRegion
	}
	if err := n.api.InitiatePaymentSession(ctx, cart, providerID); err != nil {
		return nil, errors.Wrapf(err, "initiate session with %s", providerID)
	}
	updated, err := n.api.RetrieveCart(ctx, cart.ID)
	if err != nil {
		return nil, errors.Wrap(err, "refetch cart after initiation")
	}
	return updated, nil
}

// ErrNoRegion means payment negotiation was attempted on a cart without a
// region. Providers are region-scoped, so this is a configuration error.
var ErrNoRegion = errors.New("cart has no region assigned")

// ActiveSession returns the session used for confirmation: the first session
// of the cart's payment collection. At most one session is active per cart;
// a re-Select replaces it.
func ActiveSession(cart *commerce.Cart) *commerce.PaymentSession {
	if cart == nil || cart.PaymentCollection == nil || len(cart.PaymentCollection.Sessions) == 0 {
		return nil
	}
	return &cart.PaymentCollection.Sessions[0]
}
