package commerce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
)

// ListPaymentProviders returns the payment providers configured for a region.
func (c *Client) ListPaymentProviders(ctx context.Context, regionID string) ([]PaymentProvider, error) {
	query := url.Values{"region_id": []string{regionID}}
	var env struct {
		PaymentProviders []PaymentProvider `json:"payment_providers"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/payment-providers", query, nil, &env); err != nil {
		return nil, errors.Wrapf(err, "list payment providers for region %s", regionID)
	}
	return env.PaymentProviders, nil
}

// InitiatePaymentSession creates or reuses a payment session for the given
// provider on the cart. The backend exposes no session in this response;
// effects are only observable by re-retrieving the cart, which the payment
// negotiator always does.
func (c *Client) InitiatePaymentSession(ctx context.Context, cart *Cart, providerID string) error {
	collectionID := ""
	if cart.PaymentCollection != nil {
		collectionID = cart.PaymentCollection.ID
	}
	if collectionID == "" {
		var env struct {
			PaymentCollection PaymentCollection `json:"payment_collection"`
		}
		body := map[string]string{"cart_id": cart.ID}
		if err := c.do(ctx, http.MethodPost, "/store/payment-collections", nil, body, &env); err != nil {
			return errors.Wrapf(err, "create payment collection for cart %s", cart.ID)
		}
		collectionID = env.PaymentCollection.ID
	}

	body := map[string]string{"provider_id": providerID}
	if err := c.do(ctx, http.MethodPost, "/store/payment-collections/"+collectionID+"/payment-sessions", nil, body, nil); err != nil {
		return errors.Wrapf(err, "initiate %s session on collection %s", providerID, collectionID)
	}
	return nil
}
