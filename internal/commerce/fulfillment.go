package commerce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
)

// ListShippingOptions returns the fulfillment options available to a cart.
// An empty list is a valid backend answer, not an error; the shipping
// selector decides what to do with it.
func (c *Client) ListShippingOptions(ctx context.Context, cartID string) ([]ShippingOption, error) {
	query := url.Values{"cart_id": []string{cartID}}
	var env struct {
		ShippingOptions []ShippingOption `json:"shipping_options"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/shipping-options", query, nil, &env); err != nil {
		return nil, errors.Wrapf(err, "list shipping options for cart %s", cartID)
	}
	return env.ShippingOptions, nil
}

// CalculateShippingOption resolves the price of a calculated option for the
// given cart.
func (c *Client) CalculateShippingOption(ctx context.Context, optionID, cartID string) (int64, error) {
	body := map[string]any{"cart_id": cartID, "data": map[string]any{}}
	var env struct {
		ShippingOption ShippingOption `json:"shipping_option"`
	}
	if err := c.do(ctx, http.MethodPost, "/store/shipping-options/"+optionID+"/calculate", nil, body, &env); err != nil {
		return 0, errors.Wrapf(err, "calculate shipping option %s", optionID)
	}
	return env.ShippingOption.Amount, nil
}
