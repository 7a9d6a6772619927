package commerce

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
)

type cartEnvelope struct {
	Cart Cart `json:"cart"`
}

// CreateCart creates a new cart scoped to the given region.
func (c *Client) CreateCart(ctx context.Context, regionID string) (*Cart, error) {
	body := map[string]string{}
	if regionID != "" {
		body["region_id"] = regionID
	}
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts", nil, body, &env); err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	return &env.Cart, nil
}

// RetrieveCart fetches a cart by identifier.
func (c *Client) RetrieveCart(ctx context.Context, cartID string) (*Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, http.MethodGet, "/store/carts/"+cartID, nil, nil, &env); err != nil {
		return nil, errors.Wrapf(err, "retrieve cart %s", cartID)
	}
	return &env.Cart, nil
}

// UpdateCartRegion assigns a region to the cart. A cart without a region can
// resolve neither shipping options nor payment providers.
func (c *Client) UpdateCartRegion(ctx context.Context, cartID, regionID string) (*Cart, error) {
	var env cartEnvelope
	body := map[string]string{"region_id": regionID}
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID, nil, body, &env); err != nil {
		return nil, errors.Wrapf(err, "update cart %s region", cartID)
	}
	return &env.Cart, nil
}

// AddLineItem adds a quantity of a product variant to the cart.
func (c *Client) AddLineItem(ctx context.Context, cartID, variantID string, quantity int) (*Cart, error) {
	body := map[string]any{"variant_id": variantID, "quantity": quantity}
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items", nil, body, &env); err != nil {
		return nil, errors.Wrapf(err, "add line item to cart %s", cartID)
	}
	return &env.Cart, nil
}

// UpdateLineItem changes the quantity of an existing line item.
func (c *Client) UpdateLineItem(ctx context.Context, cartID, itemID string, quantity int) (*Cart, error) {
	body := map[string]any{"quantity": quantity}
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/line-items/"+itemID, nil, body, &env); err != nil {
		return nil, errors.Wrapf(err, "update line item %s", itemID)
	}
	return &env.Cart, nil
}

// DeleteLineItem removes a line item and returns the parent cart.
func (c *Client) DeleteLineItem(ctx context.Context, cartID, itemID string) (*Cart, error) {
	var env struct {
		Parent Cart `json:"parent"`
	}
	if err := c.do(ctx, http.MethodDelete, "/store/carts/"+cartID+"/line-items/"+itemID, nil, nil, &env); err != nil {
		return nil, errors.Wrapf(err, "delete line item %s", itemID)
	}
	return &env.Parent, nil
}

// AddShippingMethod commits a shipping option to the cart.
func (c *Client) AddShippingMethod(ctx context.Context, cartID, optionID string) (*Cart, error) {
	body := map[string]any{"option_id": optionID, "data": map[string]any{}}
	var env cartEnvelope
	if err := c.do(ctx, http.MethodPost, "/store/carts/"+cartID+"/shipping-methods", nil, body, &env); err != nil {
		return nil, errors.Wrapf(err, "add shipping method to cart %s", cartID)
	}
	return &env.Cart, nil
}

// CompleteCart asks the backend to convert the cart into an order. The
// outcome is classified, never collapsed: an order, or the cart back with an
// embedded error. idempotencyKey, when non-empty, is forwarded so a backend
// honouring Idempotency-Key cannot double-create an order on retry.
//
// A transport or backend failure here is not a plain error for callers: the
// payment may already be captured. The completion coordinator owns that
// interpretation.
func (c *Client) CompleteCart(ctx context.Context, cartID, idempotencyKey string) (*CompleteResult, error) {
	var headers http.Header
	if idempotencyKey != "" {
		headers = http.Header{"Idempotency-Key": []string{idempotencyKey}}
	}
	var env struct {
		Type  string          `json:"type"`
		Order *Order          `json:"order"`
		Cart  *Cart           `json:"cart"`
		Error json.RawMessage `json:"error"`
	}
	if err := c.doHeaders(ctx, http.MethodPost, "/store/carts/"+cartID+"/complete", nil, headers, map[string]any{}, &env); err != nil {
		return nil, errors.Wrapf(err, "complete cart %s", cartID)
	}

	switch env.Type {
	case "order":
		if env.Order == nil {
			return nil, errors.New("complete response of type order has no order")
		}
		return &CompleteResult{Order: env.Order}, nil
	case "cart":
		return &CompleteResult{Cart: env.Cart, Err: completionErrorMessage(env.Error)}, nil
	default:
		return nil, errors.Errorf("unknown complete response type %q", env.Type)
	}
}

// completionErrorMessage normalises the error field of a failed completion,
// which the backend returns either as a bare string or as {message}.
func completionErrorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
