package commerce

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
)

// ListRegions returns the regions configured on the backend.
func (c *Client) ListRegions(ctx context.Context) ([]Region, error) {
	var env struct {
		Regions []Region `json:"regions"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/regions", nil, nil, &env); err != nil {
		return nil, errors.Wrap(err, "list regions")
	}
	return env.Regions, nil
}

// RetrieveOrder fetches a completed order for the read-only success view.
func (c *Client) RetrieveOrder(ctx context.Context, orderID string) (*Order, error) {
	var env struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/store/orders/"+orderID, nil, nil, &env); err != nil {
		return nil, errors.Wrapf(err, "retrieve order %s", orderID)
	}
	return &env.Order, nil
}
