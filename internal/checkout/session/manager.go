package session

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

// ErrNoRegions means the backend has no regions configured, so a new cart
// cannot be created. This is a configuration error: the caller routes the
// user back with a message instead of retrying.
var ErrNoRegions = errors.New("no regions configured on commerce backend")

// CartAPI is the slice of the commerce client the manager needs.
type CartAPI interface {
	CreateCart(ctx context.Context, regionID string) (*commerce.Cart, error)
	RetrieveCart(ctx context.Context, cartID string) (*commerce.Cart, error)
	UpdateCartRegion(ctx context.Context, cartID, regionID string) (*commerce.Cart, error)
	ListRegions(ctx context.Context) ([]commerce.Region, error)
}

// Manager resolves the active cart for a session, creating one when none
// exists or the stored identifier no longer resolves.
type Manager struct {
	api             CartAPI
	defaultRegionID string
}

// NewManager creates a Manager. defaultRegionID may be empty, in which case
// new carts are assigned the first region the backend lists.
func NewManager(api CartAPI, defaultRegionID string) *Manager {
	return &Manager{api: api, defaultRegionID: defaultRegionID}
}

// EnsureCart returns the cart for the stored identifier. When no identifier
// is stored, or retrieval fails (expired or unknown cart), it creates a new
// cart with a default region and overwrites the stored identifier. A failed
// retrieval is never surfaced to the caller.
//
// Calling EnsureCart twice without an intervening mutation returns the same
// cart identifier.
func (m *Manager) EnsureCart(ctx context.Context, store Store) (*commerce.Cart, error) {
	if id, ok := store.CartID(); ok {
		cart, err := m.api.RetrieveCart(ctx, id)
		if err == nil {
			return cart, nil
		}
		zctx.From(ctx).Warn("Stored cart unusable, creating a new one",
			zap.String("cart_id", id),
			zap.Error(err),
		)
	}

	regionID := m.defaultRegionID
	if regionID == "" {
		regions, err := m.api.ListRegions(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "resolve default region")
		}
		if len(regions) == 0 {
			return nil, ErrNoRegions
		}
		regionID = regions[0].ID
	}

	cart, err := m.api.CreateCart(ctx, regionID)
	if err != nil {
		return nil, errors.Wrap(err, "create cart")
	}
	if err := store.SetCartID(cart.ID); err != nil {
		return nil, errors.Wrap(err, "persist cart id")
	}
	return cart, nil
}

// EnsureRegion assigns a region to a cart that has none, picking the
// configured default or the first listed region. Carts without a region can
// resolve neither shipping options nor payment providers.
func (m *Manager) EnsureRegion(ctx context.Context, cart *commerce.Cart) (*commerce.Cart, error) {
	if cart.RegionID != "" {
		return cart, nil
	}
	regionID := m.defaultRegionID
	if regionID == "" {
		regions, err := m.api.ListRegions(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "resolve region")
		}
		if len(regions) == 0 {
			return nil, ErrNoRegions
		}
		regionID = regions[0].ID
	}
	updated, err := m.api.UpdateCartRegion(ctx, cart.ID, regionID)
	if err != nil {
		return nil, errors.Wrapf(err, "assign region %s", regionID)
	}
	return updated, nil
}

// Regions lists the regions configured on the backend.
func (m *Manager) Regions(ctx context.Context) ([]commerce.Region, error) {
	return m.api.ListRegions(ctx)
}
