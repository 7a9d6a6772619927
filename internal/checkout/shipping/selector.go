// Package shipping lists, prices, and commits fulfillment options for a
// cart.
package shipping

import (
	"context"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-checkout/internal/commerce"
)

// Fallback option identifiers. When the backend has no fulfillment
// configured for a cart, checkout still proceeds with these two flat-priced
// options. Selecting one is a local decision: fallback ids are never sent to
// the backend.
const (
	FallbackPrefix     = "default_"
	FallbackStandardID = "default_standard_shipping"
	FallbackExpressID  = "default_express_shipping"

	fallbackStandardAmount = 500
	fallbackExpressAmount  = 1500
)

// calculateConcurrency bounds the fan-out of price calculation calls.
const calculateConcurrency = 8

// ErrUnresolvedPrice means a calculated option was selected while its price
// could not be resolved. Pending options are never committed to a cart.
var ErrUnresolvedPrice = errors.New("shipping option price is unresolved")

// IsFallback reports whether optionID names a fallback option.
func IsFallback(optionID string) bool {
	return strings.HasPrefix(optionID, FallbackPrefix)
}

// Option is a shipping option ready for display. A calculated option whose
// price call has not resolved is Pending and must not be submitted.
type Option struct {
	ID        string
	Name      string
	PriceType commerce.PriceType
	Amount    int64
	Pending   bool
	Fallback  bool
}

// API is the slice of the commerce client the selector needs.
type API interface {
	ListShippingOptions(ctx context.Context, cartID string) ([]commerce.ShippingOption, error)
	CalculateShippingOption(ctx context.Context, optionID, cartID string) (int64, error)
	AddShippingMethod(ctx context.Context, cartID, optionID string) (*commerce.Cart, error)
	RetrieveCart(ctx context.Context, cartID string) (*commerce.Cart, error)
}

// Selector drives the shipping step.
type Selector struct {
	api API
}

// NewSelector creates a Selector.
func NewSelector(api API) *Selector {
	return &Selector{api: api}
}

// ListOptions returns the options available to the cart. An empty backend
// answer is substituted with the deterministic fallback pair so checkout is
// never blocked by missing fulfillment configuration. Calculated options are
// priced concurrently; a failed calculation leaves that option pending
// without blocking the others.
func (s *Selector) ListOptions(ctx context.Context, cartID string) ([]Option, error) {
	backend, err := s.api.ListShippingOptions(ctx, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "list options")
	}
	if len(backend) == 0 {
		return fallbackOptions(), nil
	}

	opts := make([]Option, len(backend))
	for i, o := range backend {
		opts[i] = Option{
			ID:        o.ID,
			Name:      o.Name,
			PriceType: o.PriceType,
			Amount:    o.Amount,
			Pending:   o.PriceType == commerce.PriceTypeCalculated,
		}
	}

	prices := s.resolveCalculated(ctx, cartID, opts)
	for i := range opts {
		if amount, ok := prices[opts[i].ID]; ok {
			opts[i].Amount = amount
			opts[i].Pending = false
		}
	}
	return opts, nil
}

// resolveCalculated issues one calculation call per calculated option and
// merges whatever succeeded. Goroutines never return an error: partial
// results are acceptable, the rest stay pending. Last write per option id
// wins.
func (s *Selector) resolveCalculated(ctx context.Context, cartID string, opts []Option) map[string]int64 {
	var (
		mu     sync.Mutex
		prices = make(map[string]int64)
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(calculateConcurrency)
	for _, opt := range opts {
		if opt.PriceType != commerce.PriceTypeCalculated {
			continue
		}
		g.Go(func() error {
			amount, err := s.api.CalculateShippingOption(ctx, opt.ID, cartID)
			if err != nil {
				zctx.From(ctx).Warn("Shipping price calculation failed",
					zap.String("option_id", opt.ID),
					zap.Error(err),
				)
				return nil
			}
			mu.Lock()
			prices[opt.ID] = amount
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return prices
}

// Attach commits the selected option to the cart and returns the updated
// cart. Fallback options represent no real fulfillment configuration, so
// selecting one skips the backend call and simply returns the current cart.
// A calculated option must price successfully now; one whose price is still
// unresolved is rejected with ErrUnresolvedPrice instead of committed.
func (s *Selector) Attach(ctx context.Context, cartID, optionID string) (*commerce.Cart, error) {
	if IsFallback(optionID) {
		cart, err := s.api.RetrieveCart(ctx, cartID)
		if err != nil {
			return nil, errors.Wrap(err, "retrieve cart")
		}
		return cart, nil
	}
	if err := s.ensurePriced(ctx, cartID, optionID); err != nil {
		return nil, err
	}
	cart, err := s.api.AddShippingMethod(ctx, cartID, optionID)
	if err != nil {
		return nil, errors.Wrap(err, "attach option")
	}
	return cart, nil
}

// ensurePriced re-runs the price calculation when optionID names a
// calculated option, so a pending price never reaches the cart.
func (s *Selector) ensurePriced(ctx context.Context, cartID, optionID string) error {
	backend, err := s.api.ListShippingOptions(ctx, cartID)
	if err != nil {
		return errors.Wrap(err, "list options")
	}
	for _, o := range backend {
		if o.ID != optionID || o.PriceType != commerce.PriceTypeCalculated {
			continue
		}
		if _, err := s.api.CalculateShippingOption(ctx, optionID, cartID); err != nil {
			zctx.From(ctx).Warn("Rejecting shipping option with unresolved price",
				zap.String("option_id", optionID),
				zap.Error(err),
			)
			return errors.Wrapf(ErrUnresolvedPrice, "option %s", optionID)
		}
	}
	return nil
}

func fallbackOptions() []Option {
	return []Option{
		{
			ID:        FallbackStandardID,
			Name:      "Standard Shipping",
			PriceType: commerce.PriceTypeFlat,
			Amount:    fallbackStandardAmount,
			Fallback:  true,
		},
		{
			ID:        FallbackExpressID,
			Name:      "Express Shipping",
			PriceType: commerce.PriceTypeFlat,
			Amount:    fallbackExpressAmount,
			Fallback:  true,
		},
	}
}
