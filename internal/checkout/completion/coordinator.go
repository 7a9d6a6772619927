// Package completion finalises a cart whose payment has been confirmed.
package completion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/checkout/session"
	"github.com/xenking/storefront-checkout/internal/commerce"
)

// AmbiguousError is the most severe failure class: payment may already be
// captured while order creation is unconfirmed. It is never retried
// automatically and must keep the cart identifier alive until resolved; the
// user retries completion on the same cart or contacts support.
type AmbiguousError struct {
	// Message is the backend's completion error, when it returned the cart
	// back with one.
	Message string
	// Err is the transport or backend failure, when the call itself
	// failed.
	Err error
}

func (e *AmbiguousError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order completion unresolved: %v", e.Err)
	}
	if e.Message != "" {
		return "order completion unresolved: " + e.Message
	}
	return "order completion unresolved"
}

func (e *AmbiguousError) Unwrap() error { return e.Err }

// API is the slice of the commerce client the coordinator needs.
type API interface {
	CompleteCart(ctx context.Context, cartID, idempotencyKey string) (*commerce.CompleteResult, error)
}

// Coordinator converts a payment-confirmed cart into an order and owns the
// classification of the result. It never retries on its own; retrying is an
// explicit caller action, and the same idempotency key is reused across
// retries for one cart so the backend cannot double-create.
type Coordinator struct {
	api API

	mu   sync.Mutex
	keys map[string]*idemKey
}

type idemKey struct {
	key     string
	touched time.Time
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(api API) *Coordinator {
	return &Coordinator{api: api, keys: make(map[string]*idemKey)}
}

// Complete finalises the cart. On success it clears the session store (the
// cart is terminated and the persisted identifier must not outlive it) and
// returns the order. Both the cart-with-error outcome and a transport
// failure return *AmbiguousError, leaving the stored cart identifier intact
// so completion can be retried with the same cart.
func (c *Coordinator) Complete(ctx context.Context, store session.Store, cartID string) (*commerce.Order, error) {
	res, err := c.api.CompleteCart(ctx, cartID, c.keyFor(cartID))
	if err != nil {
		return nil, &AmbiguousError{Err: err}
	}
	if !res.OrderCreated() {
		return nil, &AmbiguousError{Message: res.Err}
	}

	c.forget(cartID)
	if err := store.Clear(); err != nil {
		// The order exists; a failed cookie write must not fail checkout.
		zctx.From(ctx).Error("Failed to clear cart identifier after completion",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
	}
	return res.Order, nil
}

// keyFor returns the idempotency key for a cart, minting one on first use
// and reusing it for every retry of the same completion.
func (c *Coordinator) keyFor(cartID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.keys[cartID]; ok {
		k.touched = time.Now()
		return k.key
	}
	k := &idemKey{key: uuid.New().String(), touched: time.Now()}
	c.keys[cartID] = k
	return k.key
}

func (c *Coordinator) forget(cartID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.keys, cartID)
}

// evict drops keys of carts whose completion has not been retried for
// maxAge. An abandoned unresolved completion holds its key only this long;
// a retry after eviction mints a fresh key, which is the pre-confirmation
// behaviour anyway.
func (c *Coordinator) evict(now time.Time, maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for cartID, k := range c.keys {
		if now.Sub(k.touched) >= maxAge {
			delete(c.keys, cartID)
		}
	}
}

// StartEviction launches a background goroutine that periodically drops
// stale idempotency keys, until ctx is done.
func (c *Coordinator) StartEviction(ctx context.Context, interval, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.evict(now, maxAge)
			}
		}
	}()
}
