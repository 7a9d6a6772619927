// Package handler exposes the checkout orchestration over HTTP to the
// storefront client.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront-checkout/internal/checkout/completion"
	"github.com/xenking/storefront-checkout/internal/checkout/flow"
	"github.com/xenking/storefront-checkout/internal/checkout/payment"
	"github.com/xenking/storefront-checkout/internal/checkout/session"
	"github.com/xenking/storefront-checkout/internal/checkout/shipping"
	"github.com/xenking/storefront-checkout/internal/commerce"
)

// Config holds non-dependency settings for the Handler.
type Config struct {
	// CookieName is the session cookie carrying the cart identifier.
	CookieName string
	// SecureCookies marks session cookies Secure (HTTPS-only deployments).
	SecureCookies bool
	// ReturnURL is passed to the hosted payment provider for out-of-band
	// authentication redirects.
	ReturnURL string
}

// Handler wires the checkout components to routes. Every request constructs
// its own session store from the cookie pair; no flow state is reachable
// except through explicit dependencies.
type Handler struct {
	cfg        Config
	commerce   *commerce.Client
	sessions   *session.Manager
	shipping   *shipping.Selector
	negotiator *payment.Negotiator
	providers  *payment.Registry
	completion *completion.Coordinator
	flows      *flow.Registry
}

// New constructs a Handler.
func New(
	cfg Config,
	client *commerce.Client,
	sessions *session.Manager,
	selector *shipping.Selector,
	negotiator *payment.Negotiator,
	providers *payment.Registry,
	coordinator *completion.Coordinator,
	flows *flow.Registry,
) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "cart_id"
	}
	return &Handler{
		cfg:        cfg,
		commerce:   client,
		sessions:   sessions,
		shipping:   selector,
		negotiator: negotiator,
		providers:  providers,
		completion: coordinator,
		flows:      flows,
	}
}

// Routes mounts all checkout endpoints.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/cart", h.ensureCart)
		r.Post("/cart/line-items", h.addLineItem)
		r.Patch("/cart/line-items/{item_id}", h.updateLineItem)
		r.Delete("/cart/line-items/{item_id}", h.deleteLineItem)

		r.Get("/regions", h.listRegions)

		r.Get("/shipping/options", h.listShippingOptions)
		r.Post("/shipping/select", h.selectShipping)

		r.Get("/payment/providers", h.listPaymentProviders)
		r.Post("/payment/select", h.selectPaymentProvider)
		r.Post("/payment/confirm", h.confirmPayment)

		r.Post("/complete", h.complete)

		r.Get("/orders/{order_id}", h.getOrder)
		r.Get("/order", h.getOrderByQuery)
	})
	return r
}

// store builds the cookie-backed session store for one request pair.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) session.Store {
	return session.NewCookieStore(w, r, h.cfg.CookieName, h.cfg.SecureCookies)
}
