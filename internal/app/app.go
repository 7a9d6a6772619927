package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/storefront-checkout/internal/checkout/completion"
	"github.com/xenking/storefront-checkout/internal/checkout/flow"
	"github.com/xenking/storefront-checkout/internal/checkout/payment"
	"github.com/xenking/storefront-checkout/internal/checkout/session"
	"github.com/xenking/storefront-checkout/internal/checkout/shipping"
	"github.com/xenking/storefront-checkout/internal/commerce"
	"github.com/xenking/storefront-checkout/internal/handler"
	"github.com/xenking/storefront-checkout/internal/stripe"
	"github.com/xenking/storefront-checkout/pkg/health"
	"github.com/xenking/storefront-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("commerce_url", cfg.Commerce.URL))

	// Commerce backend client, instrumented with the app telemetry.
	store := commerce.New(commerce.Config{
		BaseURL:        cfg.Commerce.URL,
		PublishableKey: cfg.Commerce.PublishableKey,
		Client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
		},
	})

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("commerce-backend", 5*time.Second, store.Ping)
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Checkout components.
	sessions := session.NewManager(store, cfg.Commerce.DefaultRegionID)
	selector := shipping.NewSelector(store)
	negotiator := payment.NewNegotiator(store)
	coordinator := completion.NewCoordinator(store)
	flows := flow.NewRegistry()

	// In-memory per-cart state is dropped for carts idle for a day; the
	// cart itself lives in the backend and the identifier in the cookie,
	// so a returning session rebuilds flow state from scratch.
	flows.StartEviction(ctx, time.Hour, 24*time.Hour)
	coordinator.StartEviction(ctx, time.Hour, 24*time.Hour)

	// Provider adapters. The hosted form confirms against the external
	// payment provider; manual and unsupported are self-contained.
	confirmer := stripe.New(stripe.Config{
		SecretKey: cfg.Stripe.SecretKey,
		BaseURL:   cfg.Stripe.APIURL,
	})
	providers := payment.NewRegistry(
		payment.NewHostedForm(confirmer),
		payment.Manual{},
		payment.Unsupported{},
	)

	h := handler.New(
		handler.Config{
			CookieName:    cfg.Session.CookieName,
			SecureCookies: cfg.Session.SecureCookies,
			ReturnURL:     cfg.ReturnURL,
		},
		store,
		sessions,
		selector,
		negotiator,
		providers,
		coordinator,
		flows,
	)

	// Mux: health endpoints + checkout API on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:           cfg.RateLimit.Max,
				Window:        cfg.RateLimit.Window,
				SessionCookie: cfg.Session.CookieName,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
