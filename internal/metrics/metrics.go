package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API client metrics
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_api_requests_total",
		Help: "The total number of REST API calls by method and response status.",
	}, []string{"method", "status"})
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_api_request_duration_seconds",
		Help:    "Latency of REST API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_token_refresh_total",
		Help: "The total number of access token refresh attempts by result.",
	}, []string{"result"})

	// Catalog cache metrics
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_lookups_total",
		Help: "The total number of catalog cache lookups by result.",
	}, []string{"result"})

	// Checkout metrics
	CheckoutSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_steps_total",
		Help: "The total number of checkout step transitions by target step.",
	}, []string{"step"})
	PaymentPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_polls_total",
		Help: "The total number of order payment status polls by observed status.",
	}, []string{"status"})

	// Session metrics
	ToastsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_toasts_total",
		Help: "The total number of toasts queued by severity.",
	}, []string{"severity"})
)

// StartServer serves the Prometheus registry on addr until ctx is done.
func StartServer(ctx context.Context, addr, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("starting metrics server", "addr", addr, "path", path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
