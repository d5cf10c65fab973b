package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
)

var ErrPaymentPending = errors.New("payment still pending")

type OrderFetcher interface {
	Order(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

type WatchOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	Logger          *slog.Logger
}

func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  5 * time.Minute,
	}
}

// WatchPayment polls the order until its payment status is settled, backing
// off exponentially between polls. It returns the last order seen together
// with ErrPaymentPending when the time budget runs out. Client errors other
// than a transient 404 stop the watch immediately.
func WatchPayment(ctx context.Context, orders OrderFetcher, orderID uuid.UUID, opts WatchOptions) (*domain.Order, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxInterval = opts.MaxInterval
	b.MaxElapsedTime = opts.MaxElapsedTime

	var last *domain.Order
	poll := func() error {
		order, err := orders.Order(ctx, orderID)
		if err != nil {
			metrics.PaymentPolls.WithLabelValues("error").Inc()
			if errors.Is(err, api.ErrSessionExpired) {
				return backoff.Permanent(err)
			}
			var herr *api.HTTPError
			if errors.As(err, &herr) && herr.Status < http.StatusInternalServerError && herr.Status != http.StatusNotFound {
				return backoff.Permanent(err)
			}
			return err
		}
		last = order
		metrics.PaymentPolls.WithLabelValues(string(order.PaymentStatus)).Inc()
		if !order.PaymentStatus.IsSettled() {
			return ErrPaymentPending
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		logger.Debug("payment not settled yet", "order", orderID, "err", err, "retry_in", next)
	}

	if err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify); err != nil {
		return last, fmt.Errorf("watch payment for order %s: %w", orderID, err)
	}
	return last, nil
}
