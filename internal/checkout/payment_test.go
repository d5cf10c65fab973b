package checkout

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

func fastWatch() WatchOptions {
	return WatchOptions{
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		MaxElapsedTime:  2 * time.Second,
	}
}

// scriptedOrders answers each poll with the next payment status.
type scriptedOrders struct {
	statuses []domain.PaymentStatus
	err      error
	calls    atomic.Int32
}

func (s *scriptedOrders) Order(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	n := int(s.calls.Add(1)) - 1
	if s.err != nil {
		return nil, s.err
	}
	if n >= len(s.statuses) {
		n = len(s.statuses) - 1
	}
	return &domain.Order{ID: id, PaymentStatus: s.statuses[n]}, nil
}

func TestWatchPayment_PollsUntilSettled(t *testing.T) {
	orders := &scriptedOrders{statuses: []domain.PaymentStatus{
		domain.PaymentStatusPending,
		domain.PaymentStatusPending,
		domain.PaymentStatusPaid,
	}}

	order, err := WatchPayment(context.Background(), orders, uuid.New(), fastWatch())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, int32(3), orders.calls.Load())
}

func TestWatchPayment_GivesUpWhilePending(t *testing.T) {
	orders := &scriptedOrders{statuses: []domain.PaymentStatus{domain.PaymentStatusPending}}
	opts := fastWatch()
	opts.MaxElapsedTime = 50 * time.Millisecond

	order, err := WatchPayment(context.Background(), orders, uuid.New(), opts)
	assert.ErrorIs(t, err, ErrPaymentPending)
	require.NotNil(t, order)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
}

func TestWatchPayment_StopsOnClientError(t *testing.T) {
	orders := &scriptedOrders{err: &api.HTTPError{Status: http.StatusForbidden}}

	_, err := WatchPayment(context.Background(), orders, uuid.New(), fastWatch())
	assert.True(t, api.IsStatus(err, http.StatusForbidden))
	assert.Equal(t, int32(1), orders.calls.Load())
}

func TestWatchPayment_StopsWithContext(t *testing.T) {
	orders := &scriptedOrders{statuses: []domain.PaymentStatus{domain.PaymentStatusPending}}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	opts := fastWatch()
	opts.MaxElapsedTime = time.Minute
	_, err := WatchPayment(ctx, orders, uuid.New(), opts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatchPayment_AgainstBackend(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())
	order, err := flow.SubmitDelivery(context.Background(), validForm())
	require.NoError(t, err)
	require.NoError(t, flow.Pay(context.Background()))

	go func() {
		time.Sleep(30 * time.Millisecond)
		f.backend.SettlePayment(order.ID, domain.PaymentStatusPaid)
	}()

	settled, err := WatchPayment(context.Background(), f.client, order.ID, fastWatch())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, settled.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, settled.Status)
}
