package checkout

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/backendtest"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/session"
	"github.com/steve-ongera/phoneplace-kenya/internal/tokens"
)

type fixture struct {
	backend *backendtest.Backend
	client  *api.Client
	svc     *session.Service
	store   *session.Store
	loc     *api.Location
}

func setup(t *testing.T) *fixture {
	t.Helper()
	b := backendtest.Start(t)
	tok := tokens.NewMemoryStore()
	loc := api.NewLocation("/checkout")
	client, err := api.New(b.URL(), tok, api.WithNavigator(loc))
	require.NoError(t, err)
	store := session.NewStore()
	t.Cleanup(store.Close)
	return &fixture{
		backend: b,
		client:  client,
		svc:     session.NewService(client, store, tok, nil),
		store:   store,
		loc:     loc,
	}
}

// signedInWithCart logs a customer in and puts two chargers in the cart.
func (f *fixture) signedInWithCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.backend.AddUser("jane@example.com", "s3cret-pass", "Jane", "Wanjiru")
	_, err := f.svc.Login(ctx, domain.Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	charger := f.backend.Product(backendtest.XiaomiCharger)
	require.NoError(t, f.svc.AddToCart(ctx, charger.ID, nil, 2))
}

func (f *fixture) newFlow(t *testing.T) *Flow {
	t.Helper()
	flow, err := NewFlow(f.client, f.store, WithNavigator(f.loc), WithCartRefresher(f.svc))
	require.NoError(t, err)
	return flow
}

func (f *fixture) lastToast() domain.Toast {
	toasts := f.store.State().Toasts
	if len(toasts) == 0 {
		return domain.Toast{}
	}
	return toasts[len(toasts)-1]
}

func validForm() DeliveryForm {
	return DeliveryForm{
		FullName:        "Jane Wanjiru",
		Email:           "jane@example.com",
		Phone:           "0712345678",
		ShippingAddress: "Moi Avenue 12",
		City:            "Nairobi",
		PaymentMethod:   domain.PaymentMethodMpesa,
	}
}

func TestNewFlow_Guards(t *testing.T) {
	f := setup(t)
	_, err := NewFlow(f.client, f.store)
	assert.ErrorIs(t, err, ErrLoginRequired)

	f.backend.AddUser("jane@example.com", "s3cret-pass", "Jane", "Wanjiru")
	_, err = f.svc.Login(context.Background(), domain.Credentials{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = NewFlow(f.client, f.store)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestFlow_ProceedAndBack(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)

	assert.Equal(t, StepCartReview, flow.Step())
	assert.ErrorIs(t, flow.Back(), ErrIllegalTransition)

	require.NoError(t, flow.Proceed())
	assert.Equal(t, StepDelivery, flow.Step())
	assert.ErrorIs(t, flow.Proceed(), ErrIllegalTransition)

	require.NoError(t, flow.Back())
	assert.Equal(t, StepCartReview, flow.Step())
}

func TestFlow_SubmitDeliveryRequiresFields(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	form := validForm()
	form.City = "   "
	form.Email = ""
	_, err := flow.SubmitDelivery(context.Background(), form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"city", "email"}, verr.Fields)
	assert.Equal(t, StepDelivery, flow.Step())
	assert.Nil(t, flow.Order())
	assert.Equal(t, 0, f.backend.Hits(http.MethodPost, "/orders/"))
	assert.Equal(t, "Please fill all required fields", f.lastToast().Message)
	assert.Equal(t, domain.SeverityError, f.lastToast().Severity)
}

func TestFlow_SubmitDeliveryRejectsUnknownPaymentMethod(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	form := validForm()
	form.PaymentMethod = "card"
	_, err := flow.SubmitDelivery(context.Background(), form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"payment_method"}, verr.Fields)
	assert.Equal(t, StepDelivery, flow.Step())
}

func TestFlow_SubmitDeliveryBeforeProceedIsIllegal(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)

	_, err := flow.SubmitDelivery(context.Background(), validForm())
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StepCartReview, flow.Step())
}

func TestFlow_SubmitDeliveryCreatesOrder(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	order, err := flow.SubmitDelivery(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, StepPayment, flow.Step())
	assert.Equal(t, order, flow.Order())
	assert.Equal(t, "Nairobi", order.County)
	assert.Equal(t, "0712345678", order.MpesaPhone)
	assert.Equal(t, domain.KSh(2200), order.Total)
	assert.Regexp(t, `^PPK-\d{8}$`, order.OrderNumber)

	// the backend empties the cart once the order exists
	assert.Equal(t, "Cart (0)", f.store.State().CartLabel())
}

func TestFlow_SubmitDeliveryFailureStaysOnDelivery(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	// cart emptied elsewhere after checkout started
	require.NoError(t, f.client.ClearCart(context.Background()))

	_, err := flow.SubmitDelivery(context.Background(), validForm())
	var herr *api.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusBadRequest, herr.Status)
	assert.Equal(t, StepDelivery, flow.Step())
	assert.Nil(t, flow.Order())
	assert.Equal(t, "Cart is empty", f.lastToast().Message)
}

func TestFlow_MpesaPaymentPending(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	form := validForm()
	form.MpesaPhone = "0799000111"
	order, err := flow.SubmitDelivery(context.Background(), form)
	require.NoError(t, err)

	require.NoError(t, flow.Pay(context.Background()))
	assert.Equal(t, StepPaymentPending, flow.Step())
	assert.Equal(t, "STK push sent! Check your phone to complete payment.", f.lastToast().Message)
	require.NotNil(t, flow.STKPushResult())
	assert.NotEmpty(t, flow.STKPushResult().CheckoutRequestID)

	pushes := f.backend.STKPushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, domain.STKPushRequest{Phone: "0799000111", OrderID: order.ID}, pushes[0])

	// no polling, and still on the checkout view
	assert.Equal(t, 1, f.backend.Hits(http.MethodPost, "/mpesa/stk-push/"))
	assert.Equal(t, "/checkout", f.loc.Path())

	id, err := flow.ViewOrder()
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)
	assert.Equal(t, StepDone, flow.Step())
	assert.Equal(t, "/orders/"+order.ID.String(), f.loc.Path())
	assert.Nil(t, flow.Order())
	assert.Equal(t, DeliveryForm{}, flow.Form())
}

func TestFlow_MpesaFailureCanRetry(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())
	_, err := flow.SubmitDelivery(context.Background(), validForm())
	require.NoError(t, err)

	f.backend.Fail(http.MethodPost, "/mpesa/stk-push/", http.StatusServiceUnavailable)
	err = flow.Pay(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepPayment, flow.Step())
	assert.Equal(t, "Service Unavailable", f.lastToast().Message)

	f.backend.Heal(http.MethodPost, "/mpesa/stk-push/")
	require.NoError(t, flow.Pay(context.Background()))
	assert.Equal(t, StepPaymentPending, flow.Step())
}

func TestFlow_CashGoesStraightToOrder(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	require.NoError(t, flow.Proceed())

	form := validForm()
	form.PaymentMethod = domain.PaymentMethodCash
	order, err := flow.SubmitDelivery(context.Background(), form)
	require.NoError(t, err)

	require.NoError(t, flow.Pay(context.Background()))
	assert.True(t, flow.Step().IsTerminal())
	assert.Equal(t, OrderPath(order.ID), f.loc.Path())
	assert.Empty(t, f.backend.STKPushes())

	assert.ErrorIs(t, flow.Pay(context.Background()), ErrIllegalTransition)
	_, err = flow.ViewOrder()
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlow_PaymentMethodChosenOnPaymentStep(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	ctx := context.Background()

	err := flow.SetPaymentMethod(domain.PaymentMethodCash, "")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	require.NoError(t, flow.Proceed())
	order, err := flow.SubmitDelivery(ctx, validForm())
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, flow.SetPaymentMethod("card", ""), &verr)
	assert.Equal(t, []string{"payment_method"}, verr.Fields)
	assert.Equal(t, domain.PaymentMethodMpesa, flow.Form().PaymentMethod)

	require.NoError(t, flow.SetPaymentMethod(domain.PaymentMethodCash, ""))
	require.NoError(t, flow.Pay(ctx))
	assert.True(t, flow.Step().IsTerminal())
	assert.Equal(t, OrderPath(order.ID), f.loc.Path())
	assert.Empty(t, f.backend.STKPushes())
}

func TestFlow_MpesaNumberChangedOnPaymentStep(t *testing.T) {
	f := setup(t)
	f.signedInWithCart(t)
	flow := f.newFlow(t)
	ctx := context.Background()

	require.NoError(t, flow.Proceed())
	order, err := flow.SubmitDelivery(ctx, validForm())
	require.NoError(t, err)

	require.NoError(t, flow.SetPaymentMethod(domain.PaymentMethodMpesa, " 0722000111 "))
	require.NoError(t, flow.Pay(ctx))
	assert.Equal(t, StepPaymentPending, flow.Step())
	assert.Equal(t, []domain.STKPushRequest{{Phone: "0722000111", OrderID: order.ID}}, f.backend.STKPushes())

	assert.ErrorIs(t, flow.SetPaymentMethod(domain.PaymentMethodCash, ""), ErrIllegalTransition)
}

func TestStep_Transitions(t *testing.T) {
	tests := []struct {
		from, to Step
		ok       bool
	}{
		{StepCartReview, StepDelivery, true},
		{StepCartReview, StepPayment, false},
		{StepDelivery, StepPayment, true},
		{StepDelivery, StepCartReview, true},
		{StepPayment, StepDelivery, false},
		{StepPayment, StepPaymentPending, true},
		{StepPayment, StepDone, true},
		{StepPaymentPending, StepDone, true},
		{StepDone, StepCartReview, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.Equal(t, 2, StepPaymentPending.Index())
	assert.False(t, StepPaymentPending.IsTerminal())
}
