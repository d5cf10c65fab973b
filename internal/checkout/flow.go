// Package checkout drives the three-step checkout: cart review, delivery
// details (which creates the order) and payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/steve-ongera/phoneplace-kenya/internal/api"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
	"github.com/steve-ongera/phoneplace-kenya/internal/metrics"
	"github.com/steve-ongera/phoneplace-kenya/internal/session"
)

const DefaultCounty = "Nairobi"

type Backend interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	STKPush(ctx context.Context, req domain.STKPushRequest) (*domain.STKPushResponse, error)
}

// CartRefresher reloads the session cart; the backend empties it once an
// order is placed.
type CartRefresher interface {
	RefreshCart(ctx context.Context) error
}

type DeliveryForm struct {
	FullName        string
	Email           string
	Phone           string
	ShippingAddress string
	City            string
	County          string
	PaymentMethod   domain.PaymentMethod
	MpesaPhone      string
	Notes           string
}

func (f DeliveryForm) normalized() DeliveryForm {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
	f.ShippingAddress = strings.TrimSpace(f.ShippingAddress)
	f.City = strings.TrimSpace(f.City)
	f.County = strings.TrimSpace(f.County)
	f.MpesaPhone = strings.TrimSpace(f.MpesaPhone)
	f.Notes = strings.TrimSpace(f.Notes)
	if f.County == "" {
		f.County = DefaultCounty
	}
	if f.PaymentMethod == "" {
		f.PaymentMethod = domain.PaymentMethodMpesa
	}
	if f.MpesaPhone == "" {
		f.MpesaPhone = f.Phone
	}
	return f
}

func (f DeliveryForm) validate() *ValidationError {
	verr := missingFields(map[string]string{
		"full_name":        f.FullName,
		"email":            f.Email,
		"phone":            f.Phone,
		"shipping_address": f.ShippingAddress,
		"city":             f.City,
	})
	if f.PaymentMethod != domain.PaymentMethodMpesa && f.PaymentMethod != domain.PaymentMethodCash {
		if verr == nil {
			verr = &ValidationError{}
		}
		verr.Fields = append(verr.Fields, "payment_method")
	}
	return verr
}

// Flow is one checkout attempt. It is safe for concurrent use; calls that
// hit the backend hold the flow until they return, so a double submit waits
// for the first one instead of creating a second order.
type Flow struct {
	mu     sync.Mutex
	step   Step
	form   DeliveryForm
	order  *domain.Order
	stk    *domain.STKPushResponse
	api    Backend
	store  *session.Store
	nav    api.Navigator
	cart   CartRefresher
	logger *slog.Logger
}

type Option func(*Flow)

func WithNavigator(n api.Navigator) Option {
	return func(f *Flow) { f.nav = n }
}

func WithCartRefresher(r CartRefresher) Option {
	return func(f *Flow) { f.cart = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// NewFlow starts checkout on the cart review step. The session must be
// signed in and hold a non-empty cart.
func NewFlow(backend Backend, store *session.Store, opts ...Option) (*Flow, error) {
	state := store.State()
	if !state.LoggedIn() {
		return nil, ErrLoginRequired
	}
	if state.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	f := &Flow{
		step:   StepCartReview,
		api:    backend,
		store:  store,
		nav:    api.NavigatorFunc(func(string) {}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "checkout")
	return f, nil
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Order is the order created by SubmitDelivery. It is nil before that and
// again once the flow is done.
func (f *Flow) Order() *domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

// Form returns the delivery details as submitted, defaults applied.
func (f *Flow) Form() DeliveryForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func (f *Flow) STKPushResult() *domain.STKPushResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stk
}

// Proceed moves from cart review to delivery.
func (f *Flow) Proceed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.moveTo(StepDelivery)
}

// Back returns from delivery to cart review.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepDelivery {
		return illegal(f.step, StepCartReview)
	}
	return f.moveTo(StepCartReview)
}

// SubmitDelivery validates the form and creates the order. The flow moves to
// payment only when the backend accepted the order.
func (f *Flow) SubmitDelivery(ctx context.Context, form DeliveryForm) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepDelivery {
		return nil, illegal(f.step, StepPayment)
	}

	form = form.normalized()
	if verr := form.validate(); verr != nil {
		f.store.ShowToast("Please fill all required fields", domain.SeverityError)
		return nil, verr
	}

	order, err := f.api.CreateOrder(ctx, domain.CreateOrderRequest{
		FullName:        form.FullName,
		Email:           form.Email,
		Phone:           form.Phone,
		ShippingAddress: form.ShippingAddress,
		City:            form.City,
		County:          form.County,
		PaymentMethod:   form.PaymentMethod,
		MpesaPhone:      form.MpesaPhone,
		Notes:           form.Notes,
	})
	if err != nil {
		f.logger.Warn("order creation failed", "err", err)
		f.store.ShowToast(backendMessage(err, "Failed to create order", "detail", "error"), domain.SeverityError)
		return nil, fmt.Errorf("create order: %w", err)
	}

	f.form = form
	f.order = order
	if err := f.moveTo(StepPayment); err != nil {
		return nil, err
	}
	f.logger.Info("order created", "order", order.OrderNumber, "total", order.Total.String())

	if f.cart != nil {
		if err := f.cart.RefreshCart(ctx); err != nil {
			f.logger.Warn("cart refresh after order failed", "err", err)
		}
	}
	return order, nil
}

// SetPaymentMethod changes how the created order is paid, before Pay. An
// empty mpesaPhone keeps the number already on the form.
func (f *Flow) SetPaymentMethod(method domain.PaymentMethod, mpesaPhone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return fmt.Errorf("%w: payment method can only change on %s, not %s", ErrIllegalTransition, StepPayment, f.step)
	}
	if method != domain.PaymentMethodMpesa && method != domain.PaymentMethodCash {
		return &ValidationError{Fields: []string{"payment_method"}}
	}
	f.form.PaymentMethod = method
	if phone := strings.TrimSpace(mpesaPhone); phone != "" {
		f.form.MpesaPhone = phone
	}
	return nil
}

// Pay settles the payment step. M-Pesa sends an STK push to the customer's
// phone and leaves the flow pending; the final status arrives out of band.
// Cash on delivery needs no payment and goes straight to the order.
func (f *Flow) Pay(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepPayment {
		return illegal(f.step, StepPaymentPending)
	}

	if f.form.PaymentMethod == domain.PaymentMethodCash {
		f.finish()
		return nil
	}

	resp, err := f.api.STKPush(ctx, domain.STKPushRequest{
		Phone:   f.form.MpesaPhone,
		OrderID: f.order.ID,
	})
	if err != nil {
		f.logger.Warn("stk push failed", "order", f.order.OrderNumber, "err", err)
		f.store.ShowToast(backendMessage(err, "Failed to initiate M-Pesa payment", "error"), domain.SeverityError)
		return fmt.Errorf("stk push: %w", err)
	}

	f.stk = resp
	f.store.ShowToast("STK push sent! Check your phone to complete payment.", domain.SeveritySuccess)
	return f.moveTo(StepPaymentPending)
}

// ViewOrder leaves checkout for the order detail view.
func (f *Flow) ViewOrder() (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.step.CanTransitionTo(StepDone) {
		return uuid.Nil, illegal(f.step, StepDone)
	}
	return f.finish(), nil
}

// finish navigates to the order and drops everything the flow held.
func (f *Flow) finish() uuid.UUID {
	id := f.order.ID
	_ = f.moveTo(StepDone)
	f.order = nil
	f.stk = nil
	f.form = DeliveryForm{}
	f.nav.Navigate(OrderPath(id))
	return id
}

func (f *Flow) moveTo(next Step) error {
	if !f.step.CanTransitionTo(next) {
		return illegal(f.step, next)
	}
	f.logger.Debug("checkout step", "from", f.step, "to", next)
	f.step = next
	metrics.CheckoutSteps.WithLabelValues(next.String()).Inc()
	return nil
}

func OrderPath(id uuid.UUID) string {
	return "/orders/" + id.String()
}

// backendMessage picks the first string under keys in the error payload.
func backendMessage(err error, fallback string, keys ...string) string {
	var herr *api.HTTPError
	if !errors.As(err, &herr) {
		return fallback
	}
	for _, k := range keys {
		if s, ok := herr.Payload[k].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
