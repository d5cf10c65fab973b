package backendtest

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/steve-ongera/phoneplace-kenya/internal/domain"
)

// ShippingFee is the flat delivery rate added to every order.
var ShippingFee = domain.KSh(200)

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	errs := make(map[string]string)
	required(errs, "full_name", strings.TrimSpace(req.FullName))
	required(errs, "email", strings.TrimSpace(req.Email))
	required(errs, "phone", strings.TrimSpace(req.Phone))
	required(errs, "shipping_address", strings.TrimSpace(req.ShippingAddress))
	required(errs, "city", strings.TrimSpace(req.City))
	switch req.PaymentMethod {
	case domain.PaymentMethodMpesa, domain.PaymentMethodCash:
	case "":
		req.PaymentMethod = domain.PaymentMethodMpesa
	default:
		errs["payment_method"] = fmt.Sprintf("%q is not a valid choice.", req.PaymentMethod)
	}
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	if req.County == "" {
		req.County = "Nairobi"
	}

	userID := getUserID(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.carts[fmt.Sprintf("user:%d", userID)]
	if !ok || len(c.items) == 0 {
		respondError(w, http.StatusBadRequest, "", "Cart is empty")
		return
	}

	snap := b.snapshot(c)
	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New(),
		OrderNumber:     fmt.Sprintf("PPK-%08d", rand.IntN(100_000_000)),
		Status:          domain.OrderStatusPending,
		PaymentStatus:   domain.PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		FullName:        req.FullName,
		Email:           req.Email,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		City:            req.City,
		County:          req.County,
		ShippingFee:     ShippingFee,
		Subtotal:        snap.Total,
		Total:           snap.Total + ShippingFee,
		MpesaPhone:      req.MpesaPhone,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, it := range snap.Items {
		pid := it.Product.ID
		oi := domain.OrderItem{
			ID:          b.newID(),
			Product:     &pid,
			ProductName: it.Product.Name,
			Price:       it.Subtotal / domain.Money(it.Quantity),
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal,
		}
		if it.Variant != nil {
			oi.VariantName = it.Variant.Name
		}
		order.Items = append(order.Items, oi)
	}
	b.orders[userID] = append(b.orders[userID], order)
	c.items = nil
	c.updated = now

	respondJSON(w, http.StatusCreated, *order)
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	orders := b.orders[getUserID(r.Context())]
	out := make([]domain.Order, 0, len(orders))
	for i := len(orders) - 1; i >= 0; i-- {
		out = append(out, *orders[i])
	}
	b.mu.Unlock()
	respondJSON(w, http.StatusOK, paginate(r, out, len(out), 1))
}

func (b *Backend) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := b.findOrder(getUserID(r.Context()), chi.URLParam(r, "id"))
	if !ok {
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (b *Backend) findOrder(userID int, rawID string) (domain.Order, bool) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Order{}, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders[userID] {
		if o.ID == id {
			return *o, true
		}
	}
	return domain.Order{}, false
}

func (b *Backend) stkPush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone   string `json:"phone"`
		OrderID string `json:"order_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	errs := make(map[string]string)
	required(errs, "phone", req.Phone)
	required(errs, "order_id", req.OrderID)
	if len(errs) > 0 {
		respondFieldErrors(w, errs)
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondFieldErrors(w, map[string]string{"order_id": "Must be a valid UUID."})
		return
	}

	userID := getUserID(r.Context())
	b.mu.Lock()
	defer b.mu.Unlock()
	var order *domain.Order
	for _, o := range b.orders[userID] {
		if o.ID == orderID {
			order = o
		}
	}
	if order == nil {
		respondError(w, http.StatusNotFound, "", "Order not found")
		return
	}
	order.MpesaPhone = req.Phone
	b.stkPushes = append(b.stkPushes, domain.STKPushRequest{Phone: req.Phone, OrderID: orderID})
	respondJSON(w, http.StatusOK, domain.STKPushResponse{
		Message:           "STK push sent. Check your phone.",
		CheckoutRequestID: "ws_CO_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
	})
}
