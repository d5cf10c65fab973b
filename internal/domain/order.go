package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// IsSettled reports whether the payment left the pending state.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

type PaymentMethod string

const (
	PaymentMethodMpesa PaymentMethod = "mpesa"
	PaymentMethodCash  PaymentMethod = "cash"
)

type OrderItem struct {
	ID          int        `json:"id"`
	Product     *uuid.UUID `json:"product"`
	ProductName string     `json:"product_name"`
	VariantName string     `json:"variant_name"`
	Price       Money      `json:"price"`
	Quantity    int        `json:"quantity"`
	Subtotal    Money      `json:"subtotal"`
}

type Order struct {
	ID              uuid.UUID     `json:"id"`
	OrderNumber     string        `json:"order_number"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	FullName        string        `json:"full_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	ShippingAddress string        `json:"shipping_address"`
	City            string        `json:"city"`
	County          string        `json:"county"`
	ShippingFee     Money         `json:"shipping_fee"`
	Subtotal        Money         `json:"subtotal"`
	Total           Money         `json:"total"`
	Items           []OrderItem   `json:"items"`
	MpesaPhone      string        `json:"mpesa_phone"`
	Notes           string        `json:"notes"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// CreateOrderRequest is the body of POST /orders/. Totals and shipping are
// computed by the backend from the server-side cart.
type CreateOrderRequest struct {
	FullName        string        `json:"full_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	ShippingAddress string        `json:"shipping_address"`
	City            string        `json:"city"`
	County          string        `json:"county"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	MpesaPhone      string        `json:"mpesa_phone"`
	Notes           string        `json:"notes"`
}

type STKPushRequest struct {
	Phone   string    `json:"phone"`
	OrderID uuid.UUID `json:"order_id"`
}

type STKPushResponse struct {
	Message           string `json:"message"`
	CheckoutRequestID string `json:"checkout_request_id"`
}
