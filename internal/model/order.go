// Package model defines the domain types shared across the widget proxy:
// orders and their summaries, customer projections, the error taxonomy,
// and input normalization helpers.
package model

import (
	"strings"
	"time"
)

// OrderStatus is a WooCommerce order status (without the "wc-" prefix).
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusOnHold     OrderStatus = "on-hold"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
	StatusFailed     OrderStatus = "failed"
)

// CanCancel reports whether the cancel action may be offered for an order
// in this status. Cancel is hidden once the order is already cancelled or
// refunded; every other status can still be cancelled.
func (s OrderStatus) CanCancel() bool {
	return s != StatusCancelled && s != StatusRefunded
}

// CanRefund reports whether the refund action may be offered for an order
// in this status. Only paid orders (completed or processing) are refundable.
func (s OrderStatus) CanRefund() bool {
	return s == StatusCompleted || s == StatusProcessing
}

// Order is the backend's view of an order, carrying everything the widget
// operations need: billing snapshot for the customer projection, line items
// for summaries and restocking, payment method for the refund capability
// check.
type Order struct {
	ID            int
	CustomerID    int
	Status        OrderStatus
	DateCreated   time.Time
	Total         string // decimal string as the backend reports it, e.g. "49.95"
	PaymentMethod string // gateway id, e.g. "stripe"
	Billing       Billing
	LineItems     []LineItem
}

// Billing is the billing snapshot recorded on an order.
type Billing struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// LineItem is a purchased item on an order.
type LineItem struct {
	Name      string
	ProductID int
	Quantity  int
}

// Product carries the stock-tracking fields of a store product.
type Product struct {
	ID            int
	ManagesStock  bool
	StockQuantity int
}

// PaymentGateway describes the payment handler registered for a payment
// method, as far as the widget cares: whether it can execute refunds.
type PaymentGateway struct {
	ID       string
	Title    string
	Supports []string
}

// SupportsRefunds reports whether the gateway advertises the refunds
// capability.
func (g *PaymentGateway) SupportsRefunds() bool {
	for _, s := range g.Supports {
		if s == "refunds" {
			return true
		}
	}
	return false
}

// Refund is a refund record created against an order.
type Refund struct {
	ID     int    `json:"id"`
	Amount string `json:"amount"`
}

// Customer is the read-only projection shown in the widget. It is derived
// from the most recent matching order's billing snapshot, never stored.
type Customer struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	TotalOrders int    `json:"total_orders"`
}

// OrderSummary is the per-order row rendered by the widget.
type OrderSummary struct {
	ID          int         `json:"id"`
	DateCreated string      `json:"date_created"` // RFC 3339
	Status      OrderStatus `json:"status"`
	Total       string      `json:"total"`
	ProductName string      `json:"product_name"`
}

// SearchResult is the search-customer response. Customer is null and
// Orders empty when nothing matched; that is a successful response, not an
// error.
type SearchResult struct {
	Customer *Customer      `json:"customer"`
	Orders   []OrderSummary `json:"orders"`
}

// OrderRef echoes an order's identity and status after a mutation.
type OrderRef struct {
	ID     int         `json:"id"`
	Status OrderStatus `json:"status"`
}

// CancelResult is the cancel-order response.
type CancelResult struct {
	Success bool     `json:"success"`
	Order   OrderRef `json:"order"`
}

// RefundResult is the refund-order response.
type RefundResult struct {
	Success bool     `json:"success"`
	Order   OrderRef `json:"order"`
	Refund  Refund   `json:"refund"`
}

// NoProductName is the placeholder shown for orders without line items.
const NoProductName = "N/A"

// Summarize projects an order into its widget row. The representative
// product is the first line item; orders with no items get a placeholder.
func (o *Order) Summarize() OrderSummary {
	name := NoProductName
	if len(o.LineItems) > 0 {
		name = o.LineItems[0].Name
	}
	return OrderSummary{
		ID:          o.ID,
		DateCreated: o.DateCreated.Format(time.RFC3339),
		Status:      o.Status,
		Total:       o.Total,
		ProductName: name,
	}
}

// CustomerFromOrder builds the customer projection from an order's billing
// snapshot. totalOrders is the full match count, not the displayed subset.
func CustomerFromOrder(o *Order, totalOrders int) *Customer {
	return &Customer{
		ID:          o.CustomerID,
		FirstName:   o.Billing.FirstName,
		LastName:    o.Billing.LastName,
		Email:       o.Billing.Email,
		Phone:       o.Billing.Phone,
		TotalOrders: totalOrders,
	}
}

// NormalizeEmail lowercases and trims an email for lookup, so
// "  Foo@Bar.com " and "foo@bar.com" hit the same billing email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything but digits, so "+31 (6) 1234-5678" and
// "0612345678" compare on their digit sequences.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
