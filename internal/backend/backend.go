// Package backend defines the interface to the external order-management
// system. The widget never owns order data; every read and mutation goes
// through this interface, and its consistency is the backend's problem.
package backend

import (
	"context"

	"missive-proxy/internal/model"
)

// OrderQuery selects orders by a single normalized contact key. Exactly one
// of Email or PhoneDigits is set; Email takes precedence upstream, so a
// query never carries both.
type OrderQuery struct {
	// Email is a case-normalized, trimmed billing email.
	Email string

	// PhoneDigits is a billing phone reduced to its digit sequence.
	PhoneDigits string
}

// Backend abstracts the order backend's query and mutation surface.
// The WooCommerce client is the production implementation; Mock serves
// tests.
//
// Implementations map their own failure modes onto the model error
// taxonomy (not found, validation, rate limited, upstream).
type Backend interface {
	// CountOrders returns the total number of orders matching the query.
	CountOrders(ctx context.Context, q OrderQuery) (int, error)

	// SearchOrders returns at most limit matching orders, newest first.
	SearchOrders(ctx context.Context, q OrderQuery, limit int) ([]model.Order, error)

	// GetOrder fetches one order by id. Unknown id → not-found error.
	GetOrder(ctx context.Context, orderID int) (*model.Order, error)

	// UpdateOrderStatus sets the order status and records an audit note in
	// one logical operation, returning the order's new state.
	UpdateOrderStatus(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error)

	// AddOrderNote appends an audit note to the order.
	AddOrderNote(ctx context.Context, orderID int, note string) error

	// PaymentGateway fetches the payment handler registered for a payment
	// method id, for the refund capability check.
	PaymentGateway(ctx context.Context, gatewayID string) (*model.PaymentGateway, error)

	// CreateRefund executes a refund for the given amount through the
	// order's payment gateway and records the refund entity against the
	// order. Both halves succeed or the call fails.
	CreateRefund(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error)

	// GetProduct fetches a product's stock-tracking state.
	GetProduct(ctx context.Context, productID int) (*model.Product, error)

	// UpdateProductStock sets a product's absolute stock quantity.
	UpdateProductStock(ctx context.Context, productID, quantity int) error
}
