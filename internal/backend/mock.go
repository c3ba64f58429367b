package backend

import (
	"context"

	"missive-proxy/internal/model"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields.
type Mock struct {
	CountOrdersFunc        func(ctx context.Context, q OrderQuery) (int, error)
	SearchOrdersFunc       func(ctx context.Context, q OrderQuery, limit int) ([]model.Order, error)
	GetOrderFunc           func(ctx context.Context, orderID int) (*model.Order, error)
	UpdateOrderStatusFunc  func(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error)
	AddOrderNoteFunc       func(ctx context.Context, orderID int, note string) error
	PaymentGatewayFunc     func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error)
	CreateRefundFunc       func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error)
	GetProductFunc         func(ctx context.Context, productID int) (*model.Product, error)
	UpdateProductStockFunc func(ctx context.Context, productID, quantity int) error
}

// CountOrders calls the configured CountOrdersFunc or returns zero.
func (m *Mock) CountOrders(ctx context.Context, q OrderQuery) (int, error) {
	if m.CountOrdersFunc != nil {
		return m.CountOrdersFunc(ctx, q)
	}
	return 0, nil
}

// SearchOrders calls the configured SearchOrdersFunc or returns no orders.
func (m *Mock) SearchOrders(ctx context.Context, q OrderQuery, limit int) ([]model.Order, error) {
	if m.SearchOrdersFunc != nil {
		return m.SearchOrdersFunc(ctx, q, limit)
	}
	return nil, nil
}

// GetOrder calls the configured GetOrderFunc or returns a not-found error.
func (m *Mock) GetOrder(ctx context.Context, orderID int) (*model.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, orderID)
	}
	return nil, model.NewNotFoundError("Order")
}

// UpdateOrderStatus calls the configured UpdateOrderStatusFunc or returns a
// not-found error.
func (m *Mock) UpdateOrderStatus(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
	if m.UpdateOrderStatusFunc != nil {
		return m.UpdateOrderStatusFunc(ctx, orderID, status, note)
	}
	return nil, model.NewNotFoundError("Order")
}

// AddOrderNote calls the configured AddOrderNoteFunc or succeeds.
func (m *Mock) AddOrderNote(ctx context.Context, orderID int, note string) error {
	if m.AddOrderNoteFunc != nil {
		return m.AddOrderNoteFunc(ctx, orderID, note)
	}
	return nil
}

// PaymentGateway calls the configured PaymentGatewayFunc or returns a
// gateway without refund support.
func (m *Mock) PaymentGateway(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
	if m.PaymentGatewayFunc != nil {
		return m.PaymentGatewayFunc(ctx, gatewayID)
	}
	return &model.PaymentGateway{ID: gatewayID}, nil
}

// CreateRefund calls the configured CreateRefundFunc or returns an error.
func (m *Mock) CreateRefund(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, orderID, amount, reason)
	}
	return nil, model.NewInternalError(nil)
}

// GetProduct calls the configured GetProductFunc or returns a not-found
// error.
func (m *Mock) GetProduct(ctx context.Context, productID int) (*model.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, productID)
	}
	return nil, model.NewNotFoundError("Product")
}

// UpdateProductStock calls the configured UpdateProductStockFunc or
// succeeds.
func (m *Mock) UpdateProductStock(ctx context.Context, productID, quantity int) error {
	if m.UpdateProductStockFunc != nil {
		return m.UpdateProductStockFunc(ctx, productID, quantity)
	}
	return nil
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
