package woocommerce

import (
	"time"

	"missive-proxy/internal/model"
)

// REST API v3 wire types. Only the fields the widget reads are declared;
// WooCommerce sends far more and json.Unmarshal drops the rest.

// wooOrder is an order as returned by GET /orders and GET /orders/{id}.
type wooOrder struct {
	ID            int           `json:"id"`
	CustomerID    int           `json:"customer_id"`
	Status        string        `json:"status"`
	DateCreated   string        `json:"date_created_gmt"` // "2025-08-14T09:30:00"
	Total         string        `json:"total"`
	PaymentMethod string        `json:"payment_method"`
	Billing       wooBilling    `json:"billing"`
	LineItems     []wooLineItem `json:"line_items"`
}

// wooBilling is the billing block embedded in an order.
type wooBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// wooLineItem is a purchased line inside an order.
type wooLineItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ProductID int    `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// wooProduct is the stock-relevant slice of GET /products/{id}.
type wooProduct struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	ManageStock   bool   `json:"manage_stock"`
	StockQuantity int    `json:"stock_quantity"`
}

// wooGateway is GET /payment_gateways/{id}. method_supports lists the
// gateway capabilities ("products", "refunds", ...).
type wooGateway struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	MethodSupports []string `json:"method_supports"`
}

// wooRefund is the response to POST /orders/{id}/refunds.
type wooRefund struct {
	ID     int    `json:"id"`
	Amount string `json:"amount"`
	Reason string `json:"reason"`
}

// wooOrderNote is the body for POST /orders/{id}/notes.
type wooOrderNote struct {
	Note string `json:"note"`
}

// wooErrorResponse is WooCommerce's standard error envelope.
type wooErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// dateCreatedLayout is the timestamp format of *_gmt fields (no zone
// designator; values are UTC).
const dateCreatedLayout = "2006-01-02T15:04:05"

// toModel converts a wire order into the domain order.
func (o *wooOrder) toModel() model.Order {
	created, err := time.Parse(dateCreatedLayout, o.DateCreated)
	if err != nil {
		created = time.Time{}
	}

	items := make([]model.LineItem, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = model.LineItem{
			Name:      li.Name,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
		}
	}

	return model.Order{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		Status:        model.OrderStatus(o.Status),
		DateCreated:   created.UTC(),
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Billing: model.Billing{
			FirstName: o.Billing.FirstName,
			LastName:  o.Billing.LastName,
			Email:     o.Billing.Email,
			Phone:     o.Billing.Phone,
		},
		LineItems: items,
	}
}
