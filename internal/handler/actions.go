package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"missive-proxy/internal/backend"
	"missive-proxy/internal/model"
	"missive-proxy/internal/resolver"
)

// Audit notes recorded against orders for every widget mutation.
const (
	noteOrderCancelled = "Order cancelled via Missive widget"
	noteRefundReason   = "Refund processed via Missive widget"
	noteStockRestored  = "Stock restored automatically via Missive widget"
)

// searchResultLimit bounds how many orders the widget displays.
const searchResultLimit = 3

// === Operations ===
// Shared by the REST dispatcher and the MCP tools.

// searchCustomer looks up a customer's recent orders. Email takes
// precedence as the lookup key; both inputs arrive raw and are
// normalized here.
func (h *Handler) searchCustomer(ctx context.Context, email, phone string) (*model.SearchResult, error) {
	email = model.NormalizeEmail(email)
	phone = model.NormalizePhone(phone)

	if email == "" && phone == "" {
		return nil, model.NewRequestError("Email or phone required")
	}

	q := backend.OrderQuery{Email: email}
	if email == "" {
		q = backend.OrderQuery{PhoneDigits: phone}
	}

	empty := &model.SearchResult{Orders: []model.OrderSummary{}}

	total, err := h.backend.CountOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return empty, nil
	}

	orders, err := h.backend.SearchOrders(ctx, q, searchResultLimit)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return empty, nil
	}

	summaries := make([]model.OrderSummary, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, orders[i].Summarize())
	}

	h.logger.InfoContext(ctx, "customer search",
		slog.Bool("by_email", email != ""),
		slog.Int("total_orders", total),
	)

	return &model.SearchResult{
		Customer: model.CustomerFromOrder(&orders[0], total),
		Orders:   summaries,
	}, nil
}

// cancelOrder sets an order's status to cancelled and restocks its line
// items.
func (h *Handler) cancelOrder(ctx context.Context, orderID int) (*model.CancelResult, error) {
	order, err := h.backend.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := h.backend.UpdateOrderStatus(ctx, orderID, model.StatusCancelled, noteOrderCancelled)
	if err != nil {
		return nil, err
	}

	if err := h.restockItems(ctx, order); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "order cancelled", slog.Int("order_id", orderID))

	return &model.CancelResult{
		Success: true,
		Order:   model.OrderRef{ID: updated.ID, Status: updated.Status},
	}, nil
}

// refundOrder refunds an order's full total through its payment gateway,
// then restocks. The capability check runs before any mutation.
func (h *Handler) refundOrder(ctx context.Context, orderID int) (*model.RefundResult, error) {
	order, err := h.backend.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	gateway, err := h.backend.PaymentGateway(ctx, order.PaymentMethod)
	if err != nil {
		// Only a missing gateway means the method cannot refund; a
		// transient upstream failure must not masquerade as one.
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewUnsupportedError("This payment method does not support API refunds")
		}
		return nil, err
	}
	if !gateway.SupportsRefunds() {
		return nil, model.NewUnsupportedError("This payment method does not support API refunds")
	}

	refund, err := h.backend.CreateRefund(ctx, orderID, order.Total, noteRefundReason)
	if err != nil {
		return nil, err
	}

	// The refund is always for the full order total. Amounts are decimal
	// strings, so the comparison runs in cents.
	if model.ParseCents(refund.Amount) != model.ParseCents(order.Total) {
		h.logger.WarnContext(ctx, "refund amount differs from order total",
			slog.Int("order_id", orderID),
			slog.String("order_total", order.Total),
			slog.String("refund_amount", refund.Amount),
		)
	}

	if err := h.restockItems(ctx, order); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "order refunded",
		slog.Int("order_id", orderID),
		slog.Int("refund_id", refund.ID),
		slog.String("amount", refund.Amount),
	)

	return &model.RefundResult{
		Success: true,
		Order:   model.OrderRef{ID: order.ID, Status: order.Status},
		Refund:  *refund,
	}, nil
}

// restockItems increases stock for every line item whose product manages
// inventory, then records the audit note. The note is added even when no
// item tracked stock, matching the store's established audit trail.
func (h *Handler) restockItems(ctx context.Context, order *model.Order) error {
	for _, item := range order.LineItems {
		product, err := h.backend.GetProduct(ctx, item.ProductID)
		if err != nil {
			// A deleted product should not block the cancel/refund.
			h.logger.WarnContext(ctx, "restock skipped",
				slog.Int("product_id", item.ProductID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !product.ManagesStock {
			continue
		}
		if err := h.backend.UpdateProductStock(ctx, product.ID, product.StockQuantity+item.Quantity); err != nil {
			return err
		}
	}
	return h.backend.AddOrderNote(ctx, order.ID, noteStockRestored)
}

// === HTTP action handlers ===

// handleSearchCustomer serves action=search-customer. Query params:
// email, phone (at least one required).
func (h *Handler) handleSearchCustomer(w http.ResponseWriter, r *http.Request) {
	result, err := h.searchCustomer(r.Context(), r.URL.Query().Get("email"), r.URL.Query().Get("phone"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// mutateRequest is the JSON body shared by cancel and refund calls.
// Token is consumed by the gate before the action handler runs.
type mutateRequest struct {
	OrderID json.Number `json:"order_id"`
	Token   string      `json:"token"`
}

// orderID coerces the order_id field, accepting both numeric and string
// forms (the page script sends whatever the DOM handed it).
func (req *mutateRequest) orderID() (int, error) {
	id, err := strconv.Atoi(req.OrderID.String())
	if err != nil || id <= 0 {
		return 0, model.NewRequestError("order_id required")
	}
	return id, nil
}

// handleCancelOrder serves action=cancel-order.
func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request, body []byte) {
	var req mutateRequest
	if err := unmarshalBody(body, &req); err != nil {
		h.writeError(w, err)
		return
	}
	orderID, err := req.orderID()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.cancelOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// handleRefundOrder serves action=refund-order.
func (h *Handler) handleRefundOrder(w http.ResponseWriter, r *http.Request, body []byte) {
	var req mutateRequest
	if err := unmarshalBody(body, &req); err != nil {
		h.writeError(w, err)
		return
	}
	orderID, err := req.orderID()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.refundOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// contactResponse is the resolve-contact wire shape. Fields are null
// when the heuristic found nothing.
type contactResponse struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// handleResolveContact extracts the best-guess customer contact from a
// conversation payload forwarded by the page script.
func (h *Handler) handleResolveContact(w http.ResponseWriter, r *http.Request, body []byte) {
	var conv resolver.Conversation
	if err := unmarshalBody(body, &conv); err != nil {
		h.writeError(w, err)
		return
	}

	info := h.resolver.Resolve(&conv)

	resp := contactResponse{}
	if info.Email != "" {
		resp.Email = &info.Email
	}
	if info.Phone != "" {
		resp.Phone = &info.Phone
	}
	h.writeJSON(w, http.StatusOK, resp)
}
