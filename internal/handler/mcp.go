// MCP transport for the widget proxy using the official MCP Go SDK.
// Exposes the widget operations as tools so agent-driven inboxes can
// act on orders without the iframe page.
package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"missive-proxy/internal/model"
)

// === MCP Tool Input/Output Types ===
// Every tool input carries the widget token; the gate runs before any
// backend call, same as the HTTP dispatcher.

// SearchCustomerInput is the input schema for the search_customer tool.
type SearchCustomerInput struct {
	Token string `json:"token" jsonschema:"widget access token,required"`
	Email string `json:"email,omitempty" jsonschema:"customer email address"`
	Phone string `json:"phone,omitempty" jsonschema:"customer phone number"`
}

// SearchCustomerOutput is the search_customer tool result. Orders carry
// the permitted actions so agents know what they may do next.
type SearchCustomerOutput struct {
	Customer *model.Customer    `json:"customer"`
	Orders   []OrderWithActions `json:"orders"`
}

// OrderWithActions is an order summary annotated with the status-derived
// action set.
type OrderWithActions struct {
	model.OrderSummary
	CanCancel bool `json:"can_cancel"`
	CanRefund bool `json:"can_refund"`
}

// OrderActionInput is the shared input schema for cancel_order and
// refund_order.
type OrderActionInput struct {
	Token   string `json:"token" jsonschema:"widget access token,required"`
	OrderID int    `json:"order_id" jsonschema:"order ID,required"`
}

// NewMCPServer creates an MCP server with the widget tools registered.
// The server exposes the same operations as the HTTP dispatcher.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "missive-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Missive widget proxy - WooCommerce order support operations. " +
				"Use these tools to look up a customer's orders and cancel or refund them.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_customer",
		Description: "Find a customer and their most recent orders by email or phone. At least one of email/phone is required.",
	}, h.mcpSearchCustomer)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel_order",
		Description: "Cancel an order and restock its line items.",
	}, h.mcpCancelOrder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refund_order",
		Description: "Refund an order's full total through its payment gateway and restock its line items.",
	}, h.mcpRefundOrder)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpSearchCustomer(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchCustomerInput,
) (*mcp.CallToolResult, *SearchCustomerOutput, error) {
	if err := h.mcpAuthorize(input.Token); err != nil {
		return nil, nil, err
	}

	result, err := h.searchCustomer(ctx, input.Email, input.Phone)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := &SearchCustomerOutput{
		Customer: result.Customer,
		Orders:   make([]OrderWithActions, 0, len(result.Orders)),
	}
	for _, o := range result.Orders {
		out.Orders = append(out.Orders, OrderWithActions{
			OrderSummary: o,
			CanCancel:    o.Status.CanCancel(),
			CanRefund:    o.Status.CanRefund(),
		})
	}

	return nil, out, nil
}

func (h *Handler) mcpCancelOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OrderActionInput,
) (*mcp.CallToolResult, *model.CancelResult, error) {
	if err := h.mcpAuthorize(input.Token); err != nil {
		return nil, nil, err
	}
	if input.OrderID <= 0 {
		return nil, nil, fmt.Errorf("order_id is required")
	}

	result, err := h.cancelOrder(ctx, input.OrderID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, result, nil
}

func (h *Handler) mcpRefundOrder(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input OrderActionInput,
) (*mcp.CallToolResult, *model.RefundResult, error) {
	if err := h.mcpAuthorize(input.Token); err != nil {
		return nil, nil, err
	}
	if input.OrderID <= 0 {
		return nil, nil, fmt.Errorf("order_id is required")
	}

	result, err := h.refundOrder(ctx, input.OrderID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, result, nil
}

// mcpAuthorize checks the widget token carried in the tool input.
func (h *Handler) mcpAuthorize(token string) error {
	if token == "" || token != h.settings.WidgetToken {
		return fmt.Errorf("UNAUTHORIZED: invalid token")
	}
	return nil
}

// mcpError converts backend errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	if apiErr, ok := err.(*model.APIError); ok {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
