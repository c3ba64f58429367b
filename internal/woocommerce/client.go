// Package woocommerce implements the order backend over the WooCommerce
// REST API v3.
//
// Unlike the browser-oriented Store API, the v3 admin API authenticates
// server-to-server with consumer key/secret Basic Auth and exposes the
// admin-side resources this widget needs: order search and mutation, order
// notes, payment gateways, refunds, and product stock.
package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"missive-proxy/internal/backend"
	"missive-proxy/internal/model"
	"missive-proxy/internal/transport"
)

// restAPIPath is the base path for WooCommerce REST API v3 endpoints.
const restAPIPath = "/wp-json/wc/v3"

// userAgent identifies this client to upstream servers.
// Required: WooCommerce CDN/WAF layers rate-limit requests without one.
const userAgent = "Missive-Widget-Proxy/1.0"

// scanLimit bounds how many recent orders a lookup scans.
// The v3 search parameter over-matches (it searches more fields than
// billing email or phone), so both lookups fetch a bounded page of the
// newest candidates and filter to exact billing matches. Counts come
// from the filtered set, never the raw search total.
const scanLimit = 100

// Config holds WooCommerce-specific backend configuration.
type Config struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string

	// HTTPClient overrides the default client. Tests point this at
	// httptest servers; production leaves it nil and gets the Chrome
	// fingerprint transport.
	HTTPClient *http.Client
}

// Client implements backend.Backend using the WooCommerce REST API v3.
type Client struct {
	httpClient *http.Client
	baseURL    string // store URL + restAPIPath
	key        string
	secret     string
}

// New creates a WooCommerce client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("API credentials are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Chrome TLS fingerprint transport avoids JA3-based rate limiting
		// on managed WordPress hosts. See internal/transport for rationale.
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    trimTrailingSlash(cfg.StoreURL) + restAPIPath,
		key:        cfg.ConsumerKey,
		secret:     cfg.ConsumerSecret,
	}, nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// CountOrders returns the number of orders whose billing contact matches
// the query exactly. Both paths count the same filtered set SearchOrders
// returns from, so the displayed total never disagrees with the rows.
func (c *Client) CountOrders(ctx context.Context, q backend.OrderQuery) (int, error) {
	orders, err := c.scanOrders(ctx, q)
	if err != nil {
		return 0, err
	}
	return len(orders), nil
}

// SearchOrders returns at most limit matching orders, newest first.
func (c *Client) SearchOrders(ctx context.Context, q backend.OrderQuery, limit int) ([]model.Order, error) {
	orders, err := c.scanOrders(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// scanOrders fetches the newest orders the search query surfaces and
// keeps exact billing matches, so a queried address never surfaces
// someone else's orders.
func (c *Client) scanOrders(ctx context.Context, q backend.OrderQuery) ([]model.Order, error) {
	search := q.Email
	if search == "" {
		search = q.PhoneDigits
	}

	params := url.Values{}
	params.Set("search", search)
	params.Set("orderby", "date")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(scanLimit))

	var wire []wooOrder
	if err := c.get(ctx, "/orders", params, &wire); err != nil {
		return nil, err
	}

	var orders []model.Order
	for i := range wire {
		o := wire[i].toModel()
		if q.Email != "" && model.NormalizeEmail(o.Billing.Email) != q.Email {
			continue
		}
		if q.Email == "" && model.NormalizePhone(o.Billing.Phone) != q.PhoneDigits {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// GetOrder fetches one order by id.
func (c *Client) GetOrder(ctx context.Context, orderID int) (*model.Order, error) {
	var wire wooOrder
	if err := c.get(ctx, fmt.Sprintf("/orders/%d", orderID), nil, &wire); err != nil {
		return nil, err
	}
	order := wire.toModel()
	return &order, nil
}

// UpdateOrderStatus sets the order status, then records the audit note.
// WooCommerce core treats these as one operation; REST v3 needs two calls,
// and a note failure after a successful status write is surfaced rather
// than rolled back (there is no way to roll it back).
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
	body := map[string]string{"status": string(status)}

	var wire wooOrder
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", orderID), body, &wire); err != nil {
		return nil, err
	}

	if note != "" {
		if err := c.AddOrderNote(ctx, orderID, note); err != nil {
			return nil, err
		}
	}

	order := wire.toModel()
	return &order, nil
}

// AddOrderNote appends a private note to the order.
func (c *Client) AddOrderNote(ctx context.Context, orderID int, note string) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/notes", orderID), wooOrderNote{Note: note}, nil)
}

// PaymentGateway fetches the payment handler registered for a method id.
func (c *Client) PaymentGateway(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
	var wire wooGateway
	if err := c.get(ctx, "/payment_gateways/"+url.PathEscape(gatewayID), nil, &wire); err != nil {
		return nil, err
	}
	return &model.PaymentGateway{
		ID:       wire.ID,
		Title:    wire.Title,
		Supports: wire.MethodSupports,
	}, nil
}

// CreateRefund creates a refund with api_refund enabled: WooCommerce runs
// the gateway's refund operation and records the refund entity in the same
// request. If the gateway declines, nothing is recorded and the error
// carries the gateway's message.
func (c *Client) CreateRefund(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
	body := map[string]interface{}{
		"amount":     amount,
		"reason":     reason,
		"api_refund": true,
	}

	var wire wooRefund
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/refunds", orderID), body, &wire); err != nil {
		return nil, err
	}
	return &model.Refund{ID: wire.ID, Amount: wire.Amount}, nil
}

// GetProduct fetches a product's stock-tracking state.
func (c *Client) GetProduct(ctx context.Context, productID int) (*model.Product, error) {
	var wire wooProduct
	if err := c.get(ctx, fmt.Sprintf("/products/%d", productID), nil, &wire); err != nil {
		return nil, err
	}
	return &model.Product{
		ID:            wire.ID,
		ManagesStock:  wire.ManageStock,
		StockQuantity: wire.StockQuantity,
	}, nil
}

// UpdateProductStock sets a product's absolute stock quantity.
func (c *Client) UpdateProductStock(ctx context.Context, productID, quantity int) error {
	body := map[string]int{"stock_quantity": quantity}
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/products/%d", productID), body, nil)
}

// === HTTP plumbing ===

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("WooCommerce", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp.StatusCode, resp.Header, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// send performs a mutating request with a JSON body, decoding the response
// into out when out is non-nil.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("WooCommerce", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp.StatusCode, resp.Header, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

// setHeaders sets the headers every REST v3 request carries.
// The admin API uses consumer key/secret Basic Auth over HTTPS.
func (c *Client) setHeaders(req *http.Request) {
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// parseErrorResponse converts a WooCommerce error to an APIError.
func (c *Client) parseErrorResponse(statusCode int, header http.Header, body []byte) error {
	var wcErr wooErrorResponse
	json.Unmarshal(body, &wcErr) // Best effort parse

	switch {
	case statusCode == 404:
		return model.NewNotFoundError("Order")
	case statusCode == 401 || statusCode == 403:
		return model.NewUnauthorizedError("WooCommerce authentication failed")
	case statusCode == 400:
		msg := wcErr.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	case statusCode == 429:
		return model.NewRateLimitError("WooCommerce", parseRateLimitReset(header))
	case statusCode >= 500 && wcErr.Message != "":
		// Gateway refund failures arrive here; the message must reach the
		// agent verbatim.
		return model.NewDownstreamError(wcErr.Message)
	default:
		return model.NewUpstreamError("WooCommerce",
			fmt.Errorf("status %d: %s - %s", statusCode, wcErr.Code, wcErr.Message))
	}
}

// Verify Client implements the backend interface at compile time.
var _ backend.Backend = (*Client)(nil)
