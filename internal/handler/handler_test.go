package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"missive-proxy/internal/backend"
	"missive-proxy/internal/model"
)

const testToken = "secret-token"

func newTestHandler(b *backend.Mock) *Handler {
	return New(b, Settings{
		WidgetToken:    testToken,
		EndpointPath:   "missive-widget",
		StoreDomain:    "shop.example.com",
		InternalDomain: "tortelen.nl",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func sampleOrder() *model.Order {
	return &model.Order{
		ID:            812,
		CustomerID:    5,
		Status:        model.StatusProcessing,
		DateCreated:   time.Date(2025, 8, 14, 9, 30, 0, 0, time.UTC),
		Total:         "49.95",
		PaymentMethod: "stripe",
		Billing: model.Billing{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane@example.com",
			Phone:     "+31612345678",
		},
		LineItems: []model.LineItem{
			{Name: "Walnut Chess Board", ProductID: 7, Quantity: 2},
			{Name: "Gift Wrap", ProductID: 9, Quantity: 1},
		},
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &resp)
	return resp.Error
}

// === Access gate ===

func TestPageLoadValidToken(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	w := serve(h, httptest.NewRequest("GET", "/missive-widget?token="+testToken, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %s, want text/html", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "shop.example.com") {
		t.Error("page missing store domain")
	}
	if !strings.Contains(body, testToken) {
		t.Error("page missing injected token")
	}
}

func TestPageLoadInvalidToken(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	for _, url := range []string{"/missive-widget", "/missive-widget?token=wrong"} {
		w := serve(h, httptest.NewRequest("GET", url, nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: Status = %d, want 401", url, w.Code)
		}
		if strings.Contains(w.Body.String(), "<html") {
			t.Errorf("%s: page rendered despite bad token", url)
		}
	}
}

func TestActionsRejectBadTokenWithoutSideEffects(t *testing.T) {
	touched := false
	mock := &backend.Mock{
		CountOrdersFunc: func(ctx context.Context, q backend.OrderQuery) (int, error) {
			touched = true
			return 1, nil
		},
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			touched = true
			return sampleOrder(), nil
		},
		UpdateOrderStatusFunc: func(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
			touched = true
			return sampleOrder(), nil
		},
	}
	h := newTestHandler(mock)

	requests := []*http.Request{
		httptest.NewRequest("GET", "/missive-widget?action=search-customer&token=wrong&email=a@b.com", nil),
		httptest.NewRequest("POST", "/missive-widget?action=cancel-order&token=wrong",
			strings.NewReader(`{"order_id": 812}`)),
		httptest.NewRequest("POST", "/missive-widget?action=refund-order",
			strings.NewReader(`{"order_id": 812, "token": "wrong"}`)),
		httptest.NewRequest("POST", "/missive-widget?action=cancel-order",
			strings.NewReader(`{"order_id": 812}`)),
	}

	for _, req := range requests {
		w := serve(h, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: Status = %d, want 401", req.URL, w.Code)
		}
		if got := errorMessage(t, w); got != "Unauthorized: Invalid token" {
			t.Errorf("%s: error = %q", req.URL, got)
		}
	}
	if touched {
		t.Error("backend called despite invalid token")
	}
}

func TestActionTokenAcceptedFromBody(t *testing.T) {
	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			order := sampleOrder()
			order.LineItems = nil
			return order, nil
		},
		UpdateOrderStatusFunc: func(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
			order := sampleOrder()
			order.Status = status
			return order, nil
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=cancel-order",
		strings.NewReader(`{"order_id": 812, "token": "`+testToken+`"}`))
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestUnknownAction(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	w := serve(h, httptest.NewRequest("GET", "/missive-widget?action=delete-everything&token="+testToken, nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "Invalid action" {
		t.Errorf("error = %q, want Invalid action", got)
	}
}

func TestUnknownActionBadTokenIsUnauthorized(t *testing.T) {
	// The gate runs before action parsing; a caller without the token
	// must not learn which action names exist.
	h := newTestHandler(&backend.Mock{})

	for _, url := range []string{
		"/missive-widget?action=delete-everything",
		"/missive-widget?action=delete-everything&token=wrong",
	} {
		w := serve(h, httptest.NewRequest("GET", url, nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: Status = %d, want 401", url, w.Code)
		}
		if got := errorMessage(t, w); got != "Unauthorized: Invalid token" {
			t.Errorf("%s: error = %q, want Unauthorized: Invalid token", url, got)
		}
	}
}

// === search-customer ===

func TestSearchRequiresEmailOrPhone(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	w := serve(h, httptest.NewRequest("GET", "/missive-widget?action=search-customer&token="+testToken, nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "Email or phone required" {
		t.Errorf("error = %q, want Email or phone required", got)
	}
}

func TestSearchNormalizesEmail(t *testing.T) {
	var gotQuery backend.OrderQuery
	mock := &backend.Mock{
		CountOrdersFunc: func(ctx context.Context, q backend.OrderQuery) (int, error) {
			gotQuery = q
			return 0, nil
		},
	}
	h := newTestHandler(mock)

	serve(h, httptest.NewRequest("GET",
		"/missive-widget?action=search-customer&token="+testToken+"&email=%20%20Foo%40Bar.com%20", nil))

	if gotQuery.Email != "foo@bar.com" {
		t.Errorf("Email = %q, want foo@bar.com", gotQuery.Email)
	}
}

func TestSearchNormalizesPhone(t *testing.T) {
	var gotQuery backend.OrderQuery
	mock := &backend.Mock{
		CountOrdersFunc: func(ctx context.Context, q backend.OrderQuery) (int, error) {
			gotQuery = q
			return 0, nil
		},
	}
	h := newTestHandler(mock)

	serve(h, httptest.NewRequest("GET",
		"/missive-widget?action=search-customer&token="+testToken+"&phone=%2B31%20(6)%201234-5678", nil))

	if gotQuery.PhoneDigits != "31612345678" {
		t.Errorf("PhoneDigits = %q, want 31612345678", gotQuery.PhoneDigits)
	}
	if gotQuery.Email != "" {
		t.Errorf("Email = %q, want empty for phone search", gotQuery.Email)
	}
}

func TestSearchEmailTakesPrecedence(t *testing.T) {
	var gotQuery backend.OrderQuery
	mock := &backend.Mock{
		CountOrdersFunc: func(ctx context.Context, q backend.OrderQuery) (int, error) {
			gotQuery = q
			return 0, nil
		},
	}
	h := newTestHandler(mock)

	serve(h, httptest.NewRequest("GET",
		"/missive-widget?action=search-customer&token="+testToken+"&email=jane@example.com&phone=0612345678", nil))

	if gotQuery.Email != "jane@example.com" || gotQuery.PhoneDigits != "" {
		t.Errorf("query = %+v, want email-only lookup", gotQuery)
	}
}

func TestSearchZeroMatches(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	w := serve(h, httptest.NewRequest("GET",
		"/missive-widget?action=search-customer&token="+testToken+"&email=nobody@example.com", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	// Exact wire shape: null customer, empty (not null) orders array.
	body := strings.TrimSpace(w.Body.String())
	if body != `{"customer":null,"orders":[]}` {
		t.Errorf("body = %s, want {\"customer\":null,\"orders\":[]}", body)
	}
}

func TestSearchReturnsCustomerAndOrders(t *testing.T) {
	older := sampleOrder()
	older.ID = 790
	older.Status = model.StatusCompleted
	older.LineItems = nil

	mock := &backend.Mock{
		CountOrdersFunc: func(ctx context.Context, q backend.OrderQuery) (int, error) {
			return 12, nil
		},
		SearchOrdersFunc: func(ctx context.Context, q backend.OrderQuery, limit int) ([]model.Order, error) {
			if limit != 3 {
				t.Errorf("limit = %d, want 3", limit)
			}
			return []model.Order{*sampleOrder(), *older}, nil
		},
	}
	h := newTestHandler(mock)

	w := serve(h, httptest.NewRequest("GET",
		"/missive-widget?action=search-customer&token="+testToken+"&email=jane@example.com", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}

	var result model.SearchResult
	decodeBody(t, w, &result)

	if result.Customer == nil {
		t.Fatal("customer = nil, want projection from newest order")
	}
	if result.Customer.FirstName != "Jane" || result.Customer.TotalOrders != 12 {
		t.Errorf("customer = %+v, want Jane with 12 total orders", result.Customer)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2", len(result.Orders))
	}
	if result.Orders[0].ProductName != "Walnut Chess Board" {
		t.Errorf("product_name = %q, want first line item", result.Orders[0].ProductName)
	}
	if result.Orders[1].ProductName != model.NoProductName {
		t.Errorf("product_name = %q, want %q for empty order", result.Orders[1].ProductName, model.NoProductName)
	}
	if result.Orders[0].DateCreated != "2025-08-14T09:30:00Z" {
		t.Errorf("date_created = %q, want RFC 3339", result.Orders[0].DateCreated)
	}
}

// === cancel-order ===

func TestCancelRequiresOrderID(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	for _, body := range []string{`{}`, `{"order_id": "abc"}`, `{"order_id": 0}`} {
		req := httptest.NewRequest("POST", "/missive-widget?action=cancel-order&token="+testToken,
			strings.NewReader(body))
		w := serve(h, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: Status = %d, want 400", body, w.Code)
		}
		if got := errorMessage(t, w); got != "order_id required" {
			t.Errorf("body %s: error = %q, want order_id required", body, got)
		}
	}
}

func TestCancelUnknownOrderNoMutation(t *testing.T) {
	mutated := false
	mock := &backend.Mock{
		UpdateOrderStatusFunc: func(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
			mutated = true
			return nil, nil
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=cancel-order&token="+testToken,
		strings.NewReader(`{"order_id": 999}`))
	w := serve(h, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", w.Code)
	}
	if mutated {
		t.Error("status updated for unknown order")
	}
}

func TestCancelOrderRestocksTrackedItems(t *testing.T) {
	stock := map[int]int{7: 5} // product 9 does not manage stock
	var notes []string
	var statusNote string

	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			return sampleOrder(), nil
		},
		UpdateOrderStatusFunc: func(ctx context.Context, orderID int, status model.OrderStatus, note string) (*model.Order, error) {
			if status != model.StatusCancelled {
				t.Errorf("status = %s, want cancelled", status)
			}
			statusNote = note
			order := sampleOrder()
			order.Status = status
			return order, nil
		},
		GetProductFunc: func(ctx context.Context, productID int) (*model.Product, error) {
			qty, manages := stock[productID]
			return &model.Product{ID: productID, ManagesStock: manages, StockQuantity: qty}, nil
		},
		UpdateProductStockFunc: func(ctx context.Context, productID, quantity int) error {
			stock[productID] = quantity
			return nil
		},
		AddOrderNoteFunc: func(ctx context.Context, orderID int, note string) error {
			notes = append(notes, note)
			return nil
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=cancel-order&token="+testToken,
		strings.NewReader(`{"order_id": 812}`))
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result model.CancelResult
	decodeBody(t, w, &result)
	if !result.Success || result.Order.ID != 812 || result.Order.Status != model.StatusCancelled {
		t.Errorf("result = %+v, want success with cancelled order 812", result)
	}

	// Item quantity 2 on a product holding 5 -> 7. The untracked product
	// must stay untouched.
	if stock[7] != 7 {
		t.Errorf("stock[7] = %d, want 7", stock[7])
	}
	if _, ok := stock[9]; ok {
		t.Error("untracked product was restocked")
	}

	if statusNote != "Order cancelled via Missive widget" {
		t.Errorf("status note = %q", statusNote)
	}
	if len(notes) != 1 || notes[0] != "Stock restored automatically via Missive widget" {
		t.Errorf("notes = %v, want single restock note", notes)
	}
}

// === refund-order ===

func TestRefundUnsupportedGatewayNoMutation(t *testing.T) {
	refunded := false
	restocked := false
	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			return sampleOrder(), nil
		},
		PaymentGatewayFunc: func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
			return &model.PaymentGateway{ID: gatewayID, Supports: []string{"products"}}, nil
		},
		CreateRefundFunc: func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
			refunded = true
			return nil, nil
		},
		UpdateProductStockFunc: func(ctx context.Context, productID, quantity int) error {
			restocked = true
			return nil
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=refund-order&token="+testToken,
		strings.NewReader(`{"order_id": 812}`))
	w := serve(h, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
	if got := errorMessage(t, w); got != "This payment method does not support API refunds" {
		t.Errorf("error = %q", got)
	}
	if refunded || restocked {
		t.Error("mutation performed despite unsupported gateway")
	}
}

func TestRefundGatewayLookupErrors(t *testing.T) {
	// An absent gateway means the method cannot refund; a transient
	// upstream failure must surface as one, not as the 400.
	tests := []struct {
		name       string
		lookupErr  error
		wantStatus int
	}{
		{"gateway not registered", model.NewNotFoundError("Gateway"), http.StatusBadRequest},
		{"upstream failure", model.NewUpstreamError("WooCommerce", errors.New("connection reset")), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refunded := false
			mock := &backend.Mock{
				GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
					return sampleOrder(), nil
				},
				PaymentGatewayFunc: func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
					return nil, tt.lookupErr
				},
				CreateRefundFunc: func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
					refunded = true
					return nil, nil
				},
			}
			h := newTestHandler(mock)

			req := httptest.NewRequest("POST", "/missive-widget?action=refund-order&token="+testToken,
				strings.NewReader(`{"order_id": 812}`))
			w := serve(h, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusBadRequest {
				if got := errorMessage(t, w); got == "This payment method does not support API refunds" {
					t.Error("upstream failure reported as unsupported payment method")
				}
			}
			if refunded {
				t.Error("refund created despite gateway lookup failure")
			}
		})
	}
}

func TestRefundSuccess(t *testing.T) {
	stock := map[int]int{7: 5}
	refundCalls := 0
	restockPasses := 0

	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			return sampleOrder(), nil
		},
		PaymentGatewayFunc: func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
			if gatewayID != "stripe" {
				t.Errorf("gatewayID = %s, want stripe (order's payment method)", gatewayID)
			}
			return &model.PaymentGateway{ID: gatewayID, Supports: []string{"refunds"}}, nil
		},
		CreateRefundFunc: func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
			refundCalls++
			if amount != "49.95" {
				t.Errorf("amount = %s, want full order total 49.95", amount)
			}
			if reason != "Refund processed via Missive widget" {
				t.Errorf("reason = %q", reason)
			}
			return &model.Refund{ID: 301, Amount: amount}, nil
		},
		GetProductFunc: func(ctx context.Context, productID int) (*model.Product, error) {
			qty, manages := stock[productID]
			return &model.Product{ID: productID, ManagesStock: manages, StockQuantity: qty}, nil
		},
		UpdateProductStockFunc: func(ctx context.Context, productID, quantity int) error {
			restockPasses++
			stock[productID] = quantity
			return nil
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=refund-order&token="+testToken,
		strings.NewReader(`{"order_id": 812}`))
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var result model.RefundResult
	decodeBody(t, w, &result)
	if !result.Success || result.Refund.ID != 301 || result.Refund.Amount != "49.95" {
		t.Errorf("result = %+v, want refund 301 for 49.95", result)
	}

	// Exactly one refund record, exactly one restock pass for the single
	// stock-tracked item.
	if refundCalls != 1 {
		t.Errorf("refund calls = %d, want 1", refundCalls)
	}
	if restockPasses != 1 {
		t.Errorf("restock passes = %d, want 1", restockPasses)
	}
	if stock[7] != 7 {
		t.Errorf("stock[7] = %d, want 7", stock[7])
	}
}

func TestRefundAmountMismatchWarns(t *testing.T) {
	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			return sampleOrder(), nil
		},
		PaymentGatewayFunc: func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
			return &model.PaymentGateway{ID: gatewayID, Supports: []string{"refunds"}}, nil
		},
		CreateRefundFunc: func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
			// Upstream recorded less than the requested full total.
			return &model.Refund{ID: 301, Amount: "40.00"}, nil
		},
	}

	var logs bytes.Buffer
	h := New(mock, Settings{
		WidgetToken:    testToken,
		EndpointPath:   "missive-widget",
		StoreDomain:    "shop.example.com",
		InternalDomain: "tortelen.nl",
	}, slog.New(slog.NewTextHandler(&logs, nil)))

	req := httptest.NewRequest("POST", "/missive-widget?action=refund-order&token="+testToken,
		strings.NewReader(`{"order_id": 812}`))
	w := serve(h, req)

	// The money already moved; the mismatch is logged, not failed.
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(logs.String(), "refund amount differs from order total") {
		t.Errorf("mismatch not logged: %s", logs.String())
	}
}

func TestRefundGatewayFailureSurfacesMessage(t *testing.T) {
	mock := &backend.Mock{
		GetOrderFunc: func(ctx context.Context, orderID int) (*model.Order, error) {
			return sampleOrder(), nil
		},
		PaymentGatewayFunc: func(ctx context.Context, gatewayID string) (*model.PaymentGateway, error) {
			return &model.PaymentGateway{ID: gatewayID, Supports: []string{"refunds"}}, nil
		},
		CreateRefundFunc: func(ctx context.Context, orderID int, amount, reason string) (*model.Refund, error) {
			return nil, model.NewDownstreamError("The payment gateway declined the refund.")
		},
	}
	h := newTestHandler(mock)

	req := httptest.NewRequest("POST", "/missive-widget?action=refund-order&token="+testToken,
		strings.NewReader(`{"order_id": 812}`))
	w := serve(h, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", w.Code)
	}
	if got := errorMessage(t, w); got != "The payment gateway declined the refund." {
		t.Errorf("error = %q, want gateway message verbatim", got)
	}
}

// === resolve-contact ===

func TestResolveContactAction(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	conv := `{
		"messages": [
			{"from_field": {"address": "jane@example.com"}},
			{"from_field": {"address": "agent@tortelen.nl"}}
		],
		"contacts": [],
		"token": "` + testToken + `"
	}`
	req := httptest.NewRequest("POST", "/missive-widget?action=resolve-contact", strings.NewReader(conv))
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Email *string `json:"email"`
		Phone *string `json:"phone"`
	}
	decodeBody(t, w, &resp)
	if resp.Email == nil || *resp.Email != "jane@example.com" {
		t.Errorf("email = %v, want jane@example.com (newest external sender)", resp.Email)
	}
	if resp.Phone != nil {
		t.Errorf("phone = %v, want null", resp.Phone)
	}
}

func TestResolveContactEmptyConversation(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	req := httptest.NewRequest("POST", "/missive-widget?action=resolve-contact&token="+testToken,
		strings.NewReader(`{"messages": [], "contacts": []}`))
	w := serve(h, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	body := strings.TrimSpace(w.Body.String())
	if body != `{"email":null,"phone":null}` {
		t.Errorf("body = %s, want both fields null", body)
	}
}

// === health ===

func TestHealth(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		w := serve(h, httptest.NewRequest("GET", path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: Status = %d, want 200", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "ok") {
			t.Errorf("%s: body = %s", path, w.Body.String())
		}
	}
}

// === malformed bodies ===

func TestMutatingActionRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(&backend.Mock{})

	req := httptest.NewRequest("POST", "/missive-widget?action=cancel-order&token="+testToken,
		strings.NewReader(`{order_id:`))
	w := serve(h, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400", w.Code)
	}
}

func TestParseAction(t *testing.T) {
	valid := []string{"search-customer", "cancel-order", "refund-order", "resolve-contact"}
	for _, name := range valid {
		if _, err := ParseAction(name); err != nil {
			t.Errorf("ParseAction(%q) error: %v", name, err)
		}
	}

	for _, name := range []string{"", "SEARCH-CUSTOMER", "search", "drop-tables"} {
		if _, err := ParseAction(name); err == nil {
			t.Errorf("ParseAction(%q) = nil error, want error", name)
		}
	}
}
