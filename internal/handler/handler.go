// Package handler provides the HTTP surface of the widget proxy: the
// token gate, the action dispatcher, the embedded widget page, and the
// MCP transport.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"missive-proxy/internal/backend"
	"missive-proxy/internal/model"
	"missive-proxy/internal/resolver"
)

// Action identifies a widget operation. The set is closed; anything the
// dispatcher does not recognize is rejected at the boundary.
type Action string

const (
	ActionSearchCustomer Action = "search-customer"
	ActionCancelOrder    Action = "cancel-order"
	ActionRefundOrder    Action = "refund-order"
	ActionResolveContact Action = "resolve-contact"
)

// ParseAction validates an action name from the request.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSearchCustomer, ActionCancelOrder, ActionRefundOrder, ActionResolveContact:
		return Action(s), nil
	}
	return "", model.NewRequestError("Invalid action")
}

// Settings carries the request-handling configuration. Constructed once
// at startup from config.Config and never mutated.
type Settings struct {
	WidgetToken    string
	EndpointPath   string // path segment without slashes, e.g. "missive-widget"
	StoreDomain    string
	InternalDomain string
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	backend  backend.Backend
	resolver *resolver.Resolver
	settings Settings
	logger   *slog.Logger
}

// New creates a Handler over the given order backend.
func New(b backend.Backend, settings Settings, logger *slog.Logger) *Handler {
	return &Handler{
		backend:  b,
		resolver: resolver.New(settings.InternalDomain),
		settings: settings,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// The widget endpoint serves both the page (GET, no action) and the
	// action calls. The original deployment used a trailing slash in the
	// page's base URL, so both forms are routed.
	base := "/" + h.settings.EndpointPath
	mux.HandleFunc("GET "+base, h.handleWidget)
	mux.HandleFunc("GET "+base+"/{$}", h.handleWidget)
	mux.HandleFunc("POST "+base, h.handleAction)
	mux.HandleFunc("POST "+base+"/{$}", h.handleAction)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleWidget serves GET requests on the widget endpoint: the page when
// no action is present, otherwise a dispatched read-only action call.
func (h *Handler) handleWidget(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") == "" {
		h.handlePage(w, r)
		return
	}
	h.dispatch(w, r)
}

// handleAction serves POST requests on the widget endpoint.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r)
}

// dispatch checks the token, then validates the action and routes to the
// typed handler. The gate runs first so unauthenticated callers learn
// nothing about the action set. For POST requests the body is read up
// front because the token may ride in it.
func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Method == http.MethodPost {
		var err error
		body, err = readBody(r)
		if err != nil {
			h.writeError(w, err)
			return
		}
	}

	if !h.authorized(r, body) {
		h.writeError(w, model.NewUnauthorizedError("Unauthorized: Invalid token"))
		return
	}

	action, err := ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx := r.Context()
	h.logger.InfoContext(ctx, "dispatching action", slog.String("action", string(action)))

	switch action {
	case ActionSearchCustomer:
		h.handleSearchCustomer(w, r)
	case ActionCancelOrder:
		h.handleCancelOrder(w, r, body)
	case ActionRefundOrder:
		h.handleRefundOrder(w, r, body)
	case ActionResolveContact:
		h.handleResolveContact(w, r, body)
	}
}

// authorized checks the shared-secret token. Sources, first non-empty
// wins: token query/form parameter, then the token field of a JSON body.
func (h *Handler) authorized(r *http.Request, body []byte) bool {
	token := r.URL.Query().Get("token")
	if token == "" && len(body) > 0 {
		var probe struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(body, &probe); err == nil {
			token = probe.Token
		}
	}
	return token != "" && token == h.settings.WidgetToken
}

// handleHealth returns service status.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Response Helpers ===

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// readBody reads the request body with the size cap applied.
func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, model.NewRequestError("request body too large or unreadable")
	}
	return body, nil
}

// unmarshalBody decodes pre-read body bytes into v.
func unmarshalBody(body []byte, v interface{}) error {
	if len(body) == 0 {
		return model.NewRequestError("request body required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/message from
// APIError if present. Uses errors.As() to unwrap error chains.
// The wire shape is {"error": "<message>"}; the widget script shows the
// message to the agent as-is.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{Error: apiErr.Message})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error string `json:"error"`
}
