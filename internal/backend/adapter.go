// Package backend adapts the ledger service HTTP API into a uniform
// response shape for tool handlers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"finops-gateway/internal/common/config"
	stderrors "finops-gateway/internal/common/errors"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/common/metrics"
)

// ==========================
// 1. Types
// ==========================

// Response is the uniform envelope every adapter call returns. A transport
// or upstream failure is reported inside the envelope, never as a Go error,
// so tool handlers have a single shape to consume.
type Response struct {
	Success    bool                   `json:"success"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	StatusCode int                    `json:"status_code"`
}

// RequestContext carries per-request auth and tenant identity into adapter
// calls. Values come from the inbound API request, not process state.
type RequestContext struct {
	AuthToken string
	OrgID     string
	UserID    string
}

// ContextFrom extracts a RequestContext from the request context map that
// flows through the agent pipeline.
func ContextFrom(reqCtx map[string]interface{}) RequestContext {
	rc := RequestContext{}
	if v, ok := reqCtx["auth_token"].(string); ok {
		rc.AuthToken = v
	}
	if v, ok := reqCtx["org_id"].(string); ok {
		rc.OrgID = v
	}
	if v, ok := reqCtx["user_id"].(string); ok {
		rc.UserID = v
	}
	return rc
}

// Adapter issues requests against the ledger backend.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewAdapter builds an Adapter for the configured backend.
func NewAdapter(cfg config.BackendConfig, log logger.Logger) *Adapter {
	return &Adapter{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		logger:     log,
	}
}

// ==========================
// 2. Core request plumbing
// ==========================

func (a *Adapter) request(ctx context.Context, rc RequestContext, method, path string, query url.Values, payload interface{}) *Response {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return &Response{Success: false, Error: fmt.Sprintf("failed to encode request: %v", err), StatusCode: http.StatusInternalServerError}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &Response{Success: false, Error: err.Error(), StatusCode: http.StatusInternalServerError}
	}
	req.Header.Set("Content-Type", "application/json")
	if rc.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+rc.AuthToken)
	}
	if rc.OrgID != "" {
		req.Header.Set("X-Org-Id", rc.OrgID)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("backend", "error").Inc()
		return a.transportFailure(method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("backend", "error").Inc()
		return &Response{Success: false, Error: fmt.Sprintf("failed to read response: %v", err), StatusCode: http.StatusInternalServerError}
	}

	data := decodeBody(respBody)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		metrics.UpstreamRequests.WithLabelValues("backend", "success").Inc()
		return &Response{Success: true, Data: data, StatusCode: resp.StatusCode}
	}

	metrics.UpstreamRequests.WithLabelValues("backend", "error").Inc()
	a.logger.Warn("backend request failed", map[string]interface{}{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	})
	return &Response{
		Success:    false,
		Data:       data,
		Error:      errorMessage(data, resp.StatusCode),
		StatusCode: resp.StatusCode,
	}
}

// transportFailure maps client-side failures onto gateway status codes:
// deadline expiry to 504, connection refusal to 503, anything else to 500.
func (a *Adapter) transportFailure(method, path string, err error) *Response {
	a.logger.WithError(err).Error("backend unreachable", map[string]interface{}{
		"method": method,
		"path":   path,
	})
	switch {
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		se := stderrors.NewTimeoutError("backend", err)
		return &Response{Success: false, Error: se.Message, StatusCode: http.StatusGatewayTimeout}
	case isConnectionError(err):
		se := stderrors.NewConnectionError("backend", err)
		return &Response{Success: false, Error: se.Message, StatusCode: http.StatusServiceUnavailable}
	default:
		return &Response{Success: false, Error: err.Error(), StatusCode: http.StatusInternalServerError}
	}
}

func isConnectionError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "connection reset")
}

// decodeBody tolerates non-object bodies by wrapping them under "result".
func decodeBody(body []byte) map[string]interface{} {
	if len(body) == 0 {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err == nil {
		return obj
	}
	var anything interface{}
	if err := json.Unmarshal(body, &anything); err == nil {
		return map[string]interface{}{"result": anything}
	}
	return map[string]interface{}{"raw": string(body)}
}

func errorMessage(data map[string]interface{}, status int) string {
	if data != nil {
		for _, key := range []string{"error", "message", "detail"} {
			if v, ok := data[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return fmt.Sprintf("backend returned status %d", status)
}

// ==========================
// 3. Invoice operations
// ==========================

func (a *Adapter) CreateInvoice(ctx context.Context, rc RequestContext, invoice map[string]interface{}) *Response {
	return a.request(ctx, rc, http.MethodPost, "/api/v1/invoices", nil, invoice)
}

func (a *Adapter) GetInvoices(ctx context.Context, rc RequestContext, filters map[string]string) *Response {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return a.request(ctx, rc, http.MethodGet, "/api/v1/invoices", q, nil)
}

func (a *Adapter) GetInvoiceByID(ctx context.Context, rc RequestContext, id string) *Response {
	return a.request(ctx, rc, http.MethodGet, "/api/v1/invoices/"+url.PathEscape(id), nil, nil)
}

func (a *Adapter) UpdateInvoice(ctx context.Context, rc RequestContext, id string, updates map[string]interface{}) *Response {
	return a.request(ctx, rc, http.MethodPut, "/api/v1/invoices/"+url.PathEscape(id), nil, updates)
}

func (a *Adapter) DeleteInvoice(ctx context.Context, rc RequestContext, id string) *Response {
	return a.request(ctx, rc, http.MethodDelete, "/api/v1/invoices/"+url.PathEscape(id), nil, nil)
}

// ==========================
// 4. Client operations
// ==========================

func (a *Adapter) CreateClient(ctx context.Context, rc RequestContext, client map[string]interface{}) *Response {
	return a.request(ctx, rc, http.MethodPost, "/api/v1/clients", nil, client)
}

func (a *Adapter) GetClients(ctx context.Context, rc RequestContext) *Response {
	return a.request(ctx, rc, http.MethodGet, "/api/v1/clients", nil, nil)
}

// GetClientByName resolves a client record by display name via the search
// endpoint. A zero-hit search still returns Success=true with empty results.
func (a *Adapter) GetClientByName(ctx context.Context, rc RequestContext, name string) *Response {
	q := url.Values{}
	q.Set("name", name)
	return a.request(ctx, rc, http.MethodGet, "/api/v1/clients/search", q, nil)
}

// ==========================
// 5. Payments & transactions
// ==========================

func (a *Adapter) RecordPayment(ctx context.Context, rc RequestContext, payment map[string]interface{}) *Response {
	return a.request(ctx, rc, http.MethodPost, "/api/v1/payments", nil, payment)
}

func (a *Adapter) GetPayments(ctx context.Context, rc RequestContext, filters map[string]string) *Response {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return a.request(ctx, rc, http.MethodGet, "/api/v1/payments", q, nil)
}

func (a *Adapter) GetTransactions(ctx context.Context, rc RequestContext, filters map[string]string) *Response {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return a.request(ctx, rc, http.MethodGet, "/api/v1/transactions", q, nil)
}

// GetBalance reports the current balance from the transactions summary.
// The summary's netProfit field stands in for an account balance until the
// backend exposes a dedicated balance endpoint.
func (a *Adapter) GetBalance(ctx context.Context, rc RequestContext) *Response {
	resp := a.request(ctx, rc, http.MethodGet, "/api/transactions/summary", nil, nil)
	if !resp.Success || resp.Data == nil {
		return resp
	}
	balance := resp.Data["netProfit"]
	if inner, ok := resp.Data["data"].(map[string]interface{}); ok && balance == nil {
		balance = inner["netProfit"]
	}
	return &Response{
		Success: true,
		Data: map[string]interface{}{
			"balance": balance,
			"summary": resp.Data,
		},
		StatusCode: resp.StatusCode,
	}
}

// ==========================
// 6. Analytics
// ==========================

func (a *Adapter) GetRevenueByPeriod(ctx context.Context, rc RequestContext, period string) *Response {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	return a.request(ctx, rc, http.MethodGet, "/api/v1/analytics/revenue", q, nil)
}
