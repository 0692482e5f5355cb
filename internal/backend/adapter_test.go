package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
)

func newTestAdapter(t *testing.T, url string, timeoutSec int) *Adapter {
	t.Helper()
	if timeoutSec == 0 {
		timeoutSec = 5
	}
	return NewAdapter(config.BackendConfig{BaseURL: url, Timeout: timeoutSec}, logger.NewTestLogger(t))
}

func TestRequest_SuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/invoices", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "org-9", r.Header.Get("X-Org-Id"))
		w.Write([]byte(`{"invoices": [{"id": "inv-1"}], "total": 1}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	rc := RequestContext{AuthToken: "tok-123", OrgID: "org-9"}
	resp := a.GetInvoices(context.Background(), rc, map[string]string{"status": "UNPAID"})

	require.True(t, resp.Success)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), resp.Data["total"])
}

func TestRequest_UpstreamErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "invoice not found"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	resp := a.GetInvoiceByID(context.Background(), RequestContext{}, "missing")

	require.False(t, resp.Success)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "invoice not found", resp.Error)
}

func TestRequest_ConnectionFailureIs503(t *testing.T) {
	// Closed server port: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	resp := a.GetClients(context.Background(), RequestContext{})

	require.False(t, resp.Success)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.NotEmpty(t, resp.Error)
}

func TestRequest_TimeoutIs504(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp := a.GetTransactions(ctx, RequestContext{}, nil)
	require.False(t, resp.Success)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestGetBalance_MapsNetProfit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions/summary", r.URL.Path)
		w.Write([]byte(`{"totalIncome": 90000, "totalExpense": 40000, "netProfit": 50000}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	resp := a.GetBalance(context.Background(), RequestContext{OrgID: "org-1"})

	require.True(t, resp.Success)
	assert.Equal(t, float64(50000), resp.Data["balance"])
	summary, ok := resp.Data["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(90000), summary["totalIncome"])
}

func TestGetClientByName_BuildsSearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/clients/search", r.URL.Path)
		assert.Equal(t, "Acme Corp", r.URL.Query().Get("name"))
		w.Write([]byte(`{"clients": []}`))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL, 0)
	resp := a.GetClientByName(context.Background(), RequestContext{}, "Acme Corp")
	require.True(t, resp.Success)
}

func TestContextFrom(t *testing.T) {
	rc := ContextFrom(map[string]interface{}{
		"auth_token": "tok",
		"org_id":     "org-1",
		"user_id":    "user-1",
		"unrelated":  42,
	})
	assert.Equal(t, "tok", rc.AuthToken)
	assert.Equal(t, "org-1", rc.OrgID)
	assert.Equal(t, "user-1", rc.UserID)

	empty := ContextFrom(map[string]interface{}{"auth_token": 99})
	assert.Empty(t, empty.AuthToken)
}
