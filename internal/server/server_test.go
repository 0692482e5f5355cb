package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finops-gateway/internal/agents"
	"finops-gateway/internal/common/config"
	stderrors "finops-gateway/internal/common/errors"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/tools"
)

// ==========================
// Test doubles
// ==========================

type stubClassifier struct {
	result *intent.Classification
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, userInput string, history []intent.HistoryTurn, businessContext map[string]interface{}) (*intent.Classification, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubExtractor struct {
	result *entity.ExtractedEntities
}

func (s *stubExtractor) Extract(ctx context.Context, userInput string, in intent.Intent, reqCtx map[string]interface{}) *entity.ExtractedEntities {
	if s.result != nil {
		return s.result
	}
	return &entity.ExtractedEntities{}
}

type captureAgent struct {
	role    intent.AgentRole
	intents []intent.Intent
	resp    *agents.Response

	lastReqCtx map[string]interface{}
}

func (a *captureAgent) Role() intent.AgentRole            { return a.role }
func (a *captureAgent) SupportedIntents() []intent.Intent { return a.intents }

func (a *captureAgent) Process(ctx context.Context, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (*agents.Response, error) {
	a.lastReqCtx = reqCtx
	if a.resp != nil {
		return a.resp, nil
	}
	return agents.SuccessResponse(a.role, "done", nil, ""), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "finops-gateway", Version: "0.1.0", Environment: "test"},
	}
}

func newTestServer(t *testing.T, classifier Classifier, extractor Extractor, agent agents.Agent) (*Server, *tools.Registry) {
	t.Helper()
	log := logger.NewTestLogger(t)

	registry := tools.NewRegistry(log)
	registry.Register(&tools.Tool{
		Name:        "query_invoices",
		Description: "List invoices",
		Enabled:     true,
		MVPReady:    true,
		Category:    "finance",
		Handler: func(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
			return map[string]interface{}{"message": "Found 0 invoice(s)"}, nil
		},
	})
	registry.Register(&tools.Tool{
		Name:        "calculate_health_score",
		Description: "Score business health",
		Enabled:     false,
		Category:    "strategic",
	})

	var registered []agents.Agent
	if agent != nil {
		registered = append(registered, agent)
	}
	router := agents.NewRouter(registered, false, log)

	return New(testConfig(), classifier, extractor, router, registry, nil, log), registry
}

func doJSON(t *testing.T, engine http.Handler, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// ==========================
// Assistant pipeline
// ==========================

func TestAssistantQuery_HappyPath(t *testing.T) {
	agent := &captureAgent{
		role:    intent.FinanceAgent,
		intents: []intent.Intent{intent.InvoiceQuery},
		resp: agents.SuccessResponse(intent.FinanceAgent, "Found 2 invoice(s)",
			map[string]interface{}{"count": 2}, "query_invoices"),
	}
	classifier := &stubClassifier{result: &intent.Classification{
		Intent:       intent.InvoiceQuery,
		Confidence:   0.9,
		Category:     intent.CategoryOperational,
		PrimaryAgent: intent.FinanceAgent,
		Complexity:   intent.ComplexitySimple,
		Source:       "pattern",
	}}
	extractor := &stubExtractor{result: &entity.ExtractedEntities{TotalEntities: 1}}
	srv, _ := newTestServer(t, classifier, extractor, agent)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/assistant/query", map[string]interface{}{
		"query":   "show my invoices",
		"user_id": "u-1",
		"org_id":  "org-1",
	}, map[string]string{"Authorization": "Bearer tok-123"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Found 2 invoice(s)", body["message"])
	assert.Equal(t, "FINANCE_AGENT", body["agent"])
	assert.Equal(t, "query_invoices", body["tool_used"])
	assert.Equal(t, float64(1), body["entities_count"])

	intentInfo, ok := body["intent"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "INVOICE_QUERY", intentInfo["name"])
	assert.Equal(t, 0.9, intentInfo["confidence"])
	assert.Equal(t, "HIGH", intentInfo["confidence_level"])
	assert.Equal(t, "OPERATIONAL", intentInfo["category"])
	assert.Equal(t, "pattern", intentInfo["source"])

	require.NotNil(t, agent.lastReqCtx)
	assert.Equal(t, "u-1", agent.lastReqCtx["user_id"])
	assert.Equal(t, "org-1", agent.lastReqCtx["org_id"])
	assert.Equal(t, "tok-123", agent.lastReqCtx["auth_token"])
}

func TestAssistantQuery_MissingQuery(t *testing.T) {
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/assistant/query",
		map[string]interface{}{"session_id": "s-1"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestAssistantQuery_ClassifierFailure(t *testing.T) {
	classifier := &stubClassifier{err: stderrors.NewConnectionError("llm", fmt.Errorf("dial tcp: refused"))}
	srv, _ := newTestServer(t, classifier, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/assistant/query",
		map[string]interface{}{"query": "analyze my growth options"}, nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestAssistantQuery_ClassifierTimeout(t *testing.T) {
	classifier := &stubClassifier{err: stderrors.NewTimeoutError("llm", context.DeadlineExceeded)}
	srv, _ := newTestServer(t, classifier, &stubExtractor{}, nil)

	rec, _ := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/assistant/query",
		map[string]interface{}{"query": "analyze my growth options"}, nil)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAssistantQuery_UnavailableAgentIsStubbed(t *testing.T) {
	// SALES_STRATEGY routes to the strategy agent, which is not registered.
	classifier := &stubClassifier{result: &intent.Classification{
		Intent:       intent.SalesStrategy,
		Confidence:   0.8,
		Category:     intent.CategoryStrategic,
		PrimaryAgent: intent.SalesAgent,
		Complexity:   intent.ComplexityComplex,
		Source:       "model",
	}}
	srv, _ := newTestServer(t, classifier, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/assistant/query",
		map[string]interface{}{"query": "how do I grow sales"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["implemented"])
}

// ==========================
// Direct agent execution
// ==========================

func TestAgentProcess_InvalidIntent(t *testing.T) {
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/agents/process",
		map[string]interface{}{"intent": "MAKE_COFFEE"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid intent: MAKE_COFFEE", body["error"])
}

func TestAgentProcess_ParametersReachAgent(t *testing.T) {
	agent := &captureAgent{
		role:    intent.FinanceAgent,
		intents: []intent.Intent{intent.PaymentRecord},
	}
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, agent)

	rec, body := doJSON(t, srv.Engine(), http.MethodPost, "/api/v1/agents/process", map[string]interface{}{
		"intent":     "PAYMENT_RECORD",
		"parameters": map[string]interface{}{"invoice_id": "inv-1", "amount": 5000},
		"context":    map[string]interface{}{"user_id": "u-9"},
	}, map[string]string{"Authorization": "Bearer tok-9"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	require.NotNil(t, agent.lastReqCtx)
	assert.Equal(t, "u-9", agent.lastReqCtx["user_id"])
	assert.Equal(t, "tok-9", agent.lastReqCtx["auth_token"])
	params, ok := agent.lastReqCtx["parameters"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "inv-1", params["invoice_id"])
}

// ==========================
// Discovery & health
// ==========================

func TestListAgents(t *testing.T) {
	agent := &captureAgent{role: intent.FinanceAgent, intents: []intent.Intent{intent.InvoiceQuery}}
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, agent)

	rec, body := doJSON(t, srv.Engine(), http.MethodGet, "/api/v1/agents", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	listed, ok := body["agents"].([]interface{})
	require.True(t, ok)
	require.Len(t, listed, 1)
	info, ok := listed[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "FINANCE_AGENT", info["agent_type"])
	assert.Contains(t, info["supported_intents"], "INVOICE_QUERY")
}

func TestAgentInfo_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, nil)

	rec, _ := doJSON(t, srv.Engine(), http.MethodGet, "/api/v1/agents/STRATEGY_AGENT", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTools_EnabledOnlyByDefault(t *testing.T) {
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodGet, "/api/v1/tools", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	rec, body = doJSON(t, srv.Engine(), http.MethodGet, "/api/v1/tools?all=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubClassifier{}, &stubExtractor{}, nil)

	rec, body := doJSON(t, srv.Engine(), http.MethodGet, "/api/v1/health", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "finops-gateway", body["app"])
}
