// Package finance implements the agent that owns invoice, payment and
// balance operations, plus the stubbed strategic finance features.
package finance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finops-gateway/internal/agents"
	"finops-gateway/internal/backend"
	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/tools"
)

// Agent handles financial operations against the ledger backend. Tools are
// registered into the shared registry at construction.
type Agent struct {
	backend  *backend.Adapter
	registry *tools.Registry
	flags    config.FeatureFlags
	logger   logger.Logger
}

// NewAgent builds the finance agent and registers its tools.
func NewAgent(adapter *backend.Adapter, registry *tools.Registry, flags config.FeatureFlags, log logger.Logger) *Agent {
	a := &Agent{
		backend:  adapter,
		registry: registry,
		flags:    flags,
		logger:   log,
	}
	a.registerTools()
	log.Info("finance agent initialized", map[string]interface{}{
		"mvp_tools": len(registry.MVPReady()),
	})
	return a
}

func (a *Agent) Role() intent.AgentRole { return intent.FinanceAgent }

func (a *Agent) SupportedIntents() []intent.Intent {
	return []intent.Intent{
		// Operational
		intent.InvoiceCreate,
		intent.InvoiceQuery,
		intent.InvoiceUpdate,
		intent.InvoiceDelete,
		intent.PaymentRecord,
		intent.PaymentQuery,
		intent.BalanceCheck,
		intent.TransactionQuery,
		intent.AccountStatement,

		// Strategic (stubbed until the analytics backend lands)
		intent.BusinessHealthCheck,
		intent.BudgetOptimization,
		intent.CashFlowPlanning,
		intent.ProfitOptimization,
	}
}

// intentTools maps intents to the tool that serves them.
var intentTools = map[intent.Intent]string{
	intent.InvoiceCreate:    "create_invoice",
	intent.InvoiceQuery:     "query_invoices",
	intent.PaymentRecord:    "record_payment",
	intent.BalanceCheck:     "check_balance",
	intent.TransactionQuery: "query_transactions",
	intent.PaymentQuery:     "query_payments",

	// Strategic
	intent.BusinessHealthCheck: "calculate_health_score",
	intent.CashFlowPlanning:    "analyze_cash_flow",
	intent.BudgetOptimization:  "optimize_budget",
}

var strategicIntents = map[intent.Intent]bool{
	intent.BusinessHealthCheck: true,
	intent.BudgetOptimization:  true,
	intent.CashFlowPlanning:    true,
	intent.ProfitOptimization:  true,
}

// Process maps the intent to a tool and executes it. Parameters come from
// the extracted entities, overlaid with any explicit parameters the caller
// supplied in the request context.
func (a *Agent) Process(ctx context.Context, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (*agents.Response, error) {
	a.logger.Info("finance agent processing", map[string]interface{}{
		"intent": in.String(),
	})

	toolName, ok := intentTools[in]
	if !ok {
		if strategicIntents[in] {
			return agents.StubResponse(a.Role(), featureName(in)), nil
		}
		return agents.ErrorResponse(a.Role(), fmt.Sprintf("No tool found for intent: %s", in)), nil
	}

	tool, found := a.registry.Get(toolName)
	if !found || !tool.Enabled {
		if strategicIntents[in] {
			return agents.StubResponse(a.Role(), featureName(in)), nil
		}
		return agents.ErrorResponse(a.Role(), fmt.Sprintf("Tool '%s' is not available", toolName)), nil
	}

	params := map[string]interface{}{}
	if entities != nil {
		params = entities.ToParams()
	}
	if explicit, ok := reqCtx["parameters"].(map[string]interface{}); ok {
		for k, v := range explicit {
			params[k] = v
		}
	}

	result := a.registry.Execute(ctx, toolName, params, reqCtx)
	if !result.Success {
		errMsg := result.Error
		if errMsg == "" {
			errMsg = "Tool execution failed"
		}
		return agents.ErrorResponse(a.Role(), errMsg), nil
	}

	message := "Success"
	if m, ok := result.Result["message"].(string); ok && m != "" {
		message = m
	}
	return agents.SuccessResponse(a.Role(), message, result.Result, toolName), nil
}

// featureName renders an intent as a readable feature label, e.g.
// BUSINESS_HEALTH_CHECK -> Business Health Check.
func featureName(in intent.Intent) string {
	words := strings.Split(strings.ToLower(in.String()), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ==========================
// Tool registration
// ==========================

func (a *Agent) registerTools() {
	a.registry.RegisterAll([]*tools.Tool{
		{
			Name:                 "create_invoice",
			Description:          "Create a new invoice for a client",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			RequiresConfirmation: true,
			EstimatedTimeSeconds: 2,
			Parameters: []tools.Parameter{
				{Name: "client_name", Type: tools.TypeString, Description: "Name of the client", Required: true},
				{Name: "items", Type: tools.TypeArray, Description: "List of line items", Required: true},
				{Name: "subtotal", Type: tools.TypeNumber, Description: "Subtotal amount", Required: true},
				{Name: "tax", Type: tools.TypeNumber, Description: "Tax amount", Default: 0.0},
				{Name: "total", Type: tools.TypeNumber, Description: "Total amount", Required: true},
				{Name: "due_date", Type: tools.TypeString, Description: "Due date (ISO format)"},
				{Name: "notes", Type: tools.TypeString, Description: "Additional notes"},
			},
			Handler: a.handleCreateInvoice,
		},
		{
			Name:                 "query_invoices",
			Description:          "Search and list invoices",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			EstimatedTimeSeconds: 2,
			Parameters: []tools.Parameter{
				{Name: "status", Type: tools.TypeString, Description: "Filter by status",
					Enum: []interface{}{"PAID", "UNPAID", "OVERDUE", "CANCELLED"}},
				{Name: "client_name", Type: tools.TypeString, Description: "Filter by client name"},
				{Name: "limit", Type: tools.TypeNumber, Description: "Number of results", Default: 50},
			},
			Handler: a.handleQueryInvoices,
		},
		{
			Name:                 "record_payment",
			Description:          "Record a payment received for an invoice",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			RequiresConfirmation: true,
			EstimatedTimeSeconds: 2,
			Parameters: []tools.Parameter{
				{Name: "invoice_id", Type: tools.TypeString, Description: "Invoice ID", Required: true},
				{Name: "amount", Type: tools.TypeNumber, Description: "Payment amount", Required: true},
				{Name: "payment_method", Type: tools.TypeString, Description: "Payment method",
					Default: "BANK_TRANSFER",
					Enum:    []interface{}{"CASH", "BANK_TRANSFER", "CHEQUE", "UPI", "CARD"}},
				{Name: "notes", Type: tools.TypeString, Description: "Payment notes"},
			},
			Handler: a.handleRecordPayment,
		},
		{
			Name:                 "check_balance",
			Description:          "Get current account balance",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			EstimatedTimeSeconds: 2,
			Handler:              a.handleCheckBalance,
		},
		{
			Name:                 "query_transactions",
			Description:          "Search and list ledger transactions",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			EstimatedTimeSeconds: 2,
			Parameters: []tools.Parameter{
				{Name: "time_period", Type: tools.TypeString, Description: "Period filter"},
				{Name: "type", Type: tools.TypeString, Description: "Transaction type filter"},
				{Name: "category", Type: tools.TypeString, Description: "Category filter"},
			},
			Handler: a.handleQueryTransactions,
		},
		{
			Name:                 "query_payments",
			Description:          "Search and list recorded payments",
			Category:             "finance",
			Enabled:              true,
			MVPReady:             true,
			EstimatedTimeSeconds: 2,
			Parameters: []tools.Parameter{
				{Name: "invoice_id", Type: tools.TypeString, Description: "Filter by invoice"},
				{Name: "time_period", Type: tools.TypeString, Description: "Period filter"},
			},
			Handler: a.handleQueryPayments,
		},
	})

	// Strategic tools stay registered even when disabled, so discovery
	// endpoints can advertise them.
	a.registry.Register(&tools.Tool{
		Name:        "calculate_health_score",
		Description: "Calculate business health score",
		Category:    "finance",
		Enabled:     a.flags.EnableHealthScoring,
		MVPReady:    false,
		Handler:     a.stubHealthScore,
	})
}

// ==========================
// Operational handlers
// ==========================

func (a *Agent) handleCreateInvoice(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)
	if rc.UserID == "" {
		a.logger.Warn("user id missing in context", nil)
		return nil, fmt.Errorf("User ID is missing from context. Please ensure you are logged in.")
	}

	clientName, _ := params["client_name"].(string)
	clientResp := a.backend.GetClientByName(ctx, rc, clientName)
	if !clientResp.Success {
		return nil, fmt.Errorf("Failed to lookup client: %s", clientResp.Error)
	}

	clientID := extractClientID(clientResp.Data)
	if clientID == "" {
		return nil, fmt.Errorf("Client '%s' not found. Please create the client first.", clientName)
	}

	now := time.Now()
	dueDate, _ := params["due_date"].(string)
	if dueDate == "" {
		dueDate = now.AddDate(0, 0, 14).Format("2006-01-02")
	}

	invoice := map[string]interface{}{
		"client_id":      clientID,
		"user_id":        rc.UserID,
		"invoice_number": fmt.Sprintf("INV-%d", now.Unix()),
		"issue_date":     now.Format("2006-01-02"),
		"due_date":       dueDate,
		"items":          params["items"],
		"subtotal":       params["subtotal"],
		"tax":            valueOr(params, "tax", 0.0),
		"total":          params["total"],
	}
	if notes, ok := params["notes"]; ok {
		invoice["notes"] = notes
	}

	resp := a.backend.CreateInvoice(ctx, rc, invoice)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to create invoice"))
	}

	return map[string]interface{}{
		"invoice_id":  resp.Data["id"],
		"client_name": clientName,
		"total":       params["total"],
		"status":      "created",
		"message":     fmt.Sprintf("Invoice created successfully for %s", clientName),
	}, nil
}

func (a *Agent) handleQueryInvoices(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)

	filters := map[string]string{}
	if status, ok := params["status"].(string); ok {
		filters["status"] = status
	}
	if client, ok := params["client_name"].(string); ok {
		filters["client_name"] = client
	}
	filters["limit"] = fmt.Sprintf("%d", intParam(params, "limit", 50))

	resp := a.backend.GetInvoices(ctx, rc, filters)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to query invoices"))
	}

	invoices := listField(resp.Data, "invoices")
	return map[string]interface{}{
		"invoices": invoices,
		"count":    len(invoices),
		"message":  fmt.Sprintf("Found %d invoice(s)", len(invoices)),
	}, nil
}

func (a *Agent) handleRecordPayment(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)

	payment := map[string]interface{}{
		"invoice_id":     params["invoice_id"],
		"amount":         params["amount"],
		"payment_method": valueOr(params, "payment_method", "BANK_TRANSFER"),
	}
	if notes, ok := params["notes"]; ok {
		payment["notes"] = notes
	}

	resp := a.backend.RecordPayment(ctx, rc, payment)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to record payment"))
	}

	return map[string]interface{}{
		"payment_id": resp.Data["id"],
		"invoice_id": params["invoice_id"],
		"amount":     params["amount"],
		"status":     "recorded",
		"message":    fmt.Sprintf("Payment of ₹%v recorded successfully", params["amount"]),
	}, nil
}

func (a *Agent) handleCheckBalance(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)

	resp := a.backend.GetBalance(ctx, rc)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to get balance"))
	}

	balance := resp.Data["balance"]
	if balance == nil {
		balance = 0
	}
	return map[string]interface{}{
		"balance":  balance,
		"currency": "INR",
		"message":  fmt.Sprintf("Current balance: ₹%v", balance),
	}, nil
}

func (a *Agent) handleQueryTransactions(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)

	filters := map[string]string{}
	for _, key := range []string{"time_period", "type", "category"} {
		if v, ok := params[key].(string); ok {
			filters[key] = v
		}
	}

	resp := a.backend.GetTransactions(ctx, rc, filters)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to query transactions"))
	}

	txns := listField(resp.Data, "transactions")
	return map[string]interface{}{
		"transactions": txns,
		"count":        len(txns),
		"message":      fmt.Sprintf("Found %d transaction(s)", len(txns)),
	}, nil
}

func (a *Agent) handleQueryPayments(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	rc := backend.ContextFrom(reqCtx)

	filters := map[string]string{}
	for _, key := range []string{"invoice_id", "time_period"} {
		if v, ok := params[key].(string); ok {
			filters[key] = v
		}
	}

	resp := a.backend.GetPayments(ctx, rc, filters)
	if !resp.Success {
		return nil, fmt.Errorf("%s", respError(resp, "Failed to query payments"))
	}

	payments := listField(resp.Data, "payments")
	return map[string]interface{}{
		"payments": payments,
		"count":    len(payments),
		"message":  fmt.Sprintf("Found %d payment(s)", len(payments)),
	}, nil
}

// stubHealthScore answers for the disabled strategic tool.
func (a *Agent) stubHealthScore(ctx context.Context, params, reqCtx map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{
		"score":       75,
		"message":     "Health scoring is not available yet",
		"implemented": false,
	}, nil
}

// ==========================
// Helpers
// ==========================

// extractClientID digs the first client id out of the search response,
// tolerating both a wrapped list and a single object.
func extractClientID(data map[string]interface{}) string {
	if data == nil {
		return ""
	}
	if id, ok := data["id"].(string); ok {
		return id
	}
	for _, key := range []string{"clients", "result", "data"} {
		switch v := data[key].(type) {
		case []interface{}:
			if len(v) == 0 {
				return ""
			}
			if first, ok := v[0].(map[string]interface{}); ok {
				if id, ok := first["id"].(string); ok {
					return id
				}
			}
		case map[string]interface{}:
			if id, ok := v["id"].(string); ok {
				return id
			}
		}
	}
	return ""
}

func listField(data map[string]interface{}, key string) []interface{} {
	if data == nil {
		return nil
	}
	if v, ok := data[key].([]interface{}); ok {
		return v
	}
	return nil
}

func valueOr(params map[string]interface{}, key string, fallback interface{}) interface{} {
	if v, ok := params[key]; ok && v != nil {
		return v
	}
	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func respError(resp *backend.Response, fallback string) string {
	if resp.Error != "" {
		return resp.Error
	}
	return fallback
}
