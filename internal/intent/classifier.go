// Package intent classifies user utterances into a closed intent set and
// carries the routing requirements attached to each intent.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/common/metrics"
	"finops-gateway/internal/llm"
)

// HistoryTurn is one prior exchange, carried into classification so
// follow-ups inherit context from the previous turn.
type HistoryTurn struct {
	UserInput string `json:"user_input"`
	Intent    string `json:"intent"`
	Response  string `json:"response,omitempty"`
}

// Classifier resolves user input to an intent, trying fast pattern rules
// first and falling back to the completion model.
type Classifier struct {
	completions llm.CompletionService
	logger      logger.Logger
}

// NewClassifier wires a classifier to its completion service.
func NewClassifier(completions llm.CompletionService, log logger.Logger) *Classifier {
	return &Classifier{completions: completions, logger: log}
}

// Classify resolves user input into a Classification. Pattern hits return
// immediately; otherwise the model decides. Model transport failures
// propagate; malformed model output degrades to GENERAL_QUERY instead.
func (c *Classifier) Classify(ctx context.Context, userInput string, history []HistoryTurn, businessContext map[string]interface{}) (*Classification, error) {
	start := time.Now()
	timer := func() int64 { return time.Since(start).Milliseconds() }

	lowered := strings.ToLower(strings.TrimSpace(userInput))
	if match := matchPatterns(lowered); match != nil && match.confidence >= 0.85 {
		req := RequirementsFor(match.intent)
		metrics.IntentClassifications.WithLabelValues("pattern").Inc()
		metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
		c.logger.Debug("pattern classification hit", map[string]interface{}{
			"intent":     match.intent.String(),
			"confidence": match.confidence,
		})
		return &Classification{
			Intent:               match.intent,
			Confidence:           match.confidence,
			Reasoning:            fmt.Sprintf("Pattern match: %s", match.pattern),
			Category:             CategoryOf(match.intent),
			PrimaryAgent:         req.PrimaryAgent,
			SupportingAgents:     req.SupportingAgents,
			Complexity:           req.Complexity,
			RequiresConfirmation: req.RequiresConfirmation,
			RequiresMultiTurn:    multiTurn(req),
			ProcessingTimeMs:     timer(),
			Source:               "pattern",
		}, nil
	}

	cls, err := c.modelClassify(ctx, userInput, history, businessContext)
	if err != nil {
		return nil, err
	}
	cls.ProcessingTimeMs = timer()
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
	return cls, nil
}

func (c *Classifier) modelClassify(ctx context.Context, userInput string, history []HistoryTurn, businessContext map[string]interface{}) (*Classification, error) {
	prompt := buildClassificationPrompt(userInput, history, businessContext)
	raw, err := c.completions.CompleteJSON(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, err
	}
	return c.parseModelResponse(raw, history), nil
}

type modelClassification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	IsFollowup bool    `json:"is_followup"`
}

// parseModelResponse never fails: any malformed or out-of-set output falls
// back to GENERAL_QUERY at 0.5 confidence.
func (c *Classifier) parseModelResponse(raw json.RawMessage, history []HistoryTurn) *Classification {
	var data modelClassification
	if err := json.Unmarshal(raw, &data); err != nil {
		return c.fallback(fmt.Sprintf("Error parsing model response: %v", err))
	}

	parsed, ok := Parse(data.Intent)
	if !ok {
		return c.fallback(fmt.Sprintf("Model returned unknown intent %q", data.Intent))
	}

	req := RequirementsFor(parsed)
	base := data.Confidence
	if base == 0 {
		base = 0.6
	}
	confidence := adjustConfidence(base, parsed, history)

	var previous Intent
	if data.IsFollowup && len(history) > 0 {
		if prev, ok := Parse(history[len(history)-1].Intent); ok {
			previous = prev
		}
	}

	metrics.IntentClassifications.WithLabelValues("model").Inc()
	return &Classification{
		Intent:               parsed,
		Confidence:           confidence,
		Reasoning:            data.Reasoning,
		Category:             CategoryOf(parsed),
		PrimaryAgent:         req.PrimaryAgent,
		SupportingAgents:     req.SupportingAgents,
		Complexity:           req.Complexity,
		RequiresConfirmation: req.RequiresConfirmation,
		RequiresMultiTurn:    multiTurn(req),
		IsFollowup:           data.IsFollowup,
		PreviousIntent:       previous,
		Source:               "model",
	}
}

func (c *Classifier) fallback(reason string) *Classification {
	metrics.IntentClassifications.WithLabelValues("fallback").Inc()
	c.logger.Warn("classification fell back to general query", map[string]interface{}{
		"reason": reason,
	})
	return &Classification{
		Intent:       GeneralQuery,
		Confidence:   0.5,
		Reasoning:    reason,
		Category:     CategoryConversational,
		PrimaryAgent: GeneralAgent,
		Complexity:   ComplexitySimple,
		Source:       "fallback",
	}
}

// multiTurn reports whether completing the intent usually needs more than
// one exchange: many required entities, or heavyweight analysis.
func multiTurn(req Requirements) bool {
	return len(req.RequiredEntities) > 3 ||
		req.Complexity == ComplexityComplex ||
		req.Complexity == ComplexityStrategic
}

// adjustConfidence applies the scoring rules: a boost when the turn stays in
// the previous turn's category, a haircut for strategic intents (harder to
// pin down), then clamping to [0, 1].
func adjustConfidence(base float64, i Intent, history []HistoryTurn) float64 {
	confidence := base

	if len(history) > 0 {
		if prev, ok := Parse(history[len(history)-1].Intent); ok {
			if CategoryOf(prev) == CategoryOf(i) {
				confidence = min(1.0, confidence+0.1)
			}
		}
	}

	if CategoryOf(i) == CategoryStrategic {
		confidence *= 0.9
	}

	return min(1.0, max(0.0, confidence))
}

func buildClassificationPrompt(userInput string, history []HistoryTurn, businessContext map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(`You are an intent classifier for a financial operations assistant.

Classify the following user input into ONE of these intents:

OPERATIONAL INTENTS (Basic CRUD operations):
- INVOICE_CREATE: Create a new invoice
- INVOICE_QUERY: Search/list invoices
- INVOICE_UPDATE: Modify an existing invoice
- INVOICE_STATUS_CHECK: Check status of specific invoice
- CLIENT_CREATE: Add a new client
- CLIENT_QUERY: Search/list clients
- PAYMENT_RECORD: Record a payment received
- PAYMENT_QUERY: Search/list payments
- BALANCE_CHECK: Check account balance
- TRANSACTION_QUERY: Search/list transactions
- ACCOUNT_STATEMENT: Generate account statement

STRATEGIC INTENTS (Business intelligence):
- BUSINESS_HEALTH_CHECK: Overall business health/score inquiry
- PROBLEM_DIAGNOSIS: Why is X metric down/problematic?
- SALES_STRATEGY: How to increase sales/revenue
- BUDGET_OPTIMIZATION: How to reduce costs
- CASH_FLOW_PLANNING: Cash flow forecasting/planning
- PROFIT_OPTIMIZATION: How to improve profit margins
- COMPETITIVE_POSITIONING: How to compete with X
- GROWTH_STRATEGY: How to grow the business
- PRICING_STRATEGY: Pricing recommendations
- CUSTOMER_ACQUISITION: How to get more customers
- CUSTOMER_RETENTION: How to retain customers
- SWOT_ANALYSIS: Strengths/weaknesses analysis
- RISK_ASSESSMENT: Business risk analysis

ANALYTICAL INTENTS:
- ANALYTICS_QUERY: Show trends/charts/insights
- REPORT_GENERATE: Generate financial reports
- FORECAST_REQUEST: Predict future metrics
- BENCHMARK_COMPARISON: Compare to industry/past performance

CONVERSATIONAL INTENTS:
- GREETING: Hello, hi, etc.
- HELP: What can you do?
- CONFIRMATION: Yes, proceed, etc.
- CANCELLATION: No, cancel, stop
- GENERAL_QUERY: General questions

User Input: "`)
	b.WriteString(userInput)
	b.WriteString(`"`)

	if len(history) > 0 {
		prev := history[len(history)-1].Intent
		if prev == "" {
			prev = "N/A"
		}
		b.WriteString("\n\nPrevious Intent: ")
		b.WriteString(prev)
		b.WriteString("\nThis might be a follow-up question.")
	}

	if len(businessContext) > 0 {
		if ctxJSON, err := json.Marshal(businessContext); err == nil {
			b.WriteString("\n\nBusiness Context: ")
			b.Write(ctxJSON)
		}
	}

	b.WriteString(`

Respond in this EXACT JSON format:
{
    "intent": "INTENT_NAME",
    "confidence": 0.85,
    "reasoning": "Brief explanation of why this intent was chosen",
    "is_followup": false
}

IMPORTANT:
- confidence should be 0.0 to 1.0
- Use EXACT intent names from the list above
- is_followup should be true if referring to previous conversation
- Keep reasoning brief (1-2 sentences)
`)
	return b.String()
}
