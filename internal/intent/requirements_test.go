package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementsFor_BespokeRecord(t *testing.T) {
	req := RequirementsFor(InvoiceCreate)
	assert.Equal(t, FinanceAgent, req.PrimaryAgent)
	assert.Equal(t, []string{"client_name", "items"}, req.RequiredEntities)
	assert.True(t, req.RequiresConfirmation)
	assert.Equal(t, 0.8, req.MinConfidence)
	assert.Equal(t, "json", req.ExpectedResponseFormat)
}

func TestRequirementsFor_FallsBackToOperational(t *testing.T) {
	// No bespoke record for the planning set.
	req := RequirementsFor(SWOTAnalysis)
	assert.Equal(t, OperationsAgent, req.PrimaryAgent)
	assert.Equal(t, ComplexitySimple, req.Complexity)

	unknown := RequirementsFor(Intent("NOT_A_REAL_INTENT"))
	assert.Equal(t, OperationsAgent, unknown.PrimaryAgent)
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name     string
		intent   Intent
		expected Category
	}{
		{"strategic by complexity", BusinessHealthCheck, CategoryStrategic},
		{"analytical defaults are complex", ReportGenerate, CategoryStrategic},
		{"conversational by agent", Greeting, CategoryConversational},
		{"analytical by historical data", TransactionQuery, CategoryAnalytical},
		{"analytical by table format", AccountStatement, CategoryAnalytical},
		{"analytical by file format", InvoiceDownload, CategoryAnalytical},
		{"plain operational", InvoiceCreate, CategoryOperational},
		{"balance check operational", BalanceCheck, CategoryOperational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategoryOf(tt.intent))
		})
	}
}

func TestRequiresMultiAgent(t *testing.T) {
	assert.True(t, RequiresMultiAgent(BusinessHealthCheck), "strategic intents fan out to finance")
	assert.False(t, RequiresMultiAgent(InvoiceCreate))
	assert.False(t, RequiresMultiAgent(Greeting))
}

func TestExpectedResponseTime(t *testing.T) {
	assert.Equal(t, 15, ExpectedResponseTime(GrowthStrategy))
	assert.Equal(t, 2, ExpectedResponseTime(Greeting))
	assert.Equal(t, 5, ExpectedResponseTime(InvoiceQuery))
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		confidence float64
		expected   ConfidenceLevel
	}{
		{0.95, ConfidenceHigh},
		{0.85, ConfidenceHigh},
		{0.84, ConfidenceMedium},
		{0.7, ConfidenceMedium},
		{0.69, ConfidenceLow},
		{0.5, ConfidenceLow},
		{0.49, ConfidenceVeryLow},
		{0, ConfidenceVeryLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, LevelOf(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestParse(t *testing.T) {
	i, ok := Parse("BALANCE_CHECK")
	assert.True(t, ok)
	assert.Equal(t, BalanceCheck, i)

	_, ok = Parse("balance_check")
	assert.False(t, ok, "intent names are case sensitive")

	_, ok = Parse("MADE_UP_INTENT")
	assert.False(t, ok)
}
