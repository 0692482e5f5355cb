package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "50000", "50000"},
		{"thousands separators", "50,000", "50000"},
		{"rupee symbol", "₹50,000", "50000"},
		{"dollar symbol", "$3,500.50", "3500.5"},
		{"pound symbol", "£1200", "1200"},
		{"k suffix", "50k", "50000"},
		{"K suffix", "50K", "50000"},
		{"rupee k", "₹50k", "50000"},
		{"lakh suffix", "10L", "1000000"},
		{"m suffix", "1.2m", "1200000"},
		{"negative", "-250", "-250"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeAmount(tt.input)
			require.NoError(t, err)
			expected, _ := decimal.NewFromString(tt.expected)
			assert.True(t, expected.Equal(got), "got %s want %s", got, expected)
		})
	}
}

func TestNormalizeAmount_Errors(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "₹"} {
		_, err := NormalizeAmount(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestNormalizeTimePeriod(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"last month", PeriodLastMonth},
		{"the previous month", PeriodLastMonth},
		{"Last Quarter", PeriodLastQuarter},
		{"previous year", PeriodLastYear},
		{"today", PeriodToday},
		{"since march", "since march"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeTimePeriod(tt.input), "input %q", tt.input)
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindClientName, KindOf("client_name"))
	assert.Equal(t, KindClientName, KindOf("CLIENT"))
	assert.Equal(t, KindCompetitor, KindOf("competitor"))
	assert.Equal(t, KindMetric, KindOf("target_metric"))
	assert.Equal(t, KindEntityName, KindOf("something_novel"))
}

func TestToParams(t *testing.T) {
	amount := decimal.NewFromInt(50000)
	e := &ExtractedEntities{
		Amount:     &amount,
		ClientName: "Acme Corp",
		TimePeriod: PeriodLastMonth,
	}
	params := e.ToParams()
	assert.Equal(t, float64(50000), params["amount"])
	assert.Equal(t, "Acme Corp", params["client_name"])
	assert.Equal(t, PeriodLastMonth, params["time_period"])
	assert.NotContains(t, params, "invoice_id")
}

func TestBuildResult_FirstMatchWinsAndAverages(t *testing.T) {
	fifty := decimal.NewFromInt(50)
	entities := []Entity{
		{Kind: KindAmount, Value: "50", Normalized: fifty, Confidence: 0.95},
		{Kind: KindAmount, Value: "99", Confidence: 0.95},
		{Kind: KindClientName, Value: "Acme", Confidence: 0.8},
	}
	result := buildResult(entities)

	require.NotNil(t, result.Amount)
	assert.True(t, fifty.Equal(*result.Amount))
	assert.Equal(t, "Acme", result.ClientName)
	assert.Equal(t, 3, result.TotalEntities)
	assert.InDelta(t, 0.9, result.ConfidenceScore, 1e-9)
}

func TestBuildResult_Empty(t *testing.T) {
	result := buildResult(nil)
	assert.Equal(t, 0, result.TotalEntities)
	assert.Equal(t, 0.0, result.ConfidenceScore)
	assert.Nil(t, result.Amount)
}
