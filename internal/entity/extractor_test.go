package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/llm"
)

type stubCompletions struct {
	response string
	err      error
	calls    int
}

func (s *stubCompletions) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *stubCompletions) CompleteJSON(ctx context.Context, messages []llm.Message, opts llm.Options) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.response), nil
}

func newTestExtractor(t *testing.T, stub *stubCompletions, cfg config.ExtractorConfig) *Extractor {
	t.Helper()
	return NewExtractor(stub, cfg, logger.NewTestLogger(t))
}

func TestExtract_RegexAmount(t *testing.T) {
	stub := &stubCompletions{response: `[]`}
	x := newTestExtractor(t, stub, config.ExtractorConfig{})

	result := x.Extract(context.Background(), "record payment of ₹50,000", intent.PaymentRecord, nil)

	require.NotNil(t, result.Amount)
	assert.Equal(t, "50000", result.Amount.String())

	found := false
	for _, e := range result.Entities {
		if e.Kind == KindAmount {
			found = true
			assert.Equal(t, 0.95, e.Confidence)
			assert.Equal(t, "regex", e.Method)
		}
	}
	assert.True(t, found)
	assert.Equal(t, 0, stub.calls, "regex hit on a simple intent must skip the model")
}

func TestExtract_SuffixedAmount(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{response: `[]`}, config.ExtractorConfig{})
	result := x.Extract(context.Background(), "record payment of 50k", intent.PaymentRecord, nil)
	require.NotNil(t, result.Amount)
	assert.Equal(t, "50000", result.Amount.String())
}

func TestExtract_EmailAndGST(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{response: `[]`}, config.ExtractorConfig{})
	result := x.Extract(context.Background(), "add client billing@acme.example gst 22AAAAA0000A1Z5", intent.ClientCreate, nil)

	var kinds []Kind
	for _, e := range result.Entities {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, KindEmail)
	assert.Contains(t, kinds, KindGSTNumber)
}

func TestExtract_PercentageConfidence(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{response: `[]`}, config.ExtractorConfig{})
	result := x.Extract(context.Background(), "record payment of 500 minus 15% fee", intent.PaymentRecord, nil)

	found := false
	for _, e := range result.Entities {
		if e.Kind == KindPercentage {
			found = true
			assert.Equal(t, 0.9, e.Confidence)
		}
	}
	assert.True(t, found, "expected a percentage entity")
}

func TestExtract_ModelWhenRegexEmpty(t *testing.T) {
	stub := &stubCompletions{response: `[{"type": "client_name", "value": "Acme Corp", "confidence": 0.9}]`}
	x := newTestExtractor(t, stub, config.ExtractorConfig{})

	result := x.Extract(context.Background(), "show invoices for Acme Corp", intent.InvoiceQuery, nil)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "Acme Corp", result.ClientName)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "model", result.Entities[0].Method)
}

func TestExtract_ModelAlwaysRunsForStrategic(t *testing.T) {
	stub := &stubCompletions{response: `[{"type": "time_period", "value": "last month", "confidence": 0.85}]`}
	x := newTestExtractor(t, stub, config.ExtractorConfig{})

	// regex already finds the percentage, model runs anyway
	result := x.Extract(context.Background(), "why is revenue down 20%", intent.ProblemDiagnosis, nil)

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, PeriodLastMonth, result.TimePeriod)
}

func TestExtract_ForcedModelForOperational(t *testing.T) {
	stub := &stubCompletions{response: `[]`}
	x := newTestExtractor(t, stub, config.ExtractorConfig{UseModelForOperational: true})

	x.Extract(context.Background(), "record payment of 500", intent.PaymentRecord, nil)
	assert.Equal(t, 1, stub.calls)
}

func TestExtract_ModelFailureDegrades(t *testing.T) {
	stub := &stubCompletions{err: errors.New("model down")}
	x := newTestExtractor(t, stub, config.ExtractorConfig{})

	result := x.Extract(context.Background(), "show invoices for Acme", intent.InvoiceQuery, nil)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.TotalEntities)
}

func TestExtract_ModelEntitiesCapped(t *testing.T) {
	items := "["
	for i := 0; i < 30; i++ {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"type": "entity_name", "value": "v%d", "confidence": 0.8}`, i)
	}
	items += "]"

	stub := &stubCompletions{response: items}
	x := newTestExtractor(t, stub, config.ExtractorConfig{MaxModelEntities: 5})

	result := x.Extract(context.Background(), "tell me about everything", intent.GeneralQuery, nil)
	assert.Equal(t, 5, result.TotalEntities)
}

func TestParseModelEntities_WrappedObject(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{}, config.ExtractorConfig{})
	entities := x.parseModelEntities(json.RawMessage(`{"entities": [{"type": "invoice_id", "value": "INV-42", "confidence": 0.95}]}`))

	require.Len(t, entities, 1)
	assert.Equal(t, KindInvoiceID, entities[0].Kind)
	assert.Equal(t, "INV-42", entities[0].Value)
}

func TestParseModelEntities_DefaultsAndFallbackKind(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{}, config.ExtractorConfig{})
	entities := x.parseModelEntities(json.RawMessage(`[{"type": "warehouse_zone", "value": "A7"}]`))

	require.Len(t, entities, 1)
	assert.Equal(t, KindEntityName, entities[0].Kind)
	assert.Equal(t, 0.8, entities[0].Confidence)
}

func TestParseModelEntities_Garbage(t *testing.T) {
	x := newTestExtractor(t, &stubCompletions{}, config.ExtractorConfig{})
	assert.Empty(t, x.parseModelEntities(json.RawMessage(`"nope"`)))
	assert.Empty(t, x.parseModelEntities(json.RawMessage(`[{"value": "missing type"}]`)))
}
