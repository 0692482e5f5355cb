// internal/entity/extractor.go
package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/common/metrics"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/llm"
)

// Extractor pulls entities out of user input. The regex stage always runs;
// the model stage runs for complex intents, when forced by configuration,
// or when the regex stage found nothing.
type Extractor struct {
	completions            llm.CompletionService
	logger                 logger.Logger
	useModelForOperational bool
	maxModelEntities       int
}

// NewExtractor wires an extractor to its completion service.
func NewExtractor(completions llm.CompletionService, cfg config.ExtractorConfig, log logger.Logger) *Extractor {
	maxEntities := cfg.MaxModelEntities
	if maxEntities <= 0 {
		maxEntities = 25
	}
	return &Extractor{
		completions:            completions,
		logger:                 log,
		useModelForOperational: cfg.UseModelForOperational,
		maxModelEntities:       maxEntities,
	}
}

// Extract never fails: each stage degrades independently, and the worst case
// is an empty result.
func (x *Extractor) Extract(ctx context.Context, userInput string, in intent.Intent, reqCtx map[string]interface{}) *ExtractedEntities {
	entities := x.regexExtract(userInput)

	req := intent.RequirementsFor(in)
	callModel := x.useModelForOperational ||
		req.Complexity == intent.ComplexityComplex ||
		req.Complexity == intent.ComplexityStrategic ||
		len(entities) == 0

	if callModel {
		modelEntities, err := x.modelExtract(ctx, userInput, in, reqCtx)
		if err != nil {
			x.logger.Warn("model entity extraction failed", map[string]interface{}{
				"intent": in.String(),
				"error":  err.Error(),
			})
		} else {
			if len(modelEntities) > x.maxModelEntities {
				x.logger.Debug("model entities truncated", map[string]interface{}{
					"returned": len(modelEntities),
					"max":      x.maxModelEntities,
				})
				modelEntities = modelEntities[:x.maxModelEntities]
			}
			entities = append(entities, modelEntities...)
		}
	}

	return buildResult(entities)
}

// ==========================
// Regex stage
// ==========================

func (x *Extractor) regexExtract(userInput string) []Entity {
	var entities []Entity
	for _, kind := range regexKinds {
		for _, re := range regexPatterns[kind] {
			for _, raw := range re.FindAllString(userInput, -1) {
				raw = strings.TrimSpace(raw)
				if raw == "" {
					continue
				}
				e := Entity{
					Kind:       kind,
					Value:      raw,
					RawText:    raw,
					Confidence: confidenceFor(kind),
					Method:     "regex",
				}
				if kind == KindAmount {
					normalized, err := NormalizeAmount(raw)
					if err != nil {
						continue
					}
					e.Normalized = normalized
				}
				entities = append(entities, e)
				metrics.EntitiesExtracted.WithLabelValues("regex").Inc()
			}
		}
	}
	return entities
}

// ==========================
// Model stage
// ==========================

type modelEntity struct {
	Type       string      `json:"type"`
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
}

func (x *Extractor) modelExtract(ctx context.Context, userInput string, in intent.Intent, reqCtx map[string]interface{}) ([]Entity, error) {
	prompt := buildExtractionPrompt(userInput, in, reqCtx)
	raw, err := x.completions.CompleteJSON(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{
		Temperature: 0.0,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, err
	}
	return x.parseModelEntities(raw), nil
}

// parseModelEntities tolerates both a bare array and an object wrapping one.
func (x *Extractor) parseModelEntities(raw json.RawMessage) []Entity {
	var items []modelEntity

	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			x.logger.Warn("unparseable model entity payload", nil)
			return nil
		}
		if inner, ok := wrapper["entities"]; ok {
			_ = json.Unmarshal(inner, &items)
		} else {
			// first array-valued field wins
			for _, v := range wrapper {
				if json.Unmarshal(v, &items) == nil && items != nil {
					break
				}
			}
		}
	}

	var entities []Entity
	for _, item := range items {
		if item.Type == "" || item.Value == nil {
			continue
		}
		kind := KindOf(item.Type)
		value := fmt.Sprintf("%v", item.Value)
		confidence := item.Confidence
		if confidence == 0 {
			confidence = 0.8
		}

		e := Entity{
			Kind:       kind,
			Value:      value,
			RawText:    value,
			Confidence: confidence,
			Method:     "model",
		}
		switch kind {
		case KindAmount:
			if normalized, err := NormalizeAmount(value); err == nil {
				e.Normalized = normalized
			}
		case KindTimePeriod:
			e.Normalized = NormalizeTimePeriod(value)
		case KindMetric:
			e.Normalized = NormalizeMetric(value)
		}
		entities = append(entities, e)
		metrics.EntitiesExtracted.WithLabelValues("model").Inc()
	}
	return entities
}

func buildExtractionPrompt(userInput string, in intent.Intent, reqCtx map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(`You are an entity extractor for a financial operations assistant. Extract explicit entities from the user input.

User Input: "`)
	b.WriteString(userInput)
	b.WriteString(`"
Intent: `)
	b.WriteString(in.String())
	b.WriteString(`

Return ONLY a JSON array of entities like:
[
  {"type": "client_name", "value": "Acme Corp", "confidence": 0.95},
  {"type": "amount", "value": "50000", "confidence": 0.9}
]

Important:
- Return [] if none found
- Confidence 0.0 - 1.0
- Use snake_case keys for types
- Extract only explicitly mentioned values (do not fabricate)
`)
	if len(reqCtx) > 0 {
		if ctxJSON, err := json.Marshal(reqCtx); err == nil {
			b.WriteString("\nContext: ")
			b.Write(ctxJSON)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ==========================
// Aggregation
// ==========================

func buildResult(entities []Entity) *ExtractedEntities {
	result := &ExtractedEntities{
		Entities:      entities,
		TotalEntities: len(entities),
	}

	var confidenceSum float64
	for i := range entities {
		e := &entities[i]
		confidenceSum += e.Confidence

		switch e.Kind {
		case KindAmount:
			if result.Amount == nil {
				if d, ok := e.Normalized.(decimal.Decimal); ok {
					result.Amount = &d
				} else if d, err := decimal.NewFromString(e.Value); err == nil {
					result.Amount = &d
				}
			}
		case KindClientName:
			if result.ClientName == "" {
				result.ClientName = e.Value
			}
		case KindInvoiceID:
			if result.InvoiceID == "" {
				result.InvoiceID = e.Value
			}
		case KindMetric:
			if result.Metric == "" {
				result.Metric = e.Value
			}
		case KindProblemArea:
			if result.ProblemArea == "" {
				result.ProblemArea = e.Value
			}
		case KindTimePeriod:
			if result.TimePeriod == "" {
				if s, ok := e.Normalized.(string); ok && s != "" {
					result.TimePeriod = s
				} else {
					result.TimePeriod = e.Value
				}
			}
		case KindCompetitor:
			if result.Competitor == "" {
				result.Competitor = e.Value
			}
		case KindTargetValue:
			if result.TargetValue == "" {
				result.TargetValue = e.Value
			}
		}
	}

	if len(entities) > 0 {
		result.ConfidenceScore = confidenceSum / float64(len(entities))
	}
	return result
}
