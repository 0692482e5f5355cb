// Package entity extracts structured values from user utterances, pairing a
// fast regex stage with a model stage for the harder types.
package entity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ==========================
// 1. Types
// ==========================

// Kind labels the kind of value an extracted entity holds.
type Kind string

const (
	KindAmount     Kind = "AMOUNT"
	KindPhone      Kind = "PHONE"
	KindEmail      Kind = "EMAIL"
	KindGSTNumber  Kind = "GST_NUMBER"
	KindPercentage Kind = "PERCENTAGE"

	// Model-extracted kinds
	KindClientName  Kind = "CLIENT_NAME"
	KindInvoiceID   Kind = "INVOICE_ID"
	KindMetric      Kind = "METRIC"
	KindTimePeriod  Kind = "TIME_PERIOD"
	KindProblemArea Kind = "PROBLEM_AREA"
	KindCompetitor  Kind = "COMPETITOR_NAME"
	KindTargetValue Kind = "TARGET_VALUE"

	// Fallback for types the mapping does not know
	KindEntityName Kind = "ENTITY_NAME"
)

// Entity is one extracted value with its provenance.
type Entity struct {
	Kind       Kind        `json:"entity_type"`
	Value      string      `json:"value"`
	RawText    string      `json:"raw_text"`
	Confidence float64     `json:"confidence"`
	Normalized interface{} `json:"normalized_value,omitempty"`
	Method     string      `json:"extraction_method"` // "regex" or "model"
}

// ExtractedEntities aggregates the entities of one utterance plus
// first-match convenience accessors for the common kinds.
type ExtractedEntities struct {
	Entities []Entity `json:"entities"`

	Amount      *decimal.Decimal `json:"amount,omitempty"`
	ClientName  string           `json:"client_name,omitempty"`
	InvoiceID   string           `json:"invoice_id,omitempty"`
	Metric      string           `json:"metric,omitempty"`
	ProblemArea string           `json:"problem_area,omitempty"`
	TimePeriod  string           `json:"time_period,omitempty"`
	Competitor  string           `json:"competitor,omitempty"`
	TargetValue string           `json:"target_value,omitempty"`

	TotalEntities   int     `json:"total_entities"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ToParams flattens the convenience accessors into a tool parameter map.
// Only populated fields appear.
func (e *ExtractedEntities) ToParams() map[string]interface{} {
	params := map[string]interface{}{}
	if e.Amount != nil {
		f, _ := e.Amount.Float64()
		params["amount"] = f
	}
	if e.ClientName != "" {
		params["client_name"] = e.ClientName
	}
	if e.InvoiceID != "" {
		params["invoice_id"] = e.InvoiceID
	}
	if e.Metric != "" {
		params["metric"] = e.Metric
	}
	if e.ProblemArea != "" {
		params["problem_area"] = e.ProblemArea
	}
	if e.TimePeriod != "" {
		params["time_period"] = e.TimePeriod
	}
	if e.Competitor != "" {
		params["competitor"] = e.Competitor
	}
	if e.TargetValue != "" {
		params["target_value"] = e.TargetValue
	}
	return params
}

// ==========================
// 2. Regex patterns
// ==========================

var regexPatterns = map[Kind][]*regexp.Regexp{
	KindAmount:     {regexp.MustCompile(`(?i)(?:₹|Rs\.?|INR)?\s*\d{1,3}(?:[,\d]{0,})?(?:\.\d+)?\s*(?:k|m|l)?`)},
	KindPhone:      {regexp.MustCompile(`\b\+?\d[\d\-\s]{7,}\b`)},
	KindEmail:      {regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)},
	KindGSTNumber:  {regexp.MustCompile(`\b[0-9A-Z]{15}\b`)},
	KindPercentage: {regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?%`)},
}

// regexKinds fixes iteration order; amounts first so the amount accessor
// prefers the regex hit.
var regexKinds = []Kind{KindAmount, KindPhone, KindEmail, KindGSTNumber, KindPercentage}

// confidenceFor returns the regex-stage confidence per kind. Percentages
// score slightly lower because the pattern also matches rates and ratios.
func confidenceFor(k Kind) float64 {
	if k == KindPercentage {
		return 0.9
	}
	return 0.95
}

// ==========================
// 3. Normalizers
// ==========================

var (
	currencyRe   = regexp.MustCompile(`[₹$£,]`)
	amountUnitRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(k|m|l)\b`)
	nonNumericRe = regexp.MustCompile(`[^0-9.\-]`)
)

// NormalizeAmount converts an amount string to an exact decimal. Currency
// symbols and thousands separators are stripped; the suffixes k, l and m
// scale by 1e3, 1e5 and 1e6 (Indian lakh convention for l).
func NormalizeAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, fmt.Errorf("no amount to normalize")
	}
	s = currencyRe.ReplaceAllString(s, "")

	if m := amountUnitRe.FindStringSubmatch(s); m != nil {
		num, err := decimal.NewFromString(m[1])
		if err != nil {
			return decimal.Zero, fmt.Errorf("unable to parse amount from %q: %w", text, err)
		}
		switch strings.ToLower(m[2]) {
		case "k":
			return num.Mul(decimal.NewFromInt(1_000)), nil
		case "l":
			return num.Mul(decimal.NewFromInt(100_000)), nil
		case "m":
			return num.Mul(decimal.NewFromInt(1_000_000)), nil
		}
	}

	s = nonNumericRe.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("unable to parse amount from %q", text)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount from %q: %w", text, err)
	}
	return d, nil
}

// Canonical time period values.
const (
	PeriodToday       = "today"
	PeriodLastMonth   = "last_month"
	PeriodLastQuarter = "last_quarter"
	PeriodLastYear    = "last_year"
)

// NormalizeTimePeriod maps common phrases to canonical period names; phrases
// it does not recognize pass through lowercased.
func NormalizeTimePeriod(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "last month") || strings.Contains(s, "previous month"):
		return PeriodLastMonth
	case strings.Contains(s, "last quarter") || strings.Contains(s, "previous quarter"):
		return PeriodLastQuarter
	case strings.Contains(s, "last year") || strings.Contains(s, "previous year"):
		return PeriodLastYear
	case strings.Contains(s, "today"):
		return PeriodToday
	}
	return s
}

// NormalizeMetric canonicalizes a metric name.
func NormalizeMetric(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// kindMapping resolves model-reported type strings (upper-cased) to kinds.
// Anything else falls back to ENTITY_NAME.
var kindMapping = map[string]Kind{
	"CLIENT_NAME":     KindClientName,
	"CLIENT":          KindClientName,
	"INVOICE_ID":      KindInvoiceID,
	"AMOUNT":          KindAmount,
	"PHONE":           KindPhone,
	"EMAIL":           KindEmail,
	"GST_NUMBER":      KindGSTNumber,
	"PERCENTAGE":      KindPercentage,
	"PROBLEM_AREA":    KindProblemArea,
	"TIME_PERIOD":     KindTimePeriod,
	"TARGET_VALUE":    KindTargetValue,
	"TARGET_METRIC":   KindMetric,
	"METRIC":          KindMetric,
	"COMPETITOR":      KindCompetitor,
	"COMPETITOR_NAME": KindCompetitor,
}

// KindOf maps a model-reported type string to a Kind.
func KindOf(typeName string) Kind {
	if k, ok := kindMapping[strings.ToUpper(strings.TrimSpace(typeName))]; ok {
		return k
	}
	return KindEntityName
}
