// internal/intent/patterns.go
package intent

import "regexp"

// patternRule binds one intent to its trigger expressions. Rules live in a
// slice, not a map, so matching order is deterministic: first rule whose
// first matching pattern fires wins.
type patternRule struct {
	intent   Intent
	patterns []string
}

var patternRules = []patternRule{
	// Operational
	{InvoiceCreate, []string{
		`create.*invoice`,
		`new invoice`,
		`generate.*invoice`,
		`make.*invoice`,
		`invoice for`,
	}},
	{InvoiceQuery, []string{
		`show.*invoices?`,
		`list.*invoices?`,
		`find.*invoices?`,
		`get.*invoices?`,
		`which invoices?`,
		`what.*invoices?`,
	}},
	{PaymentRecord, []string{
		`record.*payment`,
		`payment.*received`,
		`mark.*paid`,
		`received.*payment`,
		`got.*payment`,
	}},
	{BalanceCheck, []string{
		`what.*balance`,
		`check.*balance`,
		`current.*balance`,
		`show.*balance`,
		`my balance`,
	}},
	{ClientCreate, []string{
		`add.*client`,
		`new.*client`,
		`create.*client`,
		`register.*client`,
	}},
	{ClientQuery, []string{
		`show.*clients?`,
		`list.*clients?`,
		`who.*clients?`,
		`find.*client`,
	}},

	// Strategic
	{BusinessHealthCheck, []string{
		`how.*business.*\b(doing|health|performing)`,
		`business.*\b(health|status|score|performance)`,
		`\b(health|performance).*score`,
		`\b(overall|general).*\b(health|performance|status)`,
		`check.*business`,
	}},
	{ProblemDiagnosis, []string{
		`why.*revenue.*down`,
		`why.*sales.*down`,
		`why.*\b(down|declined|drop|decrease)\b`,
		`\b(why|what).*wrong`,
		`\b(why|reason).*declining`,
		`\b(reason|cause).*drop`,
		`revenue.*\b(down|dropped|declined).*%`,
		`sales.*\b(down|dropped|declined).*%`,
	}},
	{SalesStrategy, []string{
		`increase.*sales`,
		`improve.*sales`,
		`boost.*revenue`,
		`grow.*sales`,
		`sales.*strategy`,
	}},
	{BudgetOptimization, []string{
		`reduce.*costs?`,
		`cut.*expenses?`,
		`optimize.*budget`,
		`save.*money`,
		`reduce.*spending`,
	}},
	{CompetitivePositioning, []string{
		`compete.*with`,
		`vs.*competitor`,
		`against.*competitor`,
		`position.*against`,
		`differentiate.*from`,
	}},
	{GrowthStrategy, []string{
		`grow.*business`,
		`expansion.*strategy`,
		`scale.*business`,
		`growth.*plan`,
	}},

	// Conversational
	{Greeting, []string{
		`^(hi|hello|hey|good morning|good afternoon)$`,
		`^what's up$`,
		`^how are you$`,
	}},
	{Help, []string{`help`, `what.*can.*do`, `how.*use`, `guide`}},
	{Confirmation, []string{
		`^(yes|yeah|yep|sure|ok|okay|correct|right)$`,
		`^go ahead$`,
		`^proceed$`,
	}},
	{Cancellation, []string{
		`^(no|nope|cancel|stop|abort|nevermind)$`,
		`don't.*do.*that`,
	}},
}

type compiledRule struct {
	intent   Intent
	patterns []*regexp.Regexp
	raw      []string
}

var compiledRules = func() []compiledRule {
	out := make([]compiledRule, 0, len(patternRules))
	for _, rule := range patternRules {
		cr := compiledRule{intent: rule.intent}
		for _, p := range rule.patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				continue
			}
			cr.patterns = append(cr.patterns, re)
			cr.raw = append(cr.raw, p)
		}
		out = append(out, cr)
	}
	return out
}()

// patternMatch is a hit from the fast pattern stage.
type patternMatch struct {
	intent     Intent
	confidence float64
	pattern    string
}

// matchPatterns scans the rules in declaration order against the lowercased
// input. Longer patterns are more specific and score higher.
func matchPatterns(lowered string) *patternMatch {
	for _, rule := range compiledRules {
		for i, re := range rule.patterns {
			if re.MatchString(lowered) {
				raw := rule.raw[i]
				confidence := 0.85
				switch {
				case len(raw) > 20:
					confidence = 0.95
				case len(raw) > 15:
					confidence = 0.90
				}
				return &patternMatch{intent: rule.intent, confidence: confidence, pattern: raw}
			}
		}
	}
	return nil
}
