// internal/intent/intents.go
package intent

// Intent is a closed-set label describing what the user wants to do.
// The set is defined once at process start and never mutated.
type Intent string

const (
	// Invoice operations
	InvoiceQuery       Intent = "INVOICE_QUERY"
	InvoiceCreate      Intent = "INVOICE_CREATE"
	InvoiceUpdate      Intent = "INVOICE_UPDATE"
	InvoiceDelete      Intent = "INVOICE_DELETE"
	InvoiceSend        Intent = "INVOICE_SEND"
	InvoiceStatusCheck Intent = "INVOICE_STATUS_CHECK"
	InvoiceDownload    Intent = "INVOICE_DOWNLOAD"

	// Client operations
	ClientQuery   Intent = "CLIENT_QUERY"
	ClientCreate  Intent = "CLIENT_CREATE"
	ClientUpdate  Intent = "CLIENT_UPDATE"
	ClientDelete  Intent = "CLIENT_DELETE"
	ClientHistory Intent = "CLIENT_HISTORY"

	// Transaction & payment operations
	TransactionQuery  Intent = "TRANSACTION_QUERY"
	TransactionCreate Intent = "TRANSACTION_CREATE"
	PaymentRecord     Intent = "PAYMENT_RECORD"
	PaymentQuery      Intent = "PAYMENT_QUERY"
	BalanceCheck      Intent = "BALANCE_CHECK"
	AccountStatement  Intent = "ACCOUNT_STATEMENT"

	// Reminder operations
	ReminderCreate Intent = "REMINDER_CREATE"
	ReminderList   Intent = "REMINDER_LIST"
	ReminderCancel Intent = "REMINDER_CANCEL"

	// Document operations
	DocumentUpload  Intent = "DOCUMENT_UPLOAD"
	DocumentQuery   Intent = "DOCUMENT_QUERY"
	DocumentAnalyze Intent = "DOCUMENT_ANALYZE"

	// Compliance operations
	ComplianceQuery  Intent = "COMPLIANCE_QUERY"
	ComplianceCheck  Intent = "COMPLIANCE_CHECK"
	ComplianceReport Intent = "COMPLIANCE_REPORT"
	GSTQuery         Intent = "GST_QUERY"

	// Strategic / analytical
	BusinessHealthCheck Intent = "BUSINESS_HEALTH_CHECK"
	ProblemDiagnosis    Intent = "PROBLEM_DIAGNOSIS"
	BudgetOptimization  Intent = "BUDGET_OPTIMIZATION"
	CashFlowPlanning    Intent = "CASH_FLOW_PLANNING"
	ProfitOptimization  Intent = "PROFIT_OPTIMIZATION"
	InvestmentAdvice    Intent = "INVESTMENT_ADVICE"
	DebtManagement      Intent = "DEBT_MANAGEMENT"

	// Sales & marketing
	SalesStrategy          Intent = "SALES_STRATEGY"
	CustomerAcquisition    Intent = "CUSTOMER_ACQUISITION"
	PricingStrategy        Intent = "PRICING_STRATEGY"
	MarketingOptimization  Intent = "MARKETING_OPTIMIZATION"
	CustomerRetention      Intent = "CUSTOMER_RETENTION"
	CompetitivePositioning Intent = "COMPETITIVE_POSITIONING"

	// Growth & expansion
	GrowthStrategy           Intent = "GROWTH_STRATEGY"
	MarketExpansion          Intent = "MARKET_EXPANSION"
	ProductStrategy          Intent = "PRODUCT_STRATEGY"
	ScalingAdvice            Intent = "SCALING_ADVICE"
	PartnershipOpportunities Intent = "PARTNERSHIP_OPPORTUNITIES"

	// Risk & tax
	RiskAssessment  Intent = "RISK_ASSESSMENT"
	TaxOptimization Intent = "TAX_OPTIMIZATION"
	TaxCalculation  Intent = "TAX_CALCULATION"
	AuditReadiness  Intent = "AUDIT_READINESS"

	// Customer intelligence
	CustomerSegmentation     Intent = "CUSTOMER_SEGMENTATION"
	ChurnPrediction          Intent = "CHURN_PREDICTION"
	CustomerLifetimeValue    Intent = "CUSTOMER_LIFETIME_VALUE"
	CustomerFeedbackAnalysis Intent = "CUSTOMER_FEEDBACK_ANALYSIS"

	// Reports & analytics
	ReportGenerate      Intent = "REPORT_GENERATE"
	AnalyticsQuery      Intent = "ANALYTICS_QUERY"
	ForecastRequest     Intent = "FORECAST_REQUEST"
	BenchmarkComparison Intent = "BENCHMARK_COMPARISON"
	TrendAnalysis       Intent = "TREND_ANALYSIS"

	// Strategic planning
	SWOTAnalysis     Intent = "SWOT_ANALYSIS"
	ScenarioPlanning Intent = "SCENARIO_PLANNING"
	GoalSetting      Intent = "GOAL_SETTING"

	// Operational efficiency
	ProcessOptimization   Intent = "PROCESS_OPTIMIZATION"
	InventoryOptimization Intent = "INVENTORY_OPTIMIZATION"
	ResourceAllocation    Intent = "RESOURCE_ALLOCATION"

	// Conversational & utility
	GeneralQuery         Intent = "GENERAL_QUERY"
	Greeting             Intent = "GREETING"
	Help                 Intent = "HELP"
	Confirmation         Intent = "CONFIRMATION"
	Cancellation         Intent = "CANCELLATION"
	ClarificationRequest Intent = "CLARIFICATION_REQUEST"
	FollowupQuestion     Intent = "FOLLOWUP_QUESTION"
	Feedback             Intent = "FEEDBACK"

	// Voice-specific
	RepeatRequest Intent = "REPEAT_REQUEST"
	SlowDown      Intent = "SLOW_DOWN"
	SpeedUp       Intent = "SPEED_UP"
)

// All lists every recognized intent in declaration order.
var All = []Intent{
	InvoiceQuery, InvoiceCreate, InvoiceUpdate, InvoiceDelete, InvoiceSend,
	InvoiceStatusCheck, InvoiceDownload,
	ClientQuery, ClientCreate, ClientUpdate, ClientDelete, ClientHistory,
	TransactionQuery, TransactionCreate, PaymentRecord, PaymentQuery,
	BalanceCheck, AccountStatement,
	ReminderCreate, ReminderList, ReminderCancel,
	DocumentUpload, DocumentQuery, DocumentAnalyze,
	ComplianceQuery, ComplianceCheck, ComplianceReport, GSTQuery,
	BusinessHealthCheck, ProblemDiagnosis, BudgetOptimization,
	CashFlowPlanning, ProfitOptimization, InvestmentAdvice, DebtManagement,
	SalesStrategy, CustomerAcquisition, PricingStrategy,
	MarketingOptimization, CustomerRetention, CompetitivePositioning,
	GrowthStrategy, MarketExpansion, ProductStrategy, ScalingAdvice,
	PartnershipOpportunities,
	RiskAssessment, TaxOptimization, TaxCalculation, AuditReadiness,
	CustomerSegmentation, ChurnPrediction, CustomerLifetimeValue,
	CustomerFeedbackAnalysis,
	ReportGenerate, AnalyticsQuery, ForecastRequest, BenchmarkComparison,
	TrendAnalysis,
	SWOTAnalysis, ScenarioPlanning, GoalSetting,
	ProcessOptimization, InventoryOptimization, ResourceAllocation,
	GeneralQuery, Greeting, Help, Confirmation, Cancellation,
	ClarificationRequest, FollowupQuestion, Feedback,
	RepeatRequest, SlowDown, SpeedUp,
}

var intentSet = func() map[Intent]struct{} {
	s := make(map[Intent]struct{}, len(All))
	for _, i := range All {
		s[i] = struct{}{}
	}
	return s
}()

// Parse returns the Intent for name, or false when name is not a member of
// the recognized set.
func Parse(name string) (Intent, bool) {
	i := Intent(name)
	_, ok := intentSet[i]
	return i, ok
}

func (i Intent) String() string { return string(i) }

// AgentRole identifies the agent responsible for a class of intents.
type AgentRole string

const (
	FinanceAgent    AgentRole = "FINANCE_AGENT"
	SalesAgent      AgentRole = "SALES_AGENT"
	GrowthAgent     AgentRole = "GROWTH_AGENT"
	StrategyAgent   AgentRole = "STRATEGY_AGENT"
	ComplianceAgent AgentRole = "COMPLIANCE_AGENT"
	CustomerAgent   AgentRole = "CUSTOMER_AGENT"
	OperationsAgent AgentRole = "OPERATIONS_AGENT"
	GeneralAgent    AgentRole = "GENERAL_AGENT"
)

// Category is the high-level grouping derived from an intent's requirements.
type Category string

const (
	CategoryOperational    Category = "OPERATIONAL"
	CategoryStrategic      Category = "STRATEGIC"
	CategoryAnalytical     Category = "ANALYTICAL"
	CategoryConversational Category = "CONVERSATIONAL"
	CategoryAdministrative Category = "ADMINISTRATIVE"
)

// Complexity tiers a request's expected processing effort.
type Complexity string

const (
	ComplexitySimple    Complexity = "SIMPLE"
	ComplexityMedium    Complexity = "MEDIUM"
	ComplexityComplex   Complexity = "COMPLEX"
	ComplexityStrategic Complexity = "STRATEGIC"
)

// ConfidenceLevel buckets a raw confidence score.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "HIGH"     // >= 0.85
	ConfidenceMedium  ConfidenceLevel = "MEDIUM"   // >= 0.7
	ConfidenceLow     ConfidenceLevel = "LOW"      // >= 0.5
	ConfidenceVeryLow ConfidenceLevel = "VERY_LOW" // < 0.5
)

// LevelOf buckets a confidence score into its level.
func LevelOf(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.85:
		return ConfidenceHigh
	case confidence >= 0.7:
		return ConfidenceMedium
	case confidence >= 0.5:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// Classification is the classifier's output for one user turn. It is
// request-scoped and never persisted beyond the session.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`

	// Routing information copied from the requirements record
	Category         Category    `json:"category"`
	PrimaryAgent     AgentRole   `json:"primary_agent"`
	SupportingAgents []AgentRole `json:"supporting_agents,omitempty"`
	Complexity       Complexity  `json:"complexity"`

	RequiresConfirmation bool `json:"requires_confirmation"`
	RequiresMultiTurn    bool `json:"requires_multi_turn"`

	// Follow-up linkage to a prior turn
	IsFollowup     bool   `json:"is_followup"`
	PreviousIntent Intent `json:"previous_intent,omitempty"`

	ProcessingTimeMs int64  `json:"processing_time_ms,omitempty"`
	Source           string `json:"source"` // "pattern", "model" or "fallback"
}
