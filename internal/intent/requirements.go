// internal/intent/requirements.go
package intent

// Requirements describes what an intent needs before and during dispatch:
// the entities it expects, the agent that owns it, and response constraints.
type Requirements struct {
	RequiredEntities     []string
	OptionalEntities     []string
	RequiresConfirmation bool
	MinConfidence        float64

	// Agent routing
	PrimaryAgent     AgentRole
	SupportingAgents []AgentRole
	Complexity       Complexity

	// Control
	RequiresMultiTurn      bool
	ExpectedResponseFormat string
	MaxResponseTimeSeconds int

	// Data requirements
	RequiresHistoricalData bool
	RequiresExternalData   bool
	RequiresMLModel        bool
}

// Baseline requirement profiles. Intents without a bespoke record reuse one
// of these.
var (
	defaultOperational = Requirements{
		PrimaryAgent:           OperationsAgent,
		Complexity:             ComplexitySimple,
		MinConfidence:          0.7,
		ExpectedResponseFormat: "text",
		MaxResponseTimeSeconds: 5,
	}

	defaultAnalytical = Requirements{
		PrimaryAgent:           FinanceAgent,
		Complexity:             ComplexityComplex,
		MinConfidence:          0.7,
		RequiresHistoricalData: true,
		ExpectedResponseFormat: "chart",
		MaxResponseTimeSeconds: 5,
	}

	defaultStrategic = Requirements{
		PrimaryAgent:           StrategyAgent,
		SupportingAgents:       []AgentRole{FinanceAgent},
		Complexity:             ComplexityStrategic,
		MinConfidence:          0.7,
		RequiresHistoricalData: true,
		RequiresMLModel:        true,
		ExpectedResponseFormat: "report",
		MaxResponseTimeSeconds: 15,
	}

	defaultConversational = Requirements{
		PrimaryAgent:           GeneralAgent,
		Complexity:             ComplexitySimple,
		MinConfidence:          0.4,
		ExpectedResponseFormat: "text",
		MaxResponseTimeSeconds: 2,
	}
)

// operational fills the unset control fields of a bespoke operational record.
func operational(r Requirements) Requirements {
	if r.MinConfidence == 0 {
		r.MinConfidence = 0.7
	}
	if r.Complexity == "" {
		r.Complexity = ComplexitySimple
	}
	if r.ExpectedResponseFormat == "" {
		r.ExpectedResponseFormat = "text"
	}
	if r.MaxResponseTimeSeconds == 0 {
		r.MaxResponseTimeSeconds = 5
	}
	return r
}

var requirements = map[Intent]Requirements{
	// Invoices
	InvoiceCreate: operational(Requirements{
		RequiredEntities:       []string{"client_name", "items"},
		OptionalEntities:       []string{"due_date", "notes", "tax"},
		RequiresConfirmation:   true,
		MinConfidence:          0.8,
		PrimaryAgent:           FinanceAgent,
		ExpectedResponseFormat: "json",
	}),
	InvoiceQuery: operational(Requirements{
		OptionalEntities: []string{"invoice_id", "client_name", "date_range", "status"},
		PrimaryAgent:     FinanceAgent,
	}),
	InvoiceUpdate: operational(Requirements{
		RequiredEntities:     []string{"invoice_id"},
		OptionalEntities:     []string{"items", "due_date", "notes", "tax", "status"},
		RequiresConfirmation: true,
		PrimaryAgent:         FinanceAgent,
	}),
	InvoiceDelete: operational(Requirements{
		RequiredEntities:     []string{"invoice_id"},
		RequiresConfirmation: true,
		PrimaryAgent:         FinanceAgent,
	}),
	InvoiceSend: operational(Requirements{
		RequiredEntities: []string{"invoice_id"},
		OptionalEntities: []string{"delivery_method"},
		PrimaryAgent:     SalesAgent,
	}),
	InvoiceStatusCheck: operational(Requirements{
		RequiredEntities: []string{"invoice_id"},
		PrimaryAgent:     FinanceAgent,
	}),
	InvoiceDownload: operational(Requirements{
		RequiredEntities:       []string{"invoice_id"},
		OptionalEntities:       []string{"format"},
		PrimaryAgent:           FinanceAgent,
		ExpectedResponseFormat: "file",
	}),

	// Clients
	ClientCreate: operational(Requirements{
		RequiredEntities:     []string{"client_name", "email"},
		OptionalEntities:     []string{"phone", "address", "gst_number"},
		RequiresConfirmation: true,
		PrimaryAgent:         CustomerAgent,
	}),
	ClientUpdate: operational(Requirements{
		RequiredEntities:     []string{"client_id"},
		OptionalEntities:     []string{"email", "phone", "address"},
		RequiresConfirmation: true,
		PrimaryAgent:         CustomerAgent,
	}),
	ClientDelete: operational(Requirements{
		RequiredEntities:     []string{"client_id"},
		RequiresConfirmation: true,
		PrimaryAgent:         CustomerAgent,
	}),
	ClientQuery: operational(Requirements{
		OptionalEntities: []string{"client_id", "client_name"},
		PrimaryAgent:     CustomerAgent,
	}),
	ClientHistory: operational(Requirements{
		RequiredEntities:       []string{"client_id"},
		PrimaryAgent:           CustomerAgent,
		Complexity:             ComplexityMedium,
		RequiresHistoricalData: true,
	}),

	// Transactions & payments
	TransactionCreate: operational(Requirements{
		RequiredEntities:     []string{"amount", "transaction_type"},
		OptionalEntities:     []string{"date", "notes", "category", "payment_method", "invoice_id"},
		RequiresConfirmation: true,
		PrimaryAgent:         FinanceAgent,
	}),
	TransactionQuery: operational(Requirements{
		OptionalEntities:       []string{"date_range", "type", "category", "account"},
		PrimaryAgent:           FinanceAgent,
		RequiresHistoricalData: true,
	}),
	PaymentRecord: operational(Requirements{
		RequiredEntities:     []string{"invoice_id", "amount"},
		OptionalEntities:     []string{"payment_method", "payment_date", "notes"},
		RequiresConfirmation: true,
		MinConfidence:        0.9,
		PrimaryAgent:         FinanceAgent,
	}),
	PaymentQuery: operational(Requirements{
		OptionalEntities:       []string{"invoice_id", "date_range", "payment_method"},
		PrimaryAgent:           FinanceAgent,
		RequiresHistoricalData: true,
	}),
	BalanceCheck: operational(Requirements{
		OptionalEntities: []string{"client_name", "account"},
		PrimaryAgent:     FinanceAgent,
	}),
	AccountStatement: operational(Requirements{
		RequiredEntities:       []string{"date_range"},
		OptionalEntities:       []string{"account"},
		PrimaryAgent:           FinanceAgent,
		Complexity:             ComplexityMedium,
		RequiresHistoricalData: true,
		ExpectedResponseFormat: "table",
	}),

	// Reminders & documents
	ReminderCreate: defaultOperational,
	ReminderList:   defaultOperational,
	ReminderCancel: defaultOperational,
	DocumentUpload: defaultOperational,
	DocumentQuery:  defaultOperational,
	DocumentAnalyze: operational(Requirements{
		RequiredEntities: []string{"document_id"},
		PrimaryAgent:     GeneralAgent,
		Complexity:       ComplexityComplex,
		RequiresMLModel:  true,
	}),

	// Compliance & tax
	ComplianceQuery:  defaultStrategic,
	ComplianceCheck:  defaultStrategic,
	ComplianceReport: defaultStrategic,
	GSTQuery:         defaultStrategic,
	TaxOptimization:  defaultStrategic,
	TaxCalculation:   defaultStrategic,
	AuditReadiness:   defaultStrategic,

	// Strategic advisory
	BusinessHealthCheck:      defaultStrategic,
	ProblemDiagnosis:         defaultStrategic,
	BudgetOptimization:       defaultStrategic,
	CashFlowPlanning:         defaultStrategic,
	ProfitOptimization:       defaultStrategic,
	InvestmentAdvice:         defaultStrategic,
	DebtManagement:           defaultStrategic,
	SalesStrategy:            defaultStrategic,
	CustomerAcquisition:      defaultStrategic,
	PricingStrategy:          defaultStrategic,
	MarketingOptimization:    defaultStrategic,
	CustomerRetention:        defaultStrategic,
	GrowthStrategy:           defaultStrategic,
	MarketExpansion:          defaultStrategic,
	ProductStrategy:          defaultStrategic,
	ScalingAdvice:            defaultStrategic,
	PartnershipOpportunities: defaultStrategic,
	RiskAssessment:           defaultStrategic,
	CustomerSegmentation:     defaultStrategic,
	ChurnPrediction:          defaultStrategic,
	CustomerLifetimeValue:    defaultStrategic,
	CustomerFeedbackAnalysis: defaultStrategic,

	// Reports & analytics
	ReportGenerate:      defaultAnalytical,
	AnalyticsQuery:      defaultAnalytical,
	ForecastRequest:     defaultAnalytical,
	BenchmarkComparison: defaultAnalytical,
	TrendAnalysis:       defaultAnalytical,

	// Conversational & voice
	GeneralQuery:         defaultConversational,
	Greeting:             defaultConversational,
	Help:                 defaultConversational,
	Confirmation:         defaultConversational,
	Cancellation:         defaultConversational,
	ClarificationRequest: defaultConversational,
	FollowupQuestion:     defaultConversational,
	Feedback:             defaultConversational,
	RepeatRequest:        defaultConversational,
	SlowDown:             defaultConversational,
	SpeedUp:              defaultConversational,
}

// RequirementsFor returns the requirements for an intent. Intents without a
// bespoke record, including the planning and operational-efficiency set,
// fall back to the operational profile.
func RequirementsFor(i Intent) Requirements {
	if r, ok := requirements[i]; ok {
		return r
	}
	return defaultOperational
}

// CategoryOf derives the high-level category from an intent's requirements.
// Complexity dominates, then owning agent, then data/format shape.
func CategoryOf(i Intent) Category {
	req := RequirementsFor(i)

	if req.Complexity == ComplexityStrategic || req.Complexity == ComplexityComplex {
		return CategoryStrategic
	}
	if req.PrimaryAgent == GeneralAgent {
		return CategoryConversational
	}
	if req.RequiresHistoricalData {
		return CategoryAnalytical
	}
	switch req.ExpectedResponseFormat {
	case "chart", "table", "file":
		return CategoryAnalytical
	}
	return CategoryOperational
}

// RequiresMultiAgent reports whether the intent fans out to supporting agents.
func RequiresMultiAgent(i Intent) bool {
	return len(RequirementsFor(i).SupportingAgents) > 0
}

// ExpectedResponseTime returns the response-time ceiling in seconds.
func ExpectedResponseTime(i Intent) int {
	return RequirementsFor(i).MaxResponseTimeSeconds
}
