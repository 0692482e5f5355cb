// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Features  FeatureFlags    `mapstructure:"features"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

// LLMConfig holds settings for the completion-service client.
type LLMConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	ModelComplex string  `mapstructure:"model_complex"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	MaxRetries   int     `mapstructure:"max_retries"`
	Timeout      int     `mapstructure:"timeout"` // seconds
}

// BackendConfig holds settings for the ledger backend adapter.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig controls the conversation history store.
type SessionConfig struct {
	TTL      int `mapstructure:"ttl"` // seconds
	MaxTurns int `mapstructure:"max_turns"`
}

// ExtractorConfig controls entity extraction behavior.
type ExtractorConfig struct {
	UseModelForOperational bool `mapstructure:"use_model_for_operational"`
	MaxModelEntities       int  `mapstructure:"max_model_entities"`
}

// FeatureFlags toggles agents and strategic capabilities without code changes.
type FeatureFlags struct {
	// Agents
	EnableFinanceAgent    bool `mapstructure:"enable_finance_agent"`
	EnableSalesAgent      bool `mapstructure:"enable_sales_agent"`
	EnableStrategyAgent   bool `mapstructure:"enable_strategy_agent"`
	EnableComplianceAgent bool `mapstructure:"enable_compliance_agent"`
	EnableCustomerAgent   bool `mapstructure:"enable_customer_agent"`
	EnableGrowthAgent     bool `mapstructure:"enable_growth_agent"`
	EnableOperationsAgent bool `mapstructure:"enable_operations_agent"`

	// Strategic capabilities
	EnableHealthScoring            bool `mapstructure:"enable_health_scoring"`
	EnableMultiAgentOrchestration  bool `mapstructure:"enable_multi_agent_orchestration"`
	EnableStrategicRecommendations bool `mapstructure:"enable_strategic_recommendations"`

	// Infrastructure
	EnableSessionStore bool `mapstructure:"enable_session_store"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
