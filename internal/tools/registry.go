// Package tools provides the central registry that agents use to declare,
// validate and execute their capabilities.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/common/metrics"
)

// ==========================
// 1. Types
// ==========================

// ParamType enumerates the value shapes a tool parameter accepts.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// Parameter declares one tool input.
type Parameter struct {
	Name        string        `json:"name"`
	Type        ParamType     `json:"type"`
	Description string        `json:"description"`
	Required    bool          `json:"required"`
	Default     interface{}   `json:"default,omitempty"`
	Enum        []interface{} `json:"enum,omitempty"`
}

// Handler executes a tool. params are the validated inputs; reqCtx carries
// request identity (user_id, org_id, auth_token) and orchestration state.
type Handler func(ctx context.Context, params map[string]interface{}, reqCtx map[string]interface{}) (map[string]interface{}, error)

// Tool is a complete capability definition.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Handler     Handler     `json:"-"`

	// Feature flags
	Enabled  bool `json:"enabled"`
	MVPReady bool `json:"mvp_ready"`

	// Metadata
	Category             string `json:"category"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds"`
}

// ExecutionResult reports one tool run.
type ExecutionResult struct {
	Success         bool                   `json:"success"`
	ToolName        string                 `json:"tool_name"`
	Result          map[string]interface{} `json:"result,omitempty"`
	Error           string                 `json:"error,omitempty"`
	ExecutionTimeMs int64                  `json:"execution_time_ms"`
}

// ==========================
// 2. Registry
// ==========================

// Registry holds all registered tools. Registration happens at startup;
// lookup and execution are concurrent.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*Tool
	logger logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: log,
	}
}

// Register adds a tool. Registering the same name again warns and replaces
// the earlier definition.
func (r *Registry) Register(tool *Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		r.logger.Warn("tool already registered, overwriting", map[string]interface{}{
			"tool": tool.Name,
		})
	}
	r.tools[tool.Name] = tool
	r.logger.Debug("tool registered", map[string]interface{}{
		"tool":     tool.Name,
		"category": tool.Category,
	})
}

// RegisterAll registers several tools in order.
func (r *Registry) RegisterAll(tools []*Tool) {
	for _, t := range tools {
		r.Register(t)
	}
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Enabled returns every enabled tool.
func (r *Registry) Enabled() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Tool
	for _, t := range r.tools {
		if t.Enabled {
			out = append(out, t)
		}
	}
	return out
}

// MVPReady returns the enabled tools marked production ready.
func (r *Registry) MVPReady() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Tool
	for _, t := range r.tools {
		if t.Enabled && t.MVPReady {
			out = append(out, t)
		}
	}
	return out
}

// ByCategory returns the enabled tools in a category.
func (r *Registry) ByCategory(category string) []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Tool
	for _, t := range r.tools {
		if t.Enabled && t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// List returns tool names; enabledOnly restricts to enabled tools.
func (r *Registry) List(enabledOnly bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, t := range r.tools {
		if enabledOnly && !t.Enabled {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ==========================
// 3. Validation
// ==========================

// Validate checks a parameter map against a tool's declaration. Checks run
// in a fixed order: tool exists, tool enabled, required parameters present,
// enum membership. The first failure wins.
func (r *Registry) Validate(toolName string, params map[string]interface{}) error {
	tool, ok := r.Get(toolName)
	if !ok {
		return fmt.Errorf("tool '%s' not found", toolName)
	}
	if !tool.Enabled {
		return fmt.Errorf("tool '%s' is disabled", toolName)
	}

	for _, p := range tool.Parameters {
		if p.Required {
			if _, present := params[p.Name]; !present {
				return fmt.Errorf("missing required parameter: '%s'", p.Name)
			}
		}
	}

	for _, p := range tool.Parameters {
		value, present := params[p.Name]
		if !present || len(p.Enum) == 0 {
			continue
		}
		if !enumContains(p.Enum, value) {
			return fmt.Errorf("parameter '%s' must be one of %v", p.Name, p.Enum)
		}
	}
	return nil
}

func enumContains(enum []interface{}, value interface{}) bool {
	for _, allowed := range enum {
		if allowed == value {
			return true
		}
	}
	return false
}

// ==========================
// 4. Execution
// ==========================

// Execute validates and runs a tool, timing the handler and converting
// handler errors and panics into a failed result. It never panics outward.
func (r *Registry) Execute(ctx context.Context, toolName string, params map[string]interface{}, reqCtx map[string]interface{}) *ExecutionResult {
	start := time.Now()

	if err := r.Validate(toolName, params); err != nil {
		metrics.ToolExecutions.WithLabelValues(toolName, "invalid").Inc()
		return &ExecutionResult{
			Success:         false,
			ToolName:        toolName,
			Error:           err.Error(),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	tool, _ := r.Get(toolName)
	if tool.Handler == nil {
		metrics.ToolExecutions.WithLabelValues(toolName, "error").Inc()
		return &ExecutionResult{
			Success:         false,
			ToolName:        toolName,
			Error:           fmt.Sprintf("tool '%s' has no handler function", toolName),
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}
	}

	result, err := r.runHandler(ctx, tool, params, reqCtx)
	elapsed := time.Since(start)
	metrics.ToolExecutionDuration.WithLabelValues(toolName).Observe(elapsed.Seconds())

	if err != nil {
		metrics.ToolExecutions.WithLabelValues(toolName, "error").Inc()
		r.logger.WithError(err).Error("tool execution failed", map[string]interface{}{
			"tool":              toolName,
			"execution_time_ms": elapsed.Milliseconds(),
		})
		return &ExecutionResult{
			Success:         false,
			ToolName:        toolName,
			Error:           err.Error(),
			ExecutionTimeMs: elapsed.Milliseconds(),
		}
	}

	metrics.ToolExecutions.WithLabelValues(toolName, "success").Inc()
	r.logger.Info("tool executed", map[string]interface{}{
		"tool":              toolName,
		"execution_time_ms": elapsed.Milliseconds(),
	})
	return &ExecutionResult{
		Success:         true,
		ToolName:        toolName,
		Result:          result,
		ExecutionTimeMs: elapsed.Milliseconds(),
	}
}

// runHandler isolates handler panics so a misbehaving tool cannot take down
// the request.
func (r *Registry) runHandler(ctx context.Context, tool *Tool, params, reqCtx map[string]interface{}) (result map[string]interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool '%s' panicked: %v", tool.Name, rec)
		}
	}()
	return tool.Handler(ctx, params, reqCtx)
}

// Info returns a serializable description of a tool for discovery endpoints.
func (r *Registry) Info(toolName string) (map[string]interface{}, bool) {
	tool, ok := r.Get(toolName)
	if !ok {
		return nil, false
	}
	params := make([]map[string]interface{}, 0, len(tool.Parameters))
	for _, p := range tool.Parameters {
		params = append(params, map[string]interface{}{
			"name":        p.Name,
			"type":        string(p.Type),
			"description": p.Description,
			"required":    p.Required,
			"default":     p.Default,
		})
	}
	return map[string]interface{}{
		"name":                   tool.Name,
		"description":            tool.Description,
		"category":               tool.Category,
		"parameters":             params,
		"enabled":                tool.Enabled,
		"mvp_ready":              tool.MVPReady,
		"requires_confirmation":  tool.RequiresConfirmation,
		"estimated_time_seconds": tool.EstimatedTimeSeconds,
	}, true
}
