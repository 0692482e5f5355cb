// Package agents defines the agent contract and the router that dispatches
// classified intents to the owning agent, with optional multi-agent fan-out.
package agents

import (
	"context"
	"fmt"

	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
)

// Agent handles the intents of one business domain. Implementations receive
// their collaborators by constructor injection and must be safe for
// concurrent Process calls.
type Agent interface {
	// Role identifies the agent within the router.
	Role() intent.AgentRole

	// SupportedIntents lists the intents this agent accepts.
	SupportedIntents() []intent.Intent

	// Process handles one request. reqCtx carries request identity and
	// orchestration state (user_id, org_id, auth_token, supporting
	// results). Implementations report failures inside the Response;
	// the returned error is reserved for infrastructure breakage.
	Process(ctx context.Context, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (*Response, error)
}

// Response is the uniform agent output shape.
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`

	// Tool execution details
	ToolUsed  string   `json:"tool_used,omitempty"`
	ToolCalls []string `json:"tool_calls,omitempty"`

	// Agent metadata
	Agent      intent.AgentRole `json:"agent_type"`
	Confidence float64          `json:"confidence"`

	// Strategic extras
	Recommendations []string `json:"recommendations,omitempty"`
	NextSteps       []string `json:"next_steps,omitempty"`

	// Error handling
	Error                 string `json:"error,omitempty"`
	NeedsClarification    bool   `json:"needs_clarification,omitempty"`
	ClarificationQuestion string `json:"clarification_question,omitempty"`

	// False marks stubbed capabilities that are registered but not built.
	Implemented bool `json:"implemented"`
}

// SuccessResponse builds a standard success response.
func SuccessResponse(role intent.AgentRole, message string, data map[string]interface{}, toolUsed string) *Response {
	return &Response{
		Success:     true,
		Message:     message,
		Data:        data,
		ToolUsed:    toolUsed,
		Agent:       role,
		Confidence:  1.0,
		Implemented: true,
	}
}

// ErrorResponse builds a standard failure response.
func ErrorResponse(role intent.AgentRole, errMsg string) *Response {
	return &Response{
		Success:     false,
		Message:     fmt.Sprintf("Error: %s", errMsg),
		Error:       errMsg,
		Agent:       role,
		Implemented: true,
	}
}

// ClarificationResponse asks the user for a missing detail.
func ClarificationResponse(role intent.AgentRole, errMsg, question string) *Response {
	r := ErrorResponse(role, errMsg)
	r.NeedsClarification = true
	r.ClarificationQuestion = question
	return r
}

// StubResponse marks a capability that exists in the catalog but is not
// built yet.
func StubResponse(role intent.AgentRole, featureName string) *Response {
	return &Response{
		Success:     false,
		Message:     fmt.Sprintf("Feature %s is not available yet", featureName),
		Agent:       role,
		Implemented: false,
		Recommendations: []string{
			fmt.Sprintf("%s is planned for a later release", featureName),
		},
	}
}

// SupportsIntent reports whether an agent lists the intent.
func SupportsIntent(a Agent, in intent.Intent) bool {
	for _, supported := range a.SupportedIntents() {
		if supported == in {
			return true
		}
	}
	return false
}
