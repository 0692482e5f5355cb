// internal/agents/router.go
package agents

import (
	"context"
	"fmt"
	"sync"

	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
)

// Router dispatches intents to the agent that owns them. When multi-agent
// orchestration is enabled, supporting agents run concurrently first and
// their results are handed to the primary agent through the request context.
type Router struct {
	mu         sync.RWMutex
	agents     map[intent.AgentRole]Agent
	multiAgent bool
	logger     logger.Logger
}

// NewRouter builds a router over the given agents. multiAgent enables the
// supporting-agent fan-out.
func NewRouter(registered []Agent, multiAgent bool, log logger.Logger) *Router {
	r := &Router{
		agents:     make(map[intent.AgentRole]Agent, len(registered)),
		multiAgent: multiAgent,
		logger:     log,
	}
	var roles []string
	for _, a := range registered {
		r.agents[a.Role()] = a
		roles = append(roles, string(a.Role()))
	}
	log.Info("agent router initialized", map[string]interface{}{
		"registered_agents": roles,
		"multi_agent":       multiAgent,
	})
	return r
}

// Agent returns the registered agent for a role.
func (r *Router) Agent(role intent.AgentRole) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[role]
	return a, ok
}

// Available reports whether an agent is registered for the role.
func (r *Router) Available(role intent.AgentRole) bool {
	_, ok := r.Agent(role)
	return ok
}

// AvailableAgents lists the registered roles.
func (r *Router) AvailableAgents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.agents))
	for role := range r.agents {
		out = append(out, string(role))
	}
	return out
}

// AgentInfo describes one registered agent for discovery endpoints.
func (r *Router) AgentInfo(role intent.AgentRole) (map[string]interface{}, bool) {
	a, ok := r.Agent(role)
	if !ok {
		return nil, false
	}
	supported := a.SupportedIntents()
	names := make([]string, len(supported))
	for i, in := range supported {
		names[i] = in.String()
	}
	return map[string]interface{}{
		"agent_type":        string(role),
		"supported_intents": names,
		"intent_count":      len(names),
	}, true
}

// Route resolves the intent's requirements and dispatches to the primary
// agent. An unregistered primary agent yields a stub response, not an error;
// a registered agent that does not list the intent yields a failure.
func (r *Router) Route(ctx context.Context, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (*Response, error) {
	req := intent.RequirementsFor(in)

	r.logger.Info("routing intent", map[string]interface{}{
		"intent":            in.String(),
		"primary_agent":     string(req.PrimaryAgent),
		"supporting_agents": len(req.SupportingAgents),
	})

	primary, ok := r.Agent(req.PrimaryAgent)
	if !ok {
		return unavailableResponse(req.PrimaryAgent), nil
	}

	if !SupportsIntent(primary, in) {
		r.logger.Warn("agent does not support intent", map[string]interface{}{
			"agent":  string(req.PrimaryAgent),
			"intent": in.String(),
		})
		return &Response{
			Success:     false,
			Message:     fmt.Sprintf("%s does not support %s", req.PrimaryAgent, in),
			Agent:       req.PrimaryAgent,
			Error:       "Intent not supported by this agent",
			Implemented: true,
		}, nil
	}

	if !r.multiAgent || len(req.SupportingAgents) == 0 {
		return r.executeAgent(ctx, primary, in, entities, reqCtx)
	}
	return r.executeMultiAgent(ctx, primary, req.SupportingAgents, in, entities, reqCtx)
}

// executeAgent runs one agent, turning errors and panics into a failed
// response so one agent cannot break the pipeline.
func (r *Router) executeAgent(ctx context.Context, a Agent, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (resp *Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("agent panicked", map[string]interface{}{
				"agent": string(a.Role()),
				"panic": fmt.Sprintf("%v", rec),
			})
			resp = ErrorResponse(a.Role(), fmt.Sprintf("Agent execution failed: %v", rec))
			err = nil
		}
	}()

	resp, procErr := a.Process(ctx, in, entities, reqCtx)
	if procErr != nil {
		r.logger.WithError(procErr).Error("agent execution error", map[string]interface{}{
			"agent": string(a.Role()),
		})
		return ErrorResponse(a.Role(), fmt.Sprintf("Agent execution failed: %v", procErr)), nil
	}
	return resp, nil
}

// supportingResult pairs one supporting agent with its serialized outcome.
type supportingResult struct {
	Agent    string      `json:"agent"`
	Response interface{} `json:"response"`
}

// executeMultiAgent runs the available supporting agents concurrently,
// collects their results into the request context, then runs the primary.
// A failing supporting agent contributes its error string instead of
// aborting the whole request.
func (r *Router) executeMultiAgent(ctx context.Context, primary Agent, supportingRoles []intent.AgentRole, in intent.Intent, entities *entity.ExtractedEntities, reqCtx map[string]interface{}) (*Response, error) {
	var supporting []Agent
	for _, role := range supportingRoles {
		if a, ok := r.Agent(role); ok {
			supporting = append(supporting, a)
		}
	}

	results := make([]supportingResult, len(supporting))
	var wg sync.WaitGroup
	for i, a := range supporting {
		wg.Add(1)
		go func(idx int, a Agent) {
			defer wg.Done()
			resp, err := r.executeAgent(ctx, a, in, entities, reqCtx)
			if err != nil {
				results[idx] = supportingResult{Agent: string(a.Role()), Response: err.Error()}
				return
			}
			results[idx] = supportingResult{Agent: string(a.Role()), Response: resp}
		}(i, a)
	}
	wg.Wait()

	if reqCtx == nil {
		reqCtx = map[string]interface{}{}
	}
	reqCtx["supporting_agent_results"] = results

	return r.executeAgent(ctx, primary, in, entities, reqCtx)
}

func unavailableResponse(role intent.AgentRole) *Response {
	return &Response{
		Success:     false,
		Message:     fmt.Sprintf("%s is not available yet", role),
		Agent:       role,
		Implemented: false,
		Recommendations: []string{
			fmt.Sprintf("%s is planned for a later release", role),
			"Enable it via feature flags when ready",
		},
	}
}
