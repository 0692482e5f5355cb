// internal/server/handlers.go
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	stderrors "finops-gateway/internal/common/errors"
	"finops-gateway/internal/intent"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// bearerToken extracts the Authorization bearer token, if any.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// ==========================
// Assistant pipeline
// ==========================

type assistantQueryRequest struct {
	Query           string                 `json:"query" binding:"required"`
	SessionID       string                 `json:"session_id"`
	UserID          string                 `json:"user_id"`
	OrgID           string                 `json:"org_id"`
	BusinessContext map[string]interface{} `json:"business_context"`
}

// handleAssistantQuery runs the full pipeline: history, classification,
// entity extraction, agent dispatch, then history append.
func (s *Server) handleAssistantQuery(c *gin.Context) {
	start := time.Now()

	var req assistantQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "query is required")
		return
	}

	ctx := c.Request.Context()

	var history []intent.HistoryTurn
	if s.sessions != nil && req.SessionID != "" {
		var err error
		history, err = s.sessions.History(ctx, req.SessionID)
		if err != nil {
			s.logger.Warn("failed to load session history", map[string]interface{}{
				"session_id": req.SessionID,
				"error":      err.Error(),
			})
		}
	}

	classification, err := s.classifier.Classify(ctx, req.Query, history, req.BusinessContext)
	if err != nil {
		s.logger.WithError(err).Error("classification failed", map[string]interface{}{
			"request_id": c.GetString("request_id"),
		})
		status := http.StatusBadGateway
		if stderrors.CodeOf(err) == stderrors.ErrCodeLLMTimeout {
			status = http.StatusGatewayTimeout
		}
		writeError(c, status, "could not understand the request, please try again")
		return
	}

	reqCtx := map[string]interface{}{
		"user_id":    req.UserID,
		"org_id":     req.OrgID,
		"auth_token": bearerToken(c),
		"session_id": req.SessionID,
		"request_id": c.GetString("request_id"),
	}
	if req.BusinessContext != nil {
		reqCtx["business_context"] = req.BusinessContext
	}

	entities := s.extractor.Extract(ctx, req.Query, classification.Intent, reqCtx)

	agentResp, err := s.router.Route(ctx, classification.Intent, entities, reqCtx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "agent dispatch failed")
		return
	}

	if s.sessions != nil && req.SessionID != "" {
		turn := intent.HistoryTurn{
			UserInput: req.Query,
			Intent:    classification.Intent.String(),
			Response:  agentResp.Message,
		}
		if err := s.sessions.Append(ctx, req.SessionID, turn); err != nil {
			s.logger.Warn("failed to append session turn", map[string]interface{}{
				"session_id": req.SessionID,
				"error":      err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": agentResp.Success,
		"message": agentResp.Message,
		"data":    agentResp.Data,

		"intent": gin.H{
			"name":             classification.Intent.String(),
			"confidence":       classification.Confidence,
			"confidence_level": string(intent.LevelOf(classification.Confidence)),
			"category":         string(classification.Category),
			"complexity":       string(classification.Complexity),
			"source":           classification.Source,
			"is_followup":      classification.IsFollowup,
		},

		"agent":     string(agentResp.Agent),
		"tool_used": agentResp.ToolUsed,

		"entities":       entities,
		"entities_count": entities.TotalEntities,

		"recommendations":        agentResp.Recommendations,
		"next_steps":             agentResp.NextSteps,
		"error":                  agentResp.Error,
		"needs_clarification":    agentResp.NeedsClarification,
		"clarification_question": agentResp.ClarificationQuestion,
		"implemented":            agentResp.Implemented,

		"processing_time_ms": time.Since(start).Milliseconds(),
	})
}

// ==========================
// Direct agent execution
// ==========================

type agentProcessRequest struct {
	Intent     string                 `json:"intent" binding:"required"`
	Parameters map[string]interface{} `json:"parameters"`
	Context    map[string]interface{} `json:"context"`
}

// handleAgentProcess executes an agent for an explicit intent, skipping
// classification and extraction. Unknown intent names are a caller error.
func (s *Server) handleAgentProcess(c *gin.Context) {
	var req agentProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "intent is required")
		return
	}

	parsed, ok := intent.Parse(req.Intent)
	if !ok {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("Invalid intent: %s", req.Intent))
		return
	}

	reqCtx := req.Context
	if reqCtx == nil {
		reqCtx = map[string]interface{}{}
	}
	if token := bearerToken(c); token != "" {
		reqCtx["auth_token"] = token
	}
	if req.Parameters != nil {
		reqCtx["parameters"] = req.Parameters
	}

	resp, err := s.router.Route(c.Request.Context(), parsed, nil, reqCtx)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "Agent execution failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ==========================
// Discovery
// ==========================

func (s *Server) handleListAgents(c *gin.Context) {
	roles := s.router.AvailableAgents()
	infos := make([]map[string]interface{}, 0, len(roles))
	for _, role := range roles {
		if info, ok := s.router.AgentInfo(intent.AgentRole(role)); ok {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"agents": infos, "count": len(infos)})
}

func (s *Server) handleAgentInfo(c *gin.Context) {
	role := intent.AgentRole(c.Param("role"))
	info, ok := s.router.AgentInfo(role)
	if !ok {
		writeError(c, http.StatusNotFound, fmt.Sprintf("agent '%s' not found", role))
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) handleListTools(c *gin.Context) {
	enabledOnly := c.Query("all") != "true"

	names := s.registry.List(enabledOnly)
	infos := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		if info, ok := s.registry.Info(name); ok {
			infos = append(infos, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"tools": infos, "count": len(infos)})
}

// ==========================
// Health
// ==========================

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	checks := gin.H{}

	if s.sessions != nil {
		if err := s.sessions.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			checks["session_store"] = "unreachable"
		} else {
			checks["session_store"] = "ok"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"app":         s.cfg.App.Name,
		"version":     s.cfg.App.Version,
		"environment": s.cfg.App.Environment,
		"checks":      checks,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
