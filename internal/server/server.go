// Package server exposes the gateway's HTTP surface: the assistant pipeline,
// direct agent execution, discovery endpoints and operational probes.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finops-gateway/internal/agents"
	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/session"
	"finops-gateway/internal/tools"
)

// Classifier is the slice of the intent classifier the server needs.
type Classifier interface {
	Classify(ctx context.Context, userInput string, history []intent.HistoryTurn, businessContext map[string]interface{}) (*intent.Classification, error)
}

// Extractor is the slice of the entity extractor the server needs.
type Extractor interface {
	Extract(ctx context.Context, userInput string, in intent.Intent, reqCtx map[string]interface{}) *entity.ExtractedEntities
}

// Server wires the request pipeline behind a gin engine.
type Server struct {
	cfg        *config.Config
	classifier Classifier
	extractor  Extractor
	router     *agents.Router
	registry   *tools.Registry
	sessions   *session.Store // nil when the session store is disabled
	logger     logger.Logger

	engine *gin.Engine
	http   *http.Server
}

// New assembles the server. sessions may be nil.
func New(cfg *config.Config, classifier Classifier, extractor Extractor, agentRouter *agents.Router, registry *tools.Registry, sessions *session.Store, log logger.Logger) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:        cfg,
		classifier: classifier,
		extractor:  extractor,
		router:     agentRouter,
		registry:   registry,
		sessions:   sessions,
		logger:     log,
	}

	engine := gin.New()
	engine.Use(s.requestID(), s.requestLogger(), s.recovery())
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

func (s *Server) registerRoutes(engine *gin.Engine) {
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/health", s.handleHealth)

		v1.POST("/assistant/query", s.handleAssistantQuery)
		v1.POST("/agents/process", s.handleAgentProcess)

		v1.GET("/agents", s.handleListAgents)
		v1.GET("/agents/:role", s.handleAgentInfo)
		v1.GET("/tools", s.handleListTools)
	}
}

// Engine exposes the gin engine for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start runs the HTTP server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:        s.cfg.Server.Addr(),
		Handler:     s.engine,
		ReadTimeout: time.Duration(s.cfg.Server.ReadTimeout) * time.Second,
	}
	s.logger.Info("http server listening", map[string]interface{}{
		"addr": s.cfg.Server.Addr(),
	})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
