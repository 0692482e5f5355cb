// cmd/gateway/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finops-gateway/internal/agents"
	"finops-gateway/internal/agents/finance"
	"finops-gateway/internal/backend"
	"finops-gateway/internal/common/config"
	"finops-gateway/internal/common/logger"
	"finops-gateway/internal/entity"
	"finops-gateway/internal/intent"
	"finops-gateway/internal/llm"
	"finops-gateway/internal/server"
	"finops-gateway/internal/session"
	"finops-gateway/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting gateway",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Upstream clients ---
	completions := llm.NewClient(cfg.LLM, log)
	adapter := backend.NewAdapter(cfg.Backend, log)

	// --- Pipeline components ---
	classifier := intent.NewClassifier(completions, log)
	extractor := entity.NewExtractor(completions, cfg.Extractor, log)

	registry := tools.NewRegistry(log)

	var registered []agents.Agent
	if cfg.Features.EnableFinanceAgent {
		registered = append(registered, finance.NewAgent(adapter, registry, cfg.Features, log))
	}
	router := agents.NewRouter(registered, cfg.Features.EnableMultiAgentOrchestration, log)

	// --- Session store (optional) ---
	var sessions *session.Store
	if cfg.Features.EnableSessionStore {
		sessions = session.NewStore(cfg.Redis, cfg.Session, log)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := sessions.Ping(pingCtx); err != nil {
			zapLog.Warn("session store unreachable, continuing without history", zap.Error(err))
			sessions.Close()
			sessions = nil
		}
		cancel()
	}
	if sessions != nil {
		defer sessions.Close()
	}

	srv := server.New(cfg, classifier, extractor, router, registry, sessions, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown did not complete cleanly", zap.Error(err))
	}

	zapLog.Info("gateway stopped gracefully")
}
