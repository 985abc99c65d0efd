package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michelleprabhu/bankchatbot/internal/chat"
	"github.com/michelleprabhu/bankchatbot/internal/httpapi"
	"github.com/michelleprabhu/bankchatbot/internal/observability"
	"github.com/michelleprabhu/bankchatbot/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser chat and the HTTP API",
	Long: `Serve starts the web chat on APP_BIND_ADDR (default :8080).

Open http://localhost:8080/ui/ to chat. The server stops gracefully on
SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	pipeline, err := chat.NewPipeline(runCtx, cfg, logger, metrics)
	if err != nil {
		return err
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	api := httpapi.New(cfg, sessions, pipeline.Service, pipeline.Store, metrics, logger)
	sessions.SetExpireHook(api.SessionExpired)
	sessions.StartJanitor(runCtx, 30*time.Second)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", cfg.BindAddr),
			zap.String("llm_provider", string(cfg.LLMProvider)),
			zap.String("retrieval_mode", string(cfg.RetrievalMode)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-runCtx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
	return nil
}
