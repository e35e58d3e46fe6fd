package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ken/internmatch/internal/api"
	"github.com/ken/internmatch/internal/config"
	"github.com/ken/internmatch/internal/logger"
	"github.com/ken/internmatch/pkg/recommend"
)

// handleServe loads the model and catalog, then serves HTTP until SIGINT
// or SIGTERM
func handleServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, store, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := recommend.NewService(engine, store,
		recommend.WithTopK(cfg.Recommend.TopK),
		recommend.WithPrecision(cfg.Recommend.Precision),
	)
	handler := api.NewHandler(svc, engine.ModelName(), store.Size(), cfg.Server.RequestTimeout)
	server := api.NewServer(cfg.Server.Host, cfg.Server.Port, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
