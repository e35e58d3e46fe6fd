package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ken/internmatch/internal/logger"
)

// NewRouter registers the service routes on a new gin engine
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), AccessLog())

	router.GET("/health", h.Health)
	router.POST("/recommend", h.Recommend)

	return router
}

// Server owns the HTTP listener
type Server struct {
	httpServer *http.Server
}

// NewServer creates a server for handler on host:port
func NewServer(host string, port int, h *Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:    net.JoinHostPort(host, strconv.Itoa(port)),
			Handler: NewRouter(h),
		},
	}
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe serves until Shutdown is called
func (s *Server) ListenAndServe() error {
	logger.Info("Listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
