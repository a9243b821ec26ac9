// Package server exposes the read and enqueue API over HTTP. Runs are
// never executed inline; the API only writes queue rows and reads what
// the workers produced.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voter-segmentation/internal/repository"
	"github.com/voter-segmentation/pkg/config"
	"github.com/voter-segmentation/pkg/utils"
)

// Server wraps the gin router and the HTTP listener.
type Server struct {
	store  *repository.Store
	cfg    *config.ServerConfig
	logger utils.Logger
	router *gin.Engine
}

// New creates a Server and registers its routes.
func New(store *repository.Store, cfg *config.ServerConfig, logger utils.Logger) *Server {
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		store:  store,
		cfg:    cfg,
		logger: logger,
		router: router,
	}
	s.registerRoutes()
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/jobs", s.handleCreateJob)
		api.GET("/jobs/:id", s.handleGetJob)
		api.GET("/nodes/:id/segments", s.handleListSegments)
		api.GET("/exceptions", s.handleListExceptions)
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
