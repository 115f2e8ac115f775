// Package httpapi exposes the service over HTTP. It is a thin orchestrating
// layer: handlers translate JSON to application requests and structured
// results back to JSON; no resilience or safety logic lives here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autofixops/fixops-go/internal/application/analyze"
	"github.com/autofixops/fixops-go/internal/application/diagnose"
	"github.com/autofixops/fixops-go/internal/ports"
)

// ReadyChecker reports whether the inference backend is usable.
type ReadyChecker interface {
	Ready() error
}

// Server wires the application services to gin routes.
type Server struct {
	analyzeService  *analyze.Service
	diagnoseService *diagnose.Service
	metrics         ports.MetricsRecorder
	readiness       ReadyChecker
	logger          ports.Logger
	engine          *gin.Engine
}

// NewServer builds the router. readiness may be nil (always ready).
func NewServer(
	analyzeService *analyze.Service,
	diagnoseService *diagnose.Service,
	metrics ports.MetricsRecorder,
	readiness ReadyChecker,
	log ports.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())

	s := &Server{
		analyzeService:  analyzeService,
		diagnoseService: diagnoseService,
		metrics:         metrics,
		readiness:       readiness,
		logger:          log,
		engine:          engine,
	}

	engine.POST("/analyze", s.handleAnalyze)
	engine.POST("/execute", s.handleExecute)
	engine.POST("/feedback", s.handleFeedback)
	engine.GET("/metrics", s.handleMetrics)
	engine.GET("/health", s.handleHealth)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody("not found", c))
	})

	return s
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", map[string]interface{}{"addr": addr})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) ready() error {
	if s.readiness == nil {
		return nil
	}
	return s.readiness.Ready()
}
