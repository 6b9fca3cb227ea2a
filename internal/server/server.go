// Package server exposes the run controller over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-job-harvester/internal/control"
	"go-job-harvester/internal/engine"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	ctrl       *control.Controller
	logger     *zap.SugaredLogger
}

// NewServer wires the routes onto a fresh gin engine.
func NewServer(addr string, ctrl *control.Controller, logger *zap.SugaredLogger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	s := &Server{
		router: router,
		ctrl:   ctrl,
		logger: logger,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.setUpRoutes()
	return s, nil
}

func (s *Server) setUpRoutes() {
	s.router.GET("/", s.health)

	runs := s.router.Group("/runs")
	runs.POST("", s.startRun)
	runs.POST("/stop", s.stopRun)
	runs.POST("/next", s.nextTerm)
	runs.GET("/status", s.status)
	runs.GET("/snapshot", s.snapshot)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Infof("🌐 Server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Infof("👋 Server shutdown completed")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Job harvester API is running!",
		"status":  "healthy",
	})
}

func (s *Server) startRun(c *gin.Context) {
	var req engine.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.ctrl.Start(req)
	switch {
	case errors.Is(err, control.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, s.ctrl.Status())
	}
}

func (s *Server) stopRun(c *gin.Context) {
	s.signal(c, s.ctrl.Stop, engine.StatusStopped)
}

func (s *Server) nextTerm(c *gin.Context) {
	s.signal(c, s.ctrl.Next, engine.StatusNextTerm)
}

func (s *Server) signal(c *gin.Context, fn func() error, requested engine.Status) {
	if err := fn(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"requested": requested})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Status())
}

func (s *Server) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

func requestLogger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
