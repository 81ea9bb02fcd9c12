// Package http provides the HTTP server adapter for the application layer.
// It is a thin layer translating requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/paperflow/internal/application/port"
	"github.com/fieldtrack/paperflow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config        ServerConfig
	httpServer    *http.Server
	router        *gin.Engine
	registry      service.WorkflowRegistry
	recordService service.RecordService
	dispatcher    service.NotificationDispatcher
	employees     port.EmployeeRepository
	logger        Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	registry service.WorkflowRegistry,
	recordService service.RecordService,
	dispatcher service.NotificationDispatcher,
	employees port.EmployeeRepository,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:        config,
		router:        gin.New(),
		registry:      registry,
		recordService: recordService,
		dispatcher:    dispatcher,
		employees:     employees,
		logger:        logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.registry, s.recordService, s.dispatcher, s.employees, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		// Workflow definitions
		api.POST("/workflows", handlers.CreateWorkflow)
		api.GET("/workflows", handlers.ListWorkflows)
		api.GET("/workflows/:id", handlers.GetWorkflow)
		api.PUT("/workflows/:id", handlers.UpdateWorkflow)
		api.DELETE("/workflows/:id", handlers.DeleteWorkflow)
		api.POST("/workflows/:id/activate", handlers.ActivateWorkflow)
		api.POST("/workflows/:id/deactivate", handlers.DeactivateWorkflow)

		// Field records and their approval actions
		api.POST("/records", handlers.CreateRecord)
		api.GET("/records", handlers.ListRecords)
		api.GET("/records/:id", handlers.GetRecord)
		api.POST("/records/:id/submit", handlers.SubmitRecord)
		api.POST("/records/:id/approve", handlers.ApproveRecord)
		api.POST("/records/:id/reject", handlers.RejectRecord)

		// Notification inbox
		api.GET("/notifications", handlers.ListUnreadNotifications)
		api.POST("/notifications/:id/read", handlers.MarkNotificationRead)

		// Employee directory
		api.POST("/employees", handlers.CreateEmployee)
		api.GET("/employees", handlers.ListEmployees)
		api.POST("/employees/:id/activate", handlers.ActivateEmployee)
		api.POST("/employees/:id/deactivate", handlers.DeactivateEmployee)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
