package api

import (
	"github.com/labstack/echo/v4"

	"github.com/neuroseg/neuroseg/internal/task"
)

// Server handles HTTP requests for the segmentation API.
type Server struct {
	manager    *task.Manager
	studiesDir string
}

// NewServer creates a new API server over the given lifecycle manager.
// studiesDir is the base directory request validation resolves study codes
// against.
func NewServer(manager *task.Manager, studiesDir string) *Server {
	return &Server{manager: manager, studiesDir: studiesDir}
}

// RegisterRoutes registers all API endpoints with the Echo router.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/segment", s.CreateTask)
	e.GET("/task/:id/status", s.GetTaskStatus)
	e.DELETE("/task/:id", s.DeleteTask)
	e.GET("/health", s.HealthCheck)
}
