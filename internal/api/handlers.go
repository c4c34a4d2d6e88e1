package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neuroseg/neuroseg/internal/state"
	"github.com/neuroseg/neuroseg/internal/types"
)

// CreateTask handles POST /segment.
// Accepts a segmentation request, creates a pending task and returns its id
// immediately; the work itself runs in the background.
func (s *Server) CreateTask(c echo.Context) error {
	var req types.SegmentationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := req.Validate(s.studiesDir); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	taskID, err := s.manager.Create(c.Request().Context(), req)
	if err != nil {
		return storeError(c, err)
	}

	return c.JSON(http.StatusAccepted, types.TaskResponse{
		TaskID:  taskID,
		Status:  types.TaskPending,
		Message: fmt.Sprintf("Segmentation task created. Poll /task/%s/status for updates.", taskID),
	})
}

// GetTaskStatus handles GET /task/:id/status.
// Returns the full task record snapshot.
func (s *Server) GetTaskStatus(c echo.Context) error {
	taskID := c.Param("id")

	t, err := s.manager.Get(c.Request().Context(), taskID)
	if err != nil {
		if errors.Is(err, state.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("task %s not found", taskID),
			})
		}
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /task/:id.
// Removes the record; the underlying computation, if running, is not
// interrupted.
func (s *Server) DeleteTask(c echo.Context) error {
	taskID := c.Param("id")

	if err := s.manager.Delete(c.Request().Context(), taskID); err != nil {
		if errors.Is(err, state.ErrTaskNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": fmt.Sprintf("task %s not found", taskID),
			})
		}
		return storeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Task %s deleted successfully", taskID),
	})
}

// HealthCheck handles GET /health. Always 200; backend trouble is reported
// in the body, not as a failure.
func (s *Server) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, s.manager.Health(c.Request().Context()))
}

// storeError maps store-layer failures to responses, keeping backend
// unavailability distinct from task absence.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, state.ErrStoreUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "storage backend unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
