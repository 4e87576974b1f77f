package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/slipstream/netcollections/internal/scheduler"
)

// SchedulerHandler handles scheduler-related API requests.
type SchedulerHandler struct {
	scheduler *scheduler.Scheduler
}

// NewSchedulerHandler creates a new scheduler handler.
func NewSchedulerHandler(sched *scheduler.Scheduler) *SchedulerHandler {
	return &SchedulerHandler{scheduler: sched}
}

// ListTasks returns all scheduled tasks.
// GET /api/v1/scheduler/tasks
func (h *SchedulerHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.scheduler.ListTasks())
}

// GetTask returns information about a specific task.
// GET /api/v1/scheduler/tasks/:id
func (h *SchedulerHandler) GetTask(c echo.Context) error {
	task, err := h.scheduler.GetTask(c.Param("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// RunTask manually triggers a task to run.
// POST /api/v1/scheduler/tasks/:id/run
func (h *SchedulerHandler) RunTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.RunNow(taskID); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Task started",
		"taskId":  taskID,
	})
}

// CancelTask requests cancellation of a running task.
// POST /api/v1/scheduler/tasks/:id/cancel
func (h *SchedulerHandler) CancelTask(c echo.Context) error {
	taskID := c.Param("id")
	if err := h.scheduler.Cancel(taskID); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "Cancellation requested",
		"taskId":  taskID,
	})
}

func errorJSON(c echo.Context, err error) error {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, scheduler.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduler.ErrTaskRunning), errors.Is(err, scheduler.ErrTaskNotRunning):
		status = http.StatusConflict
	case errors.Is(err, scheduler.ErrStopped):
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
