package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
)

// TaskStatusResponse describes a queued import.
type TaskStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Done   bool   `json:"done"`
	// Message points callers at the import history once the task is done;
	// the queue keeps no import result.
	Message string `json:"message,omitempty"`
}

type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	resp := TaskStatusResponse{ID: taskID, Status: taskStatusToString(status)}
	switch status {
	case backlite.TaskStatusSuccess:
		resp.Done = true
		resp.Message = "import finished; see /api/imports for the result"
	case backlite.TaskStatusFailure:
		resp.Done = true
		resp.Message = "import could not run after all retries"
	}
	c.JSON(http.StatusOK, resp)
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}
