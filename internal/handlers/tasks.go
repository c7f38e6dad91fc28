package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"taskflow/server/internal/services"
	"taskflow/server/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db          *gorm.DB
	taskService services.TaskService
	jobs        *worker.JobQueue
}

// NewTaskHandler wires the task endpoints. jobs may be nil when no
// background queue is configured.
func NewTaskHandler(db *gorm.DB, taskService services.TaskService, jobs *worker.JobQueue) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, jobs: jobs}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return
	}

	var input services.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	task, err := h.taskService.CreateTask(h.db, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.jobs != nil && task.DueDate != nil {
		remindAt := task.DueDate.Add(-time.Hour)
		payload := map[string]interface{}{
			"task_id": task.ID,
			"user_id": task.UserID,
			"title":   task.Title,
		}
		if err := h.jobs.EnqueueAt("reminders", worker.JobTypeTaskReminder, payload, remindAt); err != nil {
			log.Printf("failed to enqueue reminder for task %d: %v", task.ID, err)
		}
	}

	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return
	}

	filters := services.TaskFilters{
		Completed: c.Query("completed"),
		Priority:  c.Query("priority"),
	}

	tasks, err := h.taskService.GetTasks(h.db, userID, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskService.GetTaskByID(h.db, userID, taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	// A map keeps "field omitted" and "field set to null" apart, which
	// partial updates of the due date depend on.
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	task, err := h.taskService.UpdateTask(h.db, userID, taskID, fields)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "user not authenticated"})
		return
	}

	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(h.db, userID, taskID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func taskIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid task id"})
		return 0, false
	}
	return uint(id), true
}
