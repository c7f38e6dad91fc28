package services

import (
	"errors"
	"fmt"
	"time"

	"taskflow/server/internal/apperrors"
	"taskflow/server/internal/models"

	"gorm.io/gorm"
)

// CreateTaskInput carries the client-supplied fields for a new task.
// DueDate stays a string pointer so "no due date" survives as NULL
// instead of a zero time.
type CreateTaskInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// TaskFilters are the recognized listing predicates. Empty string
// means the predicate is absent.
type TaskFilters struct {
	Completed string
	Priority  string
}

type TaskService interface {
	CreateTask(db *gorm.DB, userID uint, input CreateTaskInput) (*models.Task, error)
	GetTasks(db *gorm.DB, userID uint, filters TaskFilters) ([]models.Task, error)
	GetTaskByID(db *gorm.DB, userID, taskID uint) (*models.Task, error)
	UpdateTask(db *gorm.DB, userID, taskID uint, fields map[string]interface{}) (*models.Task, error)
	DeleteTask(db *gorm.DB, userID, taskID uint) error
}

type TaskServiceImpl struct{}

func NewTaskService() *TaskServiceImpl {
	return &TaskServiceImpl{}
}

// validTitle rejects an empty title or one whose first character is an
// ASCII decimal digit. Leading whitespace or punctuation is accepted.
func validTitle(title string) bool {
	if title == "" {
		return false
	}
	return title[0] < '0' || title[0] > '9'
}

// parseDueDate accepts a date-only or RFC 3339 date-time string.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, userID uint, input CreateTaskInput) (*models.Task, error) {
	if !validTitle(input.Title) {
		return nil, apperrors.ErrInvalidTaskName
	}

	var dueDate *time.Time
	if input.DueDate != nil {
		parsed, err := parseDueDate(*input.DueDate)
		if err != nil {
			return nil, apperrors.ErrInvalidDueDate
		}
		dueDate = &parsed
	}

	task := models.Task{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority,
		DueDate:     dueDate,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return &task, nil
}

func (s *TaskServiceImpl) GetTasks(db *gorm.DB, userID uint, filters TaskFilters) ([]models.Task, error) {
	query := db.Where("user_id = ?", userID)

	if filters.Completed != "" {
		query = query.Where("completed = ?", filters.Completed == "true")
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}

	tasks := []models.Task{}
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	var task models.Task
	err := db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A task owned by someone else looks exactly like a missing
			// one, so existence cannot be probed across users.
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("lookup task: %w", err)
	}
	return &task, nil
}

// UpdateTask applies only the supplied fields. The update is a single
// statement keyed by both task id and owner; zero affected rows means
// the task is absent or not the caller's.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, userID, taskID uint, fields map[string]interface{}) (*models.Task, error) {
	updates := map[string]interface{}{}

	if raw, ok := fields["title"]; ok {
		title, _ := raw.(string)
		if !validTitle(title) {
			return nil, apperrors.ErrInvalidTaskName
		}
		updates["title"] = title
	}
	if raw, ok := fields["description"]; ok {
		updates["description"] = raw
	}
	if raw, ok := fields["priority"]; ok {
		updates["priority"] = raw
	}
	if raw, ok := fields["completed"]; ok {
		completed, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("completed must be a boolean")
		}
		updates["completed"] = completed
	}
	if raw, ok := fields["due_date"]; ok {
		if raw == nil {
			// Explicit null clears the due date; an omitted key leaves
			// it untouched.
			updates["due_date"] = nil
		} else {
			str, ok := raw.(string)
			if !ok {
				return nil, apperrors.ErrInvalidDueDate
			}
			parsed, err := parseDueDate(str)
			if err != nil {
				return nil, apperrors.ErrInvalidDueDate
			}
			updates["due_date"] = parsed
		}
	}

	if len(updates) > 0 {
		result := db.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", taskID, userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("update task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperrors.ErrTaskNotFound
		}
	}

	return s.GetTaskByID(db, userID, taskID)
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, userID, taskID uint) error {
	result := db.Where("id = ? AND user_id = ?", taskID, userID).Delete(&models.Task{})
	if result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}
