package services

import (
	"fmt"
	"time"

	"taskflow/server/internal/cache"
	"taskflow/server/internal/models"

	"gorm.io/gorm"
)

// CachedTaskService decorates a TaskService with a redis read-through
// cache. Cache failures degrade silently to the database; mutation
// errors are never masked by cache bookkeeping.
type CachedTaskService struct {
	taskService TaskService
	cache       *cache.RedisCache
}

func NewCachedTaskService(taskService TaskService, cacheInstance *cache.RedisCache) *CachedTaskService {
	return &CachedTaskService{
		taskService: taskService,
		cache:       cacheInstance,
	}
}

func taskKey(userID, taskID uint) string {
	return fmt.Sprintf("task:%d:%d", userID, taskID)
}

func userTasksKey(userID uint, filters TaskFilters) string {
	return fmt.Sprintf("user_tasks:%d:completed=%s:priority=%s", userID, filters.Completed, filters.Priority)
}

func (s *CachedTaskService) invalidateUser(userID uint) {
	s.cache.DeletePattern(fmt.Sprintf("user_tasks:%d:*", userID))
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, userID uint, input CreateTaskInput) (*models.Task, error) {
	task, err := s.taskService.CreateTask(db, userID, input)
	if err != nil {
		return nil, err
	}

	s.cache.Set(taskKey(userID, task.ID), task, 30*time.Minute)
	s.invalidateUser(userID)

	return task, nil
}

func (s *CachedTaskService) GetTasks(db *gorm.DB, userID uint, filters TaskFilters) ([]models.Task, error) {
	key := userTasksKey(userID, filters)

	var cached []models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	tasks, err := s.taskService.GetTasks(db, userID, filters)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, tasks, 10*time.Minute)

	return tasks, nil
}

func (s *CachedTaskService) GetTaskByID(db *gorm.DB, userID, taskID uint) (*models.Task, error) {
	key := taskKey(userID, taskID)

	var cached models.Task
	if err := s.cache.Get(key, &cached); err == nil {
		return &cached, nil
	}

	task, err := s.taskService.GetTaskByID(db, userID, taskID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, task, 30*time.Minute)

	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, userID, taskID uint, fields map[string]interface{}) (*models.Task, error) {
	task, err := s.taskService.UpdateTask(db, userID, taskID, fields)
	if err != nil {
		return nil, err
	}

	s.cache.Set(taskKey(userID, taskID), task, 30*time.Minute)
	s.invalidateUser(userID)

	return task, nil
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, userID, taskID uint) error {
	if err := s.taskService.DeleteTask(db, userID, taskID); err != nil {
		return err
	}

	s.cache.Delete(taskKey(userID, taskID))
	s.invalidateUser(userID)

	return nil
}
