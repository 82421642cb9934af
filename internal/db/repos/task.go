// Package repos provides database access for tasks, history and the
// download cache.
package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dlerhq/dler/internal/db/models"
)

// ErrTaskNotFound is returned when a task id does not resolve to a task
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task in the database
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByID retrieves a task by its id
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where(&models.Task{ID: id}).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// ClaimNext atomically claims the oldest pending task by moving it to
// processing. Returns nil when there is no pending task, or when another
// worker won the claim.
func (r *TaskRepository) ClaimNext(ctx context.Context) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where(&models.Task{Status: models.TaskStatusPending}).
		Order("created_at ASC").
		First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending task: %w", err)
	}

	// Conditional update doubles as the claim lock: zero affected rows
	// means another worker already took the task.
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", task.ID, models.TaskStatusPending).
		Update(models.TaskStatusField, models.TaskStatusProcessing)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to claim task %s: %w", task.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	task.Status = models.TaskStatusProcessing
	return &task, nil
}

// Complete transitions a processing task to success and stores its result.
// Returns false when the task was not in processing state anymore.
func (r *TaskRepository) Complete(ctx context.Context, id string, result *models.TaskResult) (bool, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal result: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", id, models.TaskStatusProcessing).
		Updates(map[string]interface{}{
			"status": models.TaskStatusSuccess,
			"result": json.RawMessage(resultJSON),
			"error":  "",
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to complete task %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Fail transitions a processing task to failure with a human-readable
// cause. Returns false when the task was not in processing state anymore.
func (r *TaskRepository) Fail(ctx context.Context, id string, errMsg string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status = ?", id, models.TaskStatusProcessing).
		Updates(map[string]interface{}{
			"status": models.TaskStatusFailure,
			"error":  errMsg,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark task %s failed: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetAttempts records the number of executor attempts made for a task
func (r *TaskRepository) SetAttempts(ctx context.Context, id string, attempts int) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ?", id).
		Update("attempts", attempts).Error
}

// Delete removes a task from the database
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{}).Error
}

// GetByIDs retrieves the tasks for the given ids, keyed by id. Missing
// ids are simply absent from the map.
func (r *TaskRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Task, error) {
	if len(ids) == 0 {
		return map[string]models.Task{}, nil
	}
	var tasks []models.Task
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tasks: %w", err)
	}
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID, nil
}
