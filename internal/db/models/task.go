package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Field names for the task model
const (
	// TaskStatusField is the column name for task status
	TaskStatusField = "status"
)

// TaskStatus represents the current state of a download task
type TaskStatus string

// Task status constants
const (
	// TaskStatusUnknown represents an unknown or invalid task status
	TaskStatusUnknown TaskStatus = "unknown"
	// TaskStatusPending indicates the task is waiting to be picked up by a worker
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusProcessing indicates a worker is executing the download
	TaskStatusProcessing TaskStatus = "processing"
	// TaskStatusSuccess indicates the download completed and the file is on disk
	TaskStatusSuccess TaskStatus = "success"
	// TaskStatusFailure indicates the download failed terminally
	TaskStatusFailure TaskStatus = "failure"
)

// String returns the string representation of the task status
func (s TaskStatus) String() string {
	return string(s)
}

// Terminal reports whether the status is a terminal state
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailure
}

// ParseTaskStatus converts a string to a TaskStatus
func ParseTaskStatus(str string) (TaskStatus, error) {
	switch str {
	case string(TaskStatusPending):
		return TaskStatusPending, nil
	case string(TaskStatusProcessing):
		return TaskStatusProcessing, nil
	case string(TaskStatusSuccess):
		return TaskStatusSuccess, nil
	case string(TaskStatusFailure):
		return TaskStatusFailure, nil
	case string(TaskStatusUnknown):
		return TaskStatusUnknown, nil
	default:
		return TaskStatusUnknown, fmt.Errorf("invalid task status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for TaskStatus
func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseTaskStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// MarshalJSON implements json.Marshaler for TaskStatus
func (s *TaskStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// TaskResult is the outcome record of a successful download
type TaskResult struct {
	Filepath    string `json:"filepath"`
	DisplayName string `json:"display_name"`
}

// Task represents one requested media download, tracked from submission
// to its terminal state. Status transitions are monotonic: pending may
// only advance to processing, and processing to success or failure.
type Task struct {
	ID        string          `json:"task_id" gorm:"primaryKey"`
	URL       string          `json:"url" gorm:"not null"`
	Status    TaskStatus      `json:"status" gorm:"not null;index"`
	Result    json.RawMessage `json:"result,omitempty" gorm:"type:jsonb"`
	Error     string          `json:"error,omitempty" gorm:"type:text"`
	AudioOnly bool            `json:"audio_only" gorm:"not null;default:false"`
	Format    string          `json:"format,omitempty"`
	Attempts  int             `json:"attempts" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate ensures that the task data is valid
func (t *Task) Validate() error {
	if t.URL == "" {
		return fmt.Errorf("task url cannot be empty")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before creating a new task
func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	return t.Validate()
}

// DownloadResult decodes the stored result record. Returns nil when the
// task has no result yet.
func (t *Task) DownloadResult() (*TaskResult, error) {
	if len(t.Result) == 0 {
		return nil, nil
	}
	var res TaskResult
	if err := json.Unmarshal(t.Result, &res); err != nil {
		return nil, fmt.Errorf("failed to decode task result: %w", err)
	}
	return &res, nil
}
