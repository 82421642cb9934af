package models

import "time"

// CacheEntry maps a normalized URL to the task id of its most recent
// successful download. Presence alone does not make an entry valid: the
// referenced task must still be in success state and its file must still
// exist on disk, both re-checked on every read.
type CacheEntry struct {
	Key       string    `json:"key" gorm:"primaryKey"`
	TaskID    string    `json:"task_id" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at"`
}
