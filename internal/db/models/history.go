package models

import "time"

// HistoryEntry is a row in the recency-ordered history ledger. The
// autoincrement ID doubles as the recency rank: a higher ID means a more
// recent submission. A task appears at most once; re-submitting a cached
// task moves its entry to the head instead of duplicating it.
type HistoryEntry struct {
	ID         uint      `json:"-" gorm:"primaryKey"`
	TaskID     string    `json:"task_id" gorm:"uniqueIndex;not null"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null"`
}

// HistoryDetail is the lookup-by-id side of the ledger, holding the
// original URL a task was submitted with. Detail rows whose task id has
// been trimmed out of the ordered entries are pruned on the next write.
type HistoryDetail struct {
	TaskID string `json:"task_id" gorm:"primaryKey"`
	URL    string `json:"url" gorm:"not null"`
}
