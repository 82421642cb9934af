package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlerhq/dler/internal/db/models"
)

// HistoryRow is one joined ledger row: the association between a task id
// and the URL it was submitted with. Status is never stored here.
type HistoryRow struct {
	TaskID string
	URL    string
}

// HistoryRepository maintains the bounded, recency-ordered task history
// ledger: an ordered entries table plus a lookup-by-id details table,
// kept consistent by the write paths.
type HistoryRepository struct {
	db      *gorm.DB
	maxSize int
}

// NewHistoryRepository creates a new instance of HistoryRepository.
// maxSize <= 0 falls back to models.MaxHistorySize.
func NewHistoryRepository(db *gorm.DB, maxSize int) *HistoryRepository {
	if maxSize <= 0 {
		maxSize = models.MaxHistorySize
	}
	return &HistoryRepository{db: db, maxSize: maxSize}
}

// Record inserts a task at the head of the ledger. An existing entry for
// the same task id is moved to the head rather than duplicated. The
// ordered entries are trimmed to the configured size and detail rows
// orphaned by the trim are pruned in the same transaction.
func (r *HistoryRepository) Record(ctx context.Context, taskID, url string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detail := models.HistoryDetail{TaskID: taskID, URL: url}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"url"}),
		}).Create(&detail).Error; err != nil {
			return fmt.Errorf("failed to upsert history detail: %w", err)
		}

		// Re-inserting gives the entry a fresh autoincrement id, which is
		// what moves it to the head of the ordering.
		if err := tx.Where("task_id = ?", taskID).Delete(&models.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to replace history entry: %w", err)
		}
		entry := models.HistoryEntry{TaskID: taskID, RecordedAt: time.Now()}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create history entry: %w", err)
		}

		keep := tx.Model(&models.HistoryEntry{}).Select("id").Order("id DESC").Limit(r.maxSize)
		if err := tx.Where("id NOT IN (?)", keep).Delete(&models.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}

		live := tx.Model(&models.HistoryEntry{}).Select("task_id")
		if err := tx.Where("task_id NOT IN (?)", live).Delete(&models.HistoryDetail{}).Error; err != nil {
			return fmt.Errorf("failed to prune history details: %w", err)
		}
		return nil
	})
}

// List returns up to limit ledger rows, most recent first. limit <= 0 or
// above the ledger bound falls back to the configured size.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 || limit > r.maxSize {
		limit = r.maxSize
	}
	var rows []HistoryRow
	err := r.db.WithContext(ctx).Model(&models.HistoryEntry{}).
		Select("history_entries.task_id, history_details.url").
		Joins("LEFT JOIN history_details ON history_details.task_id = history_entries.task_id").
		Order("history_entries.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, nil
}

// GetURL returns the original URL a task was submitted with, or
// ErrTaskNotFound when the task is no longer in the ledger.
func (r *HistoryRepository) GetURL(ctx context.Context, taskID string) (string, error) {
	var detail models.HistoryDetail
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrTaskNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get history detail: %w", err)
	}
	return detail.URL, nil
}

// Evict removes a task's entry and detail from the ledger in one
// transaction
func (r *HistoryRepository) Evict(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.HistoryEntry{}).Error; err != nil {
			return fmt.Errorf("failed to evict history entry: %w", err)
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&models.HistoryDetail{}).Error; err != nil {
			return fmt.Errorf("failed to evict history detail: %w", err)
		}
		return nil
	})
}
