package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlerhq/dler/internal/db/models"
)

// CacheRepository maps normalized URLs to the task id of their most
// recent successful download
type CacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository creates a new instance of CacheRepository
func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get returns the cache entry for a normalized URL, or nil on a miss
func (r *CacheRepository) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return &entry, nil
}

// Put creates or overwrites the cache entry for a normalized URL.
// Concurrent completions for the same key resolve last-write-wins.
func (r *CacheRepository) Put(ctx context.Context, key, taskID string) error {
	entry := models.CacheEntry{Key: key, TaskID: taskID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"task_id", "updated_at"}),
	}).Create(&entry).Error
}

// Delete removes the cache entry for a normalized URL. Removing an
// absent key is not an error.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&models.CacheEntry{}).Error
}

// DeleteByTaskID removes every cache entry referencing the given task
func (r *CacheRepository) DeleteByTaskID(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&models.CacheEntry{}).Error
}
