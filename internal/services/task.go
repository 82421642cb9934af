// Package services implements the task lifecycle: submission with
// cache-based dedup, status reporting, history, deletion and redownload.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/db/repos"
	"github.com/dlerhq/dler/internal/downloader"
	"github.com/dlerhq/dler/internal/logger"
	"github.com/dlerhq/dler/internal/urlnorm"
)

// ErrInvalidURL is returned when a submitted URL is not a well-formed
// http(s) URL. Reachability is never checked.
var ErrInvalidURL = errors.New("url must be a well-formed http(s) URL")

// TaskStatusInfo is the externally visible status shape of a task
type TaskStatusInfo struct {
	TaskID      string            `json:"task_id"`
	Status      models.TaskStatus `json:"status"`
	URL         string            `json:"url"`
	Details     interface{}       `json:"details,omitempty"`
	DownloadURL string            `json:"download_url,omitempty"`
}

// Task orchestrates the job store, history ledger, cache index and file
// gateway. The three stores have no foreign keys between them; keeping
// them consistent is the responsibility of the methods here.
type Task struct {
	tasks   *repos.TaskRepository
	history *repos.HistoryRepository
	cache   *repos.CacheRepository
	files   *FileGateway
}

// NewTaskService creates a new instance of the task service
func NewTaskService(tasks *repos.TaskRepository, history *repos.HistoryRepository, cache *repos.CacheRepository, files *FileGateway) *Task {
	return &Task{
		tasks:   tasks,
		history: history,
		cache:   cache,
		files:   files,
	}
}

// Submit accepts a download request and returns the task that covers it.
// A valid cache hit reuses the prior successful task without dispatching
// any work; otherwise a fresh pending task is created for the workers to
// pick up. The call never waits on the download itself.
func (s *Task) Submit(ctx context.Context, rawURL string, opts downloader.Options) (*models.Task, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	key := urlnorm.Normalize(rawURL)

	if cached := s.cachedTask(ctx, key); cached != nil {
		// The reused id still gets a fresh history entry carrying this
		// request's original URL.
		if err := s.history.Record(ctx, cached.ID, rawURL); err != nil {
			return nil, fmt.Errorf("failed to record history: %w", err)
		}
		logger.InfoWithFields("Cache hit, reusing task", map[string]interface{}{
			"task_id": cached.ID,
			"url":     rawURL,
			"key":     key,
		})
		return cached, nil
	}

	task := &models.Task{
		URL:       rawURL,
		Status:    models.TaskStatusPending,
		AudioOnly: opts.AudioOnly,
		Format:    opts.Format,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := s.history.Record(ctx, task.ID, rawURL); err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}

	logger.InfoWithFields("Task created", map[string]interface{}{
		"task_id": task.ID,
		"url":     rawURL,
	})
	return task, nil
}

// cachedTask returns the task behind a still-valid cache entry for key,
// or nil. Validity means the task is in success state and its file is
// still inside the download root on disk; a stale entry is treated as a
// miss and left for the next successful download to overwrite.
func (s *Task) cachedTask(ctx context.Context, key string) *models.Task {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("Cache lookup failed for %s: %v", key, err)
		return nil
	}
	if entry == nil {
		return nil
	}

	task, err := s.tasks.GetByID(ctx, entry.TaskID)
	if err != nil || task.Status != models.TaskStatusSuccess {
		return nil
	}
	result, err := task.DownloadResult()
	if err != nil || result == nil {
		return nil
	}
	if _, err := s.files.Resolve(result.Filepath); err != nil {
		return nil
	}
	return task
}

// Status returns the status shape for a task id
func (s *Task) Status(ctx context.Context, id string) (*TaskStatusInfo, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.statusInfo(task, task.URL), nil
}

// History returns up to limit recent submissions, most recent first,
// each joined with the live task status
func (s *Task) History(ctx context.Context, limit int) ([]TaskStatusInfo, error) {
	rows, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.TaskID
	}
	byID, err := s.tasks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	infos := make([]TaskStatusInfo, 0, len(rows))
	for _, row := range rows {
		task, ok := byID[row.TaskID]
		if !ok {
			// Ledger entry outlived its task; report it as unknown until
			// the next write prunes it.
			infos = append(infos, TaskStatusInfo{
				TaskID: row.TaskID,
				Status: models.TaskStatusUnknown,
				URL:    row.URL,
			})
			continue
		}
		infos = append(infos, *s.statusInfo(&task, row.URL))
	}
	return infos, nil
}

// Delete removes a task's backing file (if any), its history and cache
// references, and finally the task itself
func (s *Task) Delete(ctx context.Context, id string) error {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if result, rerr := task.DownloadResult(); rerr == nil && result != nil {
		if ferr := s.files.Remove(result.Filepath); ferr != nil {
			logger.Warnf("Failed to remove file for task %s: %v", id, ferr)
		}
	}
	if err := s.cache.DeleteByTaskID(ctx, id); err != nil {
		return fmt.Errorf("failed to remove cache references: %w", err)
	}
	if err := s.history.Evict(ctx, id); err != nil {
		return fmt.Errorf("failed to evict history entry: %w", err)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logger.Infof("Deleted task %s and its history, cache and file references", id)
	return nil
}

// Redownload invalidates the cached result for the task's canonical URL
// and submits it afresh. The original URL comes from the history ledger.
// An in-flight task for the same resource is not cancelled; whichever
// download finishes last owns the cache entry.
func (s *Task) Redownload(ctx context.Context, id string) (*models.Task, error) {
	origURL, err := s.history.GetURL(ctx, id)
	if err != nil {
		return nil, err
	}

	var opts downloader.Options
	prev, err := s.tasks.GetByID(ctx, id)
	if err == nil {
		opts = downloader.Options{AudioOnly: prev.AudioOnly, Format: prev.Format}
	}

	key := urlnorm.Normalize(origURL)
	if entry, cerr := s.cache.Get(ctx, key); cerr == nil && entry != nil {
		if old, terr := s.tasks.GetByID(ctx, entry.TaskID); terr == nil {
			if result, rerr := old.DownloadResult(); rerr == nil && result != nil {
				if ferr := s.files.Remove(result.Filepath); ferr != nil {
					logger.Warnf("Failed to remove stale file for %s: %v", entry.TaskID, ferr)
				}
			}
		}
		if derr := s.cache.Delete(ctx, key); derr != nil {
			return nil, fmt.Errorf("failed to invalidate cache entry: %w", derr)
		}
	}

	return s.Submit(ctx, origURL, opts)
}

// FileFor returns the validated absolute path and display name of a
// successful task's downloaded file. Tasks that are not successful, or
// whose file has since vanished, report ErrFileNotFound; a result path
// escaping the download root reports ErrForbiddenPath.
func (s *Task) FileFor(ctx context.Context, id string) (string, string, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if task.Status != models.TaskStatusSuccess {
		return "", "", ErrFileNotFound
	}
	result, err := task.DownloadResult()
	if err != nil || result == nil {
		return "", "", ErrFileNotFound
	}

	abs, err := s.files.Resolve(result.Filepath)
	if err != nil {
		return "", "", err
	}

	display := result.DisplayName
	if display == "" {
		display = fmt.Sprintf("%s.mp4", task.ID)
	}
	return abs, display, nil
}

func (s *Task) statusInfo(task *models.Task, origURL string) *TaskStatusInfo {
	info := &TaskStatusInfo{
		TaskID: task.ID,
		Status: task.Status,
		URL:    origURL,
	}
	switch task.Status {
	case models.TaskStatusSuccess:
		if result, err := task.DownloadResult(); err == nil && result != nil {
			info.Details = result
		}
		info.DownloadURL = fmt.Sprintf("/files/%s", task.ID)
	case models.TaskStatusFailure:
		info.Details = task.Error
	}
	return info
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
