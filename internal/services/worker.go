package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/downloader"
	"github.com/dlerhq/dler/internal/logger"
	"github.com/dlerhq/dler/internal/urlnorm"
)

// Worker defaults. The retry policy is bounded: three attempts with
// exponential backoff and full jitter, transient failures only.
const (
	DefaultPollInterval = time.Second
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = time.Minute
)

// WorkerConfig tunes the download worker loop
type WorkerConfig struct {
	// PollInterval is the sleep between empty queue polls
	PollInterval time.Duration
	// MaxAttempts caps executor invocations per task
	MaxAttempts int
	// RetryBackoff is the base delay for the exponential backoff
	RetryBackoff time.Duration
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	return c
}

// LaunchWorker runs a download worker until the context is cancelled.
// Workers claim pending tasks from the shared store, so any number of
// them can run across processes.
func LaunchWorker(ctx context.Context, wg *sync.WaitGroup, svc *Task, dl downloader.Downloader, cfg WorkerConfig) {
	defer wg.Done()
	cfg = cfg.withDefaults()

	logger.Info("Worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker received shutdown signal, stopping...")
			return
		default:
		}

		task, err := svc.tasks.ClaimNext(ctx)
		if err != nil {
			logger.Errorf("Worker error claiming task: %v", err)
			sleepCtx(ctx, cfg.PollInterval)
			continue
		}
		if task == nil {
			sleepCtx(ctx, cfg.PollInterval)
			continue
		}

		svc.Process(ctx, dl, task, cfg)
	}
}

// Process executes a claimed task: the executor runs under the bounded
// retry loop and the task is driven to its terminal state.
func (s *Task) Process(ctx context.Context, dl downloader.Downloader, task *models.Task, cfg WorkerConfig) {
	cfg = cfg.withDefaults()

	req := downloader.Request{
		TaskID: task.ID,
		URL:    task.URL,
		Options: downloader.Options{
			AudioOnly: task.AudioOnly,
			Format:    task.Format,
		},
	}

	var result *downloader.Result
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := s.tasks.SetAttempts(ctx, task.ID, attempt); err != nil {
			logger.Warnf("Failed to record attempt for task %s: %v", task.ID, err)
		}
		logger.InfoWithFields("Starting download", map[string]interface{}{
			"task_id": task.ID,
			"url":     task.URL,
			"attempt": attempt,
		})

		result, lastErr = dl.Download(ctx, req)
		if lastErr == nil {
			break
		}
		if downloader.IsPermanent(lastErr) {
			logger.Warnf("Task %s failed permanently: %v", task.ID, lastErr)
			break
		}
		logger.Warnf("Task %s attempt %d failed: %v", task.ID, attempt, lastErr)
		if attempt < cfg.MaxAttempts {
			if !sleepCtx(ctx, backoffDelay(cfg.RetryBackoff, attempt)) {
				break
			}
		}
	}

	if lastErr != nil {
		s.completeFailure(ctx, task, lastErr)
		return
	}
	s.completeSuccess(ctx, task, result)
}

// completeSuccess verifies the downloaded file, stores the result and
// publishes the task as the cached download for its canonical URL.
func (s *Task) completeSuccess(ctx context.Context, task *models.Task, result *downloader.Result) {
	// The file must be inside the download root and on disk before the
	// task may be marked successful.
	abs, err := s.files.Resolve(result.Filepath)
	if err != nil {
		logger.Errorf("Task %s produced an unusable file %s: %v", task.ID, result.Filepath, err)
		s.completeFailure(ctx, task, err)
		return
	}

	taskResult := &models.TaskResult{
		Filepath:    abs,
		DisplayName: result.DisplayName,
	}
	applied, err := s.tasks.Complete(ctx, task.ID, taskResult)
	if err != nil {
		logger.Errorf("Failed to complete task %s: %v", task.ID, err)
		return
	}
	if !applied {
		// Task was deleted or otherwise left processing while we worked;
		// nothing to publish.
		logger.Warnf("Task %s was not in processing state, skipping completion", task.ID)
		return
	}

	key := urlnorm.Normalize(task.URL)
	if err := s.cache.Put(ctx, key, task.ID); err != nil {
		logger.Errorf("Failed to update cache for task %s: %v", task.ID, err)
	}

	logger.InfoWithFields("Download successful", map[string]interface{}{
		"task_id":  task.ID,
		"filepath": abs,
	})
}

func (s *Task) completeFailure(ctx context.Context, task *models.Task, cause error) {
	applied, err := s.tasks.Fail(ctx, task.ID, cause.Error())
	if err != nil {
		logger.Errorf("Failed to mark task %s failed: %v", task.ID, err)
		return
	}
	if !applied {
		logger.Warnf("Task %s was not in processing state, skipping failure update", task.ID)
		return
	}
	logger.ErrorWithFields("Download failed", map[string]interface{}{
		"task_id": task.ID,
		"url":     task.URL,
		"error":   cause.Error(),
	})
}

// backoffDelay computes the exponential backoff with full jitter for the
// given attempt number (1-based)
func backoffDelay(base time.Duration, attempt int) time.Duration {
	max := base << (attempt - 1)
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)) + 1)
}

// sleepCtx sleeps for d unless the context is cancelled first. Returns
// false on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
