package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dlerhq/dler/internal/db/models"
	"github.com/dlerhq/dler/internal/db/repos"
	"github.com/dlerhq/dler/internal/downloader"
)

// fakeDownloader is a scripted executor: it fails with the queued errors
// first, then succeeds by writing a file into dir.
type fakeDownloader struct {
	mu    sync.Mutex
	dir   string
	errs  []error
	calls int
}

func (f *fakeDownloader) Download(_ context.Context, req downloader.Request) (*downloader.Result, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()

	if n <= len(f.errs) {
		return nil, f.errs[n-1]
	}

	path := filepath.Join(f.dir, req.TaskID+".mp4")
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return nil, err
	}
	return &downloader.Result{Filepath: path, DisplayName: "My Video.mp4"}, nil
}

func (f *fakeDownloader) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ServiceTestSuite wires the task service against an in-memory database
// and a temp download root
type ServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	svc      *Task
	files    *FileGateway
	dl       *fakeDownloader
	taskRepo *repos.TaskRepository
	workCfg  WorkerConfig
}

func (s *ServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(
		&models.Task{},
		&models.HistoryEntry{},
		&models.HistoryDetail{},
		&models.CacheEntry{},
	)
	require.NoError(s.T(), err, "Failed to run database migrations")

	root := s.T().TempDir()
	files, err := NewFileGateway(root)
	require.NoError(s.T(), err)

	s.db = db
	s.ctx = context.Background()
	s.files = files
	s.taskRepo = repos.NewTaskRepository(db)
	s.svc = NewTaskService(
		s.taskRepo,
		repos.NewHistoryRepository(db, 0),
		repos.NewCacheRepository(db),
		files,
	)
	s.dl = &fakeDownloader{dir: root}
	s.workCfg = WorkerConfig{PollInterval: time.Millisecond, MaxAttempts: 3, RetryBackoff: time.Millisecond}
}

func (s *ServiceTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// runPending claims and processes tasks until the queue drains
func (s *ServiceTestSuite) runPending() {
	for {
		task, err := s.taskRepo.ClaimNext(s.ctx)
		s.Require().NoError(err)
		if task == nil {
			return
		}
		s.svc.Process(s.ctx, s.dl, task, s.workCfg)
	}
}
