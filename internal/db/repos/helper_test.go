package repos

import (
	"context"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dlerhq/dler/internal/db/models"
)

// RepositoryTestSuite provides a base test suite backed by an in-memory
// database for repository tests
type RepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	ctx         context.Context
	taskRepo    *TaskRepository
	historyRepo *HistoryRepository
	cacheRepo   *CacheRepository
}

func (s *RepositoryTestSuite) SetupTest() {
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

	s.db = db
	s.taskRepo = NewTaskRepository(db)
	s.historyRepo = NewHistoryRepository(db, 0)
	s.cacheRepo = NewCacheRepository(db)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// createTestTask creates a pending task for the given URL
func (s *RepositoryTestSuite) createTestTask(url string) *models.Task {
	task := &models.Task{URL: url}
	err := s.taskRepo.Create(s.ctx, task)
	s.Require().NoError(err)
	return task
}
