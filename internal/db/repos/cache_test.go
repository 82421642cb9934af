package repos

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CacheRepositoryTestSuite struct {
	RepositoryTestSuite
}

func (s *CacheRepositoryTestSuite) TestGetMiss() {
	entry, err := s.cacheRepo.Get(s.ctx, "https://video.example/watch?v=abc")
	s.Require().NoError(err)
	s.Require().Nil(entry)
}

func (s *CacheRepositoryTestSuite) TestPutAndGet() {
	key := "https://video.example/watch?v=abc"
	s.Require().NoError(s.cacheRepo.Put(s.ctx, key, "t1"))

	entry, err := s.cacheRepo.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Require().NotNil(entry)
	s.Require().Equal("t1", entry.TaskID)
}

func (s *CacheRepositoryTestSuite) TestPutOverwrites() {
	key := "https://video.example/watch?v=abc"
	s.Require().NoError(s.cacheRepo.Put(s.ctx, key, "t1"))
	s.Require().NoError(s.cacheRepo.Put(s.ctx, key, "t2"))

	entry, err := s.cacheRepo.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Require().Equal("t2", entry.TaskID, "last writer must own the key")
}

func (s *CacheRepositoryTestSuite) TestDelete() {
	key := "https://video.example/watch?v=abc"
	s.Require().NoError(s.cacheRepo.Put(s.ctx, key, "t1"))
	s.Require().NoError(s.cacheRepo.Delete(s.ctx, key))

	entry, err := s.cacheRepo.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Require().Nil(entry)

	// Deleting an absent key is not an error
	s.Require().NoError(s.cacheRepo.Delete(s.ctx, key))
}

func (s *CacheRepositoryTestSuite) TestDeleteByTaskID() {
	s.Require().NoError(s.cacheRepo.Put(s.ctx, "k1", "t1"))
	s.Require().NoError(s.cacheRepo.Put(s.ctx, "k2", "t1"))
	s.Require().NoError(s.cacheRepo.Put(s.ctx, "k3", "t2"))

	s.Require().NoError(s.cacheRepo.DeleteByTaskID(s.ctx, "t1"))

	for _, key := range []string{"k1", "k2"} {
		entry, err := s.cacheRepo.Get(s.ctx, key)
		s.Require().NoError(err)
		s.Require().Nil(entry)
	}
	entry, err := s.cacheRepo.Get(s.ctx, "k3")
	s.Require().NoError(err)
	s.Require().NotNil(entry)
}

func TestCacheRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CacheRepositoryTestSuite))
}
