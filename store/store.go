package store

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/linguasense/internal/profile"
	"github.com/hrygo/linguasense/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// learnerCache caches learner rows; prompt assembly reads the profile on
	// every call, so this is the hottest read path.
	learnerCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		learnerCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.learnerCache.Close()
	return s.driver.Close()
}

func (s *Store) CreateLearner(ctx context.Context, create *Learner) (*Learner, error) {
	learner, err := s.driver.CreateLearner(ctx, create)
	if err != nil {
		return nil, err
	}
	s.learnerCache.Set(learnerCacheKey(learner.ID), learner)
	return learner, nil
}

// GetLearner returns a single learner or nil when absent.
func (s *Store) GetLearner(ctx context.Context, find *FindLearner) (*Learner, error) {
	if find.ID != nil {
		if v, ok := s.learnerCache.Get(learnerCacheKey(*find.ID)); ok {
			if learner, ok := v.(*Learner); ok {
				return learner, nil
			}
		}
	}

	// Copy the find so the caller's struct is not mutated.
	f := *find
	limit := 1
	f.Limit = &limit
	list, err := s.driver.ListLearners(ctx, &f)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	learner := list[0]
	s.learnerCache.Set(learnerCacheKey(learner.ID), learner)
	return learner, nil
}

func (s *Store) ListLearners(ctx context.Context, find *FindLearner) ([]*Learner, error) {
	return s.driver.ListLearners(ctx, find)
}

func (s *Store) UpdateLearner(ctx context.Context, update *UpdateLearner) (*Learner, error) {
	learner, err := s.driver.UpdateLearner(ctx, update)
	if err != nil {
		return nil, err
	}
	s.learnerCache.Set(learnerCacheKey(learner.ID), learner)
	return learner, nil
}

func (s *Store) DeleteLearner(ctx context.Context, delete *DeleteLearner) error {
	if err := s.driver.DeleteLearner(ctx, delete); err != nil {
		return err
	}
	s.learnerCache.Delete(learnerCacheKey(delete.ID))
	return nil
}

func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}

func (s *Store) UpsertProgress(ctx context.Context, upsert *UpsertProgress) (*Progress, error) {
	return s.driver.UpsertProgress(ctx, upsert)
}

func (s *Store) GetProgress(ctx context.Context, find *FindProgress) (*Progress, error) {
	return s.driver.GetProgress(ctx, find)
}

func (s *Store) ResetWeeklyProgress(ctx context.Context, reset *ResetWeeklyProgress) error {
	return s.driver.ResetWeeklyProgress(ctx, reset)
}

func learnerCacheKey(id int32) string {
	return fmt.Sprintf("learner:%d", id)
}
