package profile

import (
	"context"
	"sync"

	"github.com/alexbarra-hub/coachtully/internal/domain"
)

// MemoryStore is an in-process Store, used by tests and local development.
type MemoryStore struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: make(map[string]domain.UserProfile)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID], nil
}

func (s *MemoryStore) Update(_ context.Context, userID string, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.profiles[userID]
	if update.JobTitle != nil {
		p.JobTitle = *update.JobTitle
	}
	if update.CurrentGoal != nil {
		p.CurrentGoal = *update.CurrentGoal
	}
	if update.SkillsAssessed != nil {
		p.SkillsAssessed = *update.SkillsAssessed
	}
	if update.LastSessionSummary != nil {
		p.LastSessionSummary = *update.LastSessionSummary
	}
	s.profiles[userID] = p
	return nil
}
