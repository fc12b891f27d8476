package activities

import (
	"context"
	"sync"

	apperrors "activities-service/internal/common/errors"
)

// MemoryStore is the process-local registry.
type MemoryStore struct {
	mu         sync.RWMutex
	activities map[string]*Activity
	opts       Options
}

// NewMemoryStore builds a store holding copies of seed.
func NewMemoryStore(seed []Activity, opts Options) *MemoryStore {
	m := make(map[string]*Activity, len(seed))
	for _, a := range seed {
		c := a.Clone()
		m[a.Name] = &c
	}
	return &MemoryStore{activities: m, opts: opts}
}

func (s *MemoryStore) List(_ context.Context) (Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Registry, len(s.activities))
	for name, a := range s.activities {
		out[name] = a.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Signup(_ context.Context, activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[activity]
	if !ok {
		return apperrors.NewActivityNotFoundError(activity)
	}
	if a.HasParticipant(email) {
		return apperrors.NewAlreadySignedUpError(activity, email)
	}
	if s.opts.EnforceCapacity && a.SpotsLeft() == 0 {
		return apperrors.NewActivityFullError(activity, a.MaxParticipants)
	}

	a.Participants = append(a.Participants, email)
	return nil
}

func (s *MemoryStore) Unregister(_ context.Context, activity, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[activity]
	if !ok {
		return apperrors.NewActivityNotFoundError(activity)
	}
	i := indexOf(a.Participants, email)
	if i < 0 {
		return apperrors.NewParticipantNotFoundError(activity, email)
	}

	a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
