package storage

import (
	"context"
	"sort"
	"sync"

	"trilemma/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	tournaments map[string]model.Tournament
	standings   map[string][]model.Standing
	matches     map[string][]model.Match
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.tournaments = make(map[string]model.Tournament)
	s.standings = make(map[string][]model.Standing)
	s.matches = make(map[string][]model.Match)
	return nil
}

func (s *MemoryStore) SaveTournament(_ context.Context, t model.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.tournaments[t.ID] = cloneTournament(t)
	return nil
}

func (s *MemoryStore) GetTournament(_ context.Context, id string) (model.Tournament, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return model.Tournament{}, false, ErrNotInitialized
	}
	t, ok := s.tournaments[id]
	if !ok {
		return model.Tournament{}, false, nil
	}
	return cloneTournament(t), true, nil
}

func (s *MemoryStore) ListTournaments(_ context.Context, limit int) ([]model.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]model.Tournament, 0, len(s.tournaments))
	for _, t := range s.tournaments {
		out = append(out, cloneTournament(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) SaveStandings(_ context.Context, runID string, standings []model.Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.standings[runID] = append([]model.Standing(nil), standings...)
	return nil
}

func (s *MemoryStore) GetStandings(_ context.Context, runID string) ([]model.Standing, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	standings, ok := s.standings[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Standing(nil), standings...), true, nil
}

func (s *MemoryStore) SaveMatches(_ context.Context, runID string, matches []model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	s.matches[runID] = append([]model.Match(nil), matches...)
	return nil
}

func (s *MemoryStore) GetMatches(_ context.Context, runID string) ([]model.Match, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, false, ErrNotInitialized
	}
	matches, ok := s.matches[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.Match(nil), matches...), true, nil
}

func (s *MemoryStore) DeleteTournament(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	delete(s.tournaments, id)
	delete(s.standings, id)
	delete(s.matches, id)
	return nil
}

func cloneTournament(t model.Tournament) model.Tournament {
	t.Roster = append([]model.RosterGroup(nil), t.Roster...)
	return t
}
