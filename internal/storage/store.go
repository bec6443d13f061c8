package storage

import (
	"context"
	"errors"

	"trilemma/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists completed tournaments together with their standings and
// optional per-match records.
type Store interface {
	Init(ctx context.Context) error
	SaveTournament(ctx context.Context, t model.Tournament) error
	GetTournament(ctx context.Context, id string) (model.Tournament, bool, error)
	// ListTournaments returns the newest tournaments first. limit <= 0
	// returns all of them.
	ListTournaments(ctx context.Context, limit int) ([]model.Tournament, error)
	SaveStandings(ctx context.Context, runID string, standings []model.Standing) error
	GetStandings(ctx context.Context, runID string) ([]model.Standing, bool, error)
	SaveMatches(ctx context.Context, runID string, matches []model.Match) error
	GetMatches(ctx context.Context, runID string) ([]model.Match, bool, error)
	DeleteTournament(ctx context.Context, id string) error
}
