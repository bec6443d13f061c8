package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"trilemma/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveTournament(ctx context.Context, t model.Tournament) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTournament(t)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tournaments (id, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, t.ID, t.CreatedAtUTC, t.SchemaVersion, t.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetTournament(ctx context.Context, id string) (model.Tournament, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Tournament{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM tournaments WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tournament{}, false, nil
		}
		return model.Tournament{}, false, err
	}

	t, err := DecodeTournament(payload)
	if err != nil {
		return model.Tournament{}, false, fmt.Errorf("decode tournament %s: %w", id, err)
	}
	return t, true, nil
}

func (s *SQLiteStore) ListTournaments(ctx context.Context, limit int) ([]model.Tournament, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, payload FROM tournaments
		ORDER BY created_at_utc DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Tournament, 0, 16)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		t, err := DecodeTournament(payload)
		if err != nil {
			return nil, fmt.Errorf("decode tournament %s: %w", id, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveStandings(ctx context.Context, runID string, standings []model.Standing) error {
	payload, err := EncodeStandings(runID, standings)
	if err != nil {
		return err
	}
	return s.putRunPayload(ctx, "standings", runID, payload)
}

func (s *SQLiteStore) GetStandings(ctx context.Context, runID string) ([]model.Standing, bool, error) {
	payload, ok, err := s.getRunPayload(ctx, "standings", runID)
	if err != nil || !ok {
		return nil, ok, err
	}
	standings, err := DecodeStandings(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode standings %s: %w", runID, err)
	}
	return standings, true, nil
}

func (s *SQLiteStore) SaveMatches(ctx context.Context, runID string, matches []model.Match) error {
	payload, err := EncodeMatches(runID, matches)
	if err != nil {
		return err
	}
	return s.putRunPayload(ctx, "matches", runID, payload)
}

func (s *SQLiteStore) GetMatches(ctx context.Context, runID string) ([]model.Match, bool, error) {
	payload, ok, err := s.getRunPayload(ctx, "matches", runID)
	if err != nil || !ok {
		return nil, ok, err
	}
	matches, err := DecodeMatches(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode matches %s: %w", runID, err)
	}
	return matches, true, nil
}

func (s *SQLiteStore) DeleteTournament(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM matches WHERE run_id = ?`,
		`DELETE FROM standings WHERE run_id = ?`,
		`DELETE FROM tournaments WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// putRunPayload upserts into one of the run-keyed tables. table is never
// user input.
func (s *SQLiteStore) putRunPayload(ctx context.Context, table, runID string, payload []byte) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO `+table+` (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) getRunPayload(ctx context.Context, table, runID string) ([]byte, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM `+table+` WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tournaments (
			id TEXT PRIMARY KEY,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS standings (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS matches (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
	`)
	return err
}
