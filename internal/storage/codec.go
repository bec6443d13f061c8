package storage

import (
	"encoding/json"
	"errors"

	"trilemma/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeTournament(t model.Tournament) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTournament(data []byte) (model.Tournament, error) {
	var t model.Tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return model.Tournament{}, err
	}
	if err := checkVersion(t.VersionedRecord); err != nil {
		return model.Tournament{}, err
	}
	return t, nil
}

func EncodeStandings(runID string, standings []model.Standing) ([]byte, error) {
	return json.Marshal(model.StandingsRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Standings:       standings,
	})
}

func DecodeStandings(data []byte) ([]model.Standing, error) {
	var record model.StandingsRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return nil, err
	}
	return record.Standings, nil
}

func EncodeMatches(runID string, matches []model.Match) ([]byte, error) {
	return json.Marshal(model.MatchesRecord{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		Matches:         matches,
	})
}

func DecodeMatches(data []byte) ([]model.Match, error) {
	var record model.MatchesRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return nil, err
	}
	return record.Matches, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
