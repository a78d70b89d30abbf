package store

import (
	"encoding/json"
	"fmt"
	"time"

	"admin-store/internal/models"

	"go.uber.org/zap"
)

const snapshotVersion = 1

// actionImport replaces collections and settings from a snapshot; it is only
// reachable through ImportData.
const actionImport ActionType = "IMPORT_DATA"

// Snapshot is the exported form of the store
type Snapshot struct {
	Version     int             `json:"version"`
	ExportedAt  time.Time       `json:"exported_at"`
	Collections Collections     `json:"collections"`
	Settings    models.Settings `json:"settings"`
	LastUpdated time.Time       `json:"last_updated"`
}

// ExportData serializes every collection and the settings as indented JSON
func (s *Store) ExportData() (string, error) {
	st := s.State()
	snap := Snapshot{
		Version:     snapshotVersion,
		ExportedAt:  s.now(),
		Collections: st.Collections,
		Settings:    st.Settings,
		LastUpdated: st.LastUpdated,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return string(data), nil
}

// ImportData replaces collections and settings with an exported snapshot.
// It fails closed: on any error it returns false and the state is unchanged.
// A snapshot without settings imports with the default settings.
func (s *Store) ImportData(data string) bool {
	var parts struct {
		Collections json.RawMessage `json:"collections"`
		Settings    json.RawMessage `json:"settings"`
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		s.logger.Warn("Import rejected: invalid JSON", zap.Error(err))
		return false
	}
	if snap.Version < 1 || snap.Version > snapshotVersion {
		s.logger.Warn("Import rejected: unsupported snapshot version", zap.Int("version", snap.Version))
		return false
	}
	if err := json.Unmarshal([]byte(data), &parts); err != nil || isAbsent(parts.Collections) {
		s.logger.Warn("Import rejected: snapshot has no collections")
		return false
	}
	if isAbsent(parts.Settings) {
		snap.Settings = models.DefaultSettings()
	}
	snap.Collections = snap.Collections.withEmptyDefaults()

	_, err := s.Dispatch(Action{Type: actionImport, Payload: snap})
	return err == nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
