package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
)

// SnapshotStore persists the engine's learned state as a JSON document.
// Saves replace the prior snapshot atomically (write to a temp file in the
// same directory, then rename); loads treat a missing or corrupt snapshot
// as absent and return empty defaults, never an error.
type SnapshotStore struct {
	path   string
	logger *log.Logger
}

// NewSnapshotStore creates a store writing to path.
func NewSnapshotStore(path string, logger *log.Logger) *SnapshotStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SnapshotStore{path: path, logger: logger}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Save writes the document, replacing any prior snapshot atomically.
func (s *SnapshotStore) Save(doc models.SnapshotDocument) error {
	data, err := shared.MarshalJSON(doc, true)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".playdex_snapshot_*")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to swap snapshot: %w", err)
	}

	return nil
}

// Load reads the snapshot. A missing file loads as an empty document; a
// corrupt one is logged and also loads as empty, so a damaged snapshot can
// never take the session down.
func (s *SnapshotStore) Load() (models.SnapshotDocument, error) {
	var doc models.SnapshotDocument

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot unreadable, starting empty", "path", s.path, "err", err)
		}
		return emptyDocument(), nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("snapshot corrupt, starting empty", "path", s.path, "err", err)
		return emptyDocument(), nil
	}

	if doc.Videos == nil {
		doc.Videos = make(map[string]models.Video)
	}
	if doc.Playlists == nil {
		doc.Playlists = make(map[string]models.Playlist)
	}

	return doc, nil
}

func emptyDocument() models.SnapshotDocument {
	return models.SnapshotDocument{
		Videos:    make(map[string]models.Video),
		Playlists: make(map[string]models.Playlist),
	}
}
