package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SchemaVersion tags the on-disk allocation table. Migrations are out of
// scope: a mismatch is an error, not a silent upgrade.
const SchemaVersion = 1

var ErrSchemaVersion = errors.New("aid store schema version mismatch")

type storeFile struct {
	Version int      `json:"version"`
	Data    aidTable `json:"data"`
}

type aidTable struct {
	UniqueIDs map[string]uint64 `json:"unique_ids"`
}

// JSONAidStore persists the allocation table as a versioned JSON file.
type JSONAidStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONAidStore(path string) *JSONAidStore {
	return &JSONAidStore{path: path}
}

func (s *JSONAidStore) Load() (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]uint64{}, nil
		}
		return nil, err
	}

	var file storeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	if file.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchemaVersion, file.Version, SchemaVersion)
	}
	if file.Data.UniqueIDs == nil {
		return map[string]uint64{}, nil
	}
	return file.Data.UniqueIDs, nil
}

func (s *JSONAidStore) Save(allocations map[string]uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := storeFile{Version: SchemaVersion, Data: aidTable{UniqueIDs: allocations}}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
