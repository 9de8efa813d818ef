package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// storeFile is the on-disk layout of the scene store.
type storeFile struct {
	Scenes []Scene `json:"scenes"`
}

// loadStore reads the scenes saved at path. A missing file is an empty store.
func loadStore(path string) ([]Scene, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read scene store: %w", err)
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode scene store %s: %w", path, err)
	}
	for i := range f.Scenes {
		if f.Scenes[i].Children == nil {
			f.Scenes[i].Children = []string{}
		}
		if f.Scenes[i].RecentlyApplied == nil {
			f.Scenes[i].RecentlyApplied = []string{}
		}
	}
	return f.Scenes, nil
}

// writeStore writes to a temp file then renames it over path. An empty path
// keeps the store in memory only.
func writeStore(path string, scenes []Scene) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	if scenes == nil {
		scenes = []Scene{}
	}
	data, err := json.MarshalIndent(storeFile{Scenes: scenes}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write scene store: %w", err)
	}
	return os.Rename(tmp, path)
}
