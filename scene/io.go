package scene

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Save writes the scene to path as a single gob object graph.
func (s *Scene) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create scene file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encode scene %s: %w", path, err)
	}
	return nil
}

// Load reads a scene previously written by Save.
func Load(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene file: %w", err)
	}
	defer f.Close()
	var s Scene
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("loaded scene %s is inconsistent: %w", path, err)
	}
	return &s, nil
}
