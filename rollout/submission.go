package rollout

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// WriteSubmission serializes a prediction shard to dir as "<name>_<rank>.gob".
// Rank keys the shard when several workers split the scenario set.
func WriteSubmission(pred Prediction, dir, name string, rank int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating submission dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.gob", name, rank))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating submission %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(pred); err != nil {
		return "", fmt.Errorf("encoding submission %s: %w", path, err)
	}
	logrus.WithFields(logrus.Fields{
		"path":      path,
		"scenarios": len(pred),
	}).Info("wrote submission shard")
	return path, nil
}

// LoadSubmission reads a prediction shard written by WriteSubmission.
func LoadSubmission(path string) (Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening submission %s: %w", path, err)
	}
	defer f.Close()
	var pred Prediction
	if err := gob.NewDecoder(f).Decode(&pred); err != nil {
		return nil, fmt.Errorf("decoding submission %s: %w", path, err)
	}
	return pred, nil
}
