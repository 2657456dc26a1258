package model

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/wgangyiii/Scenario-Generation/graph"
)

func init() {
	// Layer fields are interface-typed; the concrete type must be registered
	// for gob to round-trip them.
	gob.Register(&EdgeAttention{})
}

// Checkpoint bundles the decoder and head parameters for serialization.
type Checkpoint struct {
	Decoder *Decoder
	Head    *Head
}

// SaveCheckpoint writes the model parameters to path with gob.
func SaveCheckpoint(path string, dec *Decoder, head *Head) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating checkpoint %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(&Checkpoint{Decoder: dec, Head: head}); err != nil {
		return fmt.Errorf("encoding checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint reads model parameters from path. The neighbor-search
// implementation is not serialized, so the decoder comes back wired to the
// default k-d tree search; use SetNeighborSearch to override.
func LoadCheckpoint(path string) (*Decoder, *Head, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening checkpoint %s: %w", path, err)
	}
	defer f.Close()
	var ck Checkpoint
	if err := gob.NewDecoder(f).Decode(&ck); err != nil {
		return nil, nil, fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}
	if ck.Decoder == nil || ck.Head == nil {
		return nil, nil, fmt.Errorf("checkpoint %s is incomplete", path)
	}
	ck.Decoder.SetNeighborSearch(graph.NewNeighborSearch())
	return ck.Decoder, ck.Head, nil
}
