package scene

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testScene(3, 4)
	s.Type[1] = 2
	s.TargetMask[2] = true
	s.MapType[0] = 7
	s.MapMagnitude[1] = 1.5

	path := filepath.Join(t.TempDir(), "scene.gob")
	if err := s.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumAgents != s.NumAgents || got.NumSteps != s.NumSteps {
		t.Fatalf("loaded %dx%d, want %dx%d", got.NumAgents, got.NumSteps, s.NumAgents, s.NumSteps)
	}
	if got.Type[1] != 2 || !got.TargetMask[2] {
		t.Error("agent metadata lost in round trip")
	}
	if got.MapType[0] != 7 || got.MapMagnitude[1] != 1.5 {
		t.Error("map metadata lost in round trip")
	}
	if got.ScenarioIDs[0] != "test" {
		t.Errorf("scenario ID = %q, want %q", got.ScenarioIDs[0], "test")
	}
}

func TestDatasetGlobAndBatch(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"a.gob", "b.gob"} {
		s := testScene(2, 4)
		s.ScenarioIDs = []string{name}
		s.ID[0] = int64(i * 10)
		if err := s.Save(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	ds, err := NewDataset(filepath.Join(dir, "*.gob"))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ds.Len())
	}
	batch, err := ds.Batch([]int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if batch.NumScenes() != 2 || batch.NumAgents != 4 {
		t.Errorf("batch has %d scenes, %d agents; want 2 scenes, 4 agents", batch.NumScenes(), batch.NumAgents)
	}
}

func TestDatasetMissingPattern(t *testing.T) {
	if _, err := NewDataset(filepath.Join(t.TempDir(), "*.gob")); err == nil {
		t.Error("empty glob should error")
	}
}

func TestFlattenRequiresTargets(t *testing.T) {
	s := testScene(1, 4)
	if _, err := Flatten(s); err == nil {
		t.Error("flatten accepted a scene without targets")
	}
	s.BuildTargets()
	f, err := Flatten(s)
	if err != nil {
		t.Fatal(err)
	}
	if f.NumNodes != 4 || f.InputDim != 11 || f.LabelDim != ActionSteps*TargetDim {
		t.Errorf("flat dims = %d nodes x %d in x %d label", f.NumNodes, f.InputDim, f.LabelDim)
	}
	// Node 1 of the only agent: x position and validity flag.
	row := f.Inputs[1*f.InputDim : 2*f.InputDim]
	if row[10] != 1 {
		t.Error("valid flag not set")
	}
}
