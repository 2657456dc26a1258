package rollout

import (
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/wgangyiii/Scenario-Generation/geom"
	"github.com/wgangyiii/Scenario-Generation/graph"
	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

const (
	testInitSteps    = 1
	testRolloutSteps = 10
	testSteps        = testInitSteps + testRolloutSteps
)

func testModel(t *testing.T, seed int64) (*model.Decoder, *model.Head) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	dec, err := model.NewDecoder(model.Config{
		InputDim:     2,
		HiddenDim:    8,
		NumSteps:     testSteps,
		TimeSpan:     5,
		NumM2ANbrs:   2,
		NumA2ANbrs:   2,
		NumFreqBands: 2,
		NumLayers:    1,
		NumHeads:     2,
		HeadDim:      4,
	}, graph.NewNeighborSearch(), rng)
	if err != nil {
		t.Fatal(err)
	}
	head := model.NewHead(model.HeadConfig{
		HiddenDim:      8,
		PosDim:         2,
		VelDim:         2,
		ThetaDim:       1,
		NumModes:       2,
		NumActionSteps: scene.ActionSteps,
	}, rng)
	return dec, head
}

func testConfig() Config {
	return Config{
		NumInitSteps:    testInitSteps,
		NumRolloutSteps: testRolloutSteps,
		NumActionSteps:  scene.ActionSteps,
		NumSamples:      2,
		PosDim:          2,
		VelDim:          2,
		ThetaDim:        1,
	}
}

func rolloutScene() *scene.Scene {
	s := scene.New("rollout", 2, testSteps, 2)
	for a := 0; a < 2; a++ {
		s.ID[a] = int64(a + 1)
		for t := 0; t < testSteps; t++ {
			s.Position[a][t] = geom.Point3{X: float64(t), Y: float64(a) * 4, Z: 0.5}
			s.Velocity[a][t] = geom.Point3{X: 10}
			s.Length[a][t] = 4.5
			s.Width[a][t] = 1.9
			s.Height[a][t] = 1.6
			s.Valid[a][t] = true
		}
	}
	s.MapPosition[0] = geom.Point3{X: 0, Y: 2}
	s.MapPosition[1] = geom.Point3{X: 5, Y: 2}
	s.MapMagnitude[0] = 1
	s.MapMagnitude[1] = 1
	return s
}

func TestSimulatorRejectsBadHorizon(t *testing.T) {
	dec, head := testModel(t, 1)
	cfg := testConfig()
	cfg.NumRolloutSteps = 7 // not a multiple of the chunk size
	if _, err := NewSimulator(cfg, dec, head, 1); err == nil {
		t.Error("simulator accepted a horizon that does not divide into chunks")
	}
	cfg = testConfig()
	cfg.NumInitSteps = 2 // init + rollout no longer matches the decoder
	if _, err := NewSimulator(cfg, dec, head, 1); err == nil {
		t.Error("simulator accepted a horizon longer than the decoder's")
	}
}

func TestRunPreservesHistory(t *testing.T) {
	dec, head := testModel(t, 2)
	sim, err := NewSimulator(testConfig(), dec, head, 11)
	if err != nil {
		t.Fatal(err)
	}
	s := rolloutScene()
	wantPos := s.Position[0][0]
	wantHead := s.Heading[0][0]
	if _, err := sim.Run(s); err != nil {
		t.Fatal(err)
	}
	if s.Position[0][0] != wantPos || s.Heading[0][0] != wantHead {
		t.Error("observed history was modified by the rollout")
	}
}

func TestRunShapes(t *testing.T) {
	dec, head := testModel(t, 3)
	sim, err := NewSimulator(testConfig(), dec, head, 12)
	if err != nil {
		t.Fatal(err)
	}
	pred, err := sim.Run(rolloutScene())
	if err != nil {
		t.Fatal(err)
	}
	agents, ok := pred["rollout"]
	if !ok {
		t.Fatalf("prediction keys = %v, want scenario \"rollout\"", pred)
	}
	if len(agents) != 2 {
		t.Fatalf("got %d simulated agents, want 2", len(agents))
	}
	for id, samples := range agents {
		if len(samples) != 2 {
			t.Fatalf("agent %d has %d samples, want 2", id, len(samples))
		}
		for _, traj := range samples {
			if len(traj) != testRolloutSteps {
				t.Fatalf("agent %d trajectory has %d steps, want %d", id, len(traj), testRolloutSteps)
			}
		}
	}
	// PosDim 2 holds z at its value from the last observed step.
	for _, row := range agents[1][0] {
		if row[2] != 0.5 {
			t.Errorf("z = %v, want held at 0.5", row[2])
		}
	}
}

func TestRunKeepsVerticalVelocity(t *testing.T) {
	dec, head := testModel(t, 6)
	sim, err := NewSimulator(testConfig(), dec, head, 13)
	if err != nil {
		t.Fatal(err)
	}
	s := rolloutScene()
	for a := 0; a < s.NumAgents; a++ {
		for ts := 0; ts < testSteps; ts++ {
			s.Velocity[a][ts].Z = 0.25
		}
	}
	if _, err := sim.Run(s); err != nil {
		t.Fatal(err)
	}
	for ts := testInitSteps; ts < testSteps; ts++ {
		if s.Velocity[0][ts].Z != 0.25 {
			t.Fatalf("z velocity at step %d = %v, want untouched 0.25", ts, s.Velocity[0][ts].Z)
		}
	}
}

func TestRunDeterministicBySeed(t *testing.T) {
	decA, headA := testModel(t, 4)
	decB, headB := testModel(t, 4)

	simA, err := NewSimulator(testConfig(), decA, headA, 99)
	if err != nil {
		t.Fatal(err)
	}
	simB, err := NewSimulator(testConfig(), decB, headB, 99)
	if err != nil {
		t.Fatal(err)
	}
	predA, err := simA.Run(rolloutScene())
	if err != nil {
		t.Fatal(err)
	}
	predB, err := simB.Run(rolloutScene())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(predA, predB) {
		t.Error("same seed produced different rollouts")
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	dec, head := testModel(t, 5)
	sim, err := NewSimulator(testConfig(), dec, head, 7)
	if err != nil {
		t.Fatal(err)
	}
	pred, err := sim.Run(rolloutScene())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path, err := WriteSubmission(pred, dir, "rollouts", 3)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "rollouts_3.gob" {
		t.Errorf("shard name = %s, want rollouts_3.gob", filepath.Base(path))
	}
	got, err := LoadSubmission(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, pred) {
		t.Error("submission changed in round trip")
	}
}
