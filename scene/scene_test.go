package scene

import (
	"testing"
)

func TestConcatOffsets(t *testing.T) {
	a := testScene(2, 4)
	b := testScene(3, 4)
	b.ScenarioIDs = []string{"other"}

	batch, err := Concat([]*Scene{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if batch.NumAgents != 5 || batch.NumScenes() != 2 {
		t.Fatalf("batch has %d agents over %d scenes, want 5 over 2", batch.NumAgents, batch.NumScenes())
	}
	wantPtr := []int{0, 2, 5}
	for i, w := range wantPtr {
		if batch.AgentPtr[i] != w {
			t.Errorf("AgentPtr = %v, want %v", batch.AgentPtr, wantPtr)
			break
		}
	}
	for a2 := 0; a2 < 2; a2++ {
		if batch.AgentBatch[a2] != 0 {
			t.Errorf("agent %d assigned to scene %d, want 0", a2, batch.AgentBatch[a2])
		}
	}
	for a2 := 2; a2 < 5; a2++ {
		if batch.AgentBatch[a2] != 1 {
			t.Errorf("agent %d assigned to scene %d, want 1", a2, batch.AgentBatch[a2])
		}
	}
	if batch.MapPtr[2] != len(batch.MapPosition) {
		t.Errorf("MapPtr end = %d, want %d", batch.MapPtr[2], len(batch.MapPosition))
	}
	if err := batch.Validate(); err != nil {
		t.Errorf("batch fails validation: %v", err)
	}
}

func TestConcatRejectsMismatchedSteps(t *testing.T) {
	a := testScene(2, 4)
	b := testScene(2, 5)
	if _, err := Concat([]*Scene{a, b}); err == nil {
		t.Error("concat accepted scenes with different step counts")
	}
}

func TestForceSimValidity(t *testing.T) {
	s := testScene(2, 6)
	const initSteps = 3
	// Agent 1 disappears before the boundary: it must not be simulated.
	s.Valid[1] = []bool{true, true, false, true, true, true}

	mask := s.ForceSimValidity(initSteps)
	if !mask[0] || mask[1] {
		t.Fatalf("evalMask = %v, want [true false]", mask)
	}
	for ts := initSteps; ts < 6; ts++ {
		if !s.Valid[0][ts] {
			t.Errorf("simulated agent invalid at step %d", ts)
		}
		if s.Valid[1][ts] {
			t.Errorf("unsimulated agent forced valid at step %d", ts)
		}
	}
	// History is untouched.
	if !s.Valid[1][0] || !s.Valid[1][1] || s.Valid[1][2] {
		t.Error("history validity was modified")
	}
}

func TestFreezeBoxDims(t *testing.T) {
	s := testScene(1, 4)
	for ts := 0; ts < 4; ts++ {
		s.Length[0][ts] = float64(ts)
	}
	s.FreezeBoxDims(2)
	for ts := 0; ts < 4; ts++ {
		if s.Length[0][ts] != 1 {
			t.Errorf("length at step %d = %v, want frozen value 1", ts, s.Length[0][ts])
		}
	}
}
