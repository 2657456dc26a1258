package geom

import (
	"math"
	"testing"
)

func TestTemporalEdgeFeatureDims(t *testing.T) {
	src := Point3{X: 1, Y: 2, Z: 3}
	dst := Point3{X: 0, Y: 0, Z: 1}
	if got := len(TemporalEdgeFeature(src, dst, 0.1, 0.2, -3, 2)); got != 4 {
		t.Errorf("2D temporal feature has %d entries, want 4", got)
	}
	f := TemporalEdgeFeature(src, dst, 0.1, 0.2, -3, 3)
	if len(f) != 5 {
		t.Fatalf("3D temporal feature has %d entries, want 5", len(f))
	}
	if f[2] != 2 {
		t.Errorf("dz = %v, want 2", f[2])
	}
	if f[4] != -3 {
		t.Errorf("dt = %v, want -3", f[4])
	}
}

func TestTemporalEdgeFeatureBearing(t *testing.T) {
	// Source one unit ahead of a +x-facing query: bearing 0, distance 1.
	f := TemporalEdgeFeature(Point3{X: 1}, Point3{}, 0, 0, -1, 2)
	if math.Abs(f[0]-1) > 1e-12 {
		t.Errorf("dist = %v, want 1", f[0])
	}
	if math.Abs(f[1]) > 1e-12 {
		t.Errorf("bearing = %v, want 0", f[1])
	}
}

func TestMotionFeature(t *testing.T) {
	// Moving along the heading: speed 5, zero slip angle.
	f := MotionFeature(Point3{X: 3, Y: 4}, math.Atan2(4, 3), 4.5, 1.9, 1.6)
	if math.Abs(f[0]-5) > 1e-12 {
		t.Errorf("speed = %v, want 5", f[0])
	}
	if math.Abs(f[1]) > 1e-9 {
		t.Errorf("velocity bearing = %v, want 0", f[1])
	}
	if f[2] != 4.5 || f[3] != 1.9 || f[4] != 1.6 {
		t.Errorf("box dims = %v, want [4.5 1.9 1.6]", f[2:])
	}
}

func TestMapToAgentEdgeFeatureRelOrient(t *testing.T) {
	f := MapToAgentEdgeFeature(Point3{X: 1}, Point3{}, math.Pi/2, 0, 2)
	if math.Abs(f[2]-math.Pi/2) > 1e-12 {
		t.Errorf("relOrient = %v, want pi/2", f[2])
	}
}
