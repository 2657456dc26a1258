package geom

import "math"

// Point3 is a 3D point (x,y,z). For 2D configurations Z is carried but unused
// by planar computations.
type Point3 struct {
	X float64
	Y float64
	Z float64
}

// PlanarDist returns the Euclidean distance between a and b in the x-y plane.
func PlanarDist(a, b Point3) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// PlanarNorm returns the length of p's x-y component.
func PlanarNorm(p Point3) float64 {
	return math.Hypot(p.X, p.Y)
}

// WrapAngle wraps theta into (-pi, pi]. For every theta the result is
// congruent to theta modulo 2*pi.
func WrapAngle(theta float64) float64 {
	r := math.Mod(theta+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	return r - math.Pi
}

// AngleBetween2D returns the signed angle of nbr measured against ctr, using
// the cross/dot formulation so the result stays continuous near +-pi. ctr is
// typically a unit heading vector; nbr need not be normalized.
func AngleBetween2D(ctrX, ctrY, nbrX, nbrY float64) float64 {
	cross := ctrX*nbrY - ctrY*nbrX
	dot := ctrX*nbrX + ctrY*nbrY
	return math.Atan2(cross, dot)
}

// HeadingVector returns the unit vector (cos theta, sin theta).
func HeadingVector(theta float64) (x, y float64) {
	return math.Cos(theta), math.Sin(theta)
}

// RotateToLocal rotates the global-frame planar vector (vx, vy) into the
// local frame of a node with heading theta.
func RotateToLocal(vx, vy, theta float64) (lx, ly float64) {
	cos, sin := math.Cos(theta), math.Sin(theta)
	return vx*cos + vy*sin, -vx*sin + vy*cos
}

// RotateToGlobal is the inverse of RotateToLocal: it rotates a local-frame
// planar vector back into the global frame.
func RotateToGlobal(lx, ly, theta float64) (vx, vy float64) {
	cos, sin := math.Cos(theta), math.Sin(theta)
	return lx*cos - ly*sin, lx*sin + ly*cos
}
