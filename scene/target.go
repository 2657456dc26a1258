package scene

import "github.com/wgangyiii/Scenario-Generation/geom"

// BuildTargets fills s.Target with the multi-horizon regression targets used
// by the training and validation steps. For every agent, anchor timestep t
// and look-ahead offset k in [0, ActionSteps), the target row holds the
// displacement and velocity at t+k+1 rotated into the agent's local frame at
// t, the raw vertical offset, and the wrapped relative heading:
//
//	[dx_local, dy_local, dz, vx_local, vy_local, dtheta]
//
// Entries whose anchor or target timestep is invalid, or whose target
// timestep falls past the horizon, stay zero; the loss masks them out.
func (s *Scene) BuildTargets() {
	s.Target = make([][][][]float64, s.NumAgents)
	for a := 0; a < s.NumAgents; a++ {
		s.Target[a] = make([][][]float64, s.NumSteps)
		for t := 0; t < s.NumSteps; t++ {
			s.Target[a][t] = make([][]float64, ActionSteps)
			for k := 0; k < ActionSteps; k++ {
				row := make([]float64, TargetDim)
				s.Target[a][t][k] = row
				u := t + k + 1
				if u >= s.NumSteps || !s.Valid[a][t] || !s.Valid[a][u] {
					continue
				}
				theta := s.Heading[a][t]
				dx := s.Position[a][u].X - s.Position[a][t].X
				dy := s.Position[a][u].Y - s.Position[a][t].Y
				row[0], row[1] = geom.RotateToLocal(dx, dy, theta)
				row[2] = s.Position[a][u].Z - s.Position[a][t].Z
				row[3], row[4] = geom.RotateToLocal(s.Velocity[a][u].X, s.Velocity[a][u].Y, theta)
				row[5] = geom.WrapAngle(s.Heading[a][u] - s.Heading[a][t])
			}
		}
	}
}
