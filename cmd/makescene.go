package cmd

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wgangyiii/Scenario-Generation/geom"
	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

var (
	makeCount     int
	makeAgents    int
	makeMapPoints int
	makeOutDir    string
)

var makesceneCmd = &cobra.Command{
	Use:   "makescene",
	Short: "Generate synthetic constant-velocity scenes for smoke testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(makeOutDir, 0o755); err != nil {
			return err
		}
		rng := rand.New(rand.NewSource(seed))
		for i := 0; i < makeCount; i++ {
			sid := fmt.Sprintf("synthetic_%04d", i)
			s := syntheticScene(sid, makeAgents, cfg.Horizon.NumSteps, makeMapPoints, rng)
			path := filepath.Join(makeOutDir, sid+".gob")
			if err := s.Save(path); err != nil {
				return err
			}
		}
		logrus.WithFields(logrus.Fields{
			"count": makeCount,
			"dir":   makeOutDir,
		}).Info("synthetic scenes written")
		return nil
	},
}

// syntheticScene builds one scene of agents driving straight at constant
// speed, with map points scattered along their lanes.
func syntheticScene(sid string, numAgents, numSteps, numMapPoints int, rng *rand.Rand) *scene.Scene {
	const dt = 0.1
	s := scene.New(sid, numAgents, numSteps, numMapPoints)
	for a := 0; a < numAgents; a++ {
		x0 := rng.Float64()*100 - 50
		y0 := rng.Float64()*100 - 50
		head := rng.Float64()*2*math.Pi - math.Pi
		speed := 2 + rng.Float64()*13
		vx, vy := geom.HeadingVector(head)
		s.Type[a] = rng.Intn(3)
		s.ID[a] = int64(1000 + a)
		s.TargetMask[a] = a < 2
		for t := 0; t < numSteps; t++ {
			s.Position[a][t] = geom.Point3{X: x0 + vx*speed*dt*float64(t), Y: y0 + vy*speed*dt*float64(t)}
			s.Heading[a][t] = head
			s.Velocity[a][t] = geom.Point3{X: vx * speed, Y: vy * speed}
			s.Length[a][t] = 4.5
			s.Width[a][t] = 1.9
			s.Height[a][t] = 1.6
			s.Valid[a][t] = true
		}
	}
	for m := 0; m < numMapPoints; m++ {
		a := rng.Intn(numAgents)
		t := rng.Intn(numSteps)
		jx := rng.NormFloat64() * 2
		jy := rng.NormFloat64() * 2
		s.MapPosition[m] = geom.Point3{
			X: s.Position[a][t].X + jx,
			Y: s.Position[a][t].Y + jy,
		}
		s.MapOrientation[m] = s.Heading[a][t]
		s.MapType[m] = rng.Intn(model.NumMapTypes)
		s.MapMagnitude[m] = 0.5 + rng.Float64()
	}
	return s
}

func init() {
	makesceneCmd.Flags().IntVar(&makeCount, "count", 4, "Number of scenes to generate")
	makesceneCmd.Flags().IntVar(&makeAgents, "agents", 8, "Agents per scene")
	makesceneCmd.Flags().IntVar(&makeMapPoints, "map-points", 256, "Map points per scene")
	makesceneCmd.Flags().StringVar(&makeOutDir, "out", "scenes", "Output directory")
	rootCmd.AddCommand(makesceneCmd)
}
