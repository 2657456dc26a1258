package cmd

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/wgangyiii/Scenario-Generation/rollout"
)

var (
	plotSubmission string
	plotScenario   string
	plotOutDir     string
	plotMaxSamples int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot simulated trajectories from a submission shard",
	RunE: func(cmd *cobra.Command, args []string) error {
		pred, err := rollout.LoadSubmission(plotSubmission)
		if err != nil {
			return err
		}
		sid := plotScenario
		if sid == "" {
			for id := range pred {
				if sid == "" || id < sid {
					sid = id
				}
			}
		}
		agents, ok := pred[sid]
		if !ok {
			return fmt.Errorf("scenario %q not found in %s", sid, plotSubmission)
		}
		if err := plotScenarioTrajectories(sid, agents); err != nil {
			return err
		}
		logrus.WithField("scenario", sid).Info("plot written")
		return nil
	},
}

// plotScenarioTrajectories writes one PNG with a faint line per sampled
// future and agent.
func plotScenarioTrajectories(sid string, agents map[int64][][][rollout.StateDim]float64) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Simulated futures: %s", sid)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	// Stable agent ordering keeps the colors reproducible across runs.
	ids := make([]int64, 0, len(agents))
	for id := range agents {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for ai, id := range ids {
		samples := agents[id]
		col := color.RGBA{
			R: uint8(40 + (ai*67)%180),
			G: uint8(40 + (ai*131)%180),
			B: uint8(40 + (ai*29)%180),
			A: 90,
		}
		for si, traj := range samples {
			if plotMaxSamples > 0 && si >= plotMaxSamples {
				break
			}
			xys := make(plotter.XYs, 0, len(traj))
			for _, row := range traj {
				xys = append(xys, plotter.XY{X: row[0], Y: row[1]})
			}
			line, err := plotter.NewLine(xys)
			if err != nil {
				return err
			}
			line.Color = col
			line.Width = vg.Points(0.8)
			p.Add(line)
			if si == 0 && ai == 0 {
				p.Legend.Add("sampled futures", line)
			}
		}
	}

	if err := os.MkdirAll(plotOutDir, 0o755); err != nil {
		return err
	}
	outPath := filepath.Join(plotOutDir, fmt.Sprintf("rollout_%s.png", sid))
	return p.Save(8*vg.Inch, 6*vg.Inch, outPath)
}

func init() {
	plotCmd.Flags().StringVar(&plotSubmission, "submission", "submission/rollouts_0.gob", "Submission shard to plot")
	plotCmd.Flags().StringVar(&plotScenario, "scenario", "", "Scenario ID to plot (lowest ID when empty)")
	plotCmd.Flags().StringVar(&plotOutDir, "out", "plots", "Output directory for PNGs")
	plotCmd.Flags().IntVar(&plotMaxSamples, "max-samples", 8, "Samples per agent to draw (0 = all)")
	rootCmd.AddCommand(plotCmd)
}
