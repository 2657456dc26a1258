package cmd

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wgangyiii/Scenario-Generation/graph"
	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/rollout"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

var (
	simScenes     string
	simCheckpoint string
	simOutDir     string
	simName       string
	simRank       int
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Roll out simulated futures for every scene and write a submission shard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		dec, head, err := loadOrInitModel(cfg, simCheckpoint)
		if err != nil {
			return err
		}
		sim, err := rollout.NewSimulator(cfg.RolloutConfig(), dec, head, seed)
		if err != nil {
			return err
		}
		ds, err := scene.NewDataset(simScenes)
		if err != nil {
			return err
		}

		merged := make(rollout.Prediction)
		for i := 0; i < ds.Len(); i++ {
			s, err := ds.Example(i)
			if err != nil {
				return err
			}
			if err := s.Downselect(cfg.Horizon.MaxAgents, cfg.Horizon.NumInitSteps); err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			pred, err := sim.Run(s)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			mergePredictions(merged, pred)
			logrus.WithFields(logrus.Fields{
				"scene": i,
				"total": ds.Len(),
			}).Info("scene simulated")
		}

		path, err := rollout.WriteSubmission(merged, simOutDir, simName, simRank)
		if err != nil {
			return err
		}
		logrus.WithField("path", path).Info("simulation complete")
		return nil
	},
}

// mergePredictions folds one scene's predictions into the accumulated set.
// Duplicate scenario IDs across scene files mean the later file wins; that is
// almost always an input-layout mistake, so it is called out.
func mergePredictions(dst, src rollout.Prediction) {
	for sid, agents := range src {
		if _, ok := dst[sid]; ok {
			logrus.WithField("scenario", sid).Warn("duplicate scenario ID across scene files; overwriting earlier predictions")
		}
		dst[sid] = agents
	}
}

// loadOrInitModel restores a checkpoint when a path is given and otherwise
// initializes fresh parameters from the global seed.
func loadOrInitModel(cfg Config, checkpoint string) (*model.Decoder, *model.Head, error) {
	if checkpoint != "" {
		return model.LoadCheckpoint(checkpoint)
	}
	logrus.Warn("no checkpoint given; using randomly initialized parameters")
	rng := rand.New(rand.NewSource(seed))
	dec, err := model.NewDecoder(cfg.DecoderConfig(), graph.NewNeighborSearch(), rng)
	if err != nil {
		return nil, nil, err
	}
	return dec, model.NewHead(cfg.HeadConfig(), rng), nil
}

func init() {
	simulateCmd.Flags().StringVar(&simScenes, "scenes", "scenes/*.gob", "Glob of scene files to simulate")
	simulateCmd.Flags().StringVar(&simCheckpoint, "checkpoint", "", "Model checkpoint to load")
	simulateCmd.Flags().StringVar(&simOutDir, "out", "submission", "Output directory for submission shards")
	simulateCmd.Flags().StringVar(&simName, "name", "rollouts", "Base name of the submission shard")
	simulateCmd.Flags().IntVar(&simRank, "rank", 0, "Shard rank when splitting scenes across workers")
	rootCmd.AddCommand(simulateCmd)
}
