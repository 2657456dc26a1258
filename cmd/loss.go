package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

var (
	lossScenes     string
	lossCheckpoint string
	lossBatchSize  int
)

var lossCmd = &cobra.Command{
	Use:   "loss",
	Short: "Evaluate the mixture negative log likelihood over a scene set",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(configPath)
		if err != nil {
			return err
		}
		dec, head, err := loadOrInitModel(cfg, lossCheckpoint)
		if err != nil {
			return err
		}
		ds, err := scene.NewDataset(lossScenes)
		if err != nil {
			return err
		}

		total := 0.0
		batches := 0
		for start := 0; start < ds.Len(); start += lossBatchSize {
			end := start + lossBatchSize
			if end > ds.Len() {
				end = ds.Len()
			}
			indices := make([]int, 0, end-start)
			for i := start; i < end; i++ {
				indices = append(indices, i)
			}
			batch, err := ds.Batch(indices)
			if err != nil {
				return err
			}
			loss, err := model.ValidationStep(dec, head, batch, cfg.Horizon.NumInitSteps)
			if err != nil {
				return err
			}
			total += loss
			batches++
			logrus.WithFields(logrus.Fields{
				"batch": batches,
				"loss":  loss,
			}).Debug("batch evaluated")
		}
		if batches > 0 {
			logrus.WithFields(logrus.Fields{
				"scenes": ds.Len(),
				"loss":   total / float64(batches),
			}).Info("evaluation complete")
		}
		return nil
	},
}

func init() {
	lossCmd.Flags().StringVar(&lossScenes, "scenes", "scenes/*.gob", "Glob of scene files to evaluate")
	lossCmd.Flags().StringVar(&lossCheckpoint, "checkpoint", "", "Model checkpoint to load")
	lossCmd.Flags().IntVar(&lossBatchSize, "batch-size", 1, "Scenes per evaluation batch")
	rootCmd.AddCommand(lossCmd)
}
