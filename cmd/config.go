package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/rollout"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

// ModelConfig is the YAML surface for the decoder and head hyperparameters.
type ModelConfig struct {
	InputDim     int     `yaml:"input_dim"`
	HiddenDim    int     `yaml:"hidden_dim"`
	PosDim       int     `yaml:"pos_dim"`
	VelDim       int     `yaml:"vel_dim"`
	ThetaDim     int     `yaml:"theta_dim"`
	TimeSpan     int     `yaml:"time_span"`
	NumM2ANbrs   int     `yaml:"num_m2a_nbrs"`
	NumA2ANbrs   int     `yaml:"num_a2a_nbrs"`
	NumFreqBands int     `yaml:"num_freq_bands"`
	NumLayers    int     `yaml:"num_layers"`
	NumHeads     int     `yaml:"num_heads"`
	HeadDim      int     `yaml:"head_dim"`
	Dropout      float64 `yaml:"dropout"`
	NumModes     int     `yaml:"num_modes"`
}

// HorizonConfig is the YAML surface for the time horizon and rollout.
type HorizonConfig struct {
	NumSteps        int `yaml:"num_steps"`
	NumInitSteps    int `yaml:"num_init_steps"`
	NumRolloutSteps int `yaml:"num_rollout_steps"`
	NumSamples      int `yaml:"num_samples"`
	MaxAgents       int `yaml:"max_agents"`
}

// TrainConfig is the YAML surface consumed by the external training harness;
// the forward-only core carries it through untouched.
type TrainConfig struct {
	LearningRate float64 `yaml:"lr"`
	WeightDecay  float64 `yaml:"weight_decay"`
	TMax         int     `yaml:"t_max"`
	BatchSize    int     `yaml:"batch_size"`
}

// Config is the full run configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Horizon HorizonConfig `yaml:"horizon"`
	Train   TrainConfig   `yaml:"train"`
}

// DefaultConfig returns the benchmark defaults.
func DefaultConfig() Config {
	return Config{
		Model: ModelConfig{
			InputDim:     3,
			HiddenDim:    128,
			PosDim:       3,
			VelDim:       2,
			ThetaDim:     1,
			TimeSpan:     10,
			NumM2ANbrs:   32,
			NumA2ANbrs:   32,
			NumFreqBands: 64,
			NumLayers:    2,
			NumHeads:     8,
			HeadDim:      16,
			Dropout:      0.1,
			NumModes:     16,
		},
		Horizon: HorizonConfig{
			NumSteps:        91,
			NumInitSteps:    11,
			NumRolloutSteps: 80,
			NumSamples:      32,
			MaxAgents:       64,
		},
		Train: TrainConfig{
			LearningRate: 5e-4,
			WeightDecay:  0.1,
			TMax:         30,
			BatchSize:    4,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Horizon.NumInitSteps+cfg.Horizon.NumRolloutSteps != cfg.Horizon.NumSteps {
		return cfg, fmt.Errorf("config %s: init %d + rollout %d steps must equal num_steps %d",
			path, cfg.Horizon.NumInitSteps, cfg.Horizon.NumRolloutSteps, cfg.Horizon.NumSteps)
	}
	return cfg, nil
}

// DecoderConfig maps the YAML surface onto the decoder configuration.
func (c Config) DecoderConfig() model.Config {
	return model.Config{
		InputDim:     c.Model.InputDim,
		HiddenDim:    c.Model.HiddenDim,
		NumSteps:     c.Horizon.NumSteps,
		TimeSpan:     c.Model.TimeSpan,
		NumM2ANbrs:   c.Model.NumM2ANbrs,
		NumA2ANbrs:   c.Model.NumA2ANbrs,
		NumFreqBands: c.Model.NumFreqBands,
		NumLayers:    c.Model.NumLayers,
		NumHeads:     c.Model.NumHeads,
		HeadDim:      c.Model.HeadDim,
		Dropout:      c.Model.Dropout,
	}
}

// HeadConfig maps the YAML surface onto the mixture head configuration.
func (c Config) HeadConfig() model.HeadConfig {
	return model.HeadConfig{
		HiddenDim:      c.Model.HiddenDim,
		PosDim:         c.Model.PosDim,
		VelDim:         c.Model.VelDim,
		ThetaDim:       c.Model.ThetaDim,
		NumModes:       c.Model.NumModes,
		NumActionSteps: scene.ActionSteps,
	}
}

// RolloutConfig maps the YAML surface onto the rollout configuration.
func (c Config) RolloutConfig() rollout.Config {
	return rollout.Config{
		NumInitSteps:    c.Horizon.NumInitSteps,
		NumRolloutSteps: c.Horizon.NumRolloutSteps,
		NumActionSteps:  scene.ActionSteps,
		NumSamples:      c.Horizon.NumSamples,
		PosDim:          c.Model.PosDim,
		VelDim:          c.Model.VelDim,
		ThetaDim:        c.Model.ThetaDim,
	}
}
