// Package config は学習ジョブの YAML 設定を読み込みます。
//
// 設定ファイルの例:
//
//	training:
//	  train_ratio: 0.8
//	  seed: 42
//	  model_name: demo
//	  format: json
//	engine:
//	  booster: gbtree
//	  objective: reg:squarederror
//	  eta: 0.3
//	  n_estimators: 100
//	output:
//	  models_dir: models
//	  metrics_file: models/metrics.csv
//
// engine セクションはファイルに書かれた順序のまま保持され、
// そのままの文字列でエンジンに渡されます。
package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

// Config is the root of a training configuration file.
type Config struct {
	Training TrainingConfig `yaml:"training"`
	Engine   EngineParams   `yaml:"engine"`
	Output   OutputConfig   `yaml:"output"`
}

// TrainingConfig holds the pipeline settings.
type TrainingConfig struct {
	// TrainRatio is the fraction of rows used for training, in (0, 1).
	TrainRatio float64 `yaml:"train_ratio"`
	// Seed for the shuffle. 0 draws a seed from the OS.
	Seed       uint64 `yaml:"seed"`
	ModelName  string `yaml:"model_name"`
	Format     string `yaml:"format"`
	LegacyRNG  bool   `yaml:"legacy_rng"`
	AtomicSave bool   `yaml:"atomic_save"`
}

// OutputConfig says where artifacts go.
type OutputConfig struct {
	ModelsDir   string `yaml:"models_dir"`
	MetricsFile string `yaml:"metrics_file"`
	PlotDir     string `yaml:"plot_dir"`
}

// Default returns the configuration used when a field is absent from the file.
func Default() *Config {
	return &Config{
		Training: TrainingConfig{
			TrainRatio: 0.8,
			ModelName:  "model",
			Format:     "json",
		},
		Output: OutputConfig{
			ModelsDir: "models",
		},
	}
}

// Load reads and validates the YAML file at path. Fields missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileIOError(op, path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	const op = "config.Parse"
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.NewInvalidParameter(op, "yaml", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	t := c.Training
	if !(t.TrainRatio > 0 && t.TrainRatio < 1) {
		return errors.NewValidationError("training.train_ratio", "must be between 0 and 1", t.TrainRatio)
	}
	if t.ModelName == "" {
		return errors.NewValidationError("training.model_name", "cannot be empty", t.ModelName)
	}
	if _, err := engine.ParseFormat(t.Format); err != nil {
		return errors.NewValidationError("training.format", "unknown model format", t.Format)
	}
	if len(c.Engine) == 0 {
		return errors.NewValidationError("engine", "cannot be empty", nil)
	}
	if c.Output.ModelsDir == "" {
		return errors.NewValidationError("output.models_dir", "cannot be empty", c.Output.ModelsDir)
	}
	return nil
}

// ModelFormat returns the parsed training.format.
func (c *Config) ModelFormat() engine.Format {
	f, _ := engine.ParseFormat(c.Training.Format)
	return f
}
