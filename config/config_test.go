package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/boostflow/engine"
	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

const sample = `
training:
  train_ratio: 0.7
  seed: 42
  model_name: xgb
  format: binary
engine:
  booster: gbtree
  objective: reg:squarederror
  eval_metric: rmse
  max_depth: 6
  eta: 0.30
  num_round: 50
  seed: 1
output:
  models_dir: out/models
  metrics_file: out/metrics.csv
`

func TestParseKeepsOrder(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.Training.TrainRatio)
	assert.Equal(t, uint64(42), cfg.Training.Seed)
	assert.Equal(t, "xgb", cfg.Training.ModelName)
	assert.Equal(t, engine.FormatBinary, cfg.ModelFormat())
	assert.Equal(t, "out/models", cfg.Output.ModelsDir)
	assert.Equal(t, "out/metrics.csv", cfg.Output.MetricsFile)

	want := EngineParams{
		{"booster", "gbtree"},
		{"objective", "reg:squarederror"},
		{"eval_metric", "rmse"},
		{"max_depth", "6"},
		{"eta", "0.30"},
		{"n_estimators", "50"},
		{"seed", "1"},
	}
	assert.Equal(t, want, cfg.Engine)

	v, ok := cfg.Engine.Get("n_estimators")
	assert.True(t, ok)
	assert.Equal(t, "50", v)
	_, ok = cfg.Engine.Get("gamma")
	assert.False(t, ok)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("engine:\n  n_estimators: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Training.TrainRatio)
	assert.Equal(t, "model", cfg.Training.ModelName)
	assert.Equal(t, engine.FormatJSON, cfg.ModelFormat())
	assert.Equal(t, "models", cfg.Output.ModelsDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"ratio zero", "training: {train_ratio: 0}\nengine: {eta: 1}\n"},
		{"ratio one", "training: {train_ratio: 1}\nengine: {eta: 1}\n"},
		{"ratio negative", "training: {train_ratio: -0.5}\nengine: {eta: 1}\n"},
		{"ratio nan", "training: {train_ratio: .nan}\nengine: {eta: 1}\n"},
		{"empty engine", "training: {train_ratio: 0.5}\n"},
		{"bad format", "training: {format: onnx}\nengine: {eta: 1}\n"},
		{"empty model name", "training: {model_name: \"\"}\nengine: {eta: 1}\n"},
		{"empty models dir", "engine: {eta: 1}\noutput: {models_dir: \"\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field":    "training: {ratio: 0.5}\nengine: {eta: 1}\n",
		"nested engine":    "engine:\n  eta: [1, 2]\n",
		"engine not a map": "engine: [a, b]\n",
		"not yaml":         "training: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Engine, 7)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, errors.FileIOError, errors.StatusOf(err))
}

func TestEngineParamsMarshalRoundTrip(t *testing.T) {
	type doc struct {
		Engine EngineParams `yaml:"engine"`
	}
	in := EngineParams{{"z", "1"}, {"a", "2"}, {"m", "x"}}
	data, err := yaml.Marshal(doc{in})
	require.NoError(t, err)

	var out doc
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in, out.Engine)
}
