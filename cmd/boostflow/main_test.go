package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/boostflow/pkg/errors"
)

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")
	models := filepath.Join(dir, "models")
	metricsFile := filepath.Join(dir, "metrics.csv")
	plots := filepath.Join(dir, "plots")
	require.NoError(t, os.MkdirAll(plots, 0o755))

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"gen", "-out", data, "-rows", "120", "-features", "3", "-targets", "2", "-seed", "5"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "wrote 120 rows")

	cfgPath := filepath.Join(dir, "train.yaml")
	cfg := fmt.Sprintf(`training:
  train_ratio: 0.75
  seed: 11
  model_name: e2e
  format: binary
engine:
  objective: reg:squarederror
  max_depth: 3
  eta: 0.3
  num_round: 10
output:
  models_dir: %s
  metrics_file: %s
  plot_dir: %s
`, models, metricsFile, plots)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	stdout.Reset()
	require.NoError(t, run([]string{"train", "-config", cfgPath, "-data", data, "-log-level", "warn"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "RMSE: [")

	entries, err := os.ReadDir(models)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	model := filepath.Join(models, entries[0].Name())
	assert.True(t, strings.HasPrefix(entries[0].Name(), "e2e_"))
	assert.Equal(t, ".bin", filepath.Ext(model))

	metricsData, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(metricsData), "\n"))

	plotFiles, err := os.ReadDir(plots)
	require.NoError(t, err)
	assert.Len(t, plotFiles, 2)

	out := filepath.Join(dir, "pred.csv")
	stdout.Reset()
	require.NoError(t, run([]string{"predict", "-model", model, "-data", data, "-out", out}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "predicted 120 rows")
	assert.FileExists(t, out)
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Error(t, run(nil, &stdout, &stderr))
	assert.Error(t, run([]string{"bogus"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: boostflow")

	err := run([]string{"gen"}, &stdout, &stderr)
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
	err = run([]string{"gen", "-out", filepath.Join(t.TempDir(), "d.csv"), "-kind", "images"}, &stdout, &stderr)
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
	err = run([]string{"train"}, &stdout, &stderr)
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))
	err = run([]string{"train", "-config", filepath.Join(t.TempDir(), "none.yaml")}, &stdout, &stderr)
	assert.Equal(t, errors.FileIOError, errors.StatusOf(err))
	err = run([]string{"predict", "-model", "m.json"}, &stdout, &stderr)
	assert.Equal(t, errors.InvalidParameter, errors.StatusOf(err))

	stdout.Reset()
	require.NoError(t, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "commands:")
}
