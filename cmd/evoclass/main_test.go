package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
)

func TestPuzzleLabel(t *testing.T) {
	tests := []struct {
		a, b, c int
		want    data.Class
	}{
		{a: 30, b: 3, c: 1, want: 0},
		{a: 30, b: 8, c: 1, want: 0},
		{a: 1, b: 8, c: 1, want: 1},
		{a: 1, b: 2, c: 1, want: 2},
		{a: 1, b: 2, c: 2, want: 3},
		{a: 0, b: 0, c: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.a, tt.b, tt.c), func(t *testing.T) {
			assert.Equal(t, tt.want, puzzleLabel(tt.a, tt.b, tt.c))
		})
	}
}

func TestGeneratePuzzle(t *testing.T) {
	ds, err := generatePuzzle(rand.New(rand.NewSource(3)), 50, 100)
	require.NoError(t, err)
	require.Equal(t, 150, ds.Len())
	assert.Equal(t, data.Shape{Rows: 1, Cols: 3}, ds.Shape())
	assert.Equal(t, 4, ds.Vocabulary().Len())

	for i := 0; i < ds.Len(); i++ {
		block := i / 50
		in := ds.Point(i).Input()
		for col := 0; col < 3; col++ {
			v := in.At(0, col)
			assert.GreaterOrEqual(t, v, float64(block*100))
			assert.Less(t, v, float64((block+1)*100))
		}
		want := puzzleLabel(int(in.At(0, 0)), int(in.At(0, 1)), int(in.At(0, 2)))
		assert.Equal(t, want, ds.Point(i).Outcome().Class())
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		log.SetProvider(log.NewZerologProvider(io.Discard, log.LevelError))
	})
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDemoCommand(t *testing.T) {
	metricsPath := filepath.Join(t.TempDir(), "metrics.prom")
	out, err := runCLI(t, "demo",
		"--seed", "7",
		"--points", "30",
		"--population", "12",
		"--target", "0",
		"--timeout", "30s",
		"--attempts", "2",
		"--metrics-file", metricsPath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Attempt #1, generation: 1")
	assert.Contains(t, out, "Attempt #2, generation: 1")
	assert.Contains(t, out, "Average score on unseen data after 2 attempts")

	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	// the first attempt's series are dropped, so one group remains
	assert.Equal(t, 1, strings.Count(string(raw), "evoclass_generations_total{"))
}

func TestDemoCommandRejectsZeroAttempts(t *testing.T) {
	_, err := runCLI(t, "demo", "--attempts", "0", "--points", "10")
	require.Error(t, err)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestDemoCommandFailsWhenTargetMissed(t *testing.T) {
	_, err := runCLI(t, "demo",
		"--seed", "1",
		"--points", "20",
		"--population", "8",
		"--target", "1.5",
		"--timeout", "1ns",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to learn")
}

func TestTrainCommand(t *testing.T) {
	dir := t.TempDir()
	var csv strings.Builder
	csv.WriteString("x,y,label\n")
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 60; i++ {
		x, y := rng.Float64()*10, rng.Float64()*10
		label := "low"
		if x > 5 {
			label = "high"
		}
		fmt.Fprintf(&csv, "%.3f,%.3f,%s\n", x, y, label)
	}
	csvPath := filepath.Join(dir, "points.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(csv.String()), 0o600))

	configPath := filepath.Join(dir, "train.yaml")
	config := `population_size: 16
random_state: 11
objective: macro_f1
standardize: true
split:
  shuffle: true
  random_state: 2
stop:
  target_score: 0
  max_generations: 3
`
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	out, err := runCLI(t, "train", "--csv", csvPath, "--config", configPath, "--label", "label")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped after 3 generations")
	assert.Contains(t, out, "Training macro_f1")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "low")
}

func TestTrainCommandRequiresCSV(t *testing.T) {
	_, err := runCLI(t, "train")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv")
}

func TestRootRejectsUnknownLogLevel(t *testing.T) {
	_, err := runCLI(t, "--log-level", "loud", "demo", "--points", "10")
	require.Error(t, err)
}
