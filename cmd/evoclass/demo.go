package main

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/report"
	"github.com/YuminosukeSato/evoclass/training"
)

type demoFlags struct {
	seed       int64
	attempts   int
	population int
	perBlock   int
	target     float64
	timeout    time.Duration
	plot       string
}

func newDemoCmd(global *globalFlags) *cobra.Command {
	f := &demoFlags{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Train on a synthetic four-class puzzle and score unseen data",
		Long: `Generates 3 blocks of labeled points whose features come from
[0,100), [100,200) and [200,300). The first block trains, the second verifies
and the third, with values never seen in training, is the test set. Each
attempt trains until the training score reaches --target or --timeout passes.

The labels depend on divisibility, which expression trees find slowly: at the
default size a five minute attempt often ends between 0.7 and 0.8 and the
command then fails. Lower --target or --points for a quick run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd, f, newMetricsSink(global.metricsFile))
		},
	}
	cmd.Flags().Int64Var(&f.seed, "seed", -1, "random seed; negative seeds from the clock")
	cmd.Flags().IntVar(&f.attempts, "attempts", 1, "number of independent training attempts")
	cmd.Flags().IntVar(&f.population, "population", 100, "population size")
	cmd.Flags().IntVar(&f.perBlock, "points", 1000, "points per data block")
	cmd.Flags().Float64Var(&f.target, "target", 0.9, "training score that ends an attempt")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 5*time.Minute, "time budget per attempt")
	cmd.Flags().StringVar(&f.plot, "plot", "", "write the history chart of the last attempt to this file")
	return cmd
}

func runDemo(cmd *cobra.Command, f *demoFlags, sink *metricsSink) error {
	if f.attempts < 1 {
		return errors.NewConfigurationError("attempts", "must be at least 1", f.attempts)
	}
	seed := f.seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ds, err := generatePuzzle(rng, f.perBlock, 100)
	if err != nil {
		return err
	}
	train, verify, test, err := ds.Into3ViewsSplit()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	sum := 0.0
	var (
		history  []training.Stats
		previous string
	)
	for attempt := 1; attempt <= f.attempts; attempt++ {
		// only the last attempt is kept in the metrics file
		if previous != "" {
			sink.forget(previous)
		}
		opts := append([]training.Option{training.WithRandSource(rand.New(rand.NewSource(rng.Int63())))}, sink.options()...)
		group, err := training.NewTrainingGroup(train, verify, metrics.Accuracy{}, f.population, nil, opts...)
		if err != nil {
			return err
		}
		previous = group.ID()

		runner := training.Runner{
			Group: group,
			Stop:  training.AnyOf{training.ScoreThreshold(f.target), training.Deadline(f.timeout)},
			OnGeneration: func(s training.Stats) {
				printProgress(out, attempt, group, test, s)
			},
		}
		res, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		history = res.History
		if res.Final.TrainingScore < f.target {
			return errors.Newf("training failed: unable to learn after %s", f.timeout)
		}

		clf, err := group.Classifier()
		if err != nil {
			return err
		}
		score, err := clf.Score(test)
		if err != nil {
			return err
		}
		sum += score.Accuracy
		fmt.Fprintf(out, "Average score on unseen data after %d attempts: %.4f\n", attempt, sum/float64(attempt))
	}

	if f.plot != "" {
		if err := report.PlotHistory(history, f.plot, report.WithTitle("evoclass demo")); err != nil {
			return err
		}
	}
	return sink.flush()
}

func printProgress(out io.Writer, attempt int, group *training.TrainingGroup, test *data.View, s training.Stats) {
	unseen := "n/a"
	if clf, err := group.Classifier(); err == nil {
		if score, err := clf.Score(test); err == nil && score != nil {
			unseen = fmt.Sprintf("%4.2f", score.Accuracy)
		}
	}
	fmt.Fprintf(out, "Attempt #%d, generation: %d, training: %4.2f, unseen: %s, diversity: %d\n",
		attempt, s.Generation, s.TrainingScore, unseen, s.Diversity)
}
