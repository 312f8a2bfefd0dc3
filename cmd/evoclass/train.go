package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/report"
	"github.com/YuminosukeSato/evoclass/training"
)

type trainFlags struct {
	csv         string
	config      string
	labelColumn string
	plot        string
}

func newTrainCmd(global *globalFlags) *cobra.Command {
	f := &trainFlags{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train on a CSV file and report the score on its held-out third",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd.Context(), cmd, f, newMetricsSink(global.metricsFile))
		},
	}
	cmd.Flags().StringVar(&f.csv, "csv", "", "CSV file with a header row (required)")
	cmd.Flags().StringVar(&f.config, "config", "", "YAML training configuration")
	cmd.Flags().StringVar(&f.labelColumn, "label", "", "name of the class column; defaults to the last column")
	cmd.Flags().StringVar(&f.plot, "plot", "", "write the history chart to this file")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func runTrain(ctx context.Context, cmd *cobra.Command, f *trainFlags, sink *metricsSink) error {
	cfg := training.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = training.LoadConfig(f.config); err != nil {
			return err
		}
	}

	file, err := os.Open(f.csv)
	if err != nil {
		return errors.Wrapf(err, "open %s", f.csv)
	}
	defer file.Close()
	ds, err := data.ReadCSV(file, data.CSVOptions{LabelColumn: f.labelColumn})
	if err != nil {
		return err
	}

	train, verify, test, err := ds.SplitIntoViews(cfg.SplitPolicy())
	if err != nil {
		return err
	}
	if cfg.Standardize {
		_, views, err := data.Standardize(train, verify, test)
		if err != nil {
			return err
		}
		train, verify, test = views[0], views[1], views[2]
	}
	objective, err := cfg.ObjectiveFunc()
	if err != nil {
		return err
	}
	group, err := training.NewTrainingGroup(train, verify, objective, cfg.PopulationSize, cfg.ConstraintList(),
		append(cfg.Options(), sink.options()...)...)
	if err != nil {
		return err
	}

	res, err := training.Runner{Group: group, Stop: cfg.StopPolicy()}.Run(ctx)
	if err != nil {
		return err
	}
	clf, err := group.Classifier()
	if err != nil {
		return err
	}
	score, err := clf.Score(test)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Stopped after %d generations (%s) in %s\n", res.Final.Generation, res.Reason, res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Training %s: %.4f, verification: %.4f, test: %.4f (accuracy %.4f, %d/%d)\n",
		objective.Name(), clf.TrainingScore(), clf.VerificationScore().Value, score.Value, score.Accuracy, score.Correct, score.Total)
	for _, c := range score.PerClass {
		fmt.Fprintf(out, "  %-12s support %4d  precision %.3f  recall %.3f  f1 %.3f\n", c.Name, c.Support, c.Precision, c.Recall, c.F1)
	}
	fmt.Fprintf(out, "Classifier (complexity %d):\n%s\n", clf.Complexity(), clf)

	if f.plot != "" {
		if err := report.PlotHistory(res.History, f.plot); err != nil {
			return err
		}
	}
	return sink.flush()
}
