// Command evoclass trains evolved classifiers from the command line.
//
//	evoclass demo --seed 42
//	evoclass train --csv iris.csv --config train.yaml --plot history.png
package main

import (
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
	"github.com/YuminosukeSato/evoclass/pkg/telemetry"
	"github.com/YuminosukeSato/evoclass/training"
)

type globalFlags struct {
	logLevel    string
	metricsFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("evoclass failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "evoclass",
		Short:         "Evolve classifiers with a genetic search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(flags.logLevel)
			if err != nil {
				return err
			}
			if err := log.SetupLogger(cmd.ErrOrStderr(), flags.logLevel); err != nil {
				return err
			}
			log.SetProvider(log.NewZerologProvider(cmd.ErrOrStderr(), level))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file when done")

	root.AddCommand(newDemoCmd(flags), newTrainCmd(flags))
	return root
}

// metricsSink wires a Prometheus observer when --metrics-file is set.
type metricsSink struct {
	path     string
	registry *prometheus.Registry
	observer *telemetry.PrometheusObserver
}

func newMetricsSink(path string) *metricsSink {
	s := &metricsSink{path: path}
	if path != "" {
		s.registry = prometheus.NewRegistry()
		s.observer = telemetry.NewPrometheusObserver(s.registry)
	}
	return s
}

func (s *metricsSink) options() []training.Option {
	if s.observer == nil {
		return nil
	}
	return []training.Option{training.WithObserver(s.observer)}
}

// forget drops the series of a group whose results are no longer reported.
func (s *metricsSink) forget(groupID string) {
	if s.observer != nil {
		s.observer.Forget(groupID)
	}
}

func (s *metricsSink) flush() error {
	if s.registry == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.path, s.registry); err != nil {
		return errors.Wrapf(err, "write metrics to %s", s.path)
	}
	return nil
}
