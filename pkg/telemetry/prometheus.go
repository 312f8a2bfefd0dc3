// Package telemetry exports training progress as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/YuminosukeSato/evoclass/training"
)

const (
	namespace  = "evoclass"
	groupLabel = "group"
)

// PrometheusObserver implements training.Observer. Every metric carries the
// training group ID as the "group" label.
type PrometheusObserver struct {
	generations   *prometheus.CounterVec
	evaluated     *prometheus.CounterVec
	trainingScore *prometheus.GaugeVec
	bestFitness   *prometheus.GaugeVec
	meanFitness   *prometheus.GaugeVec
	diversity     *prometheus.GaugeVec
	stagnation    *prometheus.GaugeVec
	complexity    *prometheus.GaugeVec
	duration      *prometheus.HistogramVec
}

var _ training.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the training metrics on reg, or on the
// default registerer when reg is nil. Registering twice on the same
// registerer panics.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	gauge := func(name, help string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, []string{groupLabel})
	}

	return &PrometheusObserver{
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Completed generations",
		}, []string{groupLabel}),
		evaluated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "individuals_evaluated_total",
			Help:      "Individuals scored on the training view",
		}, []string{groupLabel}),
		trainingScore: gauge("training_score", "Objective value of the best individual"),
		bestFitness:   gauge("best_fitness", "Best fitness of the last generation"),
		meanFitness:   gauge("mean_fitness", "Mean fitness of the last generation"),
		diversity:     gauge("diversity", "Distinct individuals in the last generation"),
		stagnation:    gauge("stagnant_generations", "Generations since the best fitness improved"),
		complexity:    gauge("best_complexity", "Complexity of the best individual"),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall-clock time of one generation step",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{groupLabel}),
	}
}

// ObserveGeneration implements training.Observer.
func (o *PrometheusObserver) ObserveGeneration(groupID string, s training.Stats, elapsed time.Duration) {
	o.generations.WithLabelValues(groupID).Inc()
	o.evaluated.WithLabelValues(groupID).Add(float64(s.Evaluated))
	o.trainingScore.WithLabelValues(groupID).Set(s.TrainingScore)
	o.bestFitness.WithLabelValues(groupID).Set(s.BestFitness)
	o.meanFitness.WithLabelValues(groupID).Set(s.MeanFitness)
	o.diversity.WithLabelValues(groupID).Set(float64(s.Diversity))
	o.stagnation.WithLabelValues(groupID).Set(float64(s.Stagnation))
	o.complexity.WithLabelValues(groupID).Set(float64(s.BestComplexity))
	o.duration.WithLabelValues(groupID).Observe(elapsed.Seconds())
}

// Forget drops every series of a finished group.
func (o *PrometheusObserver) Forget(groupID string) {
	o.generations.DeleteLabelValues(groupID)
	o.evaluated.DeleteLabelValues(groupID)
	for _, g := range []*prometheus.GaugeVec{o.trainingScore, o.bestFitness, o.meanFitness, o.diversity, o.stagnation, o.complexity} {
		g.DeleteLabelValues(groupID)
	}
	o.duration.DeleteLabelValues(groupID)
}
