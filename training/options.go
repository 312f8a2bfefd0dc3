package training

import (
	"math"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
	"github.com/YuminosukeSato/evoclass/program"
)

const (
	defaultEliteFraction          = 0.10
	defaultImmigrantFraction      = 0.05
	defaultTournamentSize         = 3
	defaultCrossoverRate          = 0.3
	defaultVerificationCandidates = 5
	defaultStagnationWarning      = 50
)

// Observer receives the statistics of every committed generation together
// with the wall-clock duration of the step.
type Observer interface {
	ObserveGeneration(groupID string, stats Stats, elapsed time.Duration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(groupID string, stats Stats, elapsed time.Duration)

// ObserveGeneration implements Observer.
func (f ObserverFunc) ObserveGeneration(groupID string, stats Stats, elapsed time.Duration) {
	f(groupID, stats, elapsed)
}

type options struct {
	randomState            int64
	rng                    *rand.Rand
	eliteFraction          float64
	immigrantFraction      float64
	tournamentSize         int
	crossoverRate          float64
	complexityPenalty      float64
	workers                int
	factory                model.Factory
	selector               Selector
	verificationCandidates int
	logger                 log.Logger
	observer               Observer
	stagnationWarning      int
}

func defaultOptions() *options {
	return &options{
		randomState:            -1,
		eliteFraction:          defaultEliteFraction,
		immigrantFraction:      defaultImmigrantFraction,
		tournamentSize:         defaultTournamentSize,
		crossoverRate:          defaultCrossoverRate,
		verificationCandidates: defaultVerificationCandidates,
		stagnationWarning:      defaultStagnationWarning,
	}
}

// Option configures a TrainingGroup.
type Option func(*options)

// WithRandomState fixes the random stream. Negative values seed from the
// clock, which makes runs irreproducible.
func WithRandomState(seed int64) Option {
	return func(o *options) { o.randomState = seed }
}

// WithRandSource injects a random source. It takes precedence over
// WithRandomState. The group becomes the only user of rng.
func WithRandSource(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithEliteFraction sets the share of the ranked population copied unchanged
// into the next generation. Any positive fraction keeps at least one elite;
// zero disables elitism.
func WithEliteFraction(f float64) Option {
	return func(o *options) { o.eliteFraction = f }
}

// WithImmigrantFraction sets the share of each generation filled with fresh
// random individuals.
func WithImmigrantFraction(f float64) Option {
	return func(o *options) { o.immigrantFraction = f }
}

// WithTournamentSize sets the tournament size of the default selector.
func WithTournamentSize(n int) Option {
	return func(o *options) { o.tournamentSize = n }
}

// WithCrossoverRate sets the probability that an offspring is produced by
// recombination before mutation.
func WithCrossoverRate(rate float64) Option {
	return func(o *options) { o.crossoverRate = rate }
}

// WithComplexityPenalty subtracts penalty × Complexity() from the objective
// value to form the fitness. The default is 0: complexity then only breaks
// ties between equal objective values.
func WithComplexityPenalty(penalty float64) Option {
	return func(o *options) { o.complexityPenalty = penalty }
}

// WithWorkers bounds the goroutines used to evaluate a population. Values
// below 1 use one worker per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFactory selects the evolvable representation. The default is
// program.NewFactory().
func WithFactory(f model.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithSelector replaces the tournament selector used to pick parents.
func WithSelector(s Selector) Option {
	return func(o *options) { o.selector = s }
}

// WithVerificationCandidates sets how many of the best training individuals
// Classifier re-ranks on the verification view. 1 disables re-ranking.
func WithVerificationCandidates(n int) Option {
	return func(o *options) { o.verificationCandidates = n }
}

// WithLogger replaces the logger. The default is the "training" logger of
// the process-wide provider.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers a per-generation observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithStagnationWarning emits a StagnationWarning every n generations
// without improvement of the best fitness. Zero disables it.
func WithStagnationWarning(n int) Option {
	return func(o *options) { o.stagnationWarning = n }
}

func (o *options) validate() error {
	switch {
	case math.IsNaN(o.eliteFraction) || o.eliteFraction < 0 || o.eliteFraction > 1:
		return errors.NewConfigurationError("elite_fraction", "must be within [0, 1]", o.eliteFraction)
	case math.IsNaN(o.immigrantFraction) || o.immigrantFraction < 0 || o.immigrantFraction >= 1:
		return errors.NewConfigurationError("immigrant_fraction", "must be within [0, 1)", o.immigrantFraction)
	case o.tournamentSize < 1:
		return errors.NewConfigurationError("tournament_size", "must be at least 1", o.tournamentSize)
	case math.IsNaN(o.crossoverRate) || o.crossoverRate < 0 || o.crossoverRate > 1:
		return errors.NewConfigurationError("crossover_rate", "must be within [0, 1]", o.crossoverRate)
	case math.IsNaN(o.complexityPenalty) || math.IsInf(o.complexityPenalty, 0) || o.complexityPenalty < 0:
		return errors.NewConfigurationError("complexity_penalty", "must be a finite non-negative number", o.complexityPenalty)
	case o.verificationCandidates < 1:
		return errors.NewConfigurationError("verification_candidates", "must be at least 1", o.verificationCandidates)
	case o.stagnationWarning < 0:
		return errors.NewConfigurationError("stagnation_warning", "must not be negative", o.stagnationWarning)
	}
	return nil
}

func (o *options) fill() {
	if o.rng == nil {
		seed := o.randomState
		if seed < 0 {
			seed = time.Now().UnixNano()
		}
		o.rng = rand.New(rand.NewSource(seed))
	}
	if o.factory == nil {
		o.factory = program.NewFactory()
	}
	if o.selector == nil {
		o.selector = TournamentSelector{Size: o.tournamentSize}
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("training")
	}
}

// counts returns the number of elites and immigrants for a population.
func (o *options) counts(population int) (elites, immigrants int) {
	elites = int(o.eliteFraction * float64(population))
	if o.eliteFraction > 0 && elites < 1 {
		elites = 1
	}
	if elites > population {
		elites = population
	}
	immigrants = int(o.immigrantFraction * float64(population))
	if elites+immigrants > population {
		immigrants = population - elites
	}
	return elites, immigrants
}
