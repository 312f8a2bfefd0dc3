// Package training runs the evolutionary search.
//
// A TrainingGroup owns a population of model.Individual values, the training
// and verification views and the objective. Each Advance call evaluates the
// population on the training view, ranks it, and breeds the next generation.
// The group has no stopping rule of its own; Runner layers stop policies on
// top of Advance.
//
//	group, err := training.NewTrainingGroup(train, verify, metrics.Accuracy{}, 100, nil,
//	    training.WithRandomState(42))
//	for {
//	    if err := group.Advance(); err != nil { ... }
//	    if s, _ := group.Stats(); s.TrainingScore >= 0.9 { break }
//	}
//	clf, err := group.Classifier()
//	score, err := clf.Score(test)
package training

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/core/parallel"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
)

// member is one population slot. Members are never modified once created;
// evaluation produces new members.
type member struct {
	id          string
	ind         model.Individual
	evaluated   bool
	fitness     float64
	score       *metrics.Score
	complexity  int
	fingerprint string
}

// TrainingGroup is the stateful evolutionary engine.
//
// Advance must be driven by a single caller; an overlapping call fails with
// errors.ErrConcurrentAdvance. Stats, Classifier and the other queries are
// safe to call at any time.
type TrainingGroup struct {
	id           string
	train        *data.View
	verify       *data.View
	objective    metrics.Objective
	size         int
	restrictions model.Restrictions
	opts         *options
	rng          *rand.Rand
	state        *model.StateManager
	logger       log.Logger

	mu sync.RWMutex
	// seed starts the random stream of the next generation. It only moves
	// on commit, so a failed Advance leaves the stream where it was.
	seed       int64
	population []*member
	ranked     []*member
	stats      *Stats
}

// NewTrainingGroup seeds a population of populationSize random individuals.
//
// It fails with *errors.ConfigurationError when populationSize is not
// positive, when a view is empty or the two views disagree on shape or
// vocabulary, when objective is nil, when an option is out of range, or when
// the constraints are inconsistent.
func NewTrainingGroup(train, verify *data.View, objective metrics.Objective, populationSize int, constraints []model.Constraint, opts ...Option) (*TrainingGroup, error) {
	if populationSize <= 0 {
		return nil, errors.NewConfigurationError("population_size", "must be positive", populationSize)
	}
	if train.IsEmpty() {
		return nil, errors.NewConfigurationError("training_view", "must contain at least one point", train.Len())
	}
	if verify.IsEmpty() {
		return nil, errors.NewConfigurationError("verification_view", "must contain at least one point", verify.Len())
	}
	if train.Shape() != verify.Shape() {
		return nil, errors.NewConfigurationError("verification_view", "input shape differs from the training view "+train.Shape().String(), verify.Shape().String())
	}
	if !sameClasses(train.Vocabulary(), verify.Vocabulary()) {
		return nil, errors.NewConfigurationError("verification_view", "class vocabulary differs from the training view", verify.Vocabulary().Classes())
	}
	if objective == nil {
		return nil, errors.NewConfigurationError("objective", "must not be nil", nil)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	o.fill()

	restrictions, err := model.Compile(train.Shape(), o.factory.Operations(), constraints...)
	if err != nil {
		return nil, err
	}

	g := &TrainingGroup{
		train:        train,
		verify:       verify,
		objective:    objective,
		size:         populationSize,
		restrictions: restrictions,
		opts:         o,
		rng:          o.rng,
		state:        model.NewStateManager(),
	}
	groupID, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return nil, errors.Wrap(err, "generate group id")
	}
	g.id = groupID.String()
	g.logger = o.logger.With(
		log.GroupIDKey, g.id,
		log.RepresentationKey, o.factory.Name(),
		log.ObjectiveKey, objective.Name(),
	)

	g.population = make([]*member, populationSize)
	for i := range g.population {
		if g.population[i], err = g.spawn(g.rng, o.factory.New(g.rng, train.Vocabulary(), restrictions)); err != nil {
			return nil, err
		}
	}

	g.seed = g.rng.Int63()

	elites, immigrants := o.counts(populationSize)
	g.logger.Info("training group constructed",
		log.OperationKey, log.OperationConstruct,
		log.PopulationKey, populationSize,
		log.PointsKey, train.Len(),
		"verification_points", verify.Len(),
		log.ShapeKey, train.Shape().Ints(),
		log.RandomSeedKey, o.randomState,
		log.HyperParamsKey, map[string]interface{}{
			"elites":                  elites,
			"immigrants":              immigrants,
			"selector":                o.selector.Name(),
			"crossover_rate":          o.crossoverRate,
			"complexity_penalty":      o.complexityPenalty,
			"verification_candidates": o.verificationCandidates,
			"features":                len(restrictions.Features),
			"operations":              len(restrictions.Operations),
			"max_depth":               restrictions.MaxDepth,
		},
	)
	return g, nil
}

// ID returns the identifier of the group.
func (g *TrainingGroup) ID() string { return g.id }

// PopulationSize returns the configured population size.
func (g *TrainingGroup) PopulationSize() int { return g.size }

// Restrictions returns the compiled structural constraints.
func (g *TrainingGroup) Restrictions() model.Restrictions { return g.restrictions }

// Objective returns the objective the population is ranked by.
func (g *TrainingGroup) Objective() metrics.Objective { return g.objective }

// Generation returns the number of completed generations.
func (g *TrainingGroup) Generation() int { return g.state.Generation() }

// State reports whether a generation step is in progress.
func (g *TrainingGroup) State() model.State { return g.state.State() }

// Stats returns the statistics of the last completed generation, and false
// before the first one.
func (g *TrainingGroup) Stats() (Stats, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.stats == nil {
		return Stats{}, false
	}
	return *g.stats, true
}

// Advance runs one generation: evaluate, rank, breed, commit.
//
// Only individuals without a cached fitness are evaluated; evaluation runs in
// parallel. The verification view is never consulted. On failure the
// population, statistics and generation counter are left exactly as they
// were, and the returned error wraps *errors.InvariantViolationError. The
// random stream is not advanced either, so retrying replays the generation a
// fresh group with the same seed would run. Failures are still meant to be
// fatal: a retry only helps when the cause was outside the group.
func (g *TrainingGroup) Advance() error {
	if err := g.state.Begin(); err != nil {
		g.logger.Warn("advance rejected",
			log.OperationKey, log.OperationAdvance,
			log.ErrorCodeKey, log.ErrorConcurrentCall,
		)
		return err
	}
	start := time.Now()
	generation := g.state.Generation() + 1

	g.mu.RLock()
	population := g.population
	prev := g.stats
	rng := rand.New(rand.NewSource(g.seed))
	g.mu.RUnlock()

	ranked, evaluated, err := g.evaluate(population, generation)
	var next []*member
	if err == nil {
		next, err = g.breed(rng, ranked)
	}
	if err != nil {
		g.state.Abort()
		err = asInvariant(err)
		g.logger.Error("advance failed",
			log.ErrAttrKey, err,
			log.OperationKey, log.OperationAdvance,
			log.GenerationKey, generation,
			log.ErrorCodeKey, log.ErrorInvariant,
		)
		return err
	}

	stats := summarize(generation, g.objective.Name(), ranked, evaluated, prev)
	g.state.Commit(func(int) {
		g.mu.Lock()
		g.population = next
		g.ranked = ranked
		g.stats = &stats
		g.seed = rng.Int63()
		g.mu.Unlock()
	})
	elapsed := time.Since(start)

	g.logger.Debug("generation completed",
		log.OperationKey, log.OperationAdvance,
		log.GenerationKey, stats.Generation,
		log.ScoreKey, stats.TrainingScore,
		log.FitnessKey, stats.BestFitness,
		log.MeanFitnessKey, stats.MeanFitness,
		log.DiversityKey, stats.Diversity,
		log.EvaluatedKey, stats.Evaluated,
		log.StagnationKey, stats.Stagnation,
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	if n := g.opts.stagnationWarning; n > 0 && stats.Stagnation > 0 && stats.Stagnation%n == 0 {
		errors.Warn(errors.NewStagnationWarning(stats.Generation, stats.Stagnation, stats.BestFitness))
	}
	if g.opts.observer != nil {
		g.opts.observer.ObserveGeneration(g.id, stats, elapsed)
	}
	return nil
}

// evaluate scores members lacking a cached fitness and returns the whole
// population ranked best first. Equal fitness prefers lower complexity, then
// the earlier population slot.
func (g *TrainingGroup) evaluate(population []*member, generation int) ([]*member, int, error) {
	out := make([]*member, len(population))
	var todo []int
	for i, m := range population {
		if m.evaluated {
			out[i] = m
		} else {
			todo = append(todo, i)
		}
	}

	err := parallel.ForEach(len(todo), g.opts.workers, func(k int) error {
		i := todo[k]
		scored, err := g.score(population[i], generation)
		if err != nil {
			return err
		}
		out[i] = scored
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].fitness != out[b].fitness {
			return out[a].fitness > out[b].fitness
		}
		return out[a].complexity < out[b].complexity
	})
	return out, len(todo), nil
}

func (g *TrainingGroup) score(m *member, generation int) (*member, error) {
	preds := predictView(m.ind, g.train, false)
	s, err := g.objective.Score(preds, g.train)
	if err != nil {
		return nil, errors.NewInvariantViolationError(log.OperationAdvance, "objective failed for individual "+m.id, err)
	}
	if s == nil {
		return nil, errors.NewInvariantViolationError(log.OperationAdvance, "objective returned no score for a non-empty training view", nil)
	}
	if err := errors.CheckScalar(g.objective.Name(), s.Value, generation); err != nil {
		return nil, errors.NewInvariantViolationError(log.OperationAdvance, "non-finite objective value for individual "+m.id, err)
	}
	complexity := m.ind.Complexity()
	if complexity < 0 {
		return nil, errors.NewInvariantViolationError(log.OperationAdvance, "negative complexity for individual "+m.id, nil)
	}

	return &member{
		id:          m.id,
		ind:         m.ind,
		evaluated:   true,
		fitness:     s.Value - g.opts.complexityPenalty*float64(complexity),
		score:       s,
		complexity:  complexity,
		fingerprint: m.ind.Fingerprint(),
	}, nil
}

// breed builds the next population: elites with their cached fitness, fresh
// immigrants, then offspring of selected parents.
func (g *TrainingGroup) breed(rng *rand.Rand, ranked []*member) (next []*member, err error) {
	defer errors.Recover(&err, "breed")

	elites, immigrants := g.opts.counts(g.size)
	next = make([]*member, 0, g.size)
	next = append(next, ranked[:elites]...)

	vocab := g.train.Vocabulary()
	for i := 0; i < immigrants; i++ {
		m, err := g.spawn(rng, g.opts.factory.New(rng, vocab, g.restrictions))
		if err != nil {
			return nil, err
		}
		next = append(next, m)
	}

	scored := make([]Scored, len(ranked))
	for i, m := range ranked {
		scored[i] = Scored{Individual: m.ind, Fitness: m.fitness}
	}
	for len(next) < g.size {
		parent, err := g.opts.selector.PickParent(rng, scored)
		if err != nil {
			return nil, err
		}
		child := parent
		if rng.Float64() < g.opts.crossoverRate {
			mate, err := g.opts.selector.PickParent(rng, scored)
			if err != nil {
				return nil, err
			}
			child = child.Recombine(rng, mate, g.restrictions)
		}
		m, err := g.spawn(rng, child.Mutate(rng, g.restrictions))
		if err != nil {
			return nil, err
		}
		next = append(next, m)
	}
	return next, nil
}

func (g *TrainingGroup) spawn(rng *rand.Rand, ind model.Individual) (*member, error) {
	if ind == nil {
		return nil, errors.NewInvariantViolationError(log.OperationAdvance, "factory or operator returned a nil individual", nil)
	}
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return nil, errors.Wrap(err, "generate individual id")
	}
	return &member{id: id.String(), ind: ind}, nil
}

// Classifier returns a snapshot of the current best individual. The best
// few training individuals (WithVerificationCandidates) are compared on the
// verification view; ties keep the better training rank. It fails with
// *errors.NotReadyError before the first completed generation.
func (g *TrainingGroup) Classifier() (*Classifier, error) {
	if err := g.state.RequireReady("TrainingGroup", "Classifier"); err != nil {
		return nil, err
	}
	g.mu.RLock()
	ranked := g.ranked
	generation := g.stats.Generation
	g.mu.RUnlock()

	n := g.opts.verificationCandidates
	if n > len(ranked) {
		n = len(ranked)
	}
	best := ranked[0]
	var bestScore *metrics.Score
	err := errors.SafeExecute(log.OperationExtract, func() error {
		for _, m := range ranked[:n] {
			vs, err := g.objective.Score(predictView(m.ind, g.verify, true), g.verify)
			if err != nil {
				return errors.Wrap(err, "score verification view")
			}
			if vs == nil {
				return errors.NewInvariantViolationError(log.OperationExtract, "objective returned no score for a non-empty verification view", nil)
			}
			if bestScore == nil || vs.Value > bestScore.Value {
				best, bestScore = m, vs
			}
		}
		return nil
	})
	if err != nil {
		g.logger.Error("classifier extraction failed",
			log.ErrAttrKey, err,
			log.OperationKey, log.OperationExtract,
			log.GenerationKey, generation,
		)
		return nil, err
	}

	g.logger.Debug("classifier extracted",
		log.OperationKey, log.OperationExtract,
		log.ClassifierIDKey, best.id,
		log.GenerationKey, generation,
		log.ScoreKey, best.score.Value,
		log.PhaseKey, log.PhaseVerification,
		"verification_score", bestScore.Value,
	)
	return &Classifier{
		id:            best.id,
		individual:    best.ind,
		objective:     g.objective,
		shape:         g.train.Shape(),
		generation:    generation,
		trainingScore: best.score.Value,
		verification:  bestScore,
	}, nil
}

func asInvariant(err error) error {
	var inv *errors.InvariantViolationError
	if errors.As(err, &inv) {
		return err
	}
	return errors.NewInvariantViolationError(log.OperationAdvance, "generation step failed", err)
}

func sameClasses(a, b *data.Vocabulary) bool {
	if a == b {
		return true
	}
	ac, bc := a.Classes(), b.Classes()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	return true
}
