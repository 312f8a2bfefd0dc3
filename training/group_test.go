package training

import (
	"io"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
)

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func newGroup(t *testing.T, train, verify *data.View, size int, opts ...Option) *TrainingGroup {
	t.Helper()
	opts = append([]Option{WithRandomState(42), WithLogger(quietLogger()), WithStagnationWarning(0)}, opts...)
	g, err := NewTrainingGroup(train, verify, metrics.Accuracy{}, size, nil, opts...)
	require.NoError(t, err)
	return g
}

func TestNewTrainingGroupConfigurationErrors(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	empty, err := puzzleData(t, 1, 1).View(data.Verification, nil)
	require.NoError(t, err)
	otherShape, err := data.NewDataSet(letters)
	require.NoError(t, err)
	require.NoError(t, otherShape.Add(data.MustInput([]float64{1}), data.NewOutcome(0, 1, -1)))
	narrow, err := otherShape.View(data.Verification, []int{0})
	require.NoError(t, err)

	tests := []struct {
		name        string
		train       *data.View
		verify      *data.View
		objective   metrics.Objective
		size        int
		constraints []model.Constraint
		opts        []Option
	}{
		{"zero population", train, verify, metrics.Accuracy{}, 0, nil, nil},
		{"negative population", train, verify, metrics.Accuracy{}, -3, nil, nil},
		{"empty training view", empty, verify, metrics.Accuracy{}, 10, nil, nil},
		{"nil training view", nil, verify, metrics.Accuracy{}, 10, nil, nil},
		{"empty verification view", train, empty, metrics.Accuracy{}, 10, nil, nil},
		{"shape mismatch", train, narrow, metrics.Accuracy{}, 10, nil, nil},
		{"nil objective", train, verify, nil, 10, nil, nil},
		{"inconsistent constraints", train, verify, metrics.Accuracy{}, 10,
			[]model.Constraint{model.MaxDepth{Depth: 2}, model.MaxDepth{Depth: 3}}, nil},
		{"feature outside shape", train, verify, metrics.Accuracy{}, 10,
			[]model.Constraint{model.ForbidFeature{Feature: model.FeatureRef{Column: 3}}}, nil},
		{"bad elite fraction", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithEliteFraction(1.5)}},
		{"bad immigrant fraction", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithImmigrantFraction(1)}},
		{"bad tournament", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithTournamentSize(0)}},
		{"bad crossover", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithCrossoverRate(math.NaN())}},
		{"bad penalty", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithComplexityPenalty(-1)}},
		{"bad candidates", train, verify, metrics.Accuracy{}, 10, nil, []Option{WithVerificationCandidates(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithLogger(quietLogger())}, tt.opts...)
			g, err := NewTrainingGroup(tt.train, tt.verify, tt.objective, tt.size, tt.constraints, opts...)
			assert.Nil(t, g)
			var cfgErr *errors.ConfigurationError
			assert.True(t, errors.As(err, &cfgErr), "got %T: %v", err, err)
		})
	}
}

func TestQueriesBeforeFirstGeneration(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	g := newGroup(t, train, verify, 8)

	assert.Equal(t, 0, g.Generation())
	assert.Equal(t, model.Initialized, g.State())
	_, ok := g.Stats()
	assert.False(t, ok)

	clf, err := g.Classifier()
	assert.Nil(t, clf)
	var notReady *errors.NotReadyError
	assert.True(t, errors.As(err, &notReady))
}

func TestGenerationCounterIsMonotonic(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	g := newGroup(t, train, verify, 10)

	for i := 1; i <= 5; i++ {
		require.NoError(t, g.Advance())
		s, ok := g.Stats()
		require.True(t, ok)
		assert.Equal(t, i, s.Generation)
		assert.Equal(t, i, g.Generation())
		assert.Equal(t, 10, s.Population)
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	train, verify, test := puzzleViews(t, 20)
	run := func() ([]Stats, []data.Prediction, string) {
		g := newGroup(t, train, verify, 30, WithWorkers(4))
		var history []Stats
		for i := 0; i < 6; i++ {
			require.NoError(t, g.Advance())
			s, _ := g.Stats()
			history = append(history, s)
		}
		clf, err := g.Classifier()
		require.NoError(t, err)
		preds, err := clf.PredictView(test)
		require.NoError(t, err)
		return history, preds, clf.ID()
	}

	h1, p1, id1 := run()
	h2, p2, id2 := run()
	assert.Equal(t, h1, h2)
	assert.Equal(t, p1, p2)
	assert.Equal(t, id1, id2)
}

func TestBestScoreNeverDegrades(t *testing.T) {
	train, verify, _ := puzzleViews(t, 20)
	g := newGroup(t, train, verify, 30)

	prev := math.Inf(-1)
	prevScore := math.Inf(-1)
	for i := 0; i < 15; i++ {
		require.NoError(t, g.Advance())
		s, _ := g.Stats()
		assert.GreaterOrEqual(t, s.BestFitness, prev)
		assert.GreaterOrEqual(t, s.TrainingScore, prevScore)
		assert.GreaterOrEqual(t, s.BestFitness, s.MeanFitness)
		assert.LessOrEqual(t, s.Diversity, s.Population)
		prev, prevScore = s.BestFitness, s.TrainingScore
	}
}

func TestElitesKeepCachedFitness(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	g := newGroup(t, train, verify, 20, WithEliteFraction(0.25), WithImmigrantFraction(0.1))

	require.NoError(t, g.Advance())
	s, _ := g.Stats()
	assert.Equal(t, 20, s.Evaluated)

	require.NoError(t, g.Advance())
	s, _ = g.Stats()
	assert.Equal(t, 15, s.Evaluated)
}

func TestClassifierSnapshot(t *testing.T) {
	train, verify, test := puzzleViews(t, 20)
	g := newGroup(t, train, verify, 20)
	require.NoError(t, g.Advance())

	clf, err := g.Classifier()
	require.NoError(t, err)
	before, err := clf.PredictView(test)
	require.NoError(t, err)
	fingerprint := clf.String()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Advance())
	}
	after, err := clf.PredictView(test)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, fingerprint, clf.String())
	assert.Equal(t, 1, clf.Generation())
}

func TestClassifierPredictAndScore(t *testing.T) {
	train, verify, test := puzzleViews(t, 20)
	g := newGroup(t, train, verify, 20)
	require.NoError(t, g.Advance())
	clf, err := g.Classifier()
	require.NoError(t, err)

	in := test.At(0).Input()
	p1, err := clf.Predict(in)
	require.NoError(t, err)
	p2, err := clf.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	_, err = clf.Predict(data.MustInput([]float64{1, 2}))
	var shapeErr *errors.ShapeMismatchError
	assert.True(t, errors.As(err, &shapeErr))

	score, err := clf.Score(test)
	require.NoError(t, err)
	require.NotNil(t, score)
	assert.False(t, math.IsNaN(score.Value))
	assert.GreaterOrEqual(t, score.Value, 0.0)
	assert.LessOrEqual(t, score.Value, 1.0)
	assert.Equal(t, test.Len(), score.Total)

	f1, err := clf.ScoreWith(metrics.MacroF1{}, test)
	require.NoError(t, err)
	assert.Equal(t, metrics.NameMacroF1, f1.Objective)

	empty, err := puzzleData(t, 2, 1).View(data.Test, nil)
	require.NoError(t, err)
	none, err := clf.Score(empty)
	assert.NoError(t, err)
	assert.Nil(t, none)

	assert.NotNil(t, clf.VerificationScore())
	assert.Equal(t, data.Verification, verify.Purpose())
}

func TestClassifierReRanksOnVerification(t *testing.T) {
	// Training favours class A, verification only holds class B.
	train := labeledView(t, data.Training, 0, 0, 1)
	verify := labeledView(t, data.Verification, 1, 1, 1)

	build := func(candidates int) *Classifier {
		factory := &constFactory{classes: []data.Class{0, 1}}
		g := newGroup(t, train, verify, 4, WithFactory(factory), WithVerificationCandidates(candidates))
		require.NoError(t, g.Advance())
		clf, err := g.Classifier()
		require.NoError(t, err)
		return clf
	}

	clf := build(1)
	p, err := clf.Predict(data.MustInput([]float64{0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, data.Class(0), p.Class)
	assert.InDelta(t, 2.0/3.0, clf.TrainingScore(), 1e-12)

	clf = build(5)
	p, err = clf.Predict(data.MustInput([]float64{0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, data.Class(1), p.Class)
	assert.Equal(t, 1.0, clf.VerificationScore().Value)
}

// trainingOnlyObjective scores the training view and returns no score for
// anything else.
type trainingOnlyObjective struct{ fixedObjective }

func (o trainingOnlyObjective) Score(preds []data.Prediction, view *data.View) (*metrics.Score, error) {
	if view.Purpose() != data.Training {
		return nil, nil
	}
	return o.fixedObjective.Score(preds, view)
}

func TestClassifierExtractionFailures(t *testing.T) {
	train := labeledView(t, data.Training, 0, 1, 2)
	verify := labeledView(t, data.Verification, 0, 1)

	t.Run("missing verification score", func(t *testing.T) {
		g, err := NewTrainingGroup(train, verify, trainingOnlyObjective{fixedObjective{value: 0.5}}, 4, nil,
			WithRandomState(3), WithLogger(quietLogger()), WithFactory(&constFactory{classes: []data.Class{0, 1}}))
		require.NoError(t, err)
		require.NoError(t, g.Advance())

		_, err = g.Classifier()
		require.Error(t, err)
		var inv *errors.InvariantViolationError
		assert.True(t, errors.As(err, &inv))
	})

	t.Run("panic on verification view", func(t *testing.T) {
		corrupt := &atomic.Bool{}
		g := newGroup(t, train, verify, 4, WithFactory(&constFactory{classes: []data.Class{0, 1}, corrupt: corrupt}))
		require.NoError(t, g.Advance())

		corrupt.Store(true)
		_, err := g.Classifier()
		require.Error(t, err)
		var panicErr *errors.PanicError
		assert.True(t, errors.As(err, &panicErr))

		corrupt.Store(false)
		_, err = g.Classifier()
		assert.NoError(t, err)
	})
}

// failingSelector draws from the stream like a real selector and fails on
// demand.
type failingSelector struct {
	inner Selector
	fail  *atomic.Bool
}

func (s failingSelector) Name() string { return "failing" }

func (s failingSelector) PickParent(rng *rand.Rand, ranked []Scored) (model.Individual, error) {
	ind, err := s.inner.PickParent(rng, ranked)
	if s.fail.Load() {
		return nil, errors.New("selector unavailable")
	}
	return ind, err
}

func TestFailedAdvanceKeepsRandomStream(t *testing.T) {
	train, verify, _ := puzzleViews(t, 20)
	fail := &atomic.Bool{}
	selector := failingSelector{inner: TournamentSelector{Size: 3}, fail: fail}

	retried := newGroup(t, train, verify, 12, WithSelector(selector))
	fresh := newGroup(t, train, verify, 12, WithSelector(selector))

	require.NoError(t, retried.Advance())
	fail.Store(true)
	require.Error(t, retried.Advance())
	fail.Store(false)
	require.NoError(t, retried.Advance())

	require.NoError(t, fresh.Advance())
	require.NoError(t, fresh.Advance())

	a, _ := retried.Stats()
	b, _ := fresh.Stats()
	assert.Equal(t, b, a)

	retried.mu.RLock()
	fresh.mu.RLock()
	require.Len(t, retried.population, len(fresh.population))
	for i := range fresh.population {
		assert.Equal(t, fresh.population[i].id, retried.population[i].id)
		assert.Equal(t, fresh.population[i].ind.Fingerprint(), retried.population[i].ind.Fingerprint())
	}
	fresh.mu.RUnlock()
	retried.mu.RUnlock()
}

func TestAdvanceFailsAtomicallyOnPanic(t *testing.T) {
	train := labeledView(t, data.Training, 0, 1, 2)
	verify := labeledView(t, data.Verification, 0, 1)
	corrupt := &atomic.Bool{}
	factory := &constFactory{classes: []data.Class{0, 1, 2}, corrupt: corrupt}
	g := newGroup(t, train, verify, 6, WithFactory(factory), WithImmigrantFraction(0.5))

	require.NoError(t, g.Advance())
	before, _ := g.Stats()
	g.mu.RLock()
	population := append([]*member(nil), g.population...)
	g.mu.RUnlock()

	corrupt.Store(true)
	err := g.Advance()
	require.Error(t, err)
	var inv *errors.InvariantViolationError
	assert.True(t, errors.As(err, &inv))
	var panicErr *errors.PanicError
	assert.True(t, errors.As(err, &panicErr))

	after, _ := g.Stats()
	assert.Equal(t, before, after)
	assert.Equal(t, 1, g.Generation())
	assert.Equal(t, model.Initialized, g.State())
	g.mu.RLock()
	assert.Equal(t, population, g.population)
	g.mu.RUnlock()

	corrupt.Store(false)
	require.NoError(t, g.Advance())
	assert.Equal(t, 2, g.Generation())
}

func TestAdvanceRejectsNonFiniteObjective(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	g, err := NewTrainingGroup(train, verify, fixedObjective{value: math.NaN()}, 5, nil,
		WithRandomState(1), WithLogger(quietLogger()))
	require.NoError(t, err)

	err = g.Advance()
	var inv *errors.InvariantViolationError
	require.True(t, errors.As(err, &inv))
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
	assert.Equal(t, 0, g.Generation())
	_, ok := g.Stats()
	assert.False(t, ok)
}

func TestConcurrentAdvanceIsRejected(t *testing.T) {
	train := labeledView(t, data.Training, 0, 1)
	verify := labeledView(t, data.Verification, 0, 1)
	block := make(chan struct{})
	factory := &constFactory{classes: []data.Class{0, 1}, block: block}
	g := newGroup(t, train, verify, 4, WithFactory(factory))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = g.Advance()
	}()

	require.Eventually(t, func() bool { return g.State() == model.Advancing }, 5*time.Second, time.Millisecond)
	err := g.Advance()
	assert.ErrorIs(t, err, errors.ErrConcurrentAdvance)

	close(block)
	wg.Wait()
	assert.NoError(t, firstErr)
	assert.Equal(t, 1, g.Generation())
}

func TestObserverAndLogging(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	var observed []Stats
	var groupIDs []string
	obs := ObserverFunc(func(id string, s Stats, elapsed time.Duration) {
		observed = append(observed, s)
		groupIDs = append(groupIDs, id)
		assert.GreaterOrEqual(t, elapsed, time.Duration(0))
	})
	g, err := NewTrainingGroup(train, verify, metrics.Accuracy{}, 10, nil,
		WithRandomState(3), WithLogger(logger), WithObserver(obs))
	require.NoError(t, err)

	require.NoError(t, g.Advance())
	require.NoError(t, g.Advance())

	require.Len(t, observed, 2)
	assert.Equal(t, 2, observed[1].Generation)
	assert.Equal(t, []string{g.ID(), g.ID()}, groupIDs)

	assert.True(t, logger.ContainsMessage("training group constructed"))
	assert.True(t, logger.ContainsMessage("generation completed"))
	assert.True(t, logger.ContainsField(log.GroupIDKey, g.ID()))
	assert.True(t, logger.ContainsField(log.GenerationKey, 2.0))
	assert.True(t, logger.ContainsField(log.PopulationKey, 10.0))
}

func TestStagnationWarning(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(nil)
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer func() {
		errors.SetWarningHandler(nil)
		log.SetProvider(log.NewZerologProvider(io.Discard, log.LevelError))
	}()

	train := labeledView(t, data.Training, 0, 1)
	verify := labeledView(t, data.Verification, 0, 1)
	g := newGroup(t, train, verify, 3, WithFactory(&constFactory{classes: []data.Class{0}}), WithStagnationWarning(2))

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Advance())
	}
	s, _ := g.Stats()
	assert.Equal(t, 4, s.Stagnation)
	require.Len(t, warnings, 2)
	var stagnation *errors.StagnationWarning
	require.True(t, errors.As(warnings[0], &stagnation))
	assert.Equal(t, 3, stagnation.Generation)
}

func TestRestrictionsAreCompiled(t *testing.T) {
	train, verify, _ := puzzleViews(t, 10)
	g, err := NewTrainingGroup(train, verify, metrics.Accuracy{}, 5,
		[]model.Constraint{model.ForbidOperation{Name: "sin"}, model.MaxDepth{Depth: 3}},
		WithRandomState(5), WithLogger(quietLogger()))
	require.NoError(t, err)

	r := g.Restrictions()
	assert.False(t, r.AllowsOperation("sin"))
	assert.Equal(t, 3, r.MaxDepth)
	assert.Len(t, r.Features, 3)
	assert.Equal(t, 5, g.PopulationSize())
	assert.Equal(t, metrics.NameAccuracy, g.Objective().Name())
}
