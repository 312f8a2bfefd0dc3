package training

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
)

var letters = map[data.Class]string{0: "A", 1: "B", 2: "C", 3: "D"}

// puzzleData builds three blocks of points whose features come from
// [0,per), [per,2per) and [2per,3per), labeled by divisibility rules.
func puzzleData(t *testing.T, seed int64, per int) *data.DataSet {
	t.Helper()
	ds, err := data.NewDataSet(letters)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	const span = 100
	for block := 0; block < 3; block++ {
		for i := 0; i < per; i++ {
			a := block*span + rng.Intn(span)
			b := block*span + rng.Intn(span)
			c := block*span + rng.Intn(span)
			class := data.Class(3)
			switch {
			case a%15 == 0:
				class = 0
			case (b+2)%5 == 0:
				class = 1
			case (c+5)%3 == 0:
				class = 2
			}
			in := data.MustInput([]float64{float64(a), float64(b), float64(c)})
			require.NoError(t, ds.Add(in, data.NewOutcome(class, 1, -1)))
		}
	}
	return ds
}

func puzzleViews(t *testing.T, per int) (train, verify, test *data.View) {
	t.Helper()
	train, verify, test, err := puzzleData(t, 11, per).Into3ViewsSplit()
	require.NoError(t, err)
	return train, verify, test
}

// argmaxViews labels three uniform features in [0,100) by the largest one
// (A, B or C); points whose features are all below 10 are D.
func argmaxViews(t *testing.T, seed int64, per int) (train, verify, test *data.View) {
	t.Helper()
	ds, err := data.NewDataSet(letters)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 3*per; i++ {
		f := []float64{float64(rng.Intn(100)), float64(rng.Intn(100)), float64(rng.Intn(100))}
		class := data.Class(0)
		switch {
		case f[0] < 10 && f[1] < 10 && f[2] < 10:
			class = 3
		case f[1] > f[0] && f[1] >= f[2]:
			class = 1
		case f[2] > f[0] && f[2] > f[1]:
			class = 2
		}
		require.NoError(t, ds.Add(data.MustInput(f), data.NewOutcome(class, 1, -1)))
	}
	train, verify, test, err = ds.Into3ViewsSplit()
	require.NoError(t, err)
	return train, verify, test
}

// constIndividual always predicts the same class.
type constIndividual struct {
	class   data.Class
	corrupt *atomic.Bool
	block   chan struct{}
}

func (c *constIndividual) Predict(*data.Input) data.Prediction {
	if c.block != nil {
		<-c.block
	}
	if c.corrupt != nil && c.corrupt.Load() {
		panic("corrupted individual")
	}
	return data.Prediction{Class: c.class}
}

func (c *constIndividual) Mutate(*rand.Rand, model.Restrictions) model.Individual { return c }

func (c *constIndividual) Recombine(*rand.Rand, model.Individual, model.Restrictions) model.Individual {
	return c
}

func (c *constIndividual) Complexity() int    { return 1 }
func (c *constIndividual) Fingerprint() string { return fmt.Sprintf("const(%d)", c.class) }

// constFactory hands out constant individuals cycling through classes.
type constFactory struct {
	classes []data.Class
	next    int
	corrupt *atomic.Bool
	block   chan struct{}
}

func (f *constFactory) Name() string         { return "constant" }
func (f *constFactory) Operations() []string { return nil }

func (f *constFactory) New(*rand.Rand, *data.Vocabulary, model.Restrictions) model.Individual {
	c := f.classes[f.next%len(f.classes)]
	f.next++
	return &constIndividual{class: c, corrupt: f.corrupt, block: f.block}
}

// fixedObjective returns the same value for every individual.
type fixedObjective struct{ value float64 }

func (fixedObjective) Name() string { return "fixed" }

func (o fixedObjective) Score(preds []data.Prediction, view *data.View) (*metrics.Score, error) {
	if view.IsEmpty() {
		return nil, nil
	}
	return &metrics.Score{Objective: "fixed", Value: o.value, Total: len(preds)}, nil
}

func labeledView(t *testing.T, purpose data.Purpose, classes ...data.Class) *data.View {
	t.Helper()
	ds, err := data.NewDataSet(letters)
	require.NoError(t, err)
	idx := make([]int, len(classes))
	for i, c := range classes {
		require.NoError(t, ds.Add(data.MustInput([]float64{float64(i), 0, 0}), data.NewOutcome(c, 1, -1)))
		idx[i] = i
	}
	v, err := ds.View(purpose, idx)
	require.NoError(t, err)
	return v
}
