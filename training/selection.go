package training

import (
	"math/rand"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Scored is a ranked population member as seen by a Selector. Ranked slices
// are ordered best first.
type Scored struct {
	Individual model.Individual
	Fitness    float64
}

// Selector chooses parents from a ranked population. Implementations must
// draw randomness only from rng so runs stay reproducible.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []Scored) (model.Individual, error)
}

// TournamentSelector samples Size members uniformly and returns the fittest.
// Equal fitness keeps the member drawn first.
type TournamentSelector struct {
	Size int
}

func (TournamentSelector) Name() string { return "tournament" }

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []Scored) (model.Individual, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if len(ranked) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	size := s.Size
	if size <= 0 {
		size = defaultTournamentSize
	}

	best := ranked[rng.Intn(len(ranked))]
	for i := 1; i < size; i++ {
		candidate := ranked[rng.Intn(len(ranked))]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best.Individual, nil
}

// EliteSelector picks uniformly among the Count best members. Count <= 0
// means the best tenth, and at least one.
type EliteSelector struct {
	Count int
}

func (EliteSelector) Name() string { return "elite" }

func (s EliteSelector) PickParent(rng *rand.Rand, ranked []Scored) (model.Individual, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if len(ranked) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	count := s.Count
	if count <= 0 {
		count = len(ranked) / 10
	}
	if count < 1 {
		count = 1
	}
	if count > len(ranked) {
		count = len(ranked)
	}
	return ranked[rng.Intn(count)].Individual, nil
}
