package data

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// SplitPolicy decides how SplitIntoViews partitions points.
//
// Fractions are relative weights for training, verification and test. With
// Shuffle unset the views take consecutive runs of points in insertion order.
// With Shuffle set the order is permuted first, using Rand when non-nil and a
// stream seeded from RandomState otherwise (RandomState < 0 seeds from the
// clock).
type SplitPolicy struct {
	Fractions   [3]float64
	Shuffle     bool
	RandomState int64
	Rand        *rand.Rand
}

// DefaultSplitPolicy returns equal thirds without shuffling.
func DefaultSplitPolicy() SplitPolicy {
	return SplitPolicy{Fractions: [3]float64{1, 1, 1}, RandomState: -1}
}

// ShuffledSplitPolicy returns equal thirds shuffled by a stream seeded with
// seed.
func ShuffledSplitPolicy(seed int64) SplitPolicy {
	p := DefaultSplitPolicy()
	p.Shuffle = true
	p.RandomState = seed
	return p
}

func (p SplitPolicy) rand() *rand.Rand {
	if p.Rand != nil {
		return p.Rand
	}
	seed := p.RandomState
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// sizes distributes n points over the three views by largest remainder;
// equal remainders favour the earlier view.
func (p SplitPolicy) sizes(n int) ([3]int, error) {
	var out [3]int
	total := 0.0
	minFrac := math.Inf(1)
	for _, f := range p.Fractions {
		if !(f > 0) || math.IsInf(f, 0) {
			return out, errors.NewConfigurationError("fractions", "every split fraction must be a positive finite number", p.Fractions)
		}
		total += f
		minFrac = math.Min(minFrac, f)
	}
	if n < 3 {
		return out, errors.NewInsufficientDataError("split_into_views", 3, n)
	}

	type rem struct {
		view int
		frac float64
	}
	rems := make([]rem, 3)
	assigned := 0
	for i, f := range p.Fractions {
		exact := float64(n) * f / total
		out[i] = int(math.Floor(exact))
		assigned += out[i]
		rems[i] = rem{view: i, frac: exact - float64(out[i])}
	}
	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < n; i++ {
		out[rems[i%3].view]++
		assigned++
	}

	for _, s := range out {
		if s == 0 {
			need := int(math.Ceil(total / minFrac))
			return out, errors.NewInsufficientDataError("split_into_views", need, n)
		}
	}
	return out, nil
}
