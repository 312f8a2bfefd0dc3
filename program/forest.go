// Package program implements the default evolvable classifier: one
// arithmetic expression tree per class. The predicted class is the one whose
// tree yields the largest value for the input.
package program

import (
	"math/rand"
	"strings"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Representation is the name reported by Factory.Name.
const Representation = "expression_forest"

const (
	defaultMaxDepth = 6
	defaultConstMax = 20
	crossoverTries  = 8
)

// Forest holds one expression tree per class of a vocabulary. It implements
// model.Individual and is immutable.
type Forest struct {
	vocab    *data.Vocabulary
	trees    []*node
	maxDepth int
	constMax int
}

var _ model.Individual = (*Forest)(nil)

// Predict evaluates every tree. Ties go to the class listed first in the
// vocabulary; Confidence is the softmax of the tree outputs.
func (f *Forest) Predict(in *data.Input) data.Prediction {
	outputs := make([]float64, len(f.trees))
	best := 0
	for i, t := range f.trees {
		outputs[i] = t.eval(in)
		if outputs[i] > outputs[best] {
			best = i
		}
	}
	return data.Prediction{Class: f.vocab.ClassAt(best), Confidence: errors.Softmax(outputs)}
}

// Complexity is the total node count.
func (f *Forest) Complexity() int {
	n := 0
	for _, t := range f.trees {
		n += t.size()
	}
	return n
}

// Depth returns the depth of the deepest tree.
func (f *Forest) Depth() int {
	d := 0
	for _, t := range f.trees {
		if td := t.depth(); td > d {
			d = td
		}
	}
	return d
}

// Fingerprint joins the canonical form of each tree.
func (f *Forest) Fingerprint() string {
	parts := make([]string, len(f.trees))
	for i, t := range f.trees {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}

// String renders one "name: expression" line per class.
func (f *Forest) String() string {
	var b strings.Builder
	for i, t := range f.trees {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.vocab.Name(f.vocab.ClassAt(i)))
		b.WriteString(": ")
		t.write(&b)
	}
	return b.String()
}

func (f *Forest) depthLimit(r model.Restrictions) int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return f.maxDepth
}

func (f *Forest) copyTrees() []*node {
	trees := make([]*node, len(f.trees))
	for i, t := range f.trees {
		trees[i] = t.clone()
	}
	return trees
}

func (f *Forest) with(trees []*node) *Forest {
	return &Forest{vocab: f.vocab, trees: trees, maxDepth: f.maxDepth, constMax: f.constMax}
}

// Mutate alters one tree: either a random subtree is regrown or a single
// node is changed in place.
func (f *Forest) Mutate(rng *rand.Rand, r model.Restrictions) model.Individual {
	g := newGenerator(rng, r, f.constMax)
	limit := f.depthLimit(r)
	trees := f.copyTrees()

	ti := rng.Intn(len(trees))
	nodes := trees[ti].collect(1, nil)
	target := nodes[rng.Intn(len(nodes))]
	if rng.Intn(2) == 0 {
		*target.n = *g.grow(limit - target.level + 1)
	} else {
		g.pointMutate(target.n)
	}
	return f.with(trees)
}

// Recombine takes each class tree from either parent with equal odds, then
// grafts a subtree of mate into one tree when the result fits the depth
// limit. A mate that is not a *Forest over the same vocabulary yields a copy
// of the receiver.
func (f *Forest) Recombine(rng *rand.Rand, mate model.Individual, r model.Restrictions) model.Individual {
	other, ok := mate.(*Forest)
	if !ok || len(other.trees) != len(f.trees) {
		return f.with(f.copyTrees())
	}

	trees := make([]*node, len(f.trees))
	for i := range trees {
		if rng.Intn(2) == 0 {
			trees[i] = f.trees[i].clone()
		} else {
			trees[i] = other.trees[i].clone()
		}
	}

	limit := f.depthLimit(r)
	ti := rng.Intn(len(trees))
	donors := other.trees[ti].collect(1, nil)
	for try := 0; try < crossoverTries; try++ {
		nodes := trees[ti].collect(1, nil)
		target := nodes[rng.Intn(len(nodes))]
		donor := donors[rng.Intn(len(donors))].n
		if target.level-1+donor.depth() <= limit {
			*target.n = *donor.clone()
			break
		}
	}
	return f.with(trees)
}

// Factory creates random forests. It implements model.Factory.
type Factory struct {
	maxDepth int
	constMax int
}

var _ model.Factory = (*Factory)(nil)

// Option configures a Factory.
type Option func(*Factory)

// WithMaxDepth sets the default tree depth limit, used when the compiled
// restrictions carry no MaxDepth constraint.
func WithMaxDepth(depth int) Option {
	return func(f *Factory) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// WithConstantRange sets the bound of random integer constants.
func WithConstantRange(max int) Option {
	return func(f *Factory) {
		if max > 0 {
			f.constMax = max
		}
	}
}

// NewFactory returns a Factory with default depth 6 and constants in [-20, 20].
func NewFactory(opts ...Option) *Factory {
	f := &Factory{maxDepth: defaultMaxDepth, constMax: defaultConstMax}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name implements model.Factory.
func (*Factory) Name() string { return Representation }

// Operations implements model.Factory.
func (*Factory) Operations() []string { return Operations() }

// New implements model.Factory.
func (fa *Factory) New(rng *rand.Rand, vocab *data.Vocabulary, r model.Restrictions) model.Individual {
	f := &Forest{vocab: vocab, maxDepth: fa.maxDepth, constMax: fa.constMax}
	g := newGenerator(rng, r, fa.constMax)
	limit := f.depthLimit(r)
	f.trees = make([]*node, vocab.Len())
	for i := range f.trees {
		f.trees[i] = g.grow(limit)
	}
	return f
}
