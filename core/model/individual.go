// Package model defines the capability set the training engine needs from an
// evolvable classifier, the structural constraints that limit it, and the
// state machine guarding a training group's generation step.
//
// The engine never depends on a concrete representation: anything that
// implements Individual and is produced by a Factory can be evolved.
package model

import (
	"math/rand"

	"github.com/YuminosukeSato/evoclass/data"
)

// Individual is one candidate classifier in a population.
//
// Implementations must be immutable: Mutate and Recombine return new values
// and never modify the receiver or mate. Predict must be safe for concurrent
// use.
type Individual interface {
	// Predict returns the predicted class and, optionally, per-class confidence.
	Predict(in *data.Input) data.Prediction

	// Mutate returns a randomly altered copy respecting r.
	Mutate(rng *rand.Rand, r Restrictions) Individual

	// Recombine returns a child mixing the receiver with mate. Implementations
	// may assume mate was produced by the same Factory.
	Recombine(rng *rand.Rand, mate Individual, r Restrictions) Individual

	// Complexity is a non-negative structural size used for parsimony pressure.
	Complexity() int

	// Fingerprint is a canonical encoding; equal fingerprints mean equal behaviour.
	Fingerprint() string
}

// Factory creates random individuals of one representation.
type Factory interface {
	// Name identifies the representation in logs and configuration.
	Name() string

	// Operations lists the operation names constraints may forbid.
	Operations() []string

	// New returns a random individual for the given vocabulary.
	New(rng *rand.Rand, vocab *data.Vocabulary, r Restrictions) Individual
}
