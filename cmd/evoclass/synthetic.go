package main

import (
	"math/rand"

	"github.com/YuminosukeSato/evoclass/data"
)

// puzzleClasses are the four classes of the demo data.
var puzzleClasses = map[data.Class]string{0: "A", 1: "B", 2: "C", 3: "D"}

// puzzleLabel assigns a class to three integer features.
func puzzleLabel(a, b, c int) data.Class {
	switch {
	case a%15 == 0:
		return 0
	case (b+2)%5 == 0:
		return 1
	case (c+5)%3 == 0:
		return 2
	default:
		return 3
	}
}

// generatePuzzle builds three consecutive blocks of perBlock points. Block i
// draws every feature from [i*span, (i+1)*span), so after an insertion-order
// split the test view only holds values never seen in training.
func generatePuzzle(rng *rand.Rand, perBlock, span int) (*data.DataSet, error) {
	ds, err := data.NewDataSet(puzzleClasses)
	if err != nil {
		return nil, err
	}
	for block := 0; block < 3; block++ {
		for i := 0; i < perBlock; i++ {
			a := block*span + rng.Intn(span)
			b := block*span + rng.Intn(span)
			c := block*span + rng.Intn(span)
			in, err := data.NewInput([][]float64{{float64(a), float64(b), float64(c)}})
			if err != nil {
				return nil, err
			}
			if err := ds.Add(in, data.NewOutcome(puzzleLabel(a, b, c), 1.0, -1.0)); err != nil {
				return nil, err
			}
		}
	}
	return ds, nil
}
