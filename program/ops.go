package program

import (
	"math"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// valueLimit bounds every intermediate value so trees never produce
// non-finite outputs.
const valueLimit = 1e12

type operation struct {
	name  string
	arity int
	fn    func(a, b float64) float64
}

var operations = []operation{
	{"add", 2, func(a, b float64) float64 { return a + b }},
	{"sub", 2, func(a, b float64) float64 { return a - b }},
	{"mul", 2, func(a, b float64) float64 { return a * b }},
	{"div", 2, errors.SafeDivide},
	{"mod", 2, func(a, b float64) float64 {
		if math.Abs(b) < 1e-10 {
			return 0
		}
		return math.Mod(a, b)
	}},
	{"min", 2, math.Min},
	{"max", 2, math.Max},
	{"gt", 2, func(a, b float64) float64 {
		if a > b {
			return 1
		}
		return 0
	}},
	{"neg", 1, func(a, _ float64) float64 { return -a }},
	{"abs", 1, func(a, _ float64) float64 { return math.Abs(a) }},
	{"sin", 1, func(a, _ float64) float64 { return math.Sin(a) }},
	{"tanh", 1, func(a, _ float64) float64 { return math.Tanh(a) }},
}

var opIndex = func() map[string]int {
	m := make(map[string]int, len(operations))
	for i, op := range operations {
		m[op.name] = i
	}
	return m
}()

// Operations returns the names of every operation a tree may use.
func Operations() []string {
	out := make([]string, len(operations))
	for i, op := range operations {
		out[i] = op.name
	}
	return out
}

func apply(op int, a, b float64) float64 {
	return errors.Sanitize(operations[op].fn(a, b), valueLimit)
}
