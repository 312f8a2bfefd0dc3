package data

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Shape is the layer × feature arity of an Input.
type Shape struct {
	Rows int
	Cols int
}

// Ints returns the shape as []int{Rows, Cols}.
func (s Shape) Ints() []int { return []int{s.Rows, s.Cols} }

// IsZero reports whether no shape has been established yet.
func (s Shape) IsZero() bool { return s.Rows == 0 && s.Cols == 0 }

func (s Shape) String() string { return fmt.Sprintf("%dx%d", s.Rows, s.Cols) }

// Input is an immutable rectangular block of features. Each row is one
// input layer; most data sets use a single layer.
type Input struct {
	m *mat.Dense
}

// NewInput copies rows into a new Input. All rows must have the same,
// non-zero length.
func NewInput(rows [][]float64) (*Input, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.NewShapeMismatchError([]int{len(rows), cols}, []int{i, len(row)})
		}
		flat = append(flat, row...)
	}
	return &Input{m: mat.NewDense(len(rows), cols, flat)}, nil
}

// MustInput is NewInput for literals known to be valid. It panics on error.
func MustInput(rows ...[]float64) *Input {
	in, err := NewInput(rows)
	if err != nil {
		panic(err)
	}
	return in
}

// Shape returns the arity of the input.
func (in *Input) Shape() Shape {
	r, c := in.m.Dims()
	return Shape{Rows: r, Cols: c}
}

// At returns the feature at (layer, col).
func (in *Input) At(layer, col int) float64 { return in.m.At(layer, col) }

// Row returns a copy of one layer.
func (in *Input) Row(layer int) []float64 { return mat.Row(nil, layer, in.m) }

// Matrix returns a copy of the features. Changing it never affects the
// Input or the points sharing it.
func (in *Input) Matrix() *mat.Dense { return mat.DenseCopyOf(in.m) }

// Point is an immutable labeled observation.
type Point struct {
	input   *Input
	outcome Outcome
}

// NewPoint pairs an Input with its Outcome.
func NewPoint(input *Input, outcome Outcome) *Point {
	return &Point{input: input, outcome: outcome}
}

// Input returns the features of the point.
func (p *Point) Input() *Input { return p.input }

// Outcome returns the ground truth of the point.
func (p *Point) Outcome() Outcome { return p.outcome }
