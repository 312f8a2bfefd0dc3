package data

import (
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/pkg/log"
)

// DataSet owns the class vocabulary and the ordered collection of points.
// It is not safe for concurrent mutation; the views it produces are.
type DataSet struct {
	vocab  *Vocabulary
	points []*Point
	shape  Shape
}

// NewDataSet creates an empty DataSet with the given vocabulary.
func NewDataSet(names map[Class]string) (*DataSet, error) {
	vocab, err := NewVocabulary(names)
	if err != nil {
		return nil, err
	}
	return &DataSet{vocab: vocab}, nil
}

// Vocabulary returns the class vocabulary.
func (d *DataSet) Vocabulary() *Vocabulary { return d.vocab }

// Len returns the number of points.
func (d *DataSet) Len() int { return len(d.points) }

// Shape returns the Input shape established by the first point, or the
// zero Shape while the set is empty.
func (d *DataSet) Shape() Shape { return d.shape }

// Point returns the i-th point in insertion order.
func (d *DataSet) Point(i int) *Point { return d.points[i] }

// AddDataPoint appends p. It fails with *errors.ShapeMismatchError when the
// Input shape differs from earlier points, and with *errors.ClassMismatchError
// when the Outcome's class is not in the vocabulary. A rejected point leaves
// the DataSet unchanged.
func (d *DataSet) AddDataPoint(p *Point) error {
	if p == nil || p.input == nil {
		return errors.NewValueError("AddDataPoint", "point and its input must not be nil")
	}
	if !d.vocab.Contains(p.outcome.class) {
		return errors.NewClassMismatchError(int(p.outcome.class), d.vocab.ints())
	}
	shape := p.input.Shape()
	if !d.shape.IsZero() && shape != d.shape {
		return errors.NewShapeMismatchError(d.shape.Ints(), shape.Ints())
	}

	d.shape = shape
	d.points = append(d.points, p)
	return nil
}

// Add is AddDataPoint(NewPoint(input, outcome)).
func (d *DataSet) Add(input *Input, outcome Outcome) error {
	return d.AddDataPoint(NewPoint(input, outcome))
}

// View builds a view over the points at indices, in the given order. An
// empty index list yields an empty view.
func (d *DataSet) View(purpose Purpose, indices []int) (*View, error) {
	points := make([]*Point, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(d.points) {
			return nil, errors.NewValueError("View",
				"point index out of range")
		}
		points[i] = d.points[idx]
	}
	return &View{purpose: purpose, points: points, vocab: d.vocab, shape: d.shape}, nil
}

// SplitIntoViews partitions a snapshot of the points into training,
// verification and test views according to policy. Every point lands in
// exactly one view. Later additions to the DataSet do not affect the views.
func (d *DataSet) SplitIntoViews(policy SplitPolicy) (training, verification, test *View, err error) {
	sizes, err := policy.sizes(len(d.points))
	if err != nil {
		return nil, nil, nil, err
	}

	order := make([]int, len(d.points))
	for i := range order {
		order[i] = i
	}
	if policy.Shuffle {
		rng := policy.rand()
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	views := [3]*View{}
	start := 0
	for i, purpose := range []Purpose{Training, Verification, Test} {
		views[i], err = d.View(purpose, order[start:start+sizes[i]])
		if err != nil {
			return nil, nil, nil, err
		}
		start += sizes[i]
	}

	if missing := views[0].MissingClasses(); len(missing) > 0 {
		errors.Warn(errors.NewClassCoverageWarning(Training.String(), d.vocab.Names(missing)))
	}

	log.GetLoggerWithName("data").Debug("data set split into views",
		log.OperationKey, log.OperationSplit,
		log.PointsKey, len(d.points),
		log.ClassesKey, d.vocab.Len(),
		"sizes", sizes,
		"shuffle", policy.Shuffle,
	)
	return views[0], views[1], views[2], nil
}

// Into3ViewsSplit splits with DefaultSplitPolicy: equal thirds in insertion
// order.
func (d *DataSet) Into3ViewsSplit() (training, verification, test *View, err error) {
	return d.SplitIntoViews(DefaultSplitPolicy())
}
