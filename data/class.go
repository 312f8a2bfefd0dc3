// Package data holds labeled observations and the views the training engine
// evaluates against.
//
// A DataSet owns a fixed class vocabulary and an ordered list of points.
// Splitting it yields three disjoint, read-only Views (training,
// verification, test) that share the underlying points by reference.
package data

import (
	"sort"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Class identifies one category. Values are chosen by the caller and only
// need to be unique within a Vocabulary.
type Class int

// Vocabulary is the immutable set of classes of a DataSet, ordered by
// ascending Class value.
type Vocabulary struct {
	classes []Class
	names   map[Class]string
	index   map[Class]int
}

// NewVocabulary builds a vocabulary from a Class → display name mapping.
func NewVocabulary(names map[Class]string) (*Vocabulary, error) {
	if len(names) == 0 {
		return nil, errors.NewConfigurationError("classes", "at least one class is required", len(names))
	}

	classes := make([]Class, 0, len(names))
	copied := make(map[Class]string, len(names))
	for c, name := range names {
		classes = append(classes, c)
		copied[c] = name
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	index := make(map[Class]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &Vocabulary{classes: classes, names: copied, index: index}, nil
}

// Len returns the number of classes.
func (v *Vocabulary) Len() int { return len(v.classes) }

// Classes returns the classes in ascending order.
func (v *Vocabulary) Classes() []Class {
	out := make([]Class, len(v.classes))
	copy(out, v.classes)
	return out
}

// ClassAt returns the class at position i of Classes().
func (v *Vocabulary) ClassAt(i int) Class { return v.classes[i] }

// Index returns the position of c in Classes().
func (v *Vocabulary) Index(c Class) (int, bool) {
	i, ok := v.index[c]
	return i, ok
}

// Contains reports whether c belongs to the vocabulary.
func (v *Vocabulary) Contains(c Class) bool {
	_, ok := v.index[c]
	return ok
}

// Name returns the display name of c, or "" when c is unknown.
func (v *Vocabulary) Name(c Class) string { return v.names[c] }

// Names returns display names for the given classes.
func (v *Vocabulary) Names(classes []Class) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = v.names[c]
	}
	return out
}

func (v *Vocabulary) ints() []int {
	out := make([]int, len(v.classes))
	for i, c := range v.classes {
		out[i] = int(c)
	}
	return out
}

// Outcome is the ground truth of one point: the correct class, and the
// target value of every class. The correct class is worth Correct, every
// other class is worth Distractor.
type Outcome struct {
	class      Class
	correct    float64
	distractor float64
}

// NewOutcome creates an Outcome. The usual values are 1.0 and -1.0.
func NewOutcome(class Class, correct, distractor float64) Outcome {
	return Outcome{class: class, correct: correct, distractor: distractor}
}

// Class returns the correct class.
func (o Outcome) Class() Class { return o.class }

// Value returns the target value of c.
func (o Outcome) Value(c Class) float64 {
	if c == o.class {
		return o.correct
	}
	return o.distractor
}

// Prediction is the output of a classifier for one Input. Confidence, when
// present, is indexed like Vocabulary.Classes().
type Prediction struct {
	Class      Class
	Confidence []float64
}
