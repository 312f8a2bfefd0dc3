package data

// Purpose tags what a View is used for.
type Purpose int

const (
	Training Purpose = iota
	Verification
	Test
)

func (p Purpose) String() string {
	switch p {
	case Training:
		return "training"
	case Verification:
		return "verification"
	case Test:
		return "test"
	default:
		return "unknown"
	}
}

// View is an ordered, read-only subset of a DataSet's points. Views are safe
// for concurrent use by any number of readers.
type View struct {
	purpose Purpose
	points  []*Point
	vocab   *Vocabulary
	shape   Shape
}

// Purpose returns the tag of the view.
func (v *View) Purpose() Purpose { return v.purpose }

// Len returns the number of points. A nil View has length 0.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.points)
}

// IsEmpty reports whether the view holds no points.
func (v *View) IsEmpty() bool { return v.Len() == 0 }

// At returns the i-th point.
func (v *View) At(i int) *Point { return v.points[i] }

// Vocabulary returns the class vocabulary of the source DataSet.
func (v *View) Vocabulary() *Vocabulary { return v.vocab }

// Shape returns the Input shape shared by all points.
func (v *View) Shape() Shape { return v.shape }

// ClassCounts counts points per correct class.
func (v *View) ClassCounts() map[Class]int {
	counts := make(map[Class]int, v.vocab.Len())
	for _, p := range v.points {
		counts[p.outcome.class]++
	}
	return counts
}

// MissingClasses returns the vocabulary classes with no point in the view.
func (v *View) MissingClasses() []Class {
	counts := v.ClassCounts()
	var missing []Class
	for _, c := range v.vocab.classes {
		if counts[c] == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}
