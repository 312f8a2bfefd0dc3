package data

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

func fourClasses() map[Class]string {
	return map[Class]string{0: "A", 1: "B", 2: "C", 3: "D"}
}

func newSet(t *testing.T, n int) *DataSet {
	t.Helper()
	ds, err := NewDataSet(fourClasses())
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, ds.Add(MustInput([]float64{float64(i), float64(i * 2), 1}), NewOutcome(Class(i%4), 1, -1)))
	}
	return ds
}

func TestVocabulary(t *testing.T) {
	v, err := NewVocabulary(map[Class]string{7: "seven", 2: "two", 5: "five"})
	require.NoError(t, err)

	assert.Equal(t, []Class{2, 5, 7}, v.Classes())
	idx, ok := v.Index(7)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "five", v.Name(5))
	assert.False(t, v.Contains(3))

	_, err = NewVocabulary(nil)
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestOutcomeValue(t *testing.T) {
	o := NewOutcome(2, 1.0, -1.0)
	assert.Equal(t, Class(2), o.Class())
	assert.Equal(t, 1.0, o.Value(2))
	assert.Equal(t, -1.0, o.Value(0))
}

func TestNewInput(t *testing.T) {
	in, err := NewInput([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)
	assert.Equal(t, Shape{Rows: 2, Cols: 3}, in.Shape())
	assert.Equal(t, 5.0, in.At(1, 1))
	assert.Equal(t, []float64{4, 5, 6}, in.Row(1))

	_, err = NewInput([][]float64{{1, 2}, {3}})
	var shapeErr *errors.ShapeMismatchError
	assert.True(t, errors.As(err, &shapeErr))

	_, err = NewInput(nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestInputCopiesRows(t *testing.T) {
	row := []float64{1, 2, 3}
	in := MustInput(row)
	row[0] = 99
	assert.Equal(t, 1.0, in.At(0, 0))
}

func TestMatrixDoesNotExposePoint(t *testing.T) {
	ds := newSet(t, 9)
	train, _, _, err := ds.Into3ViewsSplit()
	require.NoError(t, err)

	m := train.At(0).Input().Matrix()
	m.Set(0, 0, 999)

	assert.Equal(t, 999.0, m.At(0, 0))
	assert.Equal(t, 0.0, train.At(0).Input().At(0, 0))
	assert.Equal(t, 0.0, ds.Point(0).Input().At(0, 0))
}

func TestAddDataPointRejections(t *testing.T) {
	ds := newSet(t, 3)

	err := ds.Add(MustInput([]float64{1, 2}), NewOutcome(0, 1, -1))
	var shapeErr *errors.ShapeMismatchError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{1, 3}, shapeErr.Expected)
	assert.Equal(t, []int{1, 2}, shapeErr.Got)
	assert.Equal(t, 3, ds.Len())

	err = ds.Add(MustInput([]float64{1, 2, 3}), NewOutcome(9, 1, -1))
	var classErr *errors.ClassMismatchError
	require.True(t, errors.As(err, &classErr))
	assert.Equal(t, 9, classErr.Class)
	assert.Equal(t, 3, ds.Len())
}

func TestInto3ViewsSplitIsDisjointAndExhaustive(t *testing.T) {
	for _, n := range []int{3, 4, 5, 10, 100, 3001} {
		ds := newSet(t, n)
		train, verify, test, err := ds.Into3ViewsSplit()
		require.NoError(t, err, "n=%d", n)

		assert.Equal(t, n, train.Len()+verify.Len()+test.Len())
		assert.False(t, train.IsEmpty())
		assert.False(t, verify.IsEmpty())
		assert.False(t, test.IsEmpty())

		seen := map[*Point]int{}
		for _, v := range []*View{train, verify, test} {
			for i := 0; i < v.Len(); i++ {
				seen[v.At(i)]++
			}
		}
		assert.Len(t, seen, n)
		for p, count := range seen {
			assert.Equal(t, 1, count, "point %v", p)
		}
	}
}

func TestSplitSizesAndOrder(t *testing.T) {
	ds := newSet(t, 10)
	train, verify, test, err := ds.Into3ViewsSplit()
	require.NoError(t, err)

	assert.Equal(t, 4, train.Len())
	assert.Equal(t, 3, verify.Len())
	assert.Equal(t, 3, test.Len())
	assert.Same(t, ds.Point(0), train.At(0))
	assert.Same(t, ds.Point(4), verify.At(0))
	assert.Same(t, ds.Point(9), test.At(2))
	assert.Equal(t, Training, train.Purpose())
	assert.Equal(t, Verification, verify.Purpose())
	assert.Equal(t, Test, test.Purpose())
}

func TestSplitSnapshot(t *testing.T) {
	ds := newSet(t, 9)
	train, _, _, err := ds.Into3ViewsSplit()
	require.NoError(t, err)

	require.NoError(t, ds.Add(MustInput([]float64{0, 0, 0}), NewOutcome(1, 1, -1)))
	assert.Equal(t, 3, train.Len())
}

func TestShuffledSplitIsDeterministic(t *testing.T) {
	ds := newSet(t, 60)
	a, _, _, err := ds.SplitIntoViews(ShuffledSplitPolicy(42))
	require.NoError(t, err)
	b, _, _, err := ds.SplitIntoViews(ShuffledSplitPolicy(42))
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	differsFromInsertion := false
	for i := 0; i < a.Len(); i++ {
		assert.Same(t, a.At(i), b.At(i))
		if a.At(i) != ds.Point(i) {
			differsFromInsertion = true
		}
	}
	assert.True(t, differsFromInsertion)
}

func TestSplitPolicyErrors(t *testing.T) {
	ds := newSet(t, 2)
	_, _, _, err := ds.Into3ViewsSplit()
	var insufficient *errors.InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 3, insufficient.Need)
	assert.Equal(t, 2, insufficient.Got)

	ds = newSet(t, 5)
	_, _, _, err = ds.SplitIntoViews(SplitPolicy{Fractions: [3]float64{98, 1, 1}})
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 100, insufficient.Need)

	_, _, _, err = ds.SplitIntoViews(SplitPolicy{Fractions: [3]float64{1, 0, 1}})
	var cfgErr *errors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSplitWarnsOnMissingTrainingClass(t *testing.T) {
	var warnings []error
	errors.SetZerologWarnFunc(nil)
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	ds, err := NewDataSet(fourClasses())
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		c := Class(0)
		if i >= 3 {
			c = Class(1 + i%3)
		}
		require.NoError(t, ds.Add(MustInput([]float64{float64(i)}), NewOutcome(c, 1, -1)))
	}
	_, _, _, err = ds.Into3ViewsSplit()
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	var coverage *errors.ClassCoverageWarning
	require.True(t, errors.As(warnings[0], &coverage))
	assert.Equal(t, []string{"B", "C", "D"}, coverage.Missing)
}

func TestViewHelpers(t *testing.T) {
	ds := newSet(t, 8)
	v, err := ds.View(Test, []int{0, 1, 4})
	require.NoError(t, err)
	assert.Equal(t, map[Class]int{0: 2, 1: 1}, v.ClassCounts())
	assert.Equal(t, []Class{2, 3}, v.MissingClasses())

	empty, err := ds.View(Test, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = ds.View(Test, []int{8})
	assert.Error(t, err)

	var nilView *View
	assert.Equal(t, 0, nilView.Len())
}

func TestReadCSV(t *testing.T) {
	src := strings.Join([]string{
		"a,b,species",
		"1.0, 2.0, setosa",
		"3,4,virginica",
		"5,6,setosa",
	}, "\n")
	ds, err := ReadCSV(strings.NewReader(src), CSVOptions{LabelColumn: "species"})
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, Shape{Rows: 1, Cols: 2}, ds.Shape())
	assert.Equal(t, "setosa", ds.Vocabulary().Name(0))
	assert.Equal(t, "virginica", ds.Vocabulary().Name(1))
	assert.Equal(t, Class(1), ds.Point(1).Outcome().Class())
	assert.Equal(t, -1.0, ds.Point(1).Outcome().Value(0))
	assert.Equal(t, 3.0, ds.Point(1).Input().At(0, 0))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts CSVOptions
	}{
		{"header only", "a,label\n", CSVOptions{}},
		{"unknown label column", "a,label\n1,x\n", CSVOptions{LabelColumn: "class"}},
		{"non numeric feature", "a,label\nfoo,x\n", CSVOptions{}},
		{"single column", "label\nx\n", CSVOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.src), tt.opts)
			assert.Error(t, err)
		})
	}
}
