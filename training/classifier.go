package training

import (
	"fmt"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/core/parallel"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// parallelPredictThreshold is the view size from which Classifier spreads
// prediction over CPU cores.
const parallelPredictThreshold = 2048

// Classifier is an immutable snapshot of one evolved individual. Later
// generations of the group it came from do not affect it. All methods are
// safe for concurrent use.
type Classifier struct {
	id            string
	individual    model.Individual
	objective     metrics.Objective
	shape         data.Shape
	generation    int
	trainingScore float64
	verification  *metrics.Score
}

// ID identifies the individual the classifier was taken from.
func (c *Classifier) ID() string { return c.id }

// Generation is the generation the snapshot was taken after.
func (c *Classifier) Generation() int { return c.generation }

// TrainingScore is the objective value on the training view.
func (c *Classifier) TrainingScore() float64 { return c.trainingScore }

// VerificationScore is the score on the verification view used to select
// the snapshot.
func (c *Classifier) VerificationScore() *metrics.Score { return c.verification }

// Complexity of the underlying individual.
func (c *Classifier) Complexity() int { return c.individual.Complexity() }

// Objective returns the objective used during training.
func (c *Classifier) Objective() metrics.Objective { return c.objective }

func (c *Classifier) String() string {
	if s, ok := c.individual.(fmt.Stringer); ok {
		return s.String()
	}
	return c.individual.Fingerprint()
}

// Predict returns the class predicted for in. It fails with
// *errors.ShapeMismatchError when in does not have the training shape.
func (c *Classifier) Predict(in *data.Input) (data.Prediction, error) {
	if in == nil {
		return data.Prediction{}, errors.NewValueError("Predict", "input must not be nil")
	}
	if in.Shape() != c.shape {
		return data.Prediction{}, errors.NewShapeMismatchError(c.shape.Ints(), in.Shape().Ints())
	}
	return c.individual.Predict(in), nil
}

// PredictView predicts every point of view, in order.
func (c *Classifier) PredictView(view *data.View) ([]data.Prediction, error) {
	if view.IsEmpty() {
		return nil, nil
	}
	if view.Shape() != c.shape {
		return nil, errors.NewShapeMismatchError(c.shape.Ints(), view.Shape().Ints())
	}
	return predictView(c.individual, view, true), nil
}

// Score reduces the predictions on view through the training objective. An
// empty view yields (nil, nil).
func (c *Classifier) Score(view *data.View) (*metrics.Score, error) {
	return c.ScoreWith(c.objective, view)
}

// ScoreWith is Score with another objective, for out-of-sample reporting.
func (c *Classifier) ScoreWith(objective metrics.Objective, view *data.View) (*metrics.Score, error) {
	if objective == nil {
		return nil, errors.NewValueError("ScoreWith", "objective must not be nil")
	}
	preds, err := c.PredictView(view)
	if err != nil || preds == nil {
		return nil, err
	}
	return objective.Score(preds, view)
}

func predictView(ind model.Individual, view *data.View, spread bool) []data.Prediction {
	preds := make([]data.Prediction, view.Len())
	fill := func(start, end int) {
		for i := start; i < end; i++ {
			preds[i] = ind.Predict(view.At(i).Input())
		}
	}
	if spread {
		parallel.ParallelizeWithThreshold(view.Len(), parallelPredictThreshold, fill)
	} else {
		fill(0, view.Len())
	}
	return preds
}
