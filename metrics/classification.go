package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Accuracy は正解率（正しく予測した点の割合）を主指標とします。
type Accuracy struct{}

func (Accuracy) Name() string { return NameAccuracy }

func (a Accuracy) Score(preds []data.Prediction, view *data.View) (*Score, error) {
	s, err := tally(a.Name(), preds, view)
	if s == nil || err != nil {
		return s, err
	}
	s.Value = s.Accuracy
	return s, nil
}

// BalancedAccuracy はビューに存在するクラスの再現率の平均です。
// クラス分布が偏ったビューで多数派クラスだけを当てる個体を抑えます。
type BalancedAccuracy struct{}

func (BalancedAccuracy) Name() string { return NameBalancedAccuracy }

func (b BalancedAccuracy) Score(preds []data.Prediction, view *data.View) (*Score, error) {
	s, err := tally(b.Name(), preds, view)
	if s == nil || err != nil {
		return s, err
	}
	var recalls []float64
	for _, c := range s.PerClass {
		if c.Support > 0 {
			recalls = append(recalls, c.Recall)
		}
	}
	s.Value = floats.Sum(recalls) / float64(len(recalls))
	return s, nil
}

// MacroF1 は正解または予測に現れたクラスのF1スコアの平均です。
type MacroF1 struct{}

func (MacroF1) Name() string { return NameMacroF1 }

func (m MacroF1) Score(preds []data.Prediction, view *data.View) (*Score, error) {
	s, err := tally(m.Name(), preds, view)
	if s == nil || err != nil {
		return s, err
	}
	var f1s []float64
	for _, c := range s.PerClass {
		if c.Support > 0 || c.Predicted > 0 {
			f1s = append(f1s, c.F1)
		}
	}
	s.Value = floats.Sum(f1s) / float64(len(f1s))
	return s, nil
}

// Reward は予測クラスに対するOutcomeの値の平均です。
// 正解に1、不正解に-1を与えるOutcomeでは 2*accuracy-1 になります。
type Reward struct{}

func (Reward) Name() string { return NameReward }

func (r Reward) Score(preds []data.Prediction, view *data.View) (*Score, error) {
	s, err := tally(r.Name(), preds, view)
	if s == nil || err != nil {
		return s, err
	}
	rewards := make([]float64, len(preds))
	for i, p := range preds {
		rewards[i] = view.At(i).Outcome().Value(p.Class)
	}
	s.Value = floats.Sum(rewards) / float64(len(rewards))
	if err := errors.CheckScalar("Reward", s.Value, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// tally は混同行列と正解率、クラス別の指標を計算します。
func tally(name string, preds []data.Prediction, view *data.View) (*Score, error) {
	if view.IsEmpty() {
		return nil, nil
	}
	if len(preds) != view.Len() {
		return nil, errors.NewDimensionError(name, view.Len(), len(preds), 0)
	}

	vocab := view.Vocabulary()
	k := vocab.Len()
	confusion := mat.NewDense(k, k, nil)
	correct := 0
	for i, p := range preds {
		truth, _ := vocab.Index(view.At(i).Outcome().Class())
		got, ok := vocab.Index(p.Class)
		if !ok {
			known := make([]int, k)
			for j, c := range vocab.Classes() {
				known[j] = int(c)
			}
			return nil, errors.NewClassMismatchError(int(p.Class), known)
		}
		confusion.Set(truth, got, confusion.At(truth, got)+1)
		if truth == got {
			correct++
		}
	}

	perClass := make([]ClassScore, k)
	for i := 0; i < k; i++ {
		tp := confusion.At(i, i)
		support := floats.Sum(mat.Row(nil, i, confusion))
		predicted := floats.Sum(mat.Col(nil, i, confusion))
		precision := errors.SafeDivide(tp, predicted)
		recall := errors.SafeDivide(tp, support)
		c := vocab.ClassAt(i)
		perClass[i] = ClassScore{
			Class:     c,
			Name:      vocab.Name(c),
			Support:   int(support),
			Predicted: int(predicted),
			Precision: precision,
			Recall:    recall,
			F1:        errors.SafeDivide(2*precision*recall, precision+recall),
		}
	}

	return &Score{
		Objective: name,
		Accuracy:  float64(correct) / float64(len(preds)),
		Correct:   correct,
		Total:     len(preds),
		Confusion: confusion,
		PerClass:  perClass,
	}, nil
}
