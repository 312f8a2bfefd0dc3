package data

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// StandardScaler は各特徴量 (layer, column) を平均0、標準偏差1に変換する。
// 統計量は訓練ビューだけから計算し、検証・テストビューには同じ変換を適用する。
type StandardScaler struct {
	// Mean は特徴量ごとの平均値 (Shape と同じ rows × cols)
	Mean *mat.Dense

	// Scale は特徴量ごとの標準偏差。ほぼ0の場合は1になる
	Scale *mat.Dense

	WithMean bool
	WithStd  bool

	shape  Shape
	fitted bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := data.NewStandardScaler(true, true)
//	if err := scaler.Fit(train); err != nil { ... }
//	train, err = scaler.TransformView(train)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean, WithStd: withStd}
}

// Fit はビューから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(view *View) error {
	if view.IsEmpty() {
		return errors.NewInsufficientDataError("StandardScaler.Fit", 1, 0)
	}
	shape := view.Shape()
	s.Mean = mat.NewDense(shape.Rows, shape.Cols, nil)
	s.Scale = mat.NewDense(shape.Rows, shape.Cols, nil)

	column := make([]float64, view.Len())
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			for i := range column {
				column[i] = view.At(i).input.At(r, c)
			}
			mean, std := stat.PopMeanStdDev(column, nil)
			if !s.WithMean {
				mean = 0
			}
			// 標準偏差が0に近い場合は1に設定（ゼロ除算を避ける）
			if !s.WithStd || math.Abs(std) < 1e-8 || math.IsNaN(std) {
				std = 1
			}
			s.Mean.Set(r, c, mean)
			s.Scale.Set(r, c, std)
		}
	}
	s.shape = shape
	s.fitted = true
	return nil
}

// IsFitted reports whether Fit has completed.
func (s *StandardScaler) IsFitted() bool { return s.fitted }

// Transform は学習済みの統計情報を使って Input を標準化する
func (s *StandardScaler) Transform(in *Input) (*Input, error) {
	if !s.fitted {
		return nil, errors.NewNotReadyError("StandardScaler", "Transform")
	}
	if in.Shape() != s.shape {
		return nil, errors.NewShapeMismatchError(s.shape.Ints(), in.Shape().Ints())
	}
	out := mat.NewDense(s.shape.Rows, s.shape.Cols, nil)
	out.Sub(in.m, s.Mean)
	out.DivElem(out, s.Scale)
	return &Input{m: out}, nil
}

// InverseTransform は標準化された Input を元のスケールに戻す
func (s *StandardScaler) InverseTransform(in *Input) (*Input, error) {
	if !s.fitted {
		return nil, errors.NewNotReadyError("StandardScaler", "InverseTransform")
	}
	if in.Shape() != s.shape {
		return nil, errors.NewShapeMismatchError(s.shape.Ints(), in.Shape().Ints())
	}
	out := mat.NewDense(s.shape.Rows, s.shape.Cols, nil)
	out.MulElem(in.m, s.Scale)
	out.Add(out, s.Mean)
	return &Input{m: out}, nil
}

// TransformView returns a new view of the same purpose whose points carry
// standardized inputs and the original outcomes. The source view is
// unchanged.
func (s *StandardScaler) TransformView(view *View) (*View, error) {
	if !s.fitted {
		return nil, errors.NewNotReadyError("StandardScaler", "TransformView")
	}
	if view.IsEmpty() {
		return &View{purpose: view.Purpose(), vocab: view.Vocabulary(), shape: s.shape}, nil
	}
	points := make([]*Point, view.Len())
	for i := range points {
		p := view.At(i)
		in, err := s.Transform(p.input)
		if err != nil {
			return nil, err
		}
		points[i] = NewPoint(in, p.outcome)
	}
	return &View{purpose: view.purpose, points: points, vocab: view.vocab, shape: s.shape}, nil
}

// Standardize fits a scaler on train and applies it to every view.
func Standardize(train *View, others ...*View) (*StandardScaler, []*View, error) {
	s := NewStandardScaler(true, true)
	if err := s.Fit(train); err != nil {
		return nil, nil, err
	}
	out := make([]*View, 0, len(others)+1)
	for _, v := range append([]*View{train}, others...) {
		scaled, err := s.TransformView(v)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, scaled)
	}
	return s, out, nil
}
