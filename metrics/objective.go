// Package metrics は分類器の予測をデータビューに対して採点する目的関数を提供します。
//
// 目的関数は状態を持たない値で、同じ入力に対して常に同じScoreを返します。
// 学習エンジンはどの目的関数が設定されているかに依存しません。
package metrics

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// Objective は予測列をビューに対して採点する戦略です。
//
// Score は preds[i] を view.At(i) と比較します。ビューが空の場合は
// (nil, nil) を返します。これはエラーではなく「スコアなし」を意味します。
// 実装は入力を変更してはならず、並行呼び出しに対して安全である必要があります。
type Objective interface {
	Name() string
	Score(preds []data.Prediction, view *data.View) (*Score, error)
}

// ClassScore はクラス単位の診断値です。
type ClassScore struct {
	Class     data.Class
	Name      string
	Support   int
	Predicted int
	Precision float64
	Recall    float64
	F1        float64
}

// Score は目的関数の結果です。Value が主指標で、他は診断用です。
type Score struct {
	Objective string
	Value     float64
	Accuracy  float64
	Correct   int
	Total     int
	// Confusion の行は正解クラス、列は予測クラス（Vocabulary.Classes() 順）
	Confusion *mat.Dense
	PerClass  []ClassScore
}

// Objective名
const (
	NameAccuracy         = "accuracy"
	NameBalancedAccuracy = "balanced_accuracy"
	NameMacroF1          = "macro_f1"
	NameReward           = "reward"
)

var registry = map[string]func() Objective{
	NameAccuracy:         func() Objective { return Accuracy{} },
	NameBalancedAccuracy: func() Objective { return BalancedAccuracy{} },
	NameMacroF1:          func() Objective { return MacroF1{} },
	NameReward:           func() Objective { return Reward{} },
}

// ObjectiveByName は名前から目的関数を返します（大文字小文字は区別しない）。
func ObjectiveByName(name string) (Objective, error) {
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.NewConfigurationError("objective", "unknown objective, expected one of "+strings.Join(Names(), ", "), name)
	}
	return ctor(), nil
}

// Names は登録済みの目的関数名をソートして返します。
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
