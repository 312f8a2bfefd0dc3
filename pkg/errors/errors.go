// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// 進化的学習エンジンのエラー分類（設定エラー、データ取り込みエラー、内部不変条件違反）を
// 構造化された型として定義します。
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("evoclass-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nilを渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// StagnationWarning は最良適応度が一定世代数改善しなかった場合に発生する警告です。
type StagnationWarning struct {
	Generation  int
	Generations int
	BestFitness float64
}

func (w *StagnationWarning) Error() string {
	return fmt.Sprintf("best fitness %.6g has not improved for %d generations (generation %d). Consider a larger population or a different objective.",
		w.BestFitness, w.Generations, w.Generation)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *StagnationWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("generation", w.Generation).
		Int("stagnant_generations", w.Generations).
		Float64("best_fitness", w.BestFitness).
		Str("type", "StagnationWarning")
}

// NewStagnationWarning は新しいStagnationWarningを作成します。
func NewStagnationWarning(generation, generations int, best float64) *StagnationWarning {
	return &StagnationWarning{Generation: generation, Generations: generations, BestFitness: best}
}

// ClassCoverageWarning はデータビューに語彙内のクラスが一つも含まれない場合の警告です。
type ClassCoverageWarning struct {
	View    string
	Missing []string
}

func (w *ClassCoverageWarning) Error() string {
	return fmt.Sprintf("%s view contains no points for classes %v", w.View, w.Missing)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ClassCoverageWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("view", w.View).
		Strs("missing_classes", w.Missing).
		Str("type", "ClassCoverageWarning")
}

// NewClassCoverageWarning は新しいClassCoverageWarningを作成します。
func NewClassCoverageWarning(view string, missing []string) *ClassCoverageWarning {
	return &ClassCoverageWarning{View: view, Missing: missing}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ConfigurationError は構築時のパラメータが不正な場合のエラーです。
// 個体数ゼロ、空のビュー、矛盾する制約などで発生します。
type ConfigurationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("evoclass: invalid configuration for '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError は新しいConfigurationErrorを作成し、スタックトレースを付与します。
func NewConfigurationError(param, reason string, value interface{}) error {
	err := &ConfigurationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// NotReadyError は最初の世代が完了する前に結果を要求した場合のエラーです。
type NotReadyError struct {
	Component string
	Method    string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("evoclass: %s: no generation has completed yet. Call Advance() before using %s()", e.Component, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotReadyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("component", e.Component).
		Str("method", e.Method).
		Str("type", "NotReadyError")
}

// NewNotReadyError は新しいNotReadyErrorを作成し、スタックトレースを付与します。
func NewNotReadyError(component, method string) error {
	err := &NotReadyError{Component: component, Method: method}
	return errors.WithStack(err)
}

// DimensionError は予測数とビューの点数が一致しない場合などのエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("evoclass: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ShapeMismatchError はデータ点の入力形状がデータセットの確立された形状と異なる場合のエラーです。
type ShapeMismatchError struct {
	Expected []int // [rows, cols]
	Got      []int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("evoclass: input shape mismatch. Expected shape %v, got %v", e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ShapeMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Ints("expected", e.Expected).
		Ints("got", e.Got).
		Str("type", "ShapeMismatchError")
}

// NewShapeMismatchError は新しいShapeMismatchErrorを作成します。
func NewShapeMismatchError(expected, got []int) error {
	err := &ShapeMismatchError{Expected: expected, Got: got}
	return errors.WithStack(err)
}

// ClassMismatchError はOutcomeが語彙に存在しないクラスを参照している場合のエラーです。
type ClassMismatchError struct {
	Class int
	Known []int
}

func (e *ClassMismatchError) Error() string {
	return fmt.Sprintf("evoclass: class %d is not part of the vocabulary %v", e.Class, e.Known)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ClassMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("class", e.Class).
		Ints("known", e.Known).
		Str("type", "ClassMismatchError")
}

// NewClassMismatchError は新しいClassMismatchErrorを作成します。
func NewClassMismatchError(class int, known []int) error {
	err := &ClassMismatchError{Class: class, Known: known}
	return errors.WithStack(err)
}

// InsufficientDataError はビュー分割に必要な点数が足りない場合のエラーです。
type InsufficientDataError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("evoclass: %s: insufficient data, need at least %d points, got %d", e.Op, e.Need, e.Got)
}

// NewInsufficientDataError は新しいInsufficientDataErrorを作成します。
func NewInsufficientDataError(op string, need, got int) error {
	err := &InsufficientDataError{Op: op, Need: need, Got: got}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("evoclass: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// InvariantViolationError は学習エンジン内部の不変条件が破られた場合のエラーです。
// 回復不能として扱われ、呼び出し側は学習セッションを中断することが期待されます。
type InvariantViolationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *InvariantViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("evoclass: %s: invariant violation: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("evoclass: %s: invariant violation: %s", e.Op, e.Reason)
}

func (e *InvariantViolationError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvariantViolationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "InvariantViolationError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewInvariantViolationError は新しいInvariantViolationErrorを作成し、スタックトレースを付与します。
func NewInvariantViolationError(op, reason string, err error) error {
	violation := &InvariantViolationError{Op: op, Reason: reason, Err: err}
	return errors.WithStack(violation)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	数値計算エラー
//
// ===========================================================================

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// 適応度がNaNやInfになった場合に検出されます。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "fitness", "objective"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生した世代番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("evoclass: numerical instability detected in %s at generation %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrConcurrentAdvance は同じTrainingGroupに対してAdvanceが並行して呼ばれた場合のエラーです。
	ErrConcurrentAdvance = New("advance called concurrently on the same training group")
)
