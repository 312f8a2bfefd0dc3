// Package evoclass evolves classifiers for labeled multi-dimensional data.
//
// A population of candidate classifiers is improved generation by generation
// through selection, recombination and mutation. The engine is a library: the
// caller owns the loop and decides when training is good enough.
//
// # Features
//
//   - Data sets with a fixed class vocabulary, split into disjoint training,
//     verification and test views
//   - Pluggable objectives (accuracy, balanced accuracy, macro F1, reward)
//   - Structural constraints on which features and operations may be used
//   - Deterministic runs from a seed, with parallel fitness evaluation
//   - Structured logging (zerolog), Prometheus metrics and history charts
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/evoclass/data"
//	    "github.com/YuminosukeSato/evoclass/metrics"
//	    "github.com/YuminosukeSato/evoclass/training"
//	)
//
//	func main() {
//	    ds, _ := data.NewDataSet(map[data.Class]string{0: "low", 1: "high"})
//	    for i := 0; i < 300; i++ {
//	        x := float64(i % 100)
//	        class := data.Class(0)
//	        if x > 50 {
//	            class = 1
//	        }
//	        _ = ds.Add(data.MustInput([]float64{x}), data.NewOutcome(class, 1, -1))
//	    }
//	    train, verify, test, err := ds.Into3ViewsSplit()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    group, err := training.NewTrainingGroup(train, verify, metrics.Accuracy{}, 100, nil,
//	        training.WithRandomState(42))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for {
//	        if err := group.Advance(); err != nil {
//	            log.Fatal(err)
//	        }
//	        if stats, _ := group.Stats(); stats.TrainingScore >= 0.95 || stats.Generation >= 200 {
//	            break
//	        }
//	    }
//
//	    clf, _ := group.Classifier()
//	    score, _ := clf.Score(test)
//	    fmt.Printf("unseen accuracy: %.3f\n", score.Accuracy)
//	}
//
// # Packages
//
//   - data: DataSet, View, splitting, CSV loading and standardization
//   - metrics: Objective implementations and confusion-matrix scores
//   - program: the expression-forest representation of a classifier
//   - training: TrainingGroup, selection, Classifier, Runner and Config
//   - report: history charts and tables
//   - core/model: Individual and Factory contracts, constraints, state
//   - core/parallel: bounded parallel evaluation
//   - pkg/errors, pkg/log, pkg/telemetry: errors, logging and metrics
//
// The evoclass command (cmd/evoclass) wraps the library for CSV files and a
// synthetic demo.
package evoclass
