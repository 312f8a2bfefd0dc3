package training

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YuminosukeSato/evoclass/pkg/errors"
)

// StopPolicy decides, after each generation, whether a Runner should stop.
type StopPolicy interface {
	ShouldStop(stats Stats, elapsed time.Duration) bool
	String() string
}

// ScoreThreshold stops once TrainingScore reaches the value.
type ScoreThreshold float64

func (t ScoreThreshold) ShouldStop(s Stats, _ time.Duration) bool {
	return s.TrainingScore >= float64(t)
}

func (t ScoreThreshold) String() string { return fmt.Sprintf("training score >= %g", float64(t)) }

// Deadline stops once the run has lasted at least the duration. A generation
// in progress always completes first.
type Deadline time.Duration

func (d Deadline) ShouldStop(_ Stats, elapsed time.Duration) bool {
	return elapsed >= time.Duration(d)
}

func (d Deadline) String() string { return "elapsed >= " + time.Duration(d).String() }

// MaxGenerations stops once the generation counter reaches the value.
type MaxGenerations int

func (m MaxGenerations) ShouldStop(s Stats, _ time.Duration) bool {
	return s.Generation >= int(m)
}

func (m MaxGenerations) String() string { return fmt.Sprintf("generation >= %d", int(m)) }

// AnyOf stops as soon as one of its policies does.
type AnyOf []StopPolicy

func (a AnyOf) ShouldStop(s Stats, elapsed time.Duration) bool {
	return a.which(s, elapsed) != nil
}

func (a AnyOf) which(s Stats, elapsed time.Duration) StopPolicy {
	for _, p := range a {
		if p != nil && p.ShouldStop(s, elapsed) {
			return p
		}
	}
	return nil
}

func (a AnyOf) String() string {
	parts := make([]string, 0, len(a))
	for _, p := range a {
		if p != nil {
			parts = append(parts, p.String())
		}
	}
	return "any of (" + strings.Join(parts, ", ") + ")"
}

// RunResult summarizes a Runner.Run call.
type RunResult struct {
	// Final is the statistics of the last completed generation.
	Final Stats
	// History holds one entry per generation completed during the run.
	History []Stats
	// Reason names the policy that ended the run, or the context error.
	Reason  string
	Elapsed time.Duration
}

// Runner drives a TrainingGroup until its stop policy fires. It is a caller
// convenience: the group itself never stops on its own.
type Runner struct {
	Group *TrainingGroup
	Stop  StopPolicy
	// OnGeneration, when set, is called after every generation.
	OnGeneration func(Stats)
}

// Run advances the group until Stop fires, Advance fails, or ctx is done.
// The context is only checked between generations. Run always completes at
// least one generation unless ctx is already done.
func (r Runner) Run(ctx context.Context) (RunResult, error) {
	if r.Group == nil {
		return RunResult{}, errors.NewConfigurationError("group", "must not be nil", nil)
	}
	if r.Stop == nil {
		return RunResult{}, errors.NewConfigurationError("stop", "a stop policy is required", nil)
	}

	start := time.Now()
	var res RunResult
	for {
		if err := ctx.Err(); err != nil {
			res.Reason = err.Error()
			res.Elapsed = time.Since(start)
			return res, errors.WithStack(err)
		}
		if err := r.Group.Advance(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		stats, _ := r.Group.Stats()
		res.Final = stats
		res.History = append(res.History, stats)
		if r.OnGeneration != nil {
			r.OnGeneration(stats)
		}

		elapsed := time.Since(start)
		if r.Stop.ShouldStop(stats, elapsed) {
			res.Elapsed = elapsed
			res.Reason = r.Stop.String()
			if anyOf, ok := r.Stop.(AnyOf); ok {
				if p := anyOf.which(stats, elapsed); p != nil {
					res.Reason = p.String()
				}
			}
			return res, nil
		}
	}
}
