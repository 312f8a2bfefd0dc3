package training

import (
	"github.com/montanaflynn/stats"
)

// Stats is the immutable snapshot of one committed generation.
type Stats struct {
	// Generation equals the number of completed Advance calls.
	Generation int
	// Objective names the objective the population was ranked by.
	Objective string
	// TrainingScore is the objective value of the best individual on the
	// training view.
	TrainingScore float64
	// TrainingAccuracy is the accuracy of the best individual on the
	// training view.
	TrainingAccuracy float64
	// BestFitness is TrainingScore minus the complexity penalty.
	BestFitness   float64
	MeanFitness   float64
	MedianFitness float64
	StdDevFitness float64
	// Diversity counts distinct fingerprints in the ranked population.
	Diversity      int
	BestComplexity int
	MeanComplexity float64
	Population     int
	// Evaluated counts individuals scored during this step; elites keep
	// their cached fitness.
	Evaluated int
	// Stagnation counts consecutive generations without a better BestFitness.
	Stagnation int
}

func summarize(generation int, objective string, ranked []*member, evaluated int, prev *Stats) Stats {
	fitness := make(stats.Float64Data, len(ranked))
	complexity := make(stats.Float64Data, len(ranked))
	fingerprints := make(map[string]struct{}, len(ranked))
	for i, m := range ranked {
		fitness[i] = m.fitness
		complexity[i] = float64(m.complexity)
		fingerprints[m.fingerprint] = struct{}{}
	}

	// Errors only occur on empty input, which a ranked population never is.
	mean, _ := stats.Mean(fitness)
	median, _ := stats.Median(fitness)
	stddev, _ := stats.StandardDeviationPopulation(fitness)
	meanComplexity, _ := stats.Mean(complexity)

	best := ranked[0]
	s := Stats{
		Generation:       generation,
		Objective:        objective,
		TrainingScore:    best.score.Value,
		TrainingAccuracy: best.score.Accuracy,
		BestFitness:      best.fitness,
		MeanFitness:      mean,
		MedianFitness:    median,
		StdDevFitness:    stddev,
		Diversity:        len(fingerprints),
		BestComplexity:   best.complexity,
		MeanComplexity:   meanComplexity,
		Population:       len(ranked),
		Evaluated:        evaluated,
	}
	if prev != nil && s.BestFitness <= prev.BestFitness {
		s.Stagnation = prev.Stagnation + 1
	}
	return s
}
