package training

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/evoclass/core/model"
	"github.com/YuminosukeSato/evoclass/data"
	"github.com/YuminosukeSato/evoclass/metrics"
	"github.com/YuminosukeSato/evoclass/pkg/errors"
	"github.com/YuminosukeSato/evoclass/program"
)

// Config is the file form of a training session.
//
//	population_size: 200
//	objective: accuracy
//	random_state: 42
//	standardize: true
//	constraints:
//	  forbid_operations: [sin]
//	  max_depth: 5
//	stop:
//	  target_score: 0.9
//	  timeout: 5m
type Config struct {
	PopulationSize         int               `yaml:"population_size"`
	Objective              string            `yaml:"objective"`
	RandomState            int64             `yaml:"random_state"`
	EliteFraction          float64           `yaml:"elite_fraction"`
	ImmigrantFraction      float64           `yaml:"immigrant_fraction"`
	TournamentSize         int               `yaml:"tournament_size"`
	CrossoverRate          float64           `yaml:"crossover_rate"`
	ComplexityPenalty      float64           `yaml:"complexity_penalty"`
	Workers                int               `yaml:"workers"`
	VerificationCandidates int               `yaml:"verification_candidates"`
	StagnationWarning      int               `yaml:"stagnation_warning"`
	TreeDepth              int               `yaml:"tree_depth"`
	// Standardize rescales features with statistics of the training view.
	Standardize            bool              `yaml:"standardize"`
	Constraints            ConstraintsConfig `yaml:"constraints"`
	Split                  SplitConfig       `yaml:"split"`
	Stop                   StopConfig        `yaml:"stop"`
}

// FeatureConfig addresses one input feature.
type FeatureConfig struct {
	Layer  int `yaml:"layer"`
	Column int `yaml:"column"`
}

// ConstraintsConfig lists structural constraints.
type ConstraintsConfig struct {
	ForbidFeatures    []FeatureConfig `yaml:"forbid_features"`
	AllowOnlyFeatures []FeatureConfig `yaml:"allow_only_features"`
	ForbidOperations  []string        `yaml:"forbid_operations"`
	MaxDepth          int             `yaml:"max_depth"`
}

// SplitConfig mirrors data.SplitPolicy.
type SplitConfig struct {
	Fractions   [3]float64 `yaml:"fractions"`
	Shuffle     bool       `yaml:"shuffle"`
	RandomState int64      `yaml:"random_state"`
}

// StopConfig lists caller-level stop conditions; zero values are unset.
type StopConfig struct {
	TargetScore    float64       `yaml:"target_score"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxGenerations int           `yaml:"max_generations"`
}

// DefaultConfig returns the engine defaults with the stop conditions of the
// demo driver: training score 0.9 or five minutes.
func DefaultConfig() Config {
	return Config{
		PopulationSize:         100,
		Objective:              metrics.NameAccuracy,
		RandomState:            -1,
		EliteFraction:          defaultEliteFraction,
		ImmigrantFraction:      defaultImmigrantFraction,
		TournamentSize:         defaultTournamentSize,
		CrossoverRate:          defaultCrossoverRate,
		VerificationCandidates: defaultVerificationCandidates,
		StagnationWarning:      defaultStagnationWarning,
		Split: SplitConfig{
			Fractions:   [3]float64{1, 1, 1},
			RandomState: -1,
		},
		Stop: StopConfig{
			TargetScore: 0.9,
			Timeout:     5 * time.Minute,
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(raw)
}

// ParseConfig decodes YAML over DefaultConfig and validates it.
func ParseConfig(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields that have no later validation point.
func (c Config) Validate() error {
	if c.PopulationSize <= 0 {
		return errors.NewConfigurationError("population_size", "must be positive", c.PopulationSize)
	}
	if _, err := metrics.ObjectiveByName(c.Objective); err != nil {
		return err
	}
	if c.TreeDepth < 0 {
		return errors.NewConfigurationError("tree_depth", "must not be negative", c.TreeDepth)
	}
	if c.Stop.TargetScore == 0 && c.Stop.Timeout == 0 && c.Stop.MaxGenerations == 0 {
		return errors.NewConfigurationError("stop", "at least one stop condition is required", c.Stop)
	}
	return defaultOptionsWith(c.Options()).validate()
}

// ObjectiveFunc resolves the configured objective.
func (c Config) ObjectiveFunc() (metrics.Objective, error) {
	return metrics.ObjectiveByName(c.Objective)
}

// Options converts the engine settings into TrainingGroup options.
func (c Config) Options() []Option {
	return []Option{
		WithRandomState(c.RandomState),
		WithEliteFraction(c.EliteFraction),
		WithImmigrantFraction(c.ImmigrantFraction),
		WithTournamentSize(c.TournamentSize),
		WithCrossoverRate(c.CrossoverRate),
		WithComplexityPenalty(c.ComplexityPenalty),
		WithWorkers(c.Workers),
		WithVerificationCandidates(c.VerificationCandidates),
		WithStagnationWarning(c.StagnationWarning),
		WithFactory(program.NewFactory(program.WithMaxDepth(c.TreeDepth))),
	}
}

// ConstraintList converts the constraint section.
func (c Config) ConstraintList() []model.Constraint {
	var out []model.Constraint
	if len(c.Constraints.AllowOnlyFeatures) > 0 {
		out = append(out, model.AllowOnlyFeatures{Features: featureRefs(c.Constraints.AllowOnlyFeatures)})
	}
	for _, f := range featureRefs(c.Constraints.ForbidFeatures) {
		out = append(out, model.ForbidFeature{Feature: f})
	}
	for _, op := range c.Constraints.ForbidOperations {
		out = append(out, model.ForbidOperation{Name: op})
	}
	if c.Constraints.MaxDepth != 0 {
		out = append(out, model.MaxDepth{Depth: c.Constraints.MaxDepth})
	}
	return out
}

// SplitPolicy converts the split section. All-zero fractions mean equal thirds.
func (c Config) SplitPolicy() data.SplitPolicy {
	p := data.DefaultSplitPolicy()
	if c.Split.Fractions != [3]float64{} {
		p.Fractions = c.Split.Fractions
	}
	p.Shuffle = c.Split.Shuffle
	p.RandomState = c.Split.RandomState
	return p
}

// StopPolicy combines the configured stop conditions.
func (c Config) StopPolicy() StopPolicy {
	var policies AnyOf
	if c.Stop.TargetScore != 0 {
		policies = append(policies, ScoreThreshold(c.Stop.TargetScore))
	}
	if c.Stop.Timeout > 0 {
		policies = append(policies, Deadline(c.Stop.Timeout))
	}
	if c.Stop.MaxGenerations > 0 {
		policies = append(policies, MaxGenerations(c.Stop.MaxGenerations))
	}
	return policies
}

func defaultOptionsWith(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func featureRefs(in []FeatureConfig) []model.FeatureRef {
	out := make([]model.FeatureRef, len(in))
	for i, f := range in {
		out[i] = model.FeatureRef{Layer: f.Layer, Column: f.Column}
	}
	return out
}
