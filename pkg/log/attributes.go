// Package log defines standard attribute keys for evolutionary training.
//
// Using these keys keeps records from the data, training and telemetry
// packages filterable with the same names. Keys follow a dotted hierarchy
// ("training.generation", "data.points").

package log

// Model and Operation Context
const (
	// ComponentKey identifies which package emitted the record.
	// Examples: "training", "data", "metrics"
	ComponentKey = "ml.component"

	// OperationKey specifies the operation being performed.
	// Standard values are the Operation* constants below.
	OperationKey = "ml.operation"

	// PhaseKey indicates the purpose of the data being processed.
	// Examples: "training", "verification", "test"
	PhaseKey = "ml.phase"

	// GroupIDKey identifies one TrainingGroup instance.
	GroupIDKey = "training.group_id"

	// ClassifierIDKey identifies an extracted classifier snapshot.
	ClassifierIDKey = "classifier.id"

	// RepresentationKey names the evolvable representation in use.
	// Example: "expression_forest"
	RepresentationKey = "model.representation"

	// ObjectiveKey names the configured objective.
	// Examples: "accuracy", "macro_f1"
	ObjectiveKey = "model.objective"
)

// Data Shape and Characteristics
const (
	// PointsKey indicates the number of points in a data set or view.
	PointsKey = "data.points"

	// ClassesKey indicates the size of the class vocabulary.
	ClassesKey = "data.classes"

	// ShapeKey records the [rows, cols] shape of point inputs.
	ShapeKey = "data.shape"
)

// Training Progress
const (
	// GenerationKey records the generation counter after an advance.
	GenerationKey = "training.generation"

	// PopulationKey records the configured population size.
	PopulationKey = "training.population"

	// FitnessKey records the best fitness of a generation.
	FitnessKey = "training.best_fitness"

	// MeanFitnessKey records the mean fitness of a generation.
	MeanFitnessKey = "training.mean_fitness"

	// DiversityKey records the number of distinct individuals.
	DiversityKey = "training.diversity"

	// EvaluatedKey records how many individuals were scored in a generation.
	EvaluatedKey = "training.evaluated"

	// StagnationKey records generations since the best fitness improved.
	StagnationKey = "training.stagnation"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// ScoreKey records the primary objective value.
	ScoreKey = "metrics.score"
)

// Error and Configuration Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// HyperParamsKey contains engine hyperparameters as a structured object.
	HyperParamsKey = "config.hyperparams"
)

// Standard attribute value constants.
const (
	OperationAdvance    = "advance"
	OperationExtract    = "extract_classifier"
	OperationScore      = "score"
	OperationSplit      = "split"
	OperationConstruct  = "construct"
	OperationIngest     = "ingest"
	PhaseTraining       = "training"
	PhaseVerification   = "verification"
	PhaseTesting        = "test"
	ErrorInvariant      = "INVARIANT_VIOLATION"
	ErrorConfiguration  = "INVALID_CONFIGURATION"
	ErrorConcurrentCall = "CONCURRENT_ADVANCE"
)
