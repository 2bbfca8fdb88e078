package ml

import "errors"

var (
	// ErrEmptyDataset indicates training was given no rows
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrShapeMismatch indicates rows, labels and feature names disagree in size
	ErrShapeMismatch = errors.New("dataset shape mismatch")

	// ErrDegenerateLabels indicates labels carry no signal to learn from
	ErrDegenerateLabels = errors.New("degenerate label distribution")

	// ErrTooFewRows indicates there are not enough rows for the requested folds
	ErrTooFewRows = errors.New("too few rows for cross-validation")

	// ErrInvalidParams indicates hyperparameters are out of range
	ErrInvalidParams = errors.New("invalid hyperparameters")

	// ErrArtifactSet indicates a model already holds an artifact; build a new model instead
	ErrArtifactSet = errors.New("model artifact already set")
)
