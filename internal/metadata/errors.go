package metadata

import (
	"errors"
)

// Common errors.
var (
	ErrEmptyLabels           = errors.New("the list of labels is empty")
	ErrIncompleteCalibration = errors.New("scale, slope and offset must all be set")
	ErrWriterClosed          = errors.New("metadata writer is closed")
	ErrNoMetadata            = errors.New("no metadata found in the model")
)
