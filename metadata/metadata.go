// Package metadata provides the public API for writing TFLite model
// metadata.
//
// This package wraps the internal metadata implementation and exports a
// clean builder surface for attaching tensor descriptions, label files and
// score calibration parameters to a model binary.
//
// Example usage:
//
//	import "github.com/lite-ml/tfmeta/metadata"
//
//	buf, err := os.ReadFile("model.tflite")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w, err := metadata.NewWriter(buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	model, jsonView, err := w.
//	    SetGeneralInfo("mobilenet_v1", "Image classifier.").
//	    AddImageInput(metadata.ImageTensor{NormMean: []float32{127.5}, NormStd: []float32{127.5}}).
//	    AddClassificationOutput(metadata.ClassificationTensor{
//	        Labels: metadata.NewLabels().Add([]string{"cat", "dog"}, "", ""),
//	    }).
//	    Populate()
package metadata

import (
	"github.com/lite-ml/tfmeta/internal/metadata"
	"github.com/lite-ml/tfmeta/internal/schema"
)

// Writer accumulates model metadata and attaches it to a model binary.
// Callers must Close the writer on every exit path to release its scratch
// directory.
type Writer = metadata.Writer

// NewWriter creates a writer for the given model binary. The buffer is
// borrowed and never mutated; Populate produces a new binary.
func NewWriter(modelBuffer []byte) (*Writer, error) {
	return metadata.NewWriter(modelBuffer)
}

// Labels collects classification label lists, one entry per locale or
// vocabulary.
type Labels = metadata.Labels

// NewLabels creates an empty label container.
func NewLabels() *Labels {
	return metadata.NewLabels()
}

// LabelItem is one label list destined for its own exported file.
type LabelItem = metadata.LabelItem

// CalibrationParameter holds the sigmoid score calibration parameters for
// one output class.
type CalibrationParameter = metadata.CalibrationParameter

// ScoreCalibration holds score calibration parameters for a classification
// output.
type ScoreCalibration = metadata.ScoreCalibration

// Descriptor configuration for the writer's append calls.
type (
	FeatureTensor        = metadata.FeatureTensor
	ImageTensor          = metadata.ImageTensor
	ClassificationTensor = metadata.ClassificationTensor
)

// ColorSpaceType is the color space of an image tensor.
type ColorSpaceType = schema.ColorSpaceType

// Color space types.
const (
	ColorSpaceRGB       ColorSpaceType = schema.ColorSpaceRGB
	ColorSpaceGrayscale ColorSpaceType = schema.ColorSpaceGrayscale
)

// ScoreTransformationType is the function applied to output scores before
// sigmoid score calibration.
type ScoreTransformationType = schema.ScoreTransformationType

// Score transformation types.
const (
	ScoreTransformationIdentity        ScoreTransformationType = schema.ScoreTransformationIdentity
	ScoreTransformationLog             ScoreTransformationType = schema.ScoreTransformationLog
	ScoreTransformationInverseLogistic ScoreTransformationType = schema.ScoreTransformationInverseLogistic
)

// MetadataJSON renders the metadata stored in a model binary as indented
// JSON.
func MetadataJSON(modelBuffer []byte) (string, error) {
	return metadata.MetadataJSON(modelBuffer)
}

// PackedAssociatedFiles returns the associated files packed into a model
// binary, keyed by file name.
func PackedAssociatedFiles(modelBuffer []byte) (map[string][]byte, error) {
	return metadata.PackedAssociatedFiles(modelBuffer)
}
