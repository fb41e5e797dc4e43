// Package schema defines the TFLite metadata record tree and its flatbuffer
// encoding.
//
// The metadata format is a nested flatbuffer: a ModelMetadata root holds one
// SubGraphMetadata per subgraph, which in turn holds one TensorMetadata per
// input and output tensor. Records describe tensor semantics (content
// properties, normalization, score calibration) and reference associated
// files packed alongside the model. The serialized buffer is tagged with the
// "M001" file identifier and stored in the model under a named buffer; it is
// opaque to everything above this package.
//
// Specification: https://github.com/tensorflow/tflite-support/blob/master/tensorflow_lite_support/metadata/metadata_schema.fbs
package schema

import (
	"encoding/json"
	"fmt"
)

// FileIdentifier tags serialized metadata buffers.
const FileIdentifier = "M001"

// ColorSpaceType is the color space of an image tensor.
type ColorSpaceType int8

// Color space types as defined in the metadata schema.
const (
	ColorSpaceUnknown   ColorSpaceType = 0
	ColorSpaceRGB       ColorSpaceType = 1
	ColorSpaceGrayscale ColorSpaceType = 2
)

// String returns the schema name of the color space.
func (c ColorSpaceType) String() string {
	switch c {
	case ColorSpaceUnknown:
		return "UNKNOWN"
	case ColorSpaceRGB:
		return "RGB"
	case ColorSpaceGrayscale:
		return "GRAYSCALE"
	default:
		return fmt.Sprintf("unknown(%d)", int8(c))
	}
}

// MarshalJSON renders the color space by name.
func (c ColorSpaceType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ScoreTransformationType is the function applied to output scores before
// sigmoid score calibration.
type ScoreTransformationType int8

// Score transformation types as defined in the metadata schema.
const (
	ScoreTransformationIdentity        ScoreTransformationType = 0
	ScoreTransformationLog             ScoreTransformationType = 1
	ScoreTransformationInverseLogistic ScoreTransformationType = 2
)

// String returns the schema name of the transformation.
func (s ScoreTransformationType) String() string {
	switch s {
	case ScoreTransformationIdentity:
		return "IDENTITY"
	case ScoreTransformationLog:
		return "LOG"
	case ScoreTransformationInverseLogistic:
		return "INVERSE_LOGISTIC"
	default:
		return fmt.Sprintf("unknown(%d)", int8(s))
	}
}

// MarshalJSON renders the transformation by name.
func (s ScoreTransformationType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// AssociatedFileType describes the role of a file packed with the model.
type AssociatedFileType int8

// Associated file types as defined in the metadata schema.
const (
	AssociatedFileUnknown                    AssociatedFileType = 0
	AssociatedFileDescriptions               AssociatedFileType = 1
	AssociatedFileTensorAxisLabels           AssociatedFileType = 2
	AssociatedFileTensorValueLabels          AssociatedFileType = 3
	AssociatedFileTensorAxisScoreCalibration AssociatedFileType = 4
	AssociatedFileVocabulary                 AssociatedFileType = 5
)

// String returns the schema name of the file type.
func (t AssociatedFileType) String() string {
	switch t {
	case AssociatedFileUnknown:
		return "UNKNOWN"
	case AssociatedFileDescriptions:
		return "DESCRIPTIONS"
	case AssociatedFileTensorAxisLabels:
		return "TENSOR_AXIS_LABELS"
	case AssociatedFileTensorValueLabels:
		return "TENSOR_VALUE_LABELS"
	case AssociatedFileTensorAxisScoreCalibration:
		return "TENSOR_AXIS_SCORE_CALIBRATION"
	case AssociatedFileVocabulary:
		return "VOCABULARY"
	default:
		return fmt.Sprintf("unknown(%d)", int8(t))
	}
}

// MarshalJSON renders the file type by name.
func (t AssociatedFileType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ModelMetadata is the root record of the metadata tree.
type ModelMetadata struct {
	Name             string              `json:"name,omitempty"`
	Description      string              `json:"description,omitempty"`
	Version          string              `json:"version,omitempty"`
	SubgraphMetadata []*SubGraphMetadata `json:"subgraph_metadata,omitempty"`
	Author           string              `json:"author,omitempty"`
	License          string              `json:"license,omitempty"`
	AssociatedFiles  []*AssociatedFile   `json:"associated_files,omitempty"`
	MinParserVersion string              `json:"min_parser_version,omitempty"`
}

// SubGraphMetadata describes one subgraph of the model.
type SubGraphMetadata struct {
	Name                 string            `json:"name,omitempty"`
	Description          string            `json:"description,omitempty"`
	InputTensorMetadata  []*TensorMetadata `json:"input_tensor_metadata,omitempty"`
	OutputTensorMetadata []*TensorMetadata `json:"output_tensor_metadata,omitempty"`
	AssociatedFiles      []*AssociatedFile `json:"associated_files,omitempty"`
}

// TensorMetadata describes one input or output tensor.
type TensorMetadata struct {
	Name            string            `json:"name,omitempty"`
	Description     string            `json:"description,omitempty"`
	DimensionNames  []string          `json:"dimension_names,omitempty"`
	Content         *Content          `json:"content,omitempty"`
	ProcessUnits    []*ProcessUnit    `json:"process_units,omitempty"`
	Stats           *Stats            `json:"stats,omitempty"`
	AssociatedFiles []*AssociatedFile `json:"associated_files,omitempty"`
}

// Content describes what a tensor holds. Exactly one of the property fields
// is set; the union tag is derived from whichever is non-nil.
type Content struct {
	Feature *FeatureProperties
	Image   *ImageProperties
}

// MarshalJSON renders the content union with an explicit type tag, matching
// the layout of the flatbuffer union.
func (c *Content) MarshalJSON() ([]byte, error) {
	type tagged struct {
		Type       string      `json:"content_properties_type"`
		Properties interface{} `json:"content_properties"`
	}
	switch {
	case c.Image != nil:
		return json.Marshal(tagged{Type: "ImageProperties", Properties: c.Image})
	case c.Feature != nil:
		return json.Marshal(tagged{Type: "FeatureProperties", Properties: c.Feature})
	default:
		return []byte("{}"), nil
	}
}

// FeatureProperties marks a plain feature tensor. It carries no fields.
type FeatureProperties struct{}

// ImageProperties describes an image tensor.
type ImageProperties struct {
	ColorSpace ColorSpaceType `json:"color_space,omitempty"`
}

// ProcessUnit is one pre- or post-processing step attached to a tensor.
// Exactly one of the option fields is set.
type ProcessUnit struct {
	Normalization    *NormalizationOptions
	ScoreCalibration *ScoreCalibrationOptions
}

// MarshalJSON renders the process unit union with an explicit type tag.
func (p *ProcessUnit) MarshalJSON() ([]byte, error) {
	type tagged struct {
		Type    string      `json:"options_type"`
		Options interface{} `json:"options"`
	}
	switch {
	case p.Normalization != nil:
		return json.Marshal(tagged{Type: "NormalizationOptions", Options: p.Normalization})
	case p.ScoreCalibration != nil:
		return json.Marshal(tagged{Type: "ScoreCalibrationOptions", Options: p.ScoreCalibration})
	default:
		return []byte("{}"), nil
	}
}

// NormalizationOptions holds per-channel normalization parameters.
type NormalizationOptions struct {
	Mean []float32 `json:"mean,omitempty"`
	Std  []float32 `json:"std,omitempty"`
}

// ScoreCalibrationOptions references sigmoid score calibration. The per-class
// parameters themselves live in an associated file of type
// TENSOR_AXIS_SCORE_CALIBRATION.
type ScoreCalibrationOptions struct {
	ScoreTransformation ScoreTransformationType `json:"score_transformation,omitempty"`
	DefaultScore        float32                 `json:"default_score,omitempty"`
}

// Stats holds per-channel min/max statistics of a tensor.
type Stats struct {
	Max []float32 `json:"max,omitempty"`
	Min []float32 `json:"min,omitempty"`
}

// AssociatedFile references a file packed alongside the model.
type AssociatedFile struct {
	Name        string             `json:"name,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        AssociatedFileType `json:"type,omitempty"`
	Locale      string             `json:"locale,omitempty"`
	Version     string             `json:"version,omitempty"`
}
