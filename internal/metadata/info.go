package metadata

import (
	"fmt"

	"github.com/lite-ml/tfmeta/internal/schema"
	"github.com/lite-ml/tfmeta/internal/tflite"
)

const (
	labelFileDescription = "Labels for categories that the model can recognize."

	calibrationFileDescription = "Contains sigmoid-based score calibration parameters. " +
		"The main purposes of score calibration is to make scores across classes " +
		"comparable, so that a common threshold can be used for all output classes."
)

// GeneralMd holds model-level name and description.
type GeneralMd struct {
	Name        string
	Description string
}

func (g *GeneralMd) createMetadata() *schema.ModelMetadata {
	return &schema.ModelMetadata{
		Name:        g.Name,
		Description: g.Description,
	}
}

// tensorMd is the closed set of tensor descriptor shapes the assembler
// consumes uniformly: generic feature, image input and classification output.
type tensorMd interface {
	// createMetadata materializes the descriptor into a schema record.
	createMetadata() (*schema.TensorMetadata, error)

	// pairingName returns the declared model tensor name used for pairing,
	// or "" when the descriptor relies on positional order.
	pairingName() string
}

// featureTensorMd describes a generic feature tensor.
type featureTensorMd struct {
	name        string
	description string
	tensorName  string
}

func (m *featureTensorMd) pairingName() string { return m.tensorName }

func (m *featureTensorMd) createMetadata() (*schema.TensorMetadata, error) {
	return &schema.TensorMetadata{
		Name:        m.name,
		Description: m.description,
		Content:     &schema.Content{Feature: &schema.FeatureProperties{}},
	}, nil
}

// imageTensorMd describes an image input tensor with normalization
// parameters.
type imageTensorMd struct {
	name        string
	description string
	tensorName  string
	normMean    []float32
	normStd     []float32
	colorSpace  schema.ColorSpaceType
	tensorType  tflite.TensorType
}

func (m *imageTensorMd) pairingName() string { return m.tensorName }

func (m *imageTensorMd) createMetadata() (*schema.TensorMetadata, error) {
	if len(m.normMean) != len(m.normStd) {
		return nil, fmt.Errorf("norm mean (%d values) and norm std (%d values) must have the same length",
			len(m.normMean), len(m.normStd))
	}

	// Stats reflect the value range after normalization is applied to 8-bit
	// pixel data.
	var stats *schema.Stats
	switch m.tensorType {
	case tflite.TensorTypeFloat32:
		max := make([]float32, len(m.normMean))
		min := make([]float32, len(m.normMean))
		for i := range m.normMean {
			max[i] = (255 - m.normMean[i]) / m.normStd[i]
			min[i] = (0 - m.normMean[i]) / m.normStd[i]
		}
		stats = &schema.Stats{Max: max, Min: min}
	case tflite.TensorTypeUint8:
		stats = &schema.Stats{Max: []float32{255}, Min: []float32{0}}
	}

	return &schema.TensorMetadata{
		Name:        m.name,
		Description: m.description,
		Content: &schema.Content{
			Image: &schema.ImageProperties{ColorSpace: m.colorSpace},
		},
		ProcessUnits: []*schema.ProcessUnit{
			{Normalization: &schema.NormalizationOptions{Mean: m.normMean, Std: m.normStd}},
		},
		Stats: stats,
	}, nil
}

// labelFileMd references one exported label file.
type labelFileMd struct {
	filename string
	locale   string
}

// scoreCalibrationMd references one exported calibration file together with
// the transformation applied before calibration.
type scoreCalibrationMd struct {
	transformation schema.ScoreTransformationType
	defaultScore   float32
	filename       string
}

// classificationTensorMd describes a classification output tensor with its
// label files and optional score calibration.
type classificationTensorMd struct {
	name        string
	description string
	tensorName  string
	labelFiles  []labelFileMd
	calibration *scoreCalibrationMd
	tensorType  tflite.TensorType
}

func (m *classificationTensorMd) pairingName() string { return m.tensorName }

func (m *classificationTensorMd) createMetadata() (*schema.TensorMetadata, error) {
	var stats *schema.Stats
	switch m.tensorType {
	case tflite.TensorTypeFloat32:
		stats = &schema.Stats{Max: []float32{1}, Min: []float32{0}}
	case tflite.TensorTypeUint8:
		stats = &schema.Stats{Max: []float32{255}, Min: []float32{0}}
	}

	var files []*schema.AssociatedFile
	for _, lf := range m.labelFiles {
		files = append(files, &schema.AssociatedFile{
			Name:        lf.filename,
			Description: labelFileDescription,
			Type:        schema.AssociatedFileTensorAxisLabels,
			Locale:      lf.locale,
		})
	}

	var units []*schema.ProcessUnit
	if m.calibration != nil {
		files = append(files, &schema.AssociatedFile{
			Name:        m.calibration.filename,
			Description: calibrationFileDescription,
			Type:        schema.AssociatedFileTensorAxisScoreCalibration,
		})
		units = append(units, &schema.ProcessUnit{
			ScoreCalibration: &schema.ScoreCalibrationOptions{
				ScoreTransformation: m.calibration.transformation,
				DefaultScore:        m.calibration.defaultScore,
			},
		})
	}

	return &schema.TensorMetadata{
		Name:            m.name,
		Description:     m.description,
		Content:         &schema.Content{Feature: &schema.FeatureProperties{}},
		ProcessUnits:    units,
		Stats:           stats,
		AssociatedFiles: files,
	}, nil
}
