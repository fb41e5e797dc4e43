package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lite-ml/tfmeta/internal/schema"
	"github.com/lite-ml/tfmeta/internal/tflite"
)

// Default names and descriptions, matching the conventions consumers of the
// metadata rely on.
const (
	inputImageName        = "image"
	inputImageDescription = "Input image to be processed."

	outputClassificationName        = "score"
	outputClassificationDescription = "Score of the labels respectively"

	calibrationFilename = "score_calibration.txt"
)

// FeatureTensor configures a generic feature input or output descriptor.
// TensorName, when set, requests pairing by model tensor name instead of
// positional order.
type FeatureTensor struct {
	Name        string
	Description string
	TensorName  string
}

// ImageTensor configures an image input descriptor. NormMean and NormStd are
// the per-channel normalization parameters; a single element is broadcast to
// all channels by consumers. ColorSpace defaults to RGB when left unset.
type ImageTensor struct {
	Name        string
	Description string
	TensorName  string
	NormMean    []float32
	NormStd     []float32
	ColorSpace  schema.ColorSpaceType
}

// ClassificationTensor configures a classification output descriptor with
// optional label files and score calibration.
type ClassificationTensor struct {
	Name        string
	Description string
	TensorName  string
	Labels      *Labels
	Calibration *ScoreCalibration
}

// Writer accumulates model metadata and attaches it to a model binary.
//
// Configuration calls chain and record the first failure; Populate surfaces
// it. The writer owns a scratch directory holding exported side files (label
// lists, calibration parameters) for its lifetime; callers must Close it on
// every exit path to release the directory:
//
//	w, err := metadata.NewWriter(modelBuf)
//	if err != nil { ... }
//	defer w.Close()
//
//	model, jsonView, err := w.
//		SetGeneralInfo("mobilenet_v1", "Image classifier.").
//		AddImageInput(metadata.ImageTensor{NormMean: []float32{127.5}, NormStd: []float32{127.5}}).
//		AddClassificationOutput(metadata.ClassificationTensor{
//			Labels: metadata.NewLabels().Add([]string{"cat", "dog"}, "", ""),
//		}).
//		Populate()
type Writer struct {
	modelBuf  []byte
	model     *tflite.Model
	general   *GeneralMd
	inputMds  []tensorMd
	outputMds []tensorMd

	associatedFiles []string
	scratchDir      string
	closed          bool
	err             error
}

// NewWriter creates a writer for the given model binary. The buffer is
// borrowed and never mutated; Populate produces a new binary.
func NewWriter(modelBuf []byte) (*Writer, error) {
	model, err := tflite.Parse(modelBuf)
	if err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	scratchDir, err := os.MkdirTemp("", "tfmeta-")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	return &Writer{
		modelBuf:   modelBuf,
		model:      model,
		scratchDir: scratchDir,
	}, nil
}

// Close removes the scratch directory and every side file exported into it.
// It is safe to call more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return os.RemoveAll(w.scratchDir)
}

// Err returns the first error recorded by a chained configuration call.
func (w *Writer) Err() error {
	return w.err
}

// fail records the first configuration error; later calls become no-ops.
func (w *Writer) fail(err error) *Writer {
	if w.err == nil {
		w.err = err
	}
	return w
}

// SetGeneralInfo sets the model name and description, overwriting any
// previously set general info.
func (w *Writer) SetGeneralInfo(name, description string) *Writer {
	w.general = &GeneralMd{Name: name, Description: description}
	return w
}

// AddFeatureInput appends a generic feature input descriptor.
func (w *Writer) AddFeatureInput(t FeatureTensor) *Writer {
	w.inputMds = append(w.inputMds, &featureTensorMd{
		name:        t.Name,
		description: t.Description,
		tensorName:  t.TensorName,
	})
	return w
}

// AddFeatureOutput appends a generic feature output descriptor.
func (w *Writer) AddFeatureOutput(t FeatureTensor) *Writer {
	w.outputMds = append(w.outputMds, &featureTensorMd{
		name:        t.Name,
		description: t.Description,
		tensorName:  t.TensorName,
	})
	return w
}

// AddImageInput appends an image input descriptor.
//
// The tensor type is read from the model at the index this descriptor will
// occupy, so without explicit TensorName pairing, image inputs must be added
// in the model's input order; adding them out of order assigns the wrong
// types undetected.
func (w *Writer) AddImageInput(t ImageTensor) *Writer {
	if w.err != nil || w.closed {
		return w
	}
	if len(t.NormMean) == 0 || len(t.NormMean) != len(t.NormStd) {
		return w.fail(fmt.Errorf("norm mean (%d values) and norm std (%d values) must be non-empty and of the same length",
			len(t.NormMean), len(t.NormStd)))
	}

	tensorType, err := w.inputTensorType(len(w.inputMds))
	if err != nil {
		return w.fail(err)
	}
	if tensorType != tflite.TensorTypeFloat32 && tensorType != tflite.TensorTypeUint8 {
		return w.fail(fmt.Errorf("image tensor type %s is not supported, only FLOAT32 and UINT8 are", tensorType))
	}

	if t.Name == "" {
		t.Name = inputImageName
	}
	if t.Description == "" {
		t.Description = inputImageDescription
	}
	if t.ColorSpace == schema.ColorSpaceUnknown {
		t.ColorSpace = schema.ColorSpaceRGB
	}

	w.inputMds = append(w.inputMds, &imageTensorMd{
		name:        t.Name,
		description: t.Description,
		tensorName:  t.TensorName,
		normMean:    t.NormMean,
		normStd:     t.NormStd,
		colorSpace:  t.ColorSpace,
		tensorType:  tensorType,
	})
	return w
}

// AddClassificationOutput appends a classification output descriptor,
// exporting every label list and the calibration parameters (when given) as
// side files in the scratch directory. The tensor type is read positionally,
// like AddImageInput.
func (w *Writer) AddClassificationOutput(t ClassificationTensor) *Writer {
	if w.err != nil || w.closed {
		return w
	}

	tensorType, err := w.outputTensorType(len(w.outputMds))
	if err != nil {
		return w.fail(err)
	}

	var calibration *scoreCalibrationMd
	if t.Calibration != nil {
		path, err := w.exportCalibration(calibrationFilename, t.Calibration.Parameters)
		if err != nil {
			return w.fail(err)
		}
		calibration = &scoreCalibrationMd{
			transformation: t.Calibration.Transformation,
			defaultScore:   t.Calibration.DefaultScore,
			filename:       filepath.Base(path),
		}
	}

	var labelFiles []labelFileMd
	if t.Labels != nil {
		if err := t.Labels.Err(); err != nil {
			return w.fail(err)
		}
		for _, item := range t.Labels.Items() {
			path, err := w.exportLabels(item.Filename, item.Names)
			if err != nil {
				return w.fail(err)
			}
			labelFiles = append(labelFiles, labelFileMd{
				filename: filepath.Base(path),
				locale:   item.Locale,
			})
		}
	}

	if t.Name == "" {
		t.Name = outputClassificationName
	}
	if t.Description == "" {
		t.Description = outputClassificationDescription
	}

	w.outputMds = append(w.outputMds, &classificationTensorMd{
		name:        t.Name,
		description: t.Description,
		tensorName:  t.TensorName,
		labelFiles:  labelFiles,
		calibration: calibration,
		tensorType:  tensorType,
	})
	return w
}

// Populate assembles the metadata tree from the accumulated state, injects
// it together with the exported side files into the model binary and returns
// the augmented binary plus its JSON rendering. It can be called again and
// re-derives an equivalent result from the same state.
func (w *Writer) Populate() ([]byte, string, error) {
	if w.err != nil {
		return nil, "", w.err
	}
	if w.closed {
		return nil, "", ErrWriterClosed
	}

	metadataBuf, err := createMetadataBuffer(w.model, w.general, w.inputMds, w.outputMds)
	if err != nil {
		return nil, "", err
	}

	augmented, err := populate(w.modelBuf, metadataBuf, w.associatedFiles)
	if err != nil {
		return nil, "", err
	}

	jsonView, err := MetadataJSON(augmented)
	if err != nil {
		return nil, "", err
	}
	return augmented, jsonView, nil
}

func (w *Writer) inputTensorType(idx int) (tflite.TensorType, error) {
	types, err := w.model.InputTensorTypes()
	if err != nil {
		return 0, err
	}
	if idx >= len(types) {
		return 0, fmt.Errorf("input descriptor %d out of range, model declares %d input tensors", idx, len(types))
	}
	return types[idx], nil
}

func (w *Writer) outputTensorType(idx int) (tflite.TensorType, error) {
	types, err := w.model.OutputTensorTypes()
	if err != nil {
		return 0, err
	}
	if idx >= len(types) {
		return 0, fmt.Errorf("output descriptor %d out of range, model declares %d output tensors", idx, len(types))
	}
	return types[idx], nil
}

// exportLabels writes a label list into the scratch directory, one name per
// line, and registers it as an associated file.
func (w *Writer) exportLabels(filename string, names []string) (string, error) {
	path := filepath.Join(w.scratchDir, filename)
	if err := os.WriteFile(path, []byte(strings.Join(names, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("export labels: %w", err)
	}
	w.associatedFiles = append(w.associatedFiles, path)
	return path, nil
}

// exportCalibration writes the calibration parameters into the scratch
// directory and registers the file as an associated file.
func (w *Writer) exportCalibration(filename string, params []*CalibrationParameter) (string, error) {
	path := filepath.Join(w.scratchDir, filename)
	if err := exportCalibrationFile(path, params); err != nil {
		return "", err
	}
	w.associatedFiles = append(w.associatedFiles, path)
	return path, nil
}
