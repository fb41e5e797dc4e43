package metadata

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"

	"github.com/lite-ml/tfmeta/internal/tflite"
)

// classifierModelBuf builds a minimal image classifier model binary with one
// float32 image input and one float32 score output.
func classifierModelBuf(t *testing.T) []byte {
	t.Helper()
	m := &tflite.Model{
		Version: tflite.CurrentVersion,
		Subgraphs: []*tflite.SubGraph{
			{
				Name: "main",
				Tensors: []*tflite.Tensor{
					{Name: "image_tensor", Type: tflite.TensorTypeFloat32, Shape: []int32{1, 224, 224, 3}},
					{Name: "score_tensor", Type: tflite.TensorTypeFloat32, Shape: []int32{1, 2}},
				},
				Inputs:  []int32{0},
				Outputs: []int32{1},
			},
		},
		Buffers: [][]byte{nil},
	}
	return m.Marshal()
}

// jsonView is the subset of the metadata JSON rendering the tests inspect.
type jsonView struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	SubgraphMetadata []struct {
		InputTensorMetadata []struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"input_tensor_metadata"`
		OutputTensorMetadata []struct {
			Name            string `json:"name"`
			Description     string `json:"description"`
			AssociatedFiles []struct {
				Name   string `json:"name"`
				Type   string `json:"type"`
				Locale string `json:"locale"`
			} `json:"associated_files"`
		} `json:"output_tensor_metadata"`
	} `json:"subgraph_metadata"`
}

func parseJSONView(t *testing.T, s string) jsonView {
	t.Helper()
	var v jsonView
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestWriter_EndToEnd(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, w.Close())
	}()

	augmented, view, err := w.
		SetGeneralInfo("mobilenet_v1", "Image classifier.").
		AddImageInput(ImageTensor{NormMean: []float32{0.5}, NormStd: []float32{0.5}}).
		AddClassificationOutput(ClassificationTensor{
			Labels: NewLabels().Add([]string{"cat", "dog"}, "", ""),
		}).
		Populate()
	require.NoError(t, err)

	got := parseJSONView(t, view)
	assert.Equal(t, "mobilenet_v1", got.Name)
	require.Len(t, got.SubgraphMetadata, 1)
	sg := got.SubgraphMetadata[0]

	require.Len(t, sg.InputTensorMetadata, 1)
	assert.Equal(t, "image", sg.InputTensorMetadata[0].Name)
	assert.Equal(t, "Input image to be processed.", sg.InputTensorMetadata[0].Description)

	require.Len(t, sg.OutputTensorMetadata, 1)
	assert.Equal(t, "score", sg.OutputTensorMetadata[0].Name)
	require.Len(t, sg.OutputTensorMetadata[0].AssociatedFiles, 1)
	assert.Equal(t, "labels.txt", sg.OutputTensorMetadata[0].AssociatedFiles[0].Name)

	// The augmented binary still parses as a model and carries the label file.
	_, err = tflite.Parse(augmented)
	require.NoError(t, err)

	files, err := PackedAssociatedFiles(augmented)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"labels.txt": []byte("cat\ndog")}, files)
}

func TestWriter_PopulateWithoutDescriptors(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	augmented, view, err := w.Populate()
	require.NoError(t, err)

	got := parseJSONView(t, view)
	require.Len(t, got.SubgraphMetadata, 1)
	sg := got.SubgraphMetadata[0]
	require.Len(t, sg.InputTensorMetadata, 1)
	assert.Equal(t, "image_tensor", sg.InputTensorMetadata[0].Name)
	require.Len(t, sg.OutputTensorMetadata, 1)
	assert.Equal(t, "score_tensor", sg.OutputTensorMetadata[0].Name)

	// No associated files means no archive is appended.
	files, err := PackedAssociatedFiles(augmented)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriter_PopulateIsRepeatable(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	w.AddClassificationOutput(ClassificationTensor{
		Labels: NewLabels().Add([]string{"cat", "dog"}, "", ""),
	})

	first, firstView, err := w.Populate()
	require.NoError(t, err)
	second, secondView, err := w.Populate()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstView, secondView)
}

func TestWriter_LocalizedLabelsAndCalibration(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	augmented, view, err := w.
		AddClassificationOutput(ClassificationTensor{
			Labels: NewLabels().
				Add([]string{"cat", "dog"}, "", "").
				Add([]string{"chat", "chien"}, "fr", ""),
			Calibration: &ScoreCalibration{
				Parameters: []*CalibrationParameter{
					nil,
					{Scale: pointy.Float32(1), Slope: pointy.Float32(2), Offset: pointy.Float32(3)},
				},
				DefaultScore: 0.2,
			},
		}).
		Populate()
	require.NoError(t, err)

	got := parseJSONView(t, view)
	require.Len(t, got.SubgraphMetadata, 1)
	outFiles := got.SubgraphMetadata[0].OutputTensorMetadata[0].AssociatedFiles
	require.Len(t, outFiles, 3)
	assert.Equal(t, "labels.txt", outFiles[0].Name)
	assert.Equal(t, "labels_fr.txt", outFiles[1].Name)
	assert.Equal(t, "fr", outFiles[1].Locale)
	assert.Equal(t, "TENSOR_AXIS_SCORE_CALIBRATION", outFiles[2].Type)

	files, err := PackedAssociatedFiles(augmented)
	require.NoError(t, err)
	assert.Equal(t, []byte("chat\nchien"), files["labels_fr.txt"])
	assert.Equal(t, []byte("1,2,3"), files["score_calibration.txt"])
}

func TestWriter_ImageInputValidation(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	w.AddImageInput(ImageTensor{NormMean: []float32{0.5}, NormStd: []float32{0.5, 0.5}})
	assert.ErrorContains(t, w.Err(), "same length")

	_, _, err = w.Populate()
	assert.ErrorContains(t, err, "same length")
}

func TestWriter_ImageInputUnsupportedType(t *testing.T) {
	m := &tflite.Model{
		Version: tflite.CurrentVersion,
		Subgraphs: []*tflite.SubGraph{
			{
				Tensors: []*tflite.Tensor{
					{Name: "in", Type: tflite.TensorTypeInt32},
					{Name: "out", Type: tflite.TensorTypeFloat32},
				},
				Inputs:  []int32{0},
				Outputs: []int32{1},
			},
		},
		Buffers: [][]byte{nil},
	}

	w, err := NewWriter(m.Marshal())
	require.NoError(t, err)
	defer w.Close()

	w.AddImageInput(ImageTensor{NormMean: []float32{0.5}, NormStd: []float32{0.5}})
	assert.ErrorContains(t, w.Err(), "not supported")
}

func TestWriter_MoreDescriptorsThanTensors(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	w.AddImageInput(ImageTensor{NormMean: []float32{0.5}, NormStd: []float32{0.5}})
	w.AddImageInput(ImageTensor{NormMean: []float32{0.5}, NormStd: []float32{0.5}})
	assert.ErrorContains(t, w.Err(), "out of range")
}

func TestWriter_TensorNameMismatchSurfacesAtPopulate(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	_, _, err = w.
		AddFeatureInput(FeatureTensor{TensorName: "nope"}).
		Populate()
	assert.ErrorContains(t, err, "do not match")
}

func TestWriter_EmptyLabelsSurface(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	w.AddClassificationOutput(ClassificationTensor{Labels: NewLabels().Add(nil, "", "")})
	assert.ErrorIs(t, w.Err(), ErrEmptyLabels)
}

func TestWriter_IncompleteCalibrationSurface(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	defer w.Close()

	w.AddClassificationOutput(ClassificationTensor{
		Calibration: &ScoreCalibration{
			Parameters: []*CalibrationParameter{{Scale: pointy.Float32(1)}},
		},
	})
	assert.ErrorIs(t, w.Err(), ErrIncompleteCalibration)
}

func TestWriter_CloseRemovesScratchDir(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)

	w.AddClassificationOutput(ClassificationTensor{
		Labels: NewLabels().Add([]string{"cat"}, "", ""),
	})
	_, statErr := os.Stat(w.scratchDir)
	require.NoError(t, statErr)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, statErr = os.Stat(w.scratchDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriter_PopulateAfterClose(t *testing.T) {
	w, err := NewWriter(classifierModelBuf(t))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, _, err = w.Populate()
	assert.ErrorIs(t, err, ErrWriterClosed)
}

func TestNewWriter_InvalidModel(t *testing.T) {
	_, err := NewWriter([]byte("not a model"))
	assert.Error(t, err)
}
