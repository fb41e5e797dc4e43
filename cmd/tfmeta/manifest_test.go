package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lite-ml/tfmeta/internal/tflite"
	"github.com/lite-ml/tfmeta/metadata"
)

const testManifest = `name: classifier
description: Identifies objects in images.
inputs:
  - kind: image
    norm_mean: [0.5]
    norm_std: [0.5]
outputs:
  - kind: classification
    labels:
      - names: [cat, dog]
    calibration:
      transformation: LOG
      default_score: 0.2
      parameters:
        - null
        - {scale: 1, slope: 2, offset: 3}
`

func writeClassifierModel(t *testing.T, dir string) string {
	t.Helper()
	m := &tflite.Model{
		Version: tflite.CurrentVersion,
		Subgraphs: []*tflite.SubGraph{
			{
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
	path := filepath.Join(dir, "model.tflite")
	require.NoError(t, os.WriteFile(path, m.Marshal(), 0o644))
	return path
}

func TestManifestApply(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testManifest), 0o644))

	m, err := loadManifest(manifestPath)
	require.NoError(t, err)
	assert.Equal(t, "classifier", m.Name)
	require.Len(t, m.Inputs, 1)
	require.Len(t, m.Outputs, 1)

	modelBuf, err := os.ReadFile(writeClassifierModel(t, dir))
	require.NoError(t, err)

	w, err := metadata.NewWriter(modelBuf)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, m.apply(w))

	augmented, jsonView, err := w.Populate()
	require.NoError(t, err)
	assert.Contains(t, jsonView, `"name": "classifier"`)
	assert.Contains(t, jsonView, `"score_calibration.txt"`)

	files, err := metadata.PackedAssociatedFiles(augmented)
	require.NoError(t, err)
	assert.Equal(t, "cat\ndog", string(files["labels.txt"]))
	assert.Equal(t, "1,2,3", string(files["score_calibration.txt"]))
}

func TestManifestApply_UnknownKind(t *testing.T) {
	m := &manifest{Inputs: []tensorSpec{{Kind: "audio"}}}

	modelBuf := readTestModel(t)
	w, err := metadata.NewWriter(modelBuf)
	require.NoError(t, err)
	defer w.Close()

	assert.ErrorContains(t, m.apply(w), "unknown kind")
}

func readTestModel(t *testing.T) []byte {
	t.Helper()
	buf, err := os.ReadFile(writeClassifierModel(t, t.TempDir()))
	require.NoError(t, err)
	return buf
}

func TestParseColorSpace(t *testing.T) {
	cs, err := parseColorSpace("")
	require.NoError(t, err)
	assert.Equal(t, metadata.ColorSpaceRGB, cs)

	cs, err = parseColorSpace("GRAYSCALE")
	require.NoError(t, err)
	assert.Equal(t, metadata.ColorSpaceGrayscale, cs)

	_, err = parseColorSpace("CMYK")
	assert.ErrorContains(t, err, "unknown color space")
}

func TestParseTransformation(t *testing.T) {
	tr, err := parseTransformation("")
	require.NoError(t, err)
	assert.Equal(t, metadata.ScoreTransformationIdentity, tr)

	tr, err = parseTransformation("INVERSE_LOGISTIC")
	require.NoError(t, err)
	assert.Equal(t, metadata.ScoreTransformationInverseLogistic, tr)

	_, err = parseTransformation("SQRT")
	assert.ErrorContains(t, err, "unknown score transformation")
}

func TestAnnotateAndShowCommands(t *testing.T) {
	dir := t.TempDir()
	modelPath := writeClassifierModel(t, dir)
	manifestPath := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(testManifest), 0o644))
	outputPath := filepath.Join(dir, "annotated.tflite")

	annotate := newAnnotateCmd()
	var out bytes.Buffer
	annotate.SetOut(&out)
	annotate.SetArgs([]string{"-m", modelPath, "-f", manifestPath, "-o", outputPath})
	require.NoError(t, annotate.Execute())
	assert.Contains(t, out.String(), "annotated.tflite")

	show := newShowCmd()
	out.Reset()
	show.SetOut(&out)
	show.SetArgs([]string{outputPath, "--files"})
	require.NoError(t, show.Execute())
	assert.Contains(t, out.String(), `"name": "classifier"`)
	assert.Contains(t, out.String(), "associated file: labels.txt")
}
