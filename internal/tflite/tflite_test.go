package tflite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() *Model {
	return &Model{
		Version:     CurrentVersion,
		Description: "test classifier",
		Subgraphs: []*SubGraph{
			{
				Name: "main",
				Tensors: []*Tensor{
					{Name: "image_tensor", Type: TensorTypeFloat32, Shape: []int32{1, 224, 224, 3}},
					{Name: "score_tensor", Type: TensorTypeFloat32, Shape: []int32{1, 2}, Buffer: 1},
				},
				Inputs:  []int32{0},
				Outputs: []int32{1},
			},
		},
		Buffers: [][]byte{nil, {0xde, 0xad}},
		Metadata: []Metadata{
			{Name: "min_runtime_version", Buffer: 1},
		},
	}
}

func TestModelRoundTrip(t *testing.T) {
	buf := testModel().Marshal()
	require.GreaterOrEqual(t, len(buf), 8)
	assert.Equal(t, FileIdentifier, string(buf[4:8]))

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, testModel(), got)
}

func TestParse_IgnoresTrailingBytes(t *testing.T) {
	buf := testModel().Marshal()
	buf = append(buf, []byte("PK\x03\x04 trailing archive bytes")...)

	got, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, "test classifier", got.Description)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("abc"))
	assert.Error(t, err)

	buf := testModel().Marshal()
	copy(buf[4:8], "NOPE")
	_, err = Parse(buf)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestTensorIntrospection(t *testing.T) {
	m := testModel()

	names, err := m.InputTensorNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"image_tensor"}, names)

	names, err = m.OutputTensorNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"score_tensor"}, names)

	types, err := m.InputTensorTypes()
	require.NoError(t, err)
	assert.Equal(t, []TensorType{TensorTypeFloat32}, types)

	types, err = m.OutputTensorTypes()
	require.NoError(t, err)
	assert.Equal(t, []TensorType{TensorTypeFloat32}, types)
}

func TestTensorIntrospection_OutOfRangeIndex(t *testing.T) {
	m := testModel()
	m.Subgraphs[0].Inputs = []int32{5}

	_, err := m.InputTensorNames()
	assert.ErrorContains(t, err, "out of range")
}

func TestTensorIntrospection_NoSubgraphs(t *testing.T) {
	m := &Model{Version: CurrentVersion}

	_, err := m.InputTensorNames()
	assert.ErrorContains(t, err, "no subgraphs")
}

func TestTensorTypeString(t *testing.T) {
	assert.Equal(t, "FLOAT32", TensorTypeFloat32.String())
	assert.Equal(t, "UINT8", TensorTypeUint8.String())
	assert.Equal(t, "unknown(42)", TensorType(42).String())
}
