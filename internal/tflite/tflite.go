// Package tflite provides a minimal codec for the TFLite model flatbuffer.
//
// It covers the structural subset the metadata tooling needs: subgraphs with
// named, typed tensors, the buffer table, and named metadata entries. Parsing
// reports the ordered input/output tensor names and types of the primary
// subgraph; re-encoding lets the populator inject a metadata buffer into an
// existing model. Operator definitions and quantization parameters are
// outside this package's scope.
package tflite

import (
	"fmt"
)

// FileIdentifier tags serialized TFLite model buffers.
const FileIdentifier = "TFL3"

// MetadataBufferName is the metadata entry name under which the serialized
// metadata flatbuffer is stored inside a model.
const MetadataBufferName = "TFLITE_METADATA"

// CurrentVersion is the TFLite schema version written by Marshal.
const CurrentVersion uint32 = 3

// TensorType is the element type of a tensor.
type TensorType int8

// Tensor element types as defined in the TFLite schema.
const (
	TensorTypeFloat32   TensorType = 0
	TensorTypeFloat16   TensorType = 1
	TensorTypeInt32     TensorType = 2
	TensorTypeUint8     TensorType = 3
	TensorTypeInt64     TensorType = 4
	TensorTypeString    TensorType = 5
	TensorTypeBool      TensorType = 6
	TensorTypeInt16     TensorType = 7
	TensorTypeComplex64 TensorType = 8
	TensorTypeInt8      TensorType = 9
	TensorTypeFloat64   TensorType = 10
)

// String returns the schema name of the tensor type.
func (t TensorType) String() string {
	names := map[TensorType]string{
		TensorTypeFloat32:   "FLOAT32",
		TensorTypeFloat16:   "FLOAT16",
		TensorTypeInt32:     "INT32",
		TensorTypeUint8:     "UINT8",
		TensorTypeInt64:     "INT64",
		TensorTypeString:    "STRING",
		TensorTypeBool:      "BOOL",
		TensorTypeInt16:     "INT16",
		TensorTypeComplex64: "COMPLEX64",
		TensorTypeInt8:      "INT8",
		TensorTypeFloat64:   "FLOAT64",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int8(t))
}

// Tensor is one named, typed slot of a subgraph.
type Tensor struct {
	Shape  []int32
	Type   TensorType
	Buffer uint32
	Name   string
}

// SubGraph holds the tensors of one graph and the indices of its inputs and
// outputs into the tensor list.
type SubGraph struct {
	Tensors []*Tensor
	Inputs  []int32
	Outputs []int32
	Name    string
}

// Metadata is a named reference into the buffer table.
type Metadata struct {
	Name   string
	Buffer uint32
}

// Model is the decoded structural view of a TFLite model.
type Model struct {
	Version     uint32
	Description string
	Subgraphs   []*SubGraph
	Buffers     [][]byte
	Metadata    []Metadata
}

// PrimarySubgraph returns the first subgraph, which by TFLite convention is
// the entry point of the model.
func (m *Model) PrimarySubgraph() (*SubGraph, error) {
	if len(m.Subgraphs) == 0 {
		return nil, fmt.Errorf("model has no subgraphs")
	}
	return m.Subgraphs[0], nil
}

// tensorAt resolves a tensor index of the primary subgraph, with bounds
// checking against malformed index vectors.
func (s *SubGraph) tensorAt(idx int32) (*Tensor, error) {
	if idx < 0 || int(idx) >= len(s.Tensors) {
		return nil, fmt.Errorf("tensor index %d out of range (subgraph has %d tensors)", idx, len(s.Tensors))
	}
	return s.Tensors[idx], nil
}

// InputTensorNames returns the names of the primary subgraph's input tensors
// in declaration order.
func (m *Model) InputTensorNames() ([]string, error) {
	sg, err := m.PrimarySubgraph()
	if err != nil {
		return nil, err
	}
	return sg.tensorNames(sg.Inputs)
}

// OutputTensorNames returns the names of the primary subgraph's output
// tensors in declaration order.
func (m *Model) OutputTensorNames() ([]string, error) {
	sg, err := m.PrimarySubgraph()
	if err != nil {
		return nil, err
	}
	return sg.tensorNames(sg.Outputs)
}

// InputTensorTypes returns the element types of the primary subgraph's input
// tensors in declaration order.
func (m *Model) InputTensorTypes() ([]TensorType, error) {
	sg, err := m.PrimarySubgraph()
	if err != nil {
		return nil, err
	}
	return sg.tensorTypes(sg.Inputs)
}

// OutputTensorTypes returns the element types of the primary subgraph's
// output tensors in declaration order.
func (m *Model) OutputTensorTypes() ([]TensorType, error) {
	sg, err := m.PrimarySubgraph()
	if err != nil {
		return nil, err
	}
	return sg.tensorTypes(sg.Outputs)
}

func (s *SubGraph) tensorNames(indices []int32) ([]string, error) {
	names := make([]string, len(indices))
	for i, idx := range indices {
		t, err := s.tensorAt(idx)
		if err != nil {
			return nil, err
		}
		names[i] = t.Name
	}
	return names, nil
}

func (s *SubGraph) tensorTypes(indices []int32) ([]TensorType, error) {
	types := make([]TensorType, len(indices))
	for i, idx := range indices {
		t, err := s.tensorAt(idx)
		if err != nil {
			return nil, err
		}
		types[i] = t.Type
	}
	return types, nil
}
