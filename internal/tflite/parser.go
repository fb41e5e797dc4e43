package tflite

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ErrInvalidModel reports a buffer that is not a TFLite model flatbuffer.
var ErrInvalidModel = errors.New("invalid model: missing TFL3 file identifier")

// Parse decodes the structural view of a TFLite model buffer.
//
// Trailing bytes after the flatbuffer (such as a zip archive of associated
// files appended by the populator) are ignored.
func Parse(buf []byte) (*Model, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("model buffer too short: %d bytes", len(buf))
	}
	if string(buf[4:8]) != FileIdentifier {
		return nil, ErrInvalidModel
	}

	root := flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}
	m := &Model{
		Version:     unpackUint32(root, 0),
		Description: unpackString(root, 3),
	}

	for _, sg := range unpackTableVector(root, 2) {
		m.Subgraphs = append(m.Subgraphs, unpackSubGraph(sg))
	}
	for _, b := range unpackTableVector(root, 4) {
		m.Buffers = append(m.Buffers, unpackByteVector(b, 0))
	}
	for _, md := range unpackTableVector(root, 6) {
		m.Metadata = append(m.Metadata, Metadata{
			Name:   unpackString(md, 0),
			Buffer: unpackUint32(md, 1),
		})
	}

	return m, nil
}

func unpackSubGraph(t flatbuffers.Table) *SubGraph {
	sg := &SubGraph{
		Inputs:  unpackInt32Vector(t, 1),
		Outputs: unpackInt32Vector(t, 2),
		Name:    unpackString(t, 4),
	}
	for _, tensor := range unpackTableVector(t, 0) {
		sg.Tensors = append(sg.Tensors, &Tensor{
			Shape:  unpackInt32Vector(tensor, 0),
			Type:   TensorType(unpackInt8(tensor, 1)),
			Buffer: unpackUint32(tensor, 2),
			Name:   unpackString(tensor, 3),
		})
	}
	return sg
}

// fieldOffset resolves a field id to its vtable offset, 0 when absent.
func fieldOffset(t flatbuffers.Table, id int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*id)))
}

func unpackString(t flatbuffers.Table, id int) string {
	o := fieldOffset(t, id)
	if o == 0 {
		return ""
	}
	return string(t.ByteVector(o + t.Pos))
}

func unpackInt8(t flatbuffers.Table, id int) int8 {
	o := fieldOffset(t, id)
	if o == 0 {
		return 0
	}
	return t.GetInt8(o + t.Pos)
}

func unpackUint32(t flatbuffers.Table, id int) uint32 {
	o := fieldOffset(t, id)
	if o == 0 {
		return 0
	}
	return t.GetUint32(o + t.Pos)
}

func unpackTableVector(t flatbuffers.Table, id int) []flatbuffers.Table {
	o := fieldOffset(t, id)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	a := t.Vector(o)
	tables := make([]flatbuffers.Table, n)
	for j := 0; j < n; j++ {
		pos := t.Indirect(a + flatbuffers.UOffsetT(j)*flatbuffers.SizeUOffsetT)
		tables[j] = flatbuffers.Table{Bytes: t.Bytes, Pos: pos}
	}
	return tables
}

func unpackInt32Vector(t flatbuffers.Table, id int) []int32 {
	o := fieldOffset(t, id)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	a := t.Vector(o)
	v := make([]int32, n)
	for j := 0; j < n; j++ {
		v[j] = t.GetInt32(a + flatbuffers.UOffsetT(j)*4)
	}
	return v
}

func unpackByteVector(t flatbuffers.Table, id int) []byte {
	o := fieldOffset(t, id)
	if o == 0 {
		return nil
	}
	// Copy out of the backing buffer so the decoded model does not alias it.
	data := t.ByteVector(o + t.Pos)
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
