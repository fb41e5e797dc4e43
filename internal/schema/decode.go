package schema

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ErrBadIdentifier reports a buffer that is not tagged as metadata.
var ErrBadIdentifier = errors.New("buffer does not carry the metadata file identifier")

// Unmarshal decodes a serialized metadata buffer back into the record tree.
func Unmarshal(buf []byte) (*ModelMetadata, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("metadata buffer too short: %d bytes", len(buf))
	}
	if string(buf[4:8]) != FileIdentifier {
		return nil, ErrBadIdentifier
	}
	root := flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}
	return unpackModelMetadata(root), nil
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

func unpackByte(t flatbuffers.Table, id int) byte {
	o := fieldOffset(t, id)
	if o == 0 {
		return 0
	}
	return t.GetByte(o + t.Pos)
}

func unpackInt8(t flatbuffers.Table, id int) int8 {
	o := fieldOffset(t, id)
	if o == 0 {
		return 0
	}
	return t.GetInt8(o + t.Pos)
}

func unpackFloat32(t flatbuffers.Table, id int) float32 {
	o := fieldOffset(t, id)
	if o == 0 {
		return 0
	}
	return t.GetFloat32(o + t.Pos)
}

func unpackSubTable(t flatbuffers.Table, id int) (flatbuffers.Table, bool) {
	o := fieldOffset(t, id)
	if o == 0 {
		return flatbuffers.Table{}, false
	}
	return flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(o + t.Pos)}, true
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

func unpackFloat32Vector(t flatbuffers.Table, id int) []float32 {
	o := fieldOffset(t, id)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	a := t.Vector(o)
	v := make([]float32, n)
	for j := 0; j < n; j++ {
		v[j] = t.GetFloat32(a + flatbuffers.UOffsetT(j)*4)
	}
	return v
}

func unpackStringVector(t flatbuffers.Table, id int) []string {
	o := fieldOffset(t, id)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	a := t.Vector(o)
	v := make([]string, n)
	for j := 0; j < n; j++ {
		v[j] = string(t.ByteVector(a + flatbuffers.UOffsetT(j)*flatbuffers.SizeUOffsetT))
	}
	return v
}

func unpackModelMetadata(t flatbuffers.Table) *ModelMetadata {
	m := &ModelMetadata{
		Name:             unpackString(t, 0),
		Description:      unpackString(t, 1),
		Version:          unpackString(t, 2),
		Author:           unpackString(t, 4),
		License:          unpackString(t, 5),
		MinParserVersion: unpackString(t, 7),
	}
	for _, sg := range unpackTableVector(t, 3) {
		m.SubgraphMetadata = append(m.SubgraphMetadata, unpackSubGraphMetadata(sg))
	}
	for _, f := range unpackTableVector(t, 6) {
		m.AssociatedFiles = append(m.AssociatedFiles, unpackAssociatedFile(f))
	}
	return m
}

func unpackSubGraphMetadata(t flatbuffers.Table) *SubGraphMetadata {
	s := &SubGraphMetadata{
		Name:        unpackString(t, 0),
		Description: unpackString(t, 1),
	}
	for _, tm := range unpackTableVector(t, 2) {
		s.InputTensorMetadata = append(s.InputTensorMetadata, unpackTensorMetadata(tm))
	}
	for _, tm := range unpackTableVector(t, 3) {
		s.OutputTensorMetadata = append(s.OutputTensorMetadata, unpackTensorMetadata(tm))
	}
	for _, f := range unpackTableVector(t, 4) {
		s.AssociatedFiles = append(s.AssociatedFiles, unpackAssociatedFile(f))
	}
	return s
}

func unpackTensorMetadata(t flatbuffers.Table) *TensorMetadata {
	tm := &TensorMetadata{
		Name:           unpackString(t, 0),
		Description:    unpackString(t, 1),
		DimensionNames: unpackStringVector(t, 2),
	}
	if content, ok := unpackSubTable(t, 3); ok {
		tm.Content = unpackContent(content)
	}
	for _, pu := range unpackTableVector(t, 4) {
		tm.ProcessUnits = append(tm.ProcessUnits, unpackProcessUnit(pu))
	}
	if stats, ok := unpackSubTable(t, 5); ok {
		tm.Stats = &Stats{
			Max: unpackFloat32Vector(stats, 0),
			Min: unpackFloat32Vector(stats, 1),
		}
	}
	for _, f := range unpackTableVector(t, 6) {
		tm.AssociatedFiles = append(tm.AssociatedFiles, unpackAssociatedFile(f))
	}
	return tm
}

func unpackContent(t flatbuffers.Table) *Content {
	c := &Content{}
	properties, ok := unpackSubTable(t, 1)
	if !ok {
		return c
	}
	switch unpackByte(t, 0) {
	case contentPropertiesFeature:
		c.Feature = &FeatureProperties{}
	case contentPropertiesImage:
		c.Image = &ImageProperties{
			ColorSpace: ColorSpaceType(unpackInt8(properties, 0)),
		}
	}
	return c
}

func unpackProcessUnit(t flatbuffers.Table) *ProcessUnit {
	p := &ProcessUnit{}
	options, ok := unpackSubTable(t, 1)
	if !ok {
		return p
	}
	switch unpackByte(t, 0) {
	case processUnitOptionsNormalization:
		p.Normalization = &NormalizationOptions{
			Mean: unpackFloat32Vector(options, 0),
			Std:  unpackFloat32Vector(options, 1),
		}
	case processUnitOptionsScoreCalibration:
		p.ScoreCalibration = &ScoreCalibrationOptions{
			ScoreTransformation: ScoreTransformationType(unpackInt8(options, 0)),
			DefaultScore:        unpackFloat32(options, 1),
		}
	}
	return p
}

func unpackAssociatedFile(t flatbuffers.Table) *AssociatedFile {
	return &AssociatedFile{
		Name:        unpackString(t, 0),
		Description: unpackString(t, 1),
		Type:        AssociatedFileType(unpackInt8(t, 2)),
		Locale:      unpackString(t, 3),
		Version:     unpackString(t, 4),
	}
}
