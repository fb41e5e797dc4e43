package schema

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Union discriminants from the metadata schema.
const (
	contentPropertiesNone    byte = 0
	contentPropertiesFeature byte = 1
	contentPropertiesImage   byte = 2

	processUnitOptionsNone             byte = 0
	processUnitOptionsNormalization    byte = 1
	processUnitOptionsScoreCalibration byte = 2
)

// Marshal serializes the metadata tree into a flatbuffer tagged with the
// metadata file identifier. The resulting buffer is self-contained and can be
// stored in a model binary as-is.
func (m *ModelMetadata) Marshal() []byte {
	b := flatbuffers.NewBuilder(1024)
	root := m.pack(b)
	b.FinishWithFileIdentifier(root, []byte(FileIdentifier))
	return b.FinishedBytes()
}

// packString creates a string only when non-empty, so empty fields stay
// absent from the buffer.
func packString(b *flatbuffers.Builder, s string) flatbuffers.UOffsetT {
	if s == "" {
		return 0
	}
	return b.CreateString(s)
}

func packFloat32Vector(b *flatbuffers.Builder, v []float32) flatbuffers.UOffsetT {
	if len(v) == 0 {
		return 0
	}
	b.StartVector(4, len(v), 4)
	for i := len(v) - 1; i >= 0; i-- {
		b.PrependFloat32(v[i])
	}
	return b.EndVector(len(v))
}

func packStringVector(b *flatbuffers.Builder, v []string) flatbuffers.UOffsetT {
	if len(v) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(v))
	for i, s := range v {
		offs[i] = b.CreateString(s)
	}
	return packOffsetVector(b, offs)
}

func packOffsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	if len(offs) == 0 {
		return 0
	}
	b.StartVector(4, len(offs), 4)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func packAssociatedFiles(b *flatbuffers.Builder, files []*AssociatedFile) flatbuffers.UOffsetT {
	if len(files) == 0 {
		return 0
	}
	offs := make([]flatbuffers.UOffsetT, len(files))
	for i, f := range files {
		offs[i] = f.pack(b)
	}
	return packOffsetVector(b, offs)
}

func (m *ModelMetadata) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	name := packString(b, m.Name)
	description := packString(b, m.Description)
	version := packString(b, m.Version)
	subgraphOffs := make([]flatbuffers.UOffsetT, len(m.SubgraphMetadata))
	for i, sg := range m.SubgraphMetadata {
		subgraphOffs[i] = sg.pack(b)
	}
	subgraphs := packOffsetVector(b, subgraphOffs)
	author := packString(b, m.Author)
	license := packString(b, m.License)
	files := packAssociatedFiles(b, m.AssociatedFiles)
	minParser := packString(b, m.MinParserVersion)

	b.StartObject(8)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, description, 0)
	b.PrependUOffsetTSlot(2, version, 0)
	b.PrependUOffsetTSlot(3, subgraphs, 0)
	b.PrependUOffsetTSlot(4, author, 0)
	b.PrependUOffsetTSlot(5, license, 0)
	b.PrependUOffsetTSlot(6, files, 0)
	b.PrependUOffsetTSlot(7, minParser, 0)
	return b.EndObject()
}

func (s *SubGraphMetadata) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	name := packString(b, s.Name)
	description := packString(b, s.Description)
	inputOffs := make([]flatbuffers.UOffsetT, len(s.InputTensorMetadata))
	for i, tm := range s.InputTensorMetadata {
		inputOffs[i] = tm.pack(b)
	}
	inputs := packOffsetVector(b, inputOffs)
	outputOffs := make([]flatbuffers.UOffsetT, len(s.OutputTensorMetadata))
	for i, tm := range s.OutputTensorMetadata {
		outputOffs[i] = tm.pack(b)
	}
	outputs := packOffsetVector(b, outputOffs)
	files := packAssociatedFiles(b, s.AssociatedFiles)

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, description, 0)
	b.PrependUOffsetTSlot(2, inputs, 0)
	b.PrependUOffsetTSlot(3, outputs, 0)
	b.PrependUOffsetTSlot(4, files, 0)
	return b.EndObject()
}

func (t *TensorMetadata) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	name := packString(b, t.Name)
	description := packString(b, t.Description)
	dims := packStringVector(b, t.DimensionNames)
	var content flatbuffers.UOffsetT
	if t.Content != nil {
		content = t.Content.pack(b)
	}
	unitOffs := make([]flatbuffers.UOffsetT, len(t.ProcessUnits))
	for i, pu := range t.ProcessUnits {
		unitOffs[i] = pu.pack(b)
	}
	units := packOffsetVector(b, unitOffs)
	var stats flatbuffers.UOffsetT
	if t.Stats != nil {
		stats = t.Stats.pack(b)
	}
	files := packAssociatedFiles(b, t.AssociatedFiles)

	b.StartObject(7)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, description, 0)
	b.PrependUOffsetTSlot(2, dims, 0)
	b.PrependUOffsetTSlot(3, content, 0)
	b.PrependUOffsetTSlot(4, units, 0)
	b.PrependUOffsetTSlot(5, stats, 0)
	b.PrependUOffsetTSlot(6, files, 0)
	return b.EndObject()
}

func (c *Content) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	propertiesType := contentPropertiesNone
	var properties flatbuffers.UOffsetT
	switch {
	case c.Image != nil:
		propertiesType = contentPropertiesImage
		properties = c.Image.pack(b)
	case c.Feature != nil:
		propertiesType = contentPropertiesFeature
		properties = c.Feature.pack(b)
	}

	b.StartObject(3)
	b.PrependByteSlot(0, propertiesType, 0)
	b.PrependUOffsetTSlot(1, properties, 0)
	return b.EndObject()
}

func (f *FeatureProperties) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(0)
	return b.EndObject()
}

func (i *ImageProperties) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependInt8Slot(0, int8(i.ColorSpace), 0)
	return b.EndObject()
}

func (p *ProcessUnit) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	optionsType := processUnitOptionsNone
	var options flatbuffers.UOffsetT
	switch {
	case p.Normalization != nil:
		optionsType = processUnitOptionsNormalization
		options = p.Normalization.pack(b)
	case p.ScoreCalibration != nil:
		optionsType = processUnitOptionsScoreCalibration
		options = p.ScoreCalibration.pack(b)
	}

	b.StartObject(2)
	b.PrependByteSlot(0, optionsType, 0)
	b.PrependUOffsetTSlot(1, options, 0)
	return b.EndObject()
}

func (n *NormalizationOptions) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	mean := packFloat32Vector(b, n.Mean)
	std := packFloat32Vector(b, n.Std)

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, mean, 0)
	b.PrependUOffsetTSlot(1, std, 0)
	return b.EndObject()
}

func (s *ScoreCalibrationOptions) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	b.StartObject(2)
	b.PrependInt8Slot(0, int8(s.ScoreTransformation), 0)
	b.PrependFloat32Slot(1, s.DefaultScore, 0)
	return b.EndObject()
}

func (s *Stats) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	max := packFloat32Vector(b, s.Max)
	min := packFloat32Vector(b, s.Min)

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, max, 0)
	b.PrependUOffsetTSlot(1, min, 0)
	return b.EndObject()
}

func (f *AssociatedFile) pack(b *flatbuffers.Builder) flatbuffers.UOffsetT {
	name := packString(b, f.Name)
	description := packString(b, f.Description)
	locale := packString(b, f.Locale)
	version := packString(b, f.Version)

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUOffsetTSlot(1, description, 0)
	b.PrependInt8Slot(2, int8(f.Type), 0)
	b.PrependUOffsetTSlot(3, locale, 0)
	b.PrependUOffsetTSlot(4, version, 0)
	return b.EndObject()
}
