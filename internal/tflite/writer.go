package tflite

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Marshal serializes the structural view back into a TFLite model flatbuffer
// tagged with the TFL3 file identifier.
func (m *Model) Marshal() []byte {
	b := flatbuffers.NewBuilder(1024)

	subgraphOffs := make([]flatbuffers.UOffsetT, len(m.Subgraphs))
	for i, sg := range m.Subgraphs {
		subgraphOffs[i] = packSubGraph(b, sg)
	}
	subgraphs := packOffsetVector(b, subgraphOffs)

	description := packString(b, m.Description)

	bufferOffs := make([]flatbuffers.UOffsetT, len(m.Buffers))
	for i, data := range m.Buffers {
		bufferOffs[i] = packBuffer(b, data)
	}
	buffers := packOffsetVector(b, bufferOffs)

	metadataOffs := make([]flatbuffers.UOffsetT, len(m.Metadata))
	for i, md := range m.Metadata {
		metadataOffs[i] = packMetadata(b, md)
	}
	metadata := packOffsetVector(b, metadataOffs)

	b.StartObject(7)
	b.PrependUint32Slot(0, m.Version, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	b.PrependUOffsetTSlot(3, description, 0)
	b.PrependUOffsetTSlot(4, buffers, 0)
	b.PrependUOffsetTSlot(6, metadata, 0)
	root := b.EndObject()

	b.FinishWithFileIdentifier(root, []byte(FileIdentifier))
	return b.FinishedBytes()
}

func packSubGraph(b *flatbuffers.Builder, sg *SubGraph) flatbuffers.UOffsetT {
	tensorOffs := make([]flatbuffers.UOffsetT, len(sg.Tensors))
	for i, t := range sg.Tensors {
		tensorOffs[i] = packTensor(b, t)
	}
	tensors := packOffsetVector(b, tensorOffs)
	inputs := packInt32Vector(b, sg.Inputs)
	outputs := packInt32Vector(b, sg.Outputs)
	name := packString(b, sg.Name)

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, tensors, 0)
	b.PrependUOffsetTSlot(1, inputs, 0)
	b.PrependUOffsetTSlot(2, outputs, 0)
	b.PrependUOffsetTSlot(4, name, 0)
	return b.EndObject()
}

func packTensor(b *flatbuffers.Builder, t *Tensor) flatbuffers.UOffsetT {
	shape := packInt32Vector(b, t.Shape)
	name := packString(b, t.Name)

	b.StartObject(4)
	b.PrependUOffsetTSlot(0, shape, 0)
	b.PrependInt8Slot(1, int8(t.Type), 0)
	b.PrependUint32Slot(2, t.Buffer, 0)
	b.PrependUOffsetTSlot(3, name, 0)
	return b.EndObject()
}

func packBuffer(b *flatbuffers.Builder, data []byte) flatbuffers.UOffsetT {
	var off flatbuffers.UOffsetT
	if len(data) > 0 {
		off = b.CreateByteVector(data)
	}
	b.StartObject(1)
	b.PrependUOffsetTSlot(0, off, 0)
	return b.EndObject()
}

func packMetadata(b *flatbuffers.Builder, md Metadata) flatbuffers.UOffsetT {
	name := packString(b, md.Name)

	b.StartObject(2)
	b.PrependUOffsetTSlot(0, name, 0)
	b.PrependUint32Slot(1, md.Buffer, 0)
	return b.EndObject()
}

func packString(b *flatbuffers.Builder, s string) flatbuffers.UOffsetT {
	if s == "" {
		return 0
	}
	return b.CreateString(s)
}

func packOffsetVector(b *flatbuffers.Builder, offs []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	if len(offs) == 0 {
		return 0
	}
	b.StartVector(flatbuffers.SizeUOffsetT, len(offs), flatbuffers.SizeUOffsetT)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offs[i])
	}
	return b.EndVector(len(offs))
}

func packInt32Vector(b *flatbuffers.Builder, v []int32) flatbuffers.UOffsetT {
	if len(v) == 0 {
		return 0
	}
	b.StartVector(4, len(v), 4)
	for i := len(v) - 1; i >= 0; i-- {
		b.PrependInt32(v[i])
	}
	return b.EndVector(len(v))
}
