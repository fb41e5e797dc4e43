package metadata

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lite-ml/tfmeta/internal/tflite"
)

// populate injects a serialized metadata buffer and the given associated
// files into a model binary, returning a new augmented binary. The original
// buffer is never mutated.
//
// The metadata buffer is stored under the TFLITE_METADATA entry, replacing an
// existing one if present. Associated files are appended as a zip archive
// whose offsets account for the flatbuffer prefix, so the result is
// simultaneously a valid model flatbuffer and a valid zip file.
func populate(modelBuf, metadataBuf []byte, files []string) ([]byte, error) {
	model, err := tflite.Parse(modelBuf)
	if err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	entry := -1
	for i, md := range model.Metadata {
		if md.Name == tflite.MetadataBufferName {
			entry = i
			break
		}
	}
	if entry >= 0 {
		idx := model.Metadata[entry].Buffer
		if int(idx) >= len(model.Buffers) {
			return nil, fmt.Errorf("metadata entry references buffer %d, model has %d buffers", idx, len(model.Buffers))
		}
		model.Buffers[idx] = metadataBuf
	} else {
		model.Buffers = append(model.Buffers, metadataBuf)
		model.Metadata = append(model.Metadata, tflite.Metadata{
			Name:   tflite.MetadataBufferName,
			Buffer: uint32(len(model.Buffers) - 1),
		})
	}

	out := model.Marshal()
	if len(files) == 0 {
		return out, nil
	}

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	zw.SetOffset(int64(len(out)))

	seen := make(map[string]bool, len(files))
	for _, path := range files {
		if seen[path] {
			continue
		}
		seen[path] = true

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read associated file: %w", err)
		}
		w, err := zw.Create(filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("pack associated file %s: %w", filepath.Base(path), err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("pack associated file %s: %w", filepath.Base(path), err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize associated file archive: %w", err)
	}

	return append(out, archive.Bytes()...), nil
}
