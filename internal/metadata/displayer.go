package metadata

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lite-ml/tfmeta/internal/schema"
	"github.com/lite-ml/tfmeta/internal/tflite"
)

// MetadataJSON renders the metadata stored in a model binary as indented
// JSON. It fails with ErrNoMetadata when the model carries none.
func MetadataJSON(modelBuf []byte) (string, error) {
	model, err := tflite.Parse(modelBuf)
	if err != nil {
		return "", fmt.Errorf("parse model: %w", err)
	}

	var metadataBuf []byte
	for _, md := range model.Metadata {
		if md.Name != tflite.MetadataBufferName {
			continue
		}
		if int(md.Buffer) >= len(model.Buffers) {
			return "", fmt.Errorf("metadata entry references buffer %d, model has %d buffers", md.Buffer, len(model.Buffers))
		}
		metadataBuf = model.Buffers[md.Buffer]
		break
	}
	if metadataBuf == nil {
		return "", ErrNoMetadata
	}

	tree, err := schema.Unmarshal(metadataBuf)
	if err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render metadata: %w", err)
	}
	return string(out), nil
}

// PackedAssociatedFiles returns the associated files appended to a model
// binary, keyed by file name. A model without an appended archive yields an
// empty map.
func PackedAssociatedFiles(modelBuf []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(modelBuf), int64(len(modelBuf)))
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return map[string][]byte{}, nil
		}
		return nil, fmt.Errorf("read associated file archive: %w", err)
	}

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open associated file %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read associated file %s: %w", f.Name, err)
		}
		files[f.Name] = data
	}
	return files, nil
}
