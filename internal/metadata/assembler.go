package metadata

import (
	"github.com/lite-ml/tfmeta/internal/schema"
	"github.com/lite-ml/tfmeta/internal/tflite"
)

// createMetadataBuffer assembles the full metadata tree (model ⊇ subgraph ⊇
// per-tensor records) from the accumulated descriptors and serializes it.
// Any pairing failure aborts assembly; no partial tree is ever produced.
func createMetadataBuffer(model *tflite.Model, general *GeneralMd, inputMds, outputMds []tensorMd) ([]byte, error) {
	inputNames, err := model.InputTensorNames()
	if err != nil {
		return nil, err
	}
	inputMeta, err := materializeTensorMetadata(inputMds, inputNames)
	if err != nil {
		return nil, err
	}

	outputNames, err := model.OutputTensorNames()
	if err != nil {
		return nil, err
	}
	outputMeta, err := materializeTensorMetadata(outputMds, outputNames)
	if err != nil {
		return nil, err
	}

	if general == nil {
		general = &GeneralMd{}
	}
	modelMeta := general.createMetadata()
	modelMeta.SubgraphMetadata = []*schema.SubGraphMetadata{
		{
			InputTensorMetadata:  inputMeta,
			OutputTensorMetadata: outputMeta,
		},
	}
	return modelMeta.Marshal(), nil
}

// materializeTensorMetadata pairs the descriptors against the model's tensor
// names and materializes them into schema records. Without descriptors it
// emits one empty record per model tensor. Records left unnamed get the
// model's tensor name at their resolved position.
func materializeTensorMetadata(mds []tensorMd, modelNames []string) ([]*schema.TensorMetadata, error) {
	var records []*schema.TensorMetadata
	if len(mds) > 0 {
		paired, err := pairTensorMetadata(mds, modelNames)
		if err != nil {
			return nil, err
		}
		for _, md := range paired {
			record, err := md.createMetadata()
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
	} else {
		records = make([]*schema.TensorMetadata, len(modelNames))
		for i := range records {
			records[i] = &schema.TensorMetadata{}
		}
	}

	fillDefaultTensorNames(records, modelNames)
	return records, nil
}

func fillDefaultTensorNames(records []*schema.TensorMetadata, modelNames []string) {
	n := min(len(records), len(modelNames))
	for i := 0; i < n; i++ {
		if records[i].Name == "" {
			records[i].Name = modelNames[i]
		}
	}
}
