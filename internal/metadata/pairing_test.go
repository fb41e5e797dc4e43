package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedMds(tensorNames ...string) []tensorMd {
	mds := make([]tensorMd, len(tensorNames))
	for i, name := range tensorNames {
		mds[i] = &featureTensorMd{name: "descriptor_" + name, tensorName: name}
	}
	return mds
}

func TestPairTensorMetadata_NoDeclaredNames(t *testing.T) {
	mds := []tensorMd{
		&featureTensorMd{name: "first"},
		&featureTensorMd{name: "second"},
	}

	paired, err := pairTensorMetadata(mds, []string{"in_a", "in_b"})
	require.NoError(t, err)
	assert.Equal(t, mds, paired)
}

func TestPairTensorMetadata_ReordersToModelOrder(t *testing.T) {
	modelNames := []string{"in_a", "in_b", "in_c"}
	permutations := [][]string{
		{"in_a", "in_b", "in_c"},
		{"in_a", "in_c", "in_b"},
		{"in_b", "in_a", "in_c"},
		{"in_b", "in_c", "in_a"},
		{"in_c", "in_a", "in_b"},
		{"in_c", "in_b", "in_a"},
	}

	for _, declared := range permutations {
		paired, err := pairTensorMetadata(namedMds(declared...), modelNames)
		require.NoError(t, err)
		require.Len(t, paired, len(modelNames))
		for i, name := range modelNames {
			assert.Equal(t, name, paired[i].pairingName())
		}
	}
}

func TestPairTensorMetadata_DuplicateNamesPairInDeclarationOrder(t *testing.T) {
	mds := []tensorMd{
		&featureTensorMd{name: "first", tensorName: "shared"},
		&featureTensorMd{name: "second", tensorName: "shared"},
	}

	paired, err := pairTensorMetadata(mds, []string{"shared", "shared"})
	require.NoError(t, err)
	require.Len(t, paired, 2)
	assert.Equal(t, "first", paired[0].(*featureTensorMd).name)
	assert.Equal(t, "second", paired[1].(*featureTensorMd).name)
}

func TestPairTensorMetadata_Mismatch(t *testing.T) {
	tests := []struct {
		name       string
		declared   []string
		modelNames []string
	}{
		{"unknown name", []string{"in_a", "nope"}, []string{"in_a", "in_b"}},
		{"missing name", []string{"in_a"}, []string{"in_a", "in_b"}},
		{"duplicate count differs", []string{"in_a", "in_a", "in_b"}, []string{"in_a", "in_b", "in_b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pairTensorMetadata(namedMds(tt.declared...), tt.modelNames)
			assert.ErrorContains(t, err, "do not match")
		})
	}
}
