package metadata

import (
	"fmt"
)

// pairTensorMetadata aligns user-supplied tensor descriptors with the ordered
// tensor names read from the model.
//
// When no descriptor declares a tensor name the list is returned unchanged
// and the caller asserts it is already in model order. When any descriptor
// declares one, the declared names must equal the model names as a multiset;
// on match the descriptors are reordered so that the descriptor at position i
// carries the model's i-th tensor name.
func pairTensorMetadata(mds []tensorMd, modelNames []string) ([]tensorMd, error) {
	var declared []string
	for _, md := range mds {
		if name := md.pairingName(); name != "" {
			declared = append(declared, name)
		}
	}
	if len(declared) == 0 {
		return mds, nil
	}

	if !sameMultiset(declared, modelNames) {
		return nil, fmt.Errorf("the tensor names from the descriptors (%v) do not match the tensor names read from the model (%v)",
			declared, modelNames)
	}

	// Queue per name so duplicate tensor names pair in declaration order.
	queues := make(map[string][]tensorMd, len(declared))
	for _, md := range mds {
		if name := md.pairingName(); name != "" {
			queues[name] = append(queues[name], md)
		}
	}

	paired := make([]tensorMd, len(modelNames))
	for i, name := range modelNames {
		queue := queues[name]
		paired[i] = queue[0]
		queues[name] = queue[1:]
	}
	return paired, nil
}

// sameMultiset reports whether a and b hold the same names with the same
// duplicate counts.
func sameMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, name := range a {
		counts[name]++
	}
	for _, name := range b {
		counts[name]--
		if counts[name] < 0 {
			return false
		}
	}
	return true
}
