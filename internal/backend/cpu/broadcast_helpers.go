package cpu

import (
	"github.com/grad-ml/grad/internal/tensor"
)

// broadcastStrides maps inShape onto outShape by aligning trailing
// dimensions. Dimensions the input lacks, and dimensions of size 1,
// get stride 0 so the same element is revisited while walking the
// output.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	inDim := len(inShape)
	pad := outDim - inDim

	inStrides := inShape.ComputeStrides()
	strides := make([]int, outDim)
	for i := range strides {
		j := i - pad
		if j < 0 || inShape[j] == 1 {
			continue // stride 0: missing or broadcast dimension
		}
		strides[i] = inStrides[j]
	}
	return strides
}

// sourceIndex converts a flat output index into the flat index of the
// broadcast source element, by decomposing against outStrides and
// recomposing with the stride-0-adjusted inStrides.
func sourceIndex(outIdx int, outStrides, inStrides []int) int {
	flat := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flat += coord * inStrides[i]
	}
	return flat
}
