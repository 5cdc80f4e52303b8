package ops

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// Needed when broadcasting expanded an input during the forward pass:
// the gradient flowing to that input is the sum over the broadcast
// dimensions.
//
// Example:
//
//	Forward:  a[3,1] + b[3,4] -> c[3,4]  (a broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Shapes already match: clone so gradient accumulation never
	// mutates a tensor shared with the graph.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	// Scalar target: everything collapses to a single sum.
	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// Broadcasting aligns shapes from the right, so leading extra
	// dimensions of the gradient are summed away first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}

	// Then sum along every dimension the forward pass expanded from 1.
	for i, size := range targetShape {
		if size == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		panic(fmt.Sprintf("reduceBroadcast: cannot reduce gradient shape %v to %v", gradShape, targetShape))
	}

	return result
}

// broadcastTo expands a tensor to the target shape by adding it to a
// zero tensor of that shape, reusing the backend's broadcasting rules.
// Used by reduction backwards, where the output gradient fans out to
// every input element that contributed.
func broadcastTo(t *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if t.Shape().Equal(targetShape) {
		return t.Clone()
	}

	zeros, err := tensor.NewRaw(targetShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("broadcastTo: failed to create result tensor: %v", err))
	}

	return backend.Add(t, zeros)
}

// unsqueezeDim reinserts a reduced dimension of size 1 at position dim,
// so a keepDim=false reduction gradient lines up for broadcasting
// against the original input shape. A negative dim counts from the end
// of the original rank.
func unsqueezeDim(t *tensor.RawTensor, dim, origRank int, backend tensor.Backend) *tensor.RawTensor {
	if dim < 0 {
		dim = origRank + dim
	}

	shape := t.Shape()
	newShape := make(tensor.Shape, 0, len(shape)+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return backend.Reshape(t, newShape)
}

// scalarOf converts a float constant to the scalar representation the
// backend's *Scalar operations expect for the given dtype.
func scalarOf(dtype tensor.DataType, v float64) any {
	switch dtype {
	case tensor.Float32:
		return float32(v)
	case tensor.Float64:
		return v
	default:
		panic(fmt.Sprintf("scalarOf: no scalar representation for dtype %s", dtype))
	}
}
