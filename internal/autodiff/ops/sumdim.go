package ops

import "github.com/grad-ml/grad/internal/tensor"

// SumDimOp represents a sum reduction along a dimension.
//
// Backward pass: each input element contributes with weight 1, so the
// output gradient broadcasts back over the reduced dimension. When the
// forward pass dropped the dimension (keepDim=false), the gradient is
// unsqueezed first so broadcasting lines up.
type SumDimOp struct {
	inputs  []*tensor.RawTensor // [x]
	output  *tensor.RawTensor   // sum(x, dim)
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     dim,
		keepDim: keepDim,
	}
}

// Backward broadcasts the output gradient over the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := outputGrad

	if !op.keepDim {
		grad = unsqueezeDim(grad, op.dim, len(x.Shape()), backend)
	}

	gradX := broadcastTo(grad, x.Shape(), backend)

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensors [x].
func (op *SumDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor sum(x, dim).
func (op *SumDimOp) Output() *tensor.RawTensor { return op.output }
