package ops

import "github.com/grad-ml/grad/internal/tensor"

// SumOp represents a full reduction: output = sum(x), a single-element
// tensor.
//
// Backward pass: every input element contributes with weight 1, so the
// scalar output gradient fans out to the whole input shape.
type SumOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor   // sum(x)
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

// Backward broadcasts the scalar output gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	gradX := broadcastTo(outputGrad, x.Shape(), backend)

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensors [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor sum(x).
func (op *SumOp) Output() *tensor.RawTensor { return op.output }
