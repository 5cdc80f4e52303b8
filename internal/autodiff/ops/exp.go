package ops

import "github.com/grad-ml/grad/internal/tensor"

// ExpOp represents the exponential: y = exp(x).
//
// Backward pass: d(exp(x))/dx = exp(x) = y, so the input gradient is
// the output gradient times the cached forward output.
type ExpOp struct {
	input  *tensor.RawTensor // x
	output *tensor.RawTensor // exp(x)
}

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{input: input, output: output}
}

// Backward computes grad_input = outputGrad * exp(x).
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.Mul(outputGrad, op.output)
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *ExpOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor exp(x).
func (op *ExpOp) Output() *tensor.RawTensor { return op.output }
