package ops

import "github.com/grad-ml/grad/internal/tensor"

// SqrtOp represents the square root: y = sqrt(x).
//
// Backward pass: d(sqrt(x))/dx = 1 / (2 * sqrt(x)) = 0.5 / y, using
// the cached forward output.
type SqrtOp struct {
	input  *tensor.RawTensor // x
	output *tensor.RawTensor // sqrt(x)
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

// Backward computes grad_input = outputGrad * 0.5 / sqrt(x).
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	half := backend.MulScalar(outputGrad, scalarOf(outputGrad.DType(), 0.5))
	gradInput := backend.Div(half, op.output)

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *SqrtOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor sqrt(x).
func (op *SqrtOp) Output() *tensor.RawTensor { return op.output }
