package ops

import "github.com/grad-ml/grad/internal/tensor"

// SoftmaxOp represents softmax along a dimension.
//
// Backward pass: the softmax Jacobian contracts against the output
// gradient as
//
//	grad_x = s * (grad_y - sum(grad_y * s, dim, keepDim))
//
// where s is the cached forward output. Expressing the contraction
// through backend reductions keeps the backward correct for any rank
// and any dim, not just the 2-D last-dimension case.
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // cached softmax values
	dim    int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{
		input:  input,
		output: output,
		dim:    dim,
	}
}

// Backward computes grad_x = s * (grad_y - sum(grad_y * s, dim)).
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output

	weighted := backend.Mul(outputGrad, s)
	dot := backend.SumDim(weighted, op.dim, true)
	centered := backend.Sub(outputGrad, dot)
	gradInput := backend.Mul(s, centered)

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensors.
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
