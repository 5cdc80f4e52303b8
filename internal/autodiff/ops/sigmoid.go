package ops

import "github.com/grad-ml/grad/internal/tensor"

// SigmoidOp represents the sigmoid activation: σ(x) = 1 / (1 + exp(-x)).
//
// Backward pass: dσ/dx = σ(x) * (1 - σ(x)). The forward output is
// cached, so the derivative needs no re-evaluation of the exponential.
type SigmoidOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{input: input, output: output}
}

// Backward computes grad_input = outputGrad * σ(x) * (1 - σ(x)).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	dt := out.DType()

	// 1 - σ(x)
	negOut := backend.MulScalar(out, scalarOf(dt, -1))
	oneMinus := backend.AddScalar(negOut, scalarOf(dt, 1))

	derivative := backend.Mul(out, oneMinus)
	gradInput := backend.Mul(outputGrad, derivative)

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *SigmoidOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor σ(x).
func (op *SigmoidOp) Output() *tensor.RawTensor { return op.output }
