package ops

import "github.com/grad-ml/grad/internal/tensor"

// TanhOp represents the hyperbolic tangent activation.
//
// Backward pass: d(tanh(x))/dx = 1 - tanh²(x), computed from the
// cached forward output.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

// Backward computes grad_input = outputGrad * (1 - tanh²(x)).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	out := op.output
	dt := out.DType()

	// 1 - tanh²(x)
	squared := backend.Mul(out, out)
	negSquared := backend.MulScalar(squared, scalarOf(dt, -1))
	derivative := backend.AddScalar(negSquared, scalarOf(dt, 1))

	gradInput := backend.Mul(outputGrad, derivative)

	return []*tensor.RawTensor{gradInput}
}

// Inputs returns the input tensor [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
