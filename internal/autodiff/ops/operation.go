// Package ops defines the differentiable operations recorded on the
// gradient tape and their backward passes.
//
// Each operation implements the Operation interface:
//   - Inputs() returns the tensors the gradient flows back to
//   - Output() returns the result tensor of the forward pass
//   - Backward() computes input gradients from the output gradient
//
// Supported operations:
//   - Arithmetic: Add, Sub, Mul, Div (with broadcasting)
//   - Scalar arithmetic: AddScalar, SubScalar, MulScalar, DivScalar
//   - Linear algebra: MatMul
//   - Shape: Reshape, Transpose
//   - Element-wise math: Exp, Log, Sqrt
//   - Activations: ReLU, Sigmoid, Tanh, Softmax
//   - Reductions: Sum, SumDim, MeanDim
//   - Losses: CrossEntropy (fused softmax + negative log-likelihood)
package ops

import "github.com/grad-ml/grad/internal/tensor"

// Operation is a node in the recorded computation graph.
//
// The tape replays operations in reverse order during the backward
// pass, calling Backward on each with the accumulated gradient of its
// output.
type Operation interface {
	// Backward computes gradients with respect to the operation's
	// inputs, given the gradient with respect to its output. The
	// returned slice is parallel to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors the gradient propagates to.
	// Non-differentiable inputs (integer class targets) are excluded.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor of the forward pass.
	Output() *tensor.RawTensor
}
