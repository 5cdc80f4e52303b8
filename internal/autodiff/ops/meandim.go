package ops

import "github.com/grad-ml/grad/internal/tensor"

// MeanDimOp represents a mean reduction along a dimension:
// mean(x, dim) = sum(x, dim) / size[dim].
//
// Backward pass: the output gradient broadcasts over the reduced
// dimension and is divided by that dimension's size.
type MeanDimOp struct {
	inputs  []*tensor.RawTensor // [x]
	output  *tensor.RawTensor   // mean(x, dim)
	dim     int
	keepDim bool
	dimSize int // size of the reduced dimension
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	actual := dim
	if actual < 0 {
		actual += len(x.Shape())
	}

	return &MeanDimOp{
		inputs:  []*tensor.RawTensor{x},
		output:  output,
		dim:     dim,
		keepDim: keepDim,
		dimSize: x.Shape()[actual],
	}
}

// Backward broadcasts the output gradient and scales by 1/size[dim].
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := outputGrad

	if !op.keepDim {
		grad = unsqueezeDim(grad, op.dim, len(x.Shape()), backend)
	}

	gradX := broadcastTo(grad, x.Shape(), backend)
	gradX = backend.DivScalar(gradX, scalarOf(gradX.DType(), float64(op.dimSize)))

	return []*tensor.RawTensor{gradX}
}

// Inputs returns the input tensors [x].
func (op *MeanDimOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor mean(x, dim).
func (op *MeanDimOp) Output() *tensor.RawTensor { return op.output }
