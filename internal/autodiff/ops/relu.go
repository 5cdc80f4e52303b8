package ops

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// ReLUOp records output = max(0, x) on the tape.
//
// The local derivative is the indicator x > 0, so the backward pass
// multiplies the output gradient by a binary mask over the input.
type ReLUOp struct {
	input, output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the output gradient by input > 0.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, reluMask(op.input, backend))}
}

// Inputs returns the input tensor [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the output tensor max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

func maskPositive[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = 1
		}
	}
}

// reluMask builds a binary mask: 1 where input > 0, 0 elsewhere.
func reluMask(input *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	mask, err := tensor.NewRaw(input.Shape(), input.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create mask: %v", err))
	}

	switch input.DType() {
	case tensor.Float32:
		maskPositive(mask.AsFloat32(), input.AsFloat32())
	case tensor.Float64:
		maskPositive(mask.AsFloat64(), input.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", input.DType()))
	}
	return mask
}
