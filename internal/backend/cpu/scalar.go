package cpu

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// scalarOp allocates the result and applies op against a scalar
// operand. The scalar must match the tensor dtype exactly; a mismatch
// is a programming error and panics via the type assertion.
func (cpu *CPUBackend) scalarOp(name string, op binOp, x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result := alloc(name, x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		scalarKernel(op, result.AsFloat32(), x.AsFloat32(), scalar.(float32))
	case tensor.Float64:
		scalarKernel(op, result.AsFloat64(), x.AsFloat64(), scalar.(float64))
	case tensor.Int32:
		scalarKernel(op, result.AsInt32(), x.AsInt32(), scalar.(int32))
	case tensor.Int64:
		scalarKernel(op, result.AsInt64(), x.AsInt64(), scalar.(int64))
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, x.DType()))
	}

	return result
}

func scalarKernel[T number](op binOp, dst, src []T, scalar T) {
	for i := range dst {
		dst[i] = combine(op, src[i], scalar)
	}
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addScalar", opAdd, x, scalar)
}

// SubScalar subtracts a scalar value from each element of the tensor.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("subScalar", opSub, x, scalar)
}

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulScalar", opMul, x, scalar)
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divScalar", opDiv, x, scalar)
}
