// Package cpu implements the CPU backend with BLAS-backed matrix
// multiplication and broadcast-aware element-wise kernels.
package cpu

import (
	"fmt"

	"github.com/grad-ml/grad/internal/parallel"
	"github.com/grad-ml/grad/internal/tensor"
)

// CPUBackend executes tensor operations on the host CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a CPU backend with the default parallelism settings.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

func (cpu *CPUBackend) Name() string { return "CPU" }

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device { return cpu.device }

// alloc returns a fresh zeroed tensor, panicking on allocation
// failure with the operation name as context.
func alloc(op string, shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return result
}

// binaryOp dispatches one element-wise operation. When both operands
// share a shape and a holds the only reference to its buffer, the
// result is computed in place and no allocation happens.
func (cpu *CPUBackend) binaryOp(name string, op binOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	sameShape := !needsBroadcast && a.Shape().Equal(b.Shape())
	if sameShape && a.IsUnique() {
		applyInplace(op, a, b)
		return a
	}

	result := alloc(name, outShape, a.DType(), cpu.device)
	if sameShape {
		applyPair(op, result, a, b)
	} else {
		applyBroadcast(op, result, a, b, outShape)
	}
	return result
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor { return cpu.binaryOp("add", opAdd, a, b) }

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor { return cpu.binaryOp("sub", opSub, a, b) }

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor { return cpu.binaryOp("mul", opMul, a, b) }

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor { return cpu.binaryOp("div", opDiv, a, b) }

// Reshape copies t's elements into a tensor of newShape. The element
// count must not change.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			t.Shape(), newShape))
	}

	result := alloc("reshape", newShape, t.DType(), t.Device())
	copy(result.Data(), t.Data())
	return result
}

// checkAxes verifies axes is a permutation of 0..ndim-1.
func checkAxes(axes []int, ndim int) {
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: axes %v are not a permutation of 0..%d", axes, ndim-1))
		}
		seen[ax] = true
	}
}

// Transpose permutes t's dimensions. With no axes given it reverses
// them all; otherwise axes must be a permutation of 0..ndim-1.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		for i := ndim - 1; i >= 0; i-- {
			axes = append(axes, i)
		}
	}
	checkAxes(axes, ndim)

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}
	result := alloc("transpose", newShape, t.DType(), t.Device())
	transposeData(result, t, axes)
	return result
}
