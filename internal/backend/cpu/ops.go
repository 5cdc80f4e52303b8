package cpu

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// The functions below bridge the type-erased RawTensor to the generic
// kernels: one dtype switch per code path, shared by all four
// arithmetic operators.

// applyInplace computes a = a op b, overwriting a's buffer.
// Requires: a.Shape().Equal(b.Shape()) && a.IsUnique().
func applyInplace(op binOp, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		inplaceKernel(op, a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		inplaceKernel(op, a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		inplaceKernel(op, a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		inplaceKernel(op, a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// applyPair computes result = a op b for same-shape operands.
func applyPair(op binOp, result, a, b *tensor.RawTensor) {
	switch a.DType() {
	case tensor.Float32:
		pairKernel(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32())
	case tensor.Float64:
		pairKernel(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64())
	case tensor.Int32:
		pairKernel(op, result.AsInt32(), a.AsInt32(), b.AsInt32())
	case tensor.Int64:
		pairKernel(op, result.AsInt64(), a.AsInt64(), b.AsInt64())
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// applyBroadcast computes result = a op b where the operand shapes
// broadcast to outShape.
func applyBroadcast(op binOp, result, a, b *tensor.RawTensor, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		broadcastKernel(op, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		broadcastKernel(op, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		broadcastKernel(op, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		broadcastKernel(op, result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("elementwise: unsupported dtype %s", a.DType()))
	}
}

// transposeData permutes src into result according to axes.
func transposeData(result, src *tensor.RawTensor, axes []int) {
	switch src.DType() {
	case tensor.Float32:
		transposeKernel(result.AsFloat32(), src.AsFloat32(), src.Shape(), axes)
	case tensor.Float64:
		transposeKernel(result.AsFloat64(), src.AsFloat64(), src.Shape(), axes)
	case tensor.Int32:
		transposeKernel(result.AsInt32(), src.AsInt32(), src.Shape(), axes)
	case tensor.Int64:
		transposeKernel(result.AsInt64(), src.AsInt64(), src.Shape(), axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", src.DType()))
	}
}
