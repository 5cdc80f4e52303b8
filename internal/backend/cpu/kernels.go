package cpu

import (
	"github.com/grad-ml/grad/internal/tensor"
)

// number covers the dtypes the element-wise kernels operate on.
// Uint8 tensors hold raw data (image bytes, labels) and are excluded
// from arithmetic.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// floats restricts kernels that only make sense for floating point,
// such as exp, log and softmax.
type floats interface {
	~float32 | ~float64
}

// binOp selects which arithmetic the shared kernels perform.
type binOp int

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
)

// combine applies op to a single element pair.
func combine[T number](op binOp, x, y T) T {
	switch op {
	case opAdd:
		return x + y
	case opSub:
		return x - y
	case opMul:
		return x * y
	default:
		return x / y
	}
}

// inplaceKernel computes a[i] = a[i] op b[i]. Requires len(b) >= len(a).
func inplaceKernel[T number](op binOp, a, b []T) {
	for i := range a {
		a[i] = combine(op, a[i], b[i])
	}
}

// pairKernel computes dst[i] = a[i] op b[i] for equal-length operands.
func pairKernel[T number](op binOp, dst, a, b []T) {
	for i := range dst {
		dst[i] = combine(op, a[i], b[i])
	}
}

// broadcastKernel walks the output flat index and remaps it into each
// input through broadcast strides, which are zero along expanded
// dimensions so every output position along them reads the same source
// element.
func broadcastKernel[T number](op binOp, dst, a, b []T, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)

	for i := range dst {
		x := a[sourceIndex(i, outStrides, aStrides)]
		y := b[sourceIndex(i, outStrides, bStrides)]
		dst[i] = combine(op, x, y)
	}
}

// transposeKernel permutes src into dst according to axes. The source
// coordinates advance odometer-style, so no div/mod per element.
func transposeKernel[T number](dst, src []T, shape tensor.Shape, axes []int) {
	ndim := len(shape)

	dstShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		dstShape[i] = shape[ax]
	}
	dstStrides := dstShape.ComputeStrides()

	coords := make([]int, ndim)
	for _, v := range src {
		out := 0
		for dstDim, srcDim := range axes {
			out += coords[srcDim] * dstStrides[dstDim]
		}
		dst[out] = v

		for d := ndim - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < shape[d] {
				break
			}
			coords[d] = 0
		}
	}
}
