package cpu

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// normalizeDim resolves negative dimension indices (-1 means the last
// dimension) and panics when the result is out of range.
func normalizeDim(op string, dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("%s: dimension %d out of range for %dD tensor", op, dim, ndim))
	}
	return dim
}

// reducedShape drops the reduced dimension, or pins it to 1 when
// keepDim is set.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, n := range shape {
		if i != dim {
			out = append(out, n)
		}
	}
	return out
}

// splitAround factors a row-major shape into the element counts
// before, at, and after the given dimension, so an element's flat
// index is (outer*size + d)*inner + in.
func splitAround(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, size, inner = 1, shape[dim], 1
	for _, n := range shape[:dim] {
		outer *= n
	}
	for _, n := range shape[dim+1:] {
		inner *= n
	}
	return outer, size, inner
}

// SumDim sums elements along dim. Negative dims count from the end,
// and keepDim retains the reduced dimension with size 1.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("sumdim", dim, len(shape))

	result := alloc("sumdim", reducedShape(shape, dim, keepDim), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		sumDimKernel(x.AsFloat32(), result.AsFloat32(), shape, dim)
	case tensor.Float64:
		sumDimKernel(x.AsFloat64(), result.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func scaleInPlace[T floats](data []T, factor T) {
	for i := range data {
		data[i] *= factor
	}
}

// MeanDim is SumDim scaled by the size of the reduced dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	sum := cpu.SumDim(x, dim, keepDim)
	n := x.Shape()[normalizeDim("meandim", dim, len(x.Shape()))]

	switch sum.DType() {
	case tensor.Float32:
		scaleInPlace(sum.AsFloat32(), 1/float32(n))
	case tensor.Float64:
		scaleInPlace(sum.AsFloat64(), 1/float64(n))
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s (only float32/float64 supported)", sum.DType()))
	}

	return sum
}

func sumDimKernel[T floats](data, result []T, shape tensor.Shape, dim int) {
	clear(result)

	outer, size, inner := splitAround(shape, dim)
	for o := range outer {
		dst := result[o*inner : (o+1)*inner]
		for d := range size {
			src := (o*size + d) * inner
			for in := range dst {
				dst[in] += data[src+in]
			}
		}
	}
}

// Sum reduces the whole tensor to a scalar.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := alloc("sum", tensor.Shape{}, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		sumKernel(x.AsFloat32(), result.AsFloat32())
	case tensor.Float64:
		sumKernel(x.AsFloat64(), result.AsFloat64())
	case tensor.Int32:
		sumKernel(x.AsInt32(), result.AsInt32())
	case tensor.Int64:
		sumKernel(x.AsInt64(), result.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}

func sumKernel[T number](src, dst []T) {
	var total T
	for _, v := range src {
		total += v
	}
	dst[0] = total
}

// Argmax returns int32 indices of the maximum along dim. The reduced
// dimension is always dropped from the output shape.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("argmax", dim, len(shape))

	result := alloc("argmax", reducedShape(shape, dim, false), tensor.Int32, cpu.device)

	switch x.DType() {
	case tensor.Float32:
		argmaxKernel(x.AsFloat32(), result.AsInt32(), shape, dim)
	case tensor.Float64:
		argmaxKernel(x.AsFloat64(), result.AsInt32(), shape, dim)
	case tensor.Int32:
		argmaxKernel(x.AsInt32(), result.AsInt32(), shape, dim)
	case tensor.Int64:
		argmaxKernel(x.AsInt64(), result.AsInt32(), shape, dim)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmaxKernel[T number](data []T, result []int32, shape tensor.Shape, dim int) {
	outer, size, inner := splitAround(shape, dim)

	for o := range outer {
		for in := range inner {
			base := o*size*inner + in
			best, bestIdx := data[base], int32(0)
			for d := 1; d < size; d++ {
				if v := data[base+d*inner]; v > best {
					best = v
					//nolint:gosec // G115: dimension sizes fit in int32
					bestIdx = int32(d)
				}
			}
			result[o*inner+in] = bestIdx
		}
	}
}
