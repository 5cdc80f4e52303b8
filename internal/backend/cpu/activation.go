package cpu

import (
	"math"

	"github.com/grad-ml/grad/internal/parallel"
	"github.com/grad-ml/grad/internal/tensor"
)

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("relu", x, reluKernel[float32], reluKernel[float64])
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sigmoid", x, sigmoidKernel[float32], sigmoidKernel[float64])
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("tanh", x, tanhKernel[float32], tanhKernel[float64])
}

func reluKernel[T floats](dst, src []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = v
		}
	}
}

func sigmoidKernel[T floats](dst, src []T) {
	for i, v := range src {
		dst[i] = T(1.0 / (1.0 + math.Exp(float64(-v))))
	}
}

func tanhKernel[T floats](dst, src []T) {
	for i, v := range src {
		dst[i] = T(math.Tanh(float64(v)))
	}
}

// Softmax normalizes along the specified dimension so each group sums
// to one: softmax(x_i) = exp(x_i) / sum_j exp(x_j).
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim("softmax", dim, len(shape))

	result := alloc("softmax", shape, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		softmaxKernel(result.AsFloat32(), x.AsFloat32(), shape, dim, cpu.par)
	case tensor.Float64:
		softmaxKernel(result.AsFloat64(), x.AsFloat64(), shape, dim, cpu.par)
	default:
		panic("softmax: unsupported dtype " + x.DType().String() + " (only float32/float64 supported)")
	}

	return result
}

// softmaxKernel normalizes each group along dim with the usual
// max-shift for numerical stability. Groups are independent, so the
// outer loop is parallelized.
func softmaxKernel[T floats](dst, src []T, shape tensor.Shape, dim int, cfg parallel.Config) {
	outer, size, inner := splitAround(shape, dim)

	parallel.For(outer*inner, func(group int) {
		base := (group/inner)*size*inner + group%inner

		maxVal := src[base]
		for d := 1; d < size; d++ {
			if v := src[base+d*inner]; v > maxVal {
				maxVal = v
			}
		}

		var sum T
		for d := 0; d < size; d++ {
			idx := base + d*inner
			e := T(math.Exp(float64(src[idx] - maxVal)))
			dst[idx] = e
			sum += e
		}

		for d := 0; d < size; d++ {
			dst[base+d*inner] /= sum
		}
	}, cfg)
}
