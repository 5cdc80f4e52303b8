package cpu

import (
	"fmt"
	"math"

	"github.com/grad-ml/grad/internal/tensor"
)

// unaryFloat allocates the result tensor and dispatches a float-only
// kernel on x's dtype.
func (cpu *CPUBackend) unaryFloat(name string, x *tensor.RawTensor, k32 func(dst, src []float32), k64 func(dst, src []float64)) *tensor.RawTensor {
	result := alloc(name, x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		k32(result.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		k64(result.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", name, x.DType()))
	}

	return result
}

// Exp computes element-wise exponential: exp(x).
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x, expKernel[float32], expKernel[float64])
}

// Log computes element-wise natural logarithm: ln(x).
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("log", x, logKernel[float32], logKernel[float64])
}

// Sqrt computes element-wise square root: sqrt(x).
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sqrt", x, sqrtKernel[float32], sqrtKernel[float64])
}

func expKernel[T floats](dst, src []T) {
	for i, v := range src {
		dst[i] = T(math.Exp(float64(v)))
	}
}

func logKernel[T floats](dst, src []T) {
	for i, v := range src {
		if v <= 0 {
			panic(fmt.Sprintf("log: non-positive value at index %d: %f", i, float64(v)))
		}
		dst[i] = T(math.Log(float64(v)))
	}
}

func sqrtKernel[T floats](dst, src []T) {
	for i, v := range src {
		if v < 0 {
			panic(fmt.Sprintf("sqrt: negative value at index %d: %f", i, float64(v)))
		}
		dst[i] = T(math.Sqrt(float64(v)))
	}
}
