// Package autodiff implements reverse-mode automatic differentiation
// as a decorator around any compute backend.
//
// AutodiffBackend[B] wraps a tensor.Backend and records every
// differentiable operation on a GradientTape during the forward pass.
// Walking the tape in reverse applies each operation's backward rule
// and accumulates per-tensor gradients.
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x := tensor.Ones[float32](tensor.Shape{2}, backend).Mul(w)
//	grads := backend.Tape().Backward(seed, backend)
//
// Evaluation passes bracket themselves with StopRecording and
// StartRecording so no graph is built while parameters are read-only.
package autodiff

import (
	"fmt"

	"github.com/grad-ml/grad/internal/autodiff/ops"
	"github.com/grad-ml/grad/internal/tensor"
)

// AutodiffBackend wraps a backend and adds gradient tracking. It
// implements tensor.Backend, so tensors built on it behave exactly as
// on the inner backend while the tape observes every operation.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for recording control and backward
// passes.
func (b *AutodiffBackend[B]) Tape() *GradientTape { return b.tape }

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B { return b.inner }

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string { return "Autodiff(" + b.inner.Name() + ")" }

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device { return b.inner.Device() }

// noteOp records the operation built for result when the tape is
// recording, then passes result through.
func (b *AutodiffBackend[B]) noteOp(result *tensor.RawTensor, build func(*tensor.RawTensor) ops.Operation) *tensor.RawTensor {
	if b.tape.IsRecording() {
		b.tape.Record(build(result))
	}
	return result
}

// The element-wise binary methods pin their inputs non-unique before
// delegating: the inner backend's in-place fast path would otherwise
// overwrite a tensor the tape still references for the backward pass.

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	return b.noteOp(b.inner.Add(x, y), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewAddOp(x, y, r)
	})
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	return b.noteOp(b.inner.Sub(x, y), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSubOp(x, y, r)
	})
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	return b.noteOp(b.inner.Mul(x, y), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewMulOp(x, y, r)
	})
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	return b.noteOp(b.inner.Div(x, y), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewDivOp(x, y, r)
	})
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()
	return b.noteOp(b.inner.MatMul(x, y), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewMatMulOp(x, y, r)
	})
}

// Reshape reshapes a tensor and records the operation. Recording is
// required even for a pure view change: a linear layer's bias is
// reshaped for broadcasting, and without a ReshapeOp its gradient
// would stop at the reshaped copy instead of reaching the parameter.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()
	return b.noteOp(b.inner.Reshape(t, newShape), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewReshapeOp(t, r)
	})
}

// Transpose permutes dimensions and records the operation. The same
// reasoning as Reshape applies: a linear layer transposes its weight
// before the matmul, and the TransposeOp routes the weight gradient
// back to the original parameter tensor.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	if len(axes) == 0 {
		axes = reversedAxes(len(t.Shape()))
	}

	return b.noteOp(b.inner.Transpose(t, axes...), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewTransposeOp(t, r, axes)
	})
}

// reversedAxes is the default permutation for Transpose: all dimensions
// in reverse order.
func reversedAxes(ndim int) []int {
	axes := make([]int, ndim)
	for i := range axes {
		axes[i] = ndim - 1 - i
	}
	return axes
}

// AddScalar adds a scalar element-wise and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.noteOp(b.inner.AddScalar(x, scalar), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewAddScalarOp(x, r)
	})
}

// SubScalar subtracts a scalar element-wise and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.noteOp(b.inner.SubScalar(x, scalar), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSubScalarOp(x, r)
	})
}

// MulScalar multiplies by a scalar element-wise and records the
// operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.noteOp(b.inner.MulScalar(x, scalar), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewMulScalarOp(x, r, scalarFloat(scalar))
	})
}

// DivScalar divides by a scalar element-wise and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.noteOp(b.inner.DivScalar(x, scalar), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewDivScalarOp(x, r, scalarFloat(scalar))
	})
}

// Exp computes e^x element-wise and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return b.noteOp(b.inner.Exp(x), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewExpOp(x, r)
	})
}

// Log computes the natural logarithm element-wise and records the
// operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.noteOp(b.inner.Log(x), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewLogOp(x, r)
	})
}

// Sqrt computes the square root element-wise and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.noteOp(b.inner.Sqrt(x), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSqrtOp(x, r)
	})
}

// Softmax normalizes along dim and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.noteOp(b.inner.Softmax(x, dim), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSoftmaxOp(x, r, dim)
	})
}

// Sum reduces to a single-element tensor and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.noteOp(b.inner.Sum(x), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSumOp(x, r)
	})
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.noteOp(b.inner.SumDim(x, dim, keepDim), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSumDimOp(x, r, dim, keepDim)
	})
}

// MeanDim averages along a dimension and records the operation.
func (b *AutodiffBackend[B]) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.noteOp(b.inner.MeanDim(x, dim, keepDim), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewMeanDimOp(x, r, dim, keepDim)
	})
}

// Argmax returns per-dimension argmax indices. Index selection is not
// differentiable, so nothing is recorded.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// activationKernels is the capability interface for backends that ship
// fused activation kernels. The CPU backend implements it; for other
// backends the decorator falls back to delegating through Exp/Mul.
type activationKernels interface {
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
	Tanh(x *tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	var result *tensor.RawTensor
	if k, ok := any(b.inner).(activationKernels); ok {
		result = k.ReLU(x)
	} else {
		result = reluFallback(x, b.inner)
	}
	return b.noteOp(result, func(r *tensor.RawTensor) ops.Operation {
		return ops.NewReLUOp(x, r)
	})
}

// Sigmoid applies 1 / (1 + exp(-x)) and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	var result *tensor.RawTensor
	if k, ok := any(b.inner).(activationKernels); ok {
		result = k.Sigmoid(x)
	} else {
		result = sigmoidFallback(x, b.inner)
	}
	return b.noteOp(result, func(r *tensor.RawTensor) ops.Operation {
		return ops.NewSigmoidOp(x, r)
	})
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	var result *tensor.RawTensor
	if k, ok := any(b.inner).(activationKernels); ok {
		result = k.Tanh(x)
	} else {
		result = tanhFallback(x, b.inner)
	}
	return b.noteOp(result, func(r *tensor.RawTensor) ops.Operation {
		return ops.NewTanhOp(x, r)
	})
}

// CrossEntropy computes the fused classification loss and records the
// operation. Logits are [batch, classes]; targets are [batch] int32
// class indices and receive no gradient.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	defer logits.ForceNonUnique()()
	return b.noteOp(ops.CrossEntropyForward(logits, targets, b.Device()), func(r *tensor.RawTensor) ops.Operation {
		return ops.NewCrossEntropyOp(logits, targets, r)
	})
}

// positiveMask writes 1 where src is strictly positive.
func positiveMask[T ~float32 | ~float64](dst, src []T) {
	for i, v := range src {
		if v > 0 {
			dst[i] = 1
		}
	}
}

// reluFallback computes max(0, x) through elementwise backend ops:
// relu(x) = x * mask(x > 0), with the mask built host-side.
func reluFallback(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	mask, err := tensor.NewRaw(x.Shape(), x.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create mask: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		positiveMask(mask.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		positiveMask(mask.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}

	defer x.ForceNonUnique()()
	return backend.Mul(x, mask)
}

// sigmoidFallback computes 1 / (1 + exp(-x)) via backend ops.
func sigmoidFallback(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	neg := backend.MulScalar(x, dtypeScalar(x.DType(), -1))
	denom := backend.AddScalar(backend.Exp(neg), dtypeScalar(x.DType(), 1))

	one, err := tensor.NewRaw(x.Shape(), x.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("sigmoid: failed to create result tensor: %v", err))
	}
	one = backend.AddScalar(one, dtypeScalar(x.DType(), 1))

	return backend.Div(one, denom)
}

// tanhFallback computes tanh(x) = 2*sigmoid(2x) - 1 via the sigmoid
// fallback.
func tanhFallback(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	doubled := backend.MulScalar(x, dtypeScalar(x.DType(), 2))
	scaled := backend.MulScalar(sigmoidFallback(doubled, backend), dtypeScalar(x.DType(), 2))
	return backend.SubScalar(scaled, dtypeScalar(x.DType(), 1))
}

// dtypeScalar converts a float constant to the representation the
// backend's scalar ops expect for dtype.
func dtypeScalar(dt tensor.DataType, v float64) any {
	switch dt {
	case tensor.Float32:
		return float32(v)
	case tensor.Float64:
		return v
	default:
		panic(fmt.Sprintf("autodiff: no scalar representation for dtype %s", dt))
	}
}

// scalarFloat widens a scalar operand to float64 for tape bookkeeping.
func scalarFloat(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case int:
		return float64(s)
	case uint8:
		return float64(s)
	default:
		panic(fmt.Sprintf("autodiff: unsupported scalar type %T", scalar))
	}
}
