package autodiff

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// BackwardCapable marks backends that own a gradient tape. The
// AutodiffBackend decorator implements it; training code that only
// needs "give me gradients for this loss" depends on this interface
// instead of the concrete decorator type.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape returns the gradient tape.
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward seeds the output gradient with ones and runs the tape's
// backward pass for t, returning accumulated gradients per raw tensor.
//
//	loss := criterion.Forward(logits, targets)
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}

	seed, err := tensor.NewRaw(t.Shape(), t.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("backward: failed to create seed gradient: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		data := seed.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := seed.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		panic(fmt.Sprintf("backward: unsupported dtype %s", t.DType()))
	}

	return tape.Backward(seed, backend)
}
