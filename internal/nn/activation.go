package nn

import (
	"github.com/grad-ml/grad/internal/tensor"
)

// ReLUBackend is implemented by backends carrying a ReLU kernel.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// SigmoidBackend is implemented by backends carrying a Sigmoid kernel.
type SigmoidBackend interface {
	Sigmoid(*tensor.RawTensor) *tensor.RawTensor
}

// TanhBackend is implemented by backends carrying a Tanh kernel.
type TanhBackend interface {
	Tanh(*tensor.RawTensor) *tensor.RawTensor
}

// stateless supplies the empty parameter and state methods every
// activation module shares.
type stateless[B tensor.Backend] struct{}

func (stateless[B]) Parameters() []*Parameter[B] { return nil }

func (stateless[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

func (stateless[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// activate runs the backend kernel selected by apply, or panics when
// the backend does not carry the op.
func activate[B tensor.Backend](
	input *tensor.Tensor[float32, B],
	name string,
	apply func(backend any) (*tensor.RawTensor, bool),
) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	if raw, ok := apply(any(backend)); ok {
		return tensor.New[float32, B](raw, backend)
	}
	panic(name + ": backend must implement " + name + " operation (use autodiff.AutodiffBackend)")
}

// ReLU clamps negatives to zero: f(x) = max(0, x).
type ReLU[B tensor.Backend] struct {
	stateless[B]
}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the rectifier element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activate(input, "ReLU", func(backend any) (*tensor.RawTensor, bool) {
		if b, ok := backend.(ReLUBackend); ok {
			return b.ReLU(input.Raw()), true
		}
		return nil, false
	})
}

// Sigmoid squashes values into (0, 1): f(x) = 1 / (1 + exp(-x)).
type Sigmoid[B tensor.Backend] struct {
	stateless[B]
}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies the sigmoid element-wise.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activate(input, "Sigmoid", func(backend any) (*tensor.RawTensor, bool) {
		if b, ok := backend.(SigmoidBackend); ok {
			return b.Sigmoid(input.Raw()), true
		}
		return nil, false
	})
}

// Tanh squashes values into (-1, 1) and is zero-centered.
type Tanh[B tensor.Backend] struct {
	stateless[B]
}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the hyperbolic tangent element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return activate(input, "Tanh", func(backend any) (*tensor.RawTensor, bool) {
		if b, ok := backend.(TanhBackend); ok {
			return b.Tanh(input.Raw()), true
		}
		return nil, false
	})
}
