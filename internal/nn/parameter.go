package nn

import (
	"github.com/grad-ml/grad/internal/tensor"
)

// Parameter is a named tensor a model learns: a weight or bias whose
// gradient the training loop tracks between backward pass and
// optimizer step.
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//
//	// After a backward pass:
//	grad := weight.Grad()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B] // nil until the first backward pass
}

// NewParameter creates a trainable parameter around an already
// initialized tensor. No gradient is allocated until a backward pass
// produces one.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string { return p.name }

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Grad returns the gradient tensor, or nil if none has been computed.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] { return p.grad }

// SetGrad sets the gradient tensor. Called by the training loop after
// a backward pass.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) { p.grad = grad }

// ZeroGrad clears the gradient so previous iterations do not
// accumulate into the next step.
func (p *Parameter[B]) ZeroGrad() { p.grad = nil }
