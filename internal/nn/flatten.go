package nn

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension into one,
// so image-shaped inputs can feed a dense layer.
//
// Input shape: [batch, d1, d2, ...]
// Output shape: [batch, d1*d2*...]
//
// Example:
//
//	flatten := nn.NewFlatten[Backend]()
//	out := flatten.Forward(images) // [64, 28, 28] -> [64, 784]
//
// 2D input passes through unchanged.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("Flatten.Forward: expected at least 2D input, got shape %v", shape))
	}
	if len(shape) == 2 {
		return input
	}

	features := 1
	for _, d := range shape[1:] {
		features *= d
	}

	return input.Reshape(shape[0], features)
}

// Parameters returns nil (Flatten has no trainable parameters).
func (f *Flatten[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty map (Flatten is stateless).
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op (Flatten is stateless).
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error {
	return nil
}
