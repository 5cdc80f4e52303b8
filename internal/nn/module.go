// Package nn implements neural network modules.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Trainable parameters with gradient tracking
//   - Linear: Fully connected layer
//   - Flatten: Collapses trailing dimensions for dense layers
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: MSE, CrossEntropy
//   - Sequential: Container for stacking layers
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/grad-ml/grad/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 512, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(512, 10, backend),
//	)
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Returns an empty slice for
	// modules without trainable parameters (e.g., activations).
	Parameters() []*Parameter[B]

	// StateDict returns the module's parameters as a map of names to
	// raw tensors, for checkpointing. Stateless modules return an
	// empty map.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores parameters from a state dictionary
	// produced by StateDict. Shapes and dtypes must match.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
