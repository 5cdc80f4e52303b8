// Package optim implements the optimizers and learning-rate schedules
// used to train models: SGD with momentum and parameter groups, Adam,
// the StepLR and CosineAnnealingLR schedulers, and stochastic weight
// averaging.
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR: 1e-3,
//	}, backend)
//
//	for epoch := range epochs {
//	    backend.Tape().StartRecording()
//	    output := model.Forward(input)
//	    loss := lossFunc.Forward(output, targets)
//	    grads := autodiff.Backward(loss, backend)
//
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	    backend.Tape().Clear()
//	}
package optim

import (
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// Optimizer is what every optimization algorithm implements: consume
// the gradient map of a backward pass and update parameters in place.
type Optimizer interface {
	// Step applies one update from the gradients produced by
	// autodiff.Backward. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients so iterations do not
	// accumulate into each other.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate. Used by schedulers.
	SetLR(lr float32)

	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// getGradient looks up param's gradient in the backward-pass output.
// A nil result means the parameter was not part of the computation
// graph this iteration.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
