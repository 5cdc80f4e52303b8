package optim

import (
	"fmt"

	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// SGD is stochastic gradient descent with optional momentum:
//
//	velocity = momentum * velocity + gradient
//	param -= lr * velocity
//
// With momentum at zero the velocity term drops out and the update is
// plain param -= lr * gradient.
//
// Parameters can be split into groups with independent learning rates
// (see NewSGDWithGroups); the plain constructor puts everything into a
// single group.
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.05,
//	    Momentum: 0.9,
//	}, backend)
type SGD[B tensor.Backend] struct {
	backend    B
	groups     []ParamGroup[B]
	momentum   float32
	velocities map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // learning rate, defaults to 0.01
	Momentum float32 // momentum in [0, 1); zero disables the velocity term
}

// NewSGD creates a new SGD optimizer with all parameters in one group.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	fill(&config.LR, 0.01)
	return &SGD[B]{
		backend:    backend,
		groups:     []ParamGroup[B]{{Params: params, LR: config.LR}},
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
	}
}

// Step applies one update to every parameter group. Parameters with no
// gradient (not in the computational graph) are skipped.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for gi := range s.groups {
		group := &s.groups[gi]
		for _, param := range group.Params {
			grad := getGradient(param, grads)
			if grad == nil {
				continue
			}
			s.apply(param, grad.AsFloat32(), group.LR)
		}
	}
}

// apply writes one SGD update into the parameter buffer in place, so
// every reference to the parameter tensor sees the new weights.
func (s *SGD[B]) apply(param *nn.Parameter[B], grad []float32, lr float32) {
	w := param.Tensor().Raw().AsFloat32()

	if s.momentum == 0 {
		for i := range w {
			w[i] -= lr * grad[i]
		}
		return
	}

	velocity, ok := s.velocities[param]
	if !ok {
		velocity = tensor.Zeros[float32](param.Tensor().Shape(), s.backend)
		s.velocities[param] = velocity
	}
	vel := velocity.Raw().AsFloat32()

	for i := range w {
		vel[i] = s.momentum*vel[i] + grad[i]
		w[i] -= lr * vel[i]
	}
}

// ZeroGrad resets the gradient of every parameter in every group.
func (s *SGD[B]) ZeroGrad() {
	for _, group := range s.groups {
		for _, param := range group.Params {
			param.ZeroGrad()
		}
	}
}

// GetLR returns the learning rate of the first parameter group.
func (s *SGD[B]) GetLR() float32 { return s.groups[0].LR }

// SetLR updates the learning rate of every parameter group, for
// scheduler use.
func (s *SGD[B]) SetLR(lr float32) {
	for i := range s.groups {
		s.groups[i].LR = lr
	}
}

// Groups returns the parameter groups.
func (s *SGD[B]) Groups() []ParamGroup[B] { return s.groups }

// params flattens every group into one slice, preserving group order.
func (s *SGD[B]) params() []*nn.Parameter[B] {
	var all []*nn.Parameter[B]
	for _, group := range s.groups {
		all = append(all, group.Params...)
	}
	return all
}

// StateDict exports velocity buffers under "velocity.{i}" keyed by
// parameter index. Without momentum there is no state to export.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	dict := make(map[string]*tensor.RawTensor)
	if s.momentum == 0 {
		return dict
	}

	for i, param := range s.params() {
		if velocity, ok := s.velocities[param]; ok {
			dict[fmt.Sprintf("velocity.%d", i)] = velocity.Raw()
		}
	}
	return dict
}

// LoadStateDict restores velocity buffers. With momentum at zero the
// provided state is ignored; parameters missing from the dict get a
// fresh velocity on their first step.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if s.momentum == 0 {
		return nil
	}

	s.velocities = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for i, param := range s.params() {
		raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("velocity shape mismatch for parameter %d: expected %v, got %v",
				i, param.Tensor().Shape(), raw.Shape())
		}
		s.velocities[param] = tensor.New[float32, B](raw, s.backend)
	}
	return nil
}
