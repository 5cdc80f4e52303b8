package optim

import (
	"fmt"

	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// SWA maintains a running average of model weights (Stochastic Weight
// Averaging). Averaging snapshots taken late in training often
// generalizes better than the final weights alone.
//
// Usage:
//
//	swa := optim.NewSWA(model.Parameters(), backend)
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    trainOneEpoch(...)
//	    if epoch >= swaStart {
//	        swa.Update()
//	    }
//	}
//	swa.Apply() // replace model weights with the average
//
// Reference: "Averaging Weights Leads to Wider Optima and Better
// Generalization" (Izmailov et al., 2018).
type SWA[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	averages []*tensor.Tensor[float32, B]
	count    int
	backend  B
}

// NewSWA creates a weight averager over the given parameters.
func NewSWA[B tensor.Backend](params []*nn.Parameter[B], backend B) *SWA[B] {
	averages := make([]*tensor.Tensor[float32, B], len(params))
	for i, param := range params {
		averages[i] = tensor.Zeros[float32](param.Tensor().Shape(), backend)
	}

	return &SWA[B]{
		params:   params,
		averages: averages,
		backend:  backend,
	}
}

// Update folds the current weights into the running average:
//
//	avg = (avg*n + w) / (n+1)
func (s *SWA[B]) Update() {
	n := float32(s.count)
	for i, param := range s.params {
		avgData := s.averages[i].Raw().AsFloat32()
		paramData := param.Tensor().Raw().AsFloat32()
		for j := range avgData {
			avgData[j] = (avgData[j]*n + paramData[j]) / (n + 1)
		}
	}
	s.count++
}

// Count returns how many snapshots have been averaged.
func (s *SWA[B]) Count() int {
	return s.count
}

// Apply copies the averaged weights into the model parameters.
// Returns an error if Update was never called.
func (s *SWA[B]) Apply() error {
	if s.count == 0 {
		return fmt.Errorf("swa: no snapshots averaged yet")
	}
	for i, param := range s.params {
		copy(param.Tensor().Raw().AsFloat32(), s.averages[i].Raw().AsFloat32())
	}
	return nil
}
