package optim

import (
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// ParamGroup is a set of parameters sharing a learning rate.
//
// Groups let different parts of a model train at different rates, for
// example a lower rate for early layers during fine-tuning:
//
//	optimizer := optim.NewSGDWithGroups([]optim.ParamGroup[Backend]{
//	    {Params: body.Parameters(), LR: 1e-4},
//	    {Params: head.Parameters(), LR: 1e-2},
//	}, optim.SGDConfig{Momentum: 0.9}, backend)
type ParamGroup[B tensor.Backend] struct {
	Params []*nn.Parameter[B]
	LR     float32
}

// NewSGDWithGroups creates an SGD optimizer over explicit parameter
// groups. Each group keeps its own learning rate; momentum from the
// config applies to all groups. Groups with a zero LR fall back to the
// config LR (or the 0.01 default).
func NewSGDWithGroups[B tensor.Backend](groups []ParamGroup[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	for i := range groups {
		if groups[i].LR == 0 {
			groups[i].LR = config.LR
		}
	}

	return &SGD[B]{
		groups:     groups,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend:    backend,
	}
}
