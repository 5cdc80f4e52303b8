package nn

import (
	"fmt"
	"strings"

	"github.com/grad-ml/grad/internal/tensor"
)

// Sequential chains modules so each one's output feeds the next.
//
//	model := nn.NewSequential(
//	    nn.NewFlatten[B](),
//	    nn.NewLinear(784, 512, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(512, 10, backend),
//	)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential builds a pipeline from the given modules, applied in
// argument order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward threads input through every module in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := input
	for _, m := range s.modules {
		x = m.Forward(x)
	}
	return x
}

// Parameters collects the trainable parameters of every stage,
// preserving module order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Add appends a module to the end of the pipeline.
func (s *Sequential[B]) Add(module Module[B]) { s.modules = append(s.modules, module) }

// Len reports the number of stages.
func (s *Sequential[B]) Len() int { return len(s.modules) }

// Module returns the stage at index. Panics when index is out of range.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// stageKey namespaces a parameter name by its stage index, so two
// stages with identically named parameters cannot collide.
func stageKey(stage int, name string) string {
	return fmt.Sprintf("%d.%s", stage, name)
}

// StateDict flattens every stage's parameters into one map keyed
// "<stage index>.<name>" ("0.weight", "2.bias", ...). Parameter-free
// stages contribute nothing but still consume an index.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		for name, raw := range m.StateDict() {
			stateDict[stageKey(i, name)] = raw
		}
	}
	return stateDict
}

// LoadStateDict routes "<stage index>.<name>" entries back to their
// stages. Keys for indexes without parameters are ignored; a stage
// reports its own missing or mismatched entries.
func (s *Sequential[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		prefix := fmt.Sprintf("%d.", i)
		sub := make(map[string]*tensor.RawTensor)
		for key, raw := range stateDict {
			if rest, ok := strings.CutPrefix(key, prefix); ok && rest != "" {
				sub[rest] = raw
			}
		}
		if len(sub) == 0 {
			continue
		}
		if err := m.LoadStateDict(sub); err != nil {
			return fmt.Errorf("failed to load module %d: %w", i, err)
		}
	}
	return nil
}
