// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/grad-ml/grad/internal/backend/cpu"
	"github.com/grad-ml/grad/internal/tensor"
	"github.com/grad-ml/grad/nn"
)

func TestModuleContract(t *testing.T) {
	backend := cpu.New()

	modules := map[string]nn.Module[*cpu.CPUBackend]{
		"Linear": nn.NewLinear(10, 5, backend),
		"Sequential": nn.NewSequential[*cpu.CPUBackend](
			nn.NewLinear(10, 5, backend),
			nn.NewReLU[*cpu.CPUBackend](),
		),
	}

	for name, module := range modules {
		t.Run(name, func(t *testing.T) {
			input := tensor.Randn[float32](tensor.Shape{2, 10}, backend)
			out := module.Forward(input)
			if out == nil {
				t.Fatal("Forward returned nil")
			}

			if module.Parameters() == nil {
				t.Error("Parameters() returned nil, expected non-nil slice")
			}
			if module.StateDict() == nil {
				t.Error("StateDict() returned nil, expected non-nil map")
			}
		})
	}
}

func TestParameterGradLifecycle(t *testing.T) {
	backend := cpu.New()
	weights := tensor.Randn[float32](tensor.Shape{3, 3}, backend)
	param := nn.NewParameter("test.weight", weights)

	if name := param.Name(); name != "test.weight" {
		t.Errorf("Name() = %q, want %q", name, "test.weight")
	}
	if param.Tensor() != weights {
		t.Error("Tensor() returned a different tensor than provided")
	}
	if param.Grad() != nil {
		t.Error("fresh parameter should have nil gradient")
	}

	grad := tensor.Zeros[float32](tensor.Shape{3, 3}, backend)
	param.SetGrad(grad)
	if param.Grad() != grad {
		t.Error("Grad() did not return the tensor passed to SetGrad")
	}

	param.ZeroGrad()
	if param.Grad() != nil {
		t.Error("gradient should be nil after ZeroGrad")
	}
}

func TestSequentialComposition(t *testing.T) {
	backend := cpu.New()

	model := nn.NewSequential[*cpu.CPUBackend](
		nn.NewLinear(784, 128, backend),
		nn.NewReLU[*cpu.CPUBackend](),
		nn.NewLinear(128, 10, backend),
	)

	input := tensor.Randn[float32](tensor.Shape{2, 784}, backend)
	output := model.Forward(input)
	if want := (tensor.Shape{2, 10}); !output.Shape().Equal(want) {
		t.Errorf("output shape = %v, want %v", output.Shape(), want)
	}

	// Two linear layers contribute a weight and a bias each.
	if params := model.Parameters(); len(params) != 4 {
		t.Errorf("Parameters() returned %d entries, want 4", len(params))
	}
}

func TestNewParameter(t *testing.T) {
	backend := cpu.New()

	shapes := map[string]tensor.Shape{
		"layer1.weight": {128, 784},
		"layer1.bias":   {128},
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			data := tensor.Randn[float32](shape, backend)
			param := nn.NewParameter(name, data)

			if got := param.Name(); got != name {
				t.Errorf("Name() = %q, want %q", got, name)
			}
			if param.Tensor() != data {
				t.Error("Tensor() returned a different tensor")
			}
		})
	}
}
