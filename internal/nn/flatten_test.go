package nn_test

import (
	"testing"

	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// TestFlatten_CollapsesTrailingDims checks that [batch, h, w] becomes
// [batch, h*w] with values in row-major order.
func TestFlatten_CollapsesTrailingDims(t *testing.T) {
	backend := freshBackend()
	flatten := nn.NewFlatten[adBackend]()

	input, err := tensor.FromSlice(
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		tensor.Shape{2, 2, 3},
		backend,
	)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	output := flatten.Forward(input)

	expectedShape := tensor.Shape{2, 6}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Flatten shape = %v, want %v", output.Shape(), expectedShape)
	}

	data := output.Raw().AsFloat32()
	for i := range data {
		if data[i] != float32(i+1) {
			t.Errorf("Flatten data[%d] = %f, want %f", i, data[i], float32(i+1))
		}
	}
}

// TestFlatten_PassesThrough2D checks that already-flat input keeps its
// shape.
func TestFlatten_PassesThrough2D(t *testing.T) {
	backend := freshBackend()
	flatten := nn.NewFlatten[adBackend]()

	input := tensor.Randn[float32](tensor.Shape{4, 10}, backend)
	output := flatten.Forward(input)

	if !output.Shape().Equal(tensor.Shape{4, 10}) {
		t.Errorf("Flatten changed 2D shape: %v", output.Shape())
	}
}

// TestFlatten_RejectsVectors checks the panic on inputs without a batch
// dimension.
func TestFlatten_RejectsVectors(t *testing.T) {
	backend := freshBackend()
	flatten := nn.NewFlatten[adBackend]()

	input := tensor.Randn[float32](tensor.Shape{10}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for 1D input")
		}
	}()

	flatten.Forward(input)
}

// TestFlatten_NoParameters checks that Flatten is stateless.
func TestFlatten_NoParameters(t *testing.T) {
	flatten := nn.NewFlatten[adBackend]()

	if len(flatten.Parameters()) != 0 {
		t.Error("Flatten should have no parameters")
	}
	if len(flatten.StateDict()) != 0 {
		t.Error("Flatten state dict should be empty")
	}
	if err := flatten.LoadStateDict(nil); err != nil {
		t.Errorf("LoadStateDict: %v", err)
	}
}
