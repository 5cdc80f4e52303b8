package ops

import (
	"testing"

	"github.com/grad-ml/grad/internal/backend/cpu"
	"github.com/grad-ml/grad/internal/tensor"
)

// backend is shared across the package's tests; the CPU backend holds
// no per-call state, so concurrent subtests may use it freely.
var backend = cpu.New()

func TestReduceBroadcast_MatchingShapeClones(t *testing.T) {
	grad := rawF32(t, []float32{1, 2, 3}, tensor.Shape{3})
	result := reduceBroadcast(grad, tensor.Shape{3}, backend)

	if result == grad {
		t.Fatal("matching shapes must return a clone, not the same tensor")
	}
	assertF32(t, result, []float32{1, 2, 3}, 0)
}

func TestReduceBroadcast_LeadingDim(t *testing.T) {
	// [2,3] gradient reduced for an input that was broadcast from [3].
	grad := rawF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := reduceBroadcast(grad, tensor.Shape{3}, backend)

	if !result.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("shape = %v, want [3]", result.Shape())
	}
	assertF32(t, result, []float32{5, 7, 9}, 1e-6)
}

func TestReduceBroadcast_InnerDim(t *testing.T) {
	// [2,3] gradient reduced for an input that was broadcast from [2,1].
	grad := rawF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := reduceBroadcast(grad, tensor.Shape{2, 1}, backend)

	if !result.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("shape = %v, want [2 1]", result.Shape())
	}
	assertF32(t, result, []float32{6, 15}, 1e-6)
}

func TestReduceBroadcast_ToScalar(t *testing.T) {
	grad := rawF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	result := reduceBroadcast(grad, tensor.Shape{}, backend)

	if result.NumElements() != 1 {
		t.Fatalf("scalar reduction produced %d elements", result.NumElements())
	}
	if result.AsFloat32()[0] != 10 {
		t.Errorf("sum = %f, want 10", result.AsFloat32()[0])
	}
}

func TestBroadcastTo(t *testing.T) {
	src := rawF32(t, []float32{1, 2, 3}, tensor.Shape{1, 3})
	result := broadcastTo(src, tensor.Shape{2, 3}, backend)

	if !result.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("shape = %v, want [2 3]", result.Shape())
	}
	assertF32(t, result, []float32{1, 2, 3, 1, 2, 3}, 1e-6)
}

func TestUnsqueezeDim(t *testing.T) {
	src := rawF32(t, []float32{1, 2}, tensor.Shape{2})

	front := unsqueezeDim(src, 0, 2, backend)
	if !front.Shape().Equal(tensor.Shape{1, 2}) {
		t.Errorf("unsqueeze at 0: shape = %v, want [1 2]", front.Shape())
	}

	back := unsqueezeDim(src, 1, 2, backend)
	if !back.Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("unsqueeze at 1: shape = %v, want [2 1]", back.Shape())
	}

	negative := unsqueezeDim(src, -1, 2, backend)
	if !negative.Shape().Equal(tensor.Shape{2, 1}) {
		t.Errorf("unsqueeze at -1: shape = %v, want [2 1]", negative.Shape())
	}
}

func TestScalarOf(t *testing.T) {
	if v, ok := scalarOf(tensor.Float32, 1.5).(float32); !ok || v != 1.5 {
		t.Errorf("scalarOf(Float32) = %v, want float32 1.5", v)
	}
	if v, ok := scalarOf(tensor.Float64, 2.5).(float64); !ok || v != 2.5 {
		t.Errorf("scalarOf(Float64) = %v, want float64 2.5", v)
	}
}
