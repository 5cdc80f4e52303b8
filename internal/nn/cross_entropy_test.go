package nn_test

import (
	"math"
	"testing"

	"github.com/grad-ml/grad/internal/autodiff"
	"github.com/grad-ml/grad/internal/backend/cpu"
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// freshBackend builds a tape-recording backend with no history on it.
func freshBackend() adBackend { return autodiff.New(cpu.New()) }

func logitsOf(t *testing.T, backend adBackend, rows [][]float32) *tensor.Tensor[float32, adBackend] {
	t.Helper()
	flat := make([]float32, 0, len(rows)*len(rows[0]))
	for _, row := range rows {
		flat = append(flat, row...)
	}
	x, err := tensor.FromSlice(flat, tensor.Shape{len(rows), len(rows[0])}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func classesOf(t *testing.T, backend adBackend, labels []int32) *tensor.Tensor[int32, adBackend] {
	t.Helper()
	y, err := tensor.FromSlice(labels, tensor.Shape{len(labels)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return y
}

func TestCrossEntropy_TwoClassHandValue(t *testing.T) {
	backend := freshBackend()

	// loss = log(e^0.5 + e^-0.5) - 0.5 = log(2.2553) - 0.5 ~= 0.3133
	logits := logitsOf(t, backend, [][]float32{{0.5, -0.5}})
	targets := classesOf(t, backend, []int32{0})

	loss := nn.NewCrossEntropyLoss(backend).Forward(logits, targets)
	got := loss.Raw().AsFloat32()[0]
	if math.Abs(float64(got)-0.3133) > 1e-3 {
		t.Errorf("loss = %v, want about 0.3133", got)
	}
}

func TestCrossEntropy_BatchIsMeanOverSamples(t *testing.T) {
	backend := freshBackend()

	// Sample 0: uniform logits, loss = ln 3 ~= 1.0986.
	// Sample 1: logits [2 0 0] target 0, loss = log(e^2 + 2) - 2 ~= 0.2395.
	logits := logitsOf(t, backend, [][]float32{
		{0, 0, 0},
		{2, 0, 0},
	})
	targets := classesOf(t, backend, []int32{1, 0})

	loss := nn.NewCrossEntropyLoss(backend).Forward(logits, targets)
	got := loss.Raw().AsFloat32()[0]
	want := float32((1.0986 + 0.2395) / 2)
	if math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("batch loss = %v, want about %v", got, want)
	}
}

func TestCrossEntropyBackward_SoftmaxMinusOneHot(t *testing.T) {
	backend := freshBackend()

	// Uniform two-class logits: softmax is [0.5 0.5], one-hot target
	// is class 1, so the gradient is exactly [0.5 -0.5].
	logits := logitsOf(t, backend, [][]float32{{0, 0}})
	targets := classesOf(t, backend, []int32{1})

	grad := nn.CrossEntropyBackward(logits, targets, backend).Raw().AsFloat32()
	if math.Abs(float64(grad[0]-0.5)) > 1e-6 || math.Abs(float64(grad[1]+0.5)) > 1e-6 {
		t.Errorf("gradient = [%v %v], want [0.5 -0.5]", grad[0], grad[1])
	}
}

func TestAccuracy_CountsArgmaxHits(t *testing.T) {
	backend := freshBackend()

	logits := logitsOf(t, backend, [][]float32{
		{0.1, 0.9, 0.0}, // argmax 1
		{2.0, 1.0, 0.0}, // argmax 0
		{0.0, 0.2, 0.8}, // argmax 2
		{1.5, 0.5, 1.0}, // argmax 0
		{0.3, 0.3, 0.9}, // argmax 2
	})
	targets := classesOf(t, backend, []int32{1, 0, 1, 2, 2})

	// Hits on samples 0, 1, 4.
	if got := nn.Accuracy(logits, targets); math.Abs(float64(got-0.6)) > 1e-6 {
		t.Errorf("accuracy = %v, want 0.6", got)
	}
}

func TestCrossEntropy_LargeLogitsStayFinite(t *testing.T) {
	backend := freshBackend()

	// Without max-shifting, exp(500) overflows float32.
	logits := logitsOf(t, backend, [][]float32{{500, 250, 0}})
	targets := classesOf(t, backend, []int32{0})

	loss := nn.NewCrossEntropyLoss(backend).Forward(logits, targets)
	got := float64(loss.Raw().AsFloat32()[0])
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("loss not finite: %v", got)
	}
	if got > 1e-3 {
		t.Errorf("dominant correct logit should give near-zero loss, got %v", got)
	}
}

func TestCrossEntropy_TargetOutOfRange(t *testing.T) {
	backend := freshBackend()

	logits := logitsOf(t, backend, [][]float32{{1, 2, 3}})
	targets := classesOf(t, backend, []int32{7})

	defer func() {
		if recover() == nil {
			t.Error("target index past the class count did not panic")
		}
	}()
	nn.NewCrossEntropyLoss(backend).Forward(logits, targets)
}
