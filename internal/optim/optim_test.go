package optim_test

import (
	"math"
	"testing"

	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/optim"
	"github.com/grad-ml/grad/internal/tensor"
)

func scalarParam(t *testing.T, backend testBackend, name string, value float32) *nn.Parameter[testBackend] {
	t.Helper()
	x, err := tensor.FromSlice([]float32{value}, tensor.Shape{1}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return nn.NewParameter(name, x)
}

// gradsFor builds the gradient map Step consumes, one entry per
// parameter, with the given flat gradient values.
func gradsFor(t *testing.T, backend testBackend, params []*nn.Parameter[testBackend], values [][]float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor, len(params))
	for i, p := range params {
		raw, err := tensor.NewRaw(p.Tensor().Shape(), tensor.Float32, backend.Device())
		if err != nil {
			t.Fatalf("NewRaw: %v", err)
		}
		copy(raw.AsFloat32(), values[i])
		grads[p.Tensor().Raw()] = raw
	}
	return grads
}

func paramValue(p *nn.Parameter[testBackend]) float32 {
	return p.Tensor().Raw().AsFloat32()[0]
}

func floatEqual(a, b, eps float32) bool {
	return math.Abs(float64(a-b)) < float64(eps)
}

func TestSGD_VanillaStep(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 4)

	opt := optim.NewSGD([]*nn.Parameter[testBackend]{w},
		optim.SGDConfig{LR: 0.5}, backend)

	opt.Step(gradsFor(t, backend, []*nn.Parameter[testBackend]{w}, [][]float32{{2}}))

	// 4 - 0.5*2 = 3
	if got := paramValue(w); !floatEqual(got, 3, 1e-6) {
		t.Errorf("after step w = %v, want 3", got)
	}
}

func TestSGD_MomentumAccumulates(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 0)
	params := []*nn.Parameter[testBackend]{w}

	opt := optim.NewSGD(params,
		optim.SGDConfig{LR: 0.1, Momentum: 0.5}, backend)

	// Constant gradient 2. Velocity: v1 = 2, v2 = 0.5*2 + 2 = 3.
	opt.Step(gradsFor(t, backend, params, [][]float32{{2}}))
	if got := paramValue(w); !floatEqual(got, -0.2, 1e-6) {
		t.Fatalf("step 1: w = %v, want -0.2", got)
	}

	opt.Step(gradsFor(t, backend, params, [][]float32{{2}}))
	if got := paramValue(w); !floatEqual(got, -0.5, 1e-5) {
		t.Errorf("step 2: w = %v, want -0.5", got)
	}
}

func TestSGD_LearningRateAccessors(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 1)

	opt := optim.NewSGD([]*nn.Parameter[testBackend]{w},
		optim.SGDConfig{LR: 0.05}, backend)

	if lr := opt.GetLR(); lr != 0.05 {
		t.Errorf("GetLR = %v, want 0.05", lr)
	}
	opt.SetLR(0.005)
	if lr := opt.GetLR(); lr != 0.005 {
		t.Errorf("GetLR after SetLR = %v, want 0.005", lr)
	}
}

func TestZeroGrad_ClearsParameterGradients(t *testing.T) {
	backend := newBackend()

	build := map[string]func(params []*nn.Parameter[testBackend]) optim.Optimizer{
		"sgd": func(params []*nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewSGD(params, optim.SGDConfig{LR: 0.1}, backend)
		},
		"adam": func(params []*nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewAdam(params, optim.AdamConfig{LR: 0.001}, backend)
		},
	}

	for name, newOpt := range build {
		t.Run(name, func(t *testing.T) {
			w := scalarParam(t, backend, "w", 1)
			g, _ := tensor.FromSlice([]float32{7}, tensor.Shape{1}, backend)
			w.SetGrad(g)
			if w.Grad() == nil {
				t.Fatal("SetGrad did not attach a gradient")
			}

			newOpt([]*nn.Parameter[testBackend]{w}).ZeroGrad()
			if w.Grad() != nil {
				t.Error("gradient still attached after ZeroGrad")
			}
		})
	}
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 2)
	params := []*nn.Parameter[testBackend]{w}

	opt := optim.NewAdam(params, optim.AdamConfig{
		LR:    0.01,
		Betas: [2]float32{0.9, 0.999},
		Eps:   1e-8,
	}, backend)

	opt.Step(gradsFor(t, backend, params, [][]float32{{3}}))

	// With bias correction, the first update is lr * g/|g|, so the
	// parameter moves by exactly the learning rate.
	if got := paramValue(w); !floatEqual(got, 1.99, 1e-5) {
		t.Errorf("after step w = %v, want 1.99", got)
	}
}

func TestAdam_TimestepAdvances(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 1)
	params := []*nn.Parameter[testBackend]{w}

	opt := optim.NewAdam(params, optim.AdamConfig{
		LR:    0.01,
		Betas: [2]float32{0.9, 0.999},
		Eps:   1e-8,
	}, backend)

	if ts := opt.GetTimestep(); ts != 0 {
		t.Fatalf("fresh optimizer timestep = %d", ts)
	}
	for step := 1; step <= 4; step++ {
		opt.Step(gradsFor(t, backend, params, [][]float32{{1}}))
		if ts := opt.GetTimestep(); ts != step {
			t.Errorf("timestep after step %d = %d", step, ts)
		}
	}
	if got := paramValue(w); got >= 1 {
		t.Errorf("positive gradient did not decrease parameter: %v", got)
	}
}

// Both optimizers should drive f(w) = (w-1)^2 to its minimum at w=1
// from a few units away.
func TestMinimizeShiftedQuadratic(t *testing.T) {
	backend := newBackend()

	build := map[string]func(params []*nn.Parameter[testBackend]) optim.Optimizer{
		"sgd": func(params []*nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
		},
		"adam": func(params []*nn.Parameter[testBackend]) optim.Optimizer {
			return optim.NewAdam(params, optim.AdamConfig{
				LR:    0.1,
				Betas: [2]float32{0.9, 0.999},
				Eps:   1e-8,
			}, backend)
		},
	}

	for name, newOpt := range build {
		t.Run(name, func(t *testing.T) {
			w := scalarParam(t, backend, "w", -2)
			params := []*nn.Parameter[testBackend]{w}
			opt := newOpt(params)

			for i := 0; i < 100; i++ {
				g := 2 * (paramValue(w) - 1)
				opt.Step(gradsFor(t, backend, params, [][]float32{{g}}))
			}

			if got := paramValue(w); !floatEqual(got, 1, 0.1) {
				t.Errorf("after 100 steps w = %v, want about 1", got)
			}
		})
	}
}

func TestSGD_UpdatesEveryParameter(t *testing.T) {
	backend := newBackend()

	wT, _ := tensor.FromSlice([]float32{0.5, -0.5}, tensor.Shape{2}, backend)
	weight := nn.NewParameter("weight", wT)
	bias := scalarParam(t, backend, "bias", 2)

	params := []*nn.Parameter[testBackend]{weight, bias}
	opt := optim.NewSGD(params, optim.SGDConfig{LR: 0.2}, backend)

	opt.Step(gradsFor(t, backend, params, [][]float32{{1, -1}, {4}}))

	w := weight.Tensor().Raw().AsFloat32()
	if !floatEqual(w[0], 0.3, 1e-6) || !floatEqual(w[1], -0.3, 1e-6) {
		t.Errorf("weight = [%v %v], want [0.3 -0.3]", w[0], w[1])
	}
	if got := paramValue(bias); !floatEqual(got, 1.2, 1e-6) {
		t.Errorf("bias = %v, want 1.2", got)
	}
}

func TestConfigDefaults(t *testing.T) {
	backend := newBackend()
	w := scalarParam(t, backend, "w", 1)
	params := []*nn.Parameter[testBackend]{w}

	sgd := optim.NewSGD(params, optim.SGDConfig{}, backend)
	if got := sgd.GetLR(); got != 0.01 {
		t.Errorf("SGD default LR = %v, want 0.01", got)
	}

	adam := optim.NewAdam(params, optim.AdamConfig{}, backend)
	if got := adam.GetLR(); got != 0.001 {
		t.Errorf("Adam default LR = %v, want 0.001", got)
	}
}
