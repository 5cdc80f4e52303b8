package optim

import (
	"fmt"
	"math"

	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/tensor"
)

// Adam is the adaptive-moment optimizer of Kingma & Ba (2014). It
// tracks an exponential average of gradients (first moment) and of
// squared gradients (second moment), correcting both for their zero
// initialization:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * g
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²
//	param -= lr * (m_t / (1-beta1^t)) / (sqrt(v_t / (1-beta2^t)) + eps)
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	}, backend)
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	backend B

	lr           float32
	beta1, beta2 float32
	eps          float32

	t    int // bias-correction timestep
	m, v map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for the running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// withDefaults fills zero-valued fields with the usual Adam defaults.
func (c AdamConfig) withDefaults() AdamConfig {
	fill(&c.LR, 0.001)
	fill(&c.Betas[0], 0.9)
	fill(&c.Betas[1], 0.999)
	fill(&c.Eps, 1e-8)
	return c
}

func fill(v *float32, def float32) {
	if *v == 0 {
		*v = def
	}
}

// NewAdam creates a new Adam optimizer. Unset config fields take the
// usual defaults (LR 0.001, betas 0.9/0.999, eps 1e-8).
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	config = config.withDefaults()
	return &Adam[B]{
		params:  params,
		backend: backend,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		m:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		v:       make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
	}
}

// momentFor returns the moment buffer for param, allocating a zeroed
// one on first use.
func (a *Adam[B]) momentFor(store map[*nn.Parameter[B]]*tensor.Tensor[float32, B], param *nn.Parameter[B]) []float32 {
	buf, ok := store[param]
	if !ok {
		buf = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		store[param] = buf
	}
	return buf.Raw().AsFloat32()
}

// Step advances the timestep and applies one Adam update. Parameters
// without a gradient are skipped.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	corr1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	corr2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		g := grad.AsFloat32()
		m := a.momentFor(a.m, param)
		v := a.momentFor(a.v, param)
		w := param.Tensor().Raw().AsFloat32()

		for i := range w {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]

			mHat := m[i] / corr1
			vHat := v[i] / corr2
			w[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 { return a.lr }

// SetLR updates the learning rate, for scheduler use.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// GetTimestep returns the current timestep.
func (a *Adam[B]) GetTimestep() int { return a.t }

// StateDict exports the moment buffers under "m.{i}" / "v.{i}" keyed
// by parameter index, plus the timestep under "t" so bias correction
// resumes where it left off.
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	dict := make(map[string]*tensor.RawTensor)

	for i, param := range a.params {
		if m, ok := a.m[param]; ok {
			dict[fmt.Sprintf("m.%d", i)] = m.Raw()
		}
		if v, ok := a.v[param]; ok {
			dict[fmt.Sprintf("v.%d", i)] = v.Raw()
		}
	}

	if tRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, a.backend.Device()); err == nil {
		tRaw.AsInt64()[0] = int64(a.t)
		dict["t"] = tRaw
	}

	return dict
}

// LoadStateDict restores moment buffers and the timestep.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	a.m = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	a.v = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])

	restore := func(key string, i int, param *nn.Parameter[B], store map[*nn.Parameter[B]]*tensor.Tensor[float32, B], label string) error {
		raw, ok := stateDict[key]
		if !ok {
			return nil
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return fmt.Errorf("%s moment shape mismatch for parameter %d: expected %v, got %v",
				label, i, param.Tensor().Shape(), raw.Shape())
		}
		store[param] = tensor.New[float32, B](raw, a.backend)
		return nil
	}

	for i, param := range a.params {
		if err := restore(fmt.Sprintf("m.%d", i), i, param, a.m, "first"); err != nil {
			return err
		}
		if err := restore(fmt.Sprintf("v.%d", i), i, param, a.v, "second"); err != nil {
			return err
		}
	}

	if tRaw, ok := stateDict["t"]; ok {
		if tRaw.DType() != tensor.Int64 || tRaw.NumElements() != 1 {
			return fmt.Errorf("timestep state must be a single int64 value")
		}
		a.t = int(tRaw.AsInt64()[0])
	}

	return nil
}
