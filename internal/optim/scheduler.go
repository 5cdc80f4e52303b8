package optim

import "math"

// Scheduler adjusts an optimizer's learning rate over epochs.
//
// Schedulers are driven by the training loop after each epoch
// finishes, with the count of completed epochs:
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    trainOneEpoch(...)
//	    scheduler.Step(epoch + 1)
//	}
type Scheduler interface {
	// Step sets the learning rate given how many epochs have
	// completed.
	Step(completedEpochs int)

	// LR returns the learning rate the scheduler computed last.
	LR() float32
}

// StepLR decays the learning rate by gamma every stepSize epochs:
//
//	lr = baseLR * gamma^(epoch / stepSize)
type StepLR struct {
	optimizer Optimizer
	baseLR    float32
	stepSize  int
	gamma     float32
	lastLR    float32
}

// NewStepLR creates a step decay scheduler. The base learning rate is
// captured from the optimizer at construction time.
func NewStepLR(optimizer Optimizer, stepSize int, gamma float32) *StepLR {
	if stepSize <= 0 {
		stepSize = 1
	}
	return &StepLR{
		optimizer: optimizer,
		baseLR:    optimizer.GetLR(),
		stepSize:  stepSize,
		gamma:     gamma,
		lastLR:    optimizer.GetLR(),
	}
}

// Step applies the decay for the given epoch.
func (s *StepLR) Step(epoch int) {
	decays := epoch / s.stepSize
	lr := s.baseLR * float32(math.Pow(float64(s.gamma), float64(decays)))
	s.optimizer.SetLR(lr)
	s.lastLR = lr
}

// LR returns the last computed learning rate.
func (s *StepLR) LR() float32 {
	return s.lastLR
}

// CosineAnnealingLR anneals the learning rate from the base value down
// to etaMin following a half cosine over tMax epochs:
//
//	lr = etaMin + (baseLR - etaMin) * (1 + cos(pi * epoch / tMax)) / 2
type CosineAnnealingLR struct {
	optimizer Optimizer
	baseLR    float32
	tMax      int
	etaMin    float32
	lastLR    float32
}

// NewCosineAnnealingLR creates a cosine annealing scheduler.
func NewCosineAnnealingLR(optimizer Optimizer, tMax int, etaMin float32) *CosineAnnealingLR {
	if tMax <= 0 {
		tMax = 1
	}
	return &CosineAnnealingLR{
		optimizer: optimizer,
		baseLR:    optimizer.GetLR(),
		tMax:      tMax,
		etaMin:    etaMin,
		lastLR:    optimizer.GetLR(),
	}
}

// Step applies the annealed rate for the given epoch. Epochs past tMax
// stay at etaMin.
func (c *CosineAnnealingLR) Step(epoch int) {
	if epoch > c.tMax {
		epoch = c.tMax
	}
	cosine := math.Cos(math.Pi * float64(epoch) / float64(c.tMax))
	lr := c.etaMin + (c.baseLR-c.etaMin)*float32((1+cosine)/2)
	c.optimizer.SetLR(lr)
	c.lastLR = lr
}

// LR returns the last computed learning rate.
func (c *CosineAnnealingLR) LR() float32 {
	return c.lastLR
}
