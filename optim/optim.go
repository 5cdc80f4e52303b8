// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/optim"
	"github.com/grad-ml/grad/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Config represents the base configuration for optimizers.
type Config = optim.Config

// ParamGroup is a set of parameters sharing a learning rate.
type ParamGroup[B tensor.Backend] = optim.ParamGroup[B]

// SGD represents the SGD optimizer with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}

// NewSGDWithGroups creates an SGD optimizer with per-group learning
// rates. Groups with a zero LR inherit the config learning rate.
//
//	optimizer := optim.NewSGDWithGroups(
//	    []optim.ParamGroup[B]{
//	        {Params: backbone.Parameters(), LR: 0.001},
//	        {Params: head.Parameters(), LR: 0.01},
//	    },
//	    optim.SGDConfig{Momentum: 0.9},
//	    backend,
//	)
func NewSGDWithGroups[B tensor.Backend](groups []ParamGroup[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGDWithGroups(groups, config, backend)
}

// Adam represents the Adam optimizer.
type Adam[B tensor.Backend] = optim.Adam[B]

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	}, backend)
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	return optim.NewAdam(params, config, backend)
}

// Scheduler adjusts an optimizer's learning rate across epochs.
type Scheduler = optim.Scheduler

// StepLR decays the learning rate by gamma every stepSize epochs.
type StepLR = optim.StepLR

// NewStepLR creates a step decay scheduler.
//
//	scheduler := optim.NewStepLR(optimizer, 10, 0.5)
//	for epoch := range epochs {
//	    trainOneEpoch()
//	    scheduler.Step(epoch + 1)
//	}
func NewStepLR(optimizer Optimizer, stepSize int, gamma float32) *StepLR {
	return optim.NewStepLR(optimizer, stepSize, gamma)
}

// CosineAnnealingLR anneals the learning rate along a half cosine from
// the base rate down to etaMin over tMax epochs.
type CosineAnnealingLR = optim.CosineAnnealingLR

// NewCosineAnnealingLR creates a cosine annealing scheduler.
func NewCosineAnnealingLR(optimizer Optimizer, tMax int, etaMin float32) *CosineAnnealingLR {
	return optim.NewCosineAnnealingLR(optimizer, tMax, etaMin)
}

// SWA maintains a running average of parameter snapshots and can swap
// the average into the model at the end of training.
type SWA[B tensor.Backend] = optim.SWA[B]

// NewSWA creates an SWA accumulator over the given parameters.
//
//	swa := optim.NewSWA(model.Parameters(), backend)
//	for epoch := range epochs {
//	    trainOneEpoch()
//	    if epoch >= swaStart {
//	        swa.Update()
//	    }
//	}
//	swa.Apply()
func NewSWA[B tensor.Backend](params []*nn.Parameter[B], backend B) *SWA[B] {
	return optim.NewSWA(params, backend)
}
