// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train provides the training harness: an epoch loop with
// progress reporting, a no-grad evaluation pass, and optional
// scheduler, weight averaging and Prometheus metrics hooks.
//
// # Basic Usage
//
//	import (
//	    "github.com/grad-ml/grad/autodiff"
//	    "github.com/grad-ml/grad/backend/cpu"
//	    "github.com/grad-ml/grad/dataset"
//	    "github.com/grad-ml/grad/nn"
//	    "github.com/grad-ml/grad/optim"
//	    "github.com/grad-ml/grad/train"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    model := buildModel(backend)
//	    optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 1e-3}, backend)
//
//	    trainer := train.NewTrainer(model, optimizer, backend, train.Config{
//	        BatchSize: 64,
//	        Epochs:    10,
//	        Shuffle:   true,
//	    })
//	    trainer.Fit(trainData, testData)
//	}
package train

import (
	"github.com/grad-ml/grad/internal/autodiff"
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/optim"
	"github.com/grad-ml/grad/internal/train"
)

// Config holds the training hyperparameters. Zero fields take the
// tutorial defaults (lr 1e-3, batch 64, 10 epochs, log every 100).
type Config = train.Config

// Trainer bundles a model, loss, optimizer and backend for a training
// session.
type Trainer[B autodiff.BackwardCapable] = train.Trainer[B]

// Metrics exposes training counters and gauges on a private
// Prometheus registry.
type Metrics = train.Metrics

// NewTrainer creates a training session over a classification model.
//
// Example:
//
//	trainer := train.NewTrainer(model, optimizer, backend, train.Config{Epochs: 5})
func NewTrainer[B autodiff.BackwardCapable](
	model nn.Module[B],
	optimizer optim.Optimizer,
	backend B,
	config Config,
) *Trainer[B] {
	return train.NewTrainer(model, optimizer, backend, config)
}

// NewMetrics creates an empty metrics set with its own registry.
//
// Example:
//
//	metrics := train.NewMetrics()
//	trainer.SetMetrics(metrics)
//	http.Handle("/metrics", metrics.Handler())
func NewMetrics() *Metrics {
	return train.NewMetrics()
}
