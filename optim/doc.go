// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural
// networks: SGD with momentum and parameter groups, Adam with bias
// correction, the StepLR and CosineAnnealingLR schedulers, stochastic
// weight averaging, and the Optimizer interface custom optimizers
// implement.
//
// An optimizer takes the model's parameters at construction and
// consumes the gradient map produced by a backward pass:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 0.001,
//	}, backend)
//
//	for epoch := range 10 {
//	    optimizer.ZeroGrad()
//	    loss := criterion.Forward(model.Forward(x), y)
//	    grads := autodiff.Backward(loss, backend)
//	    optimizer.Step(grads)
//	}
//
// SGD takes the same shape of configuration:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
//
// Schedulers sit on top of any optimizer and adjust its learning rate
// from the number of completed epochs:
//
//	scheduler := optim.NewStepLR(optimizer, 10, 0.5)
//	for epoch := range numEpochs {
//	    trainOneEpoch()
//	    scheduler.Step(epoch + 1)
//	}
package optim
