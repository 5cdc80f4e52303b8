// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// Models are composed from Module values: Linear and Flatten layers,
// the ReLU, Sigmoid and Tanh activations, and the Sequential
// container that chains them. CrossEntropyLoss and MSELoss score
// predictions, weight initializers (Xavier, Kaiming, Zeros, Ones,
// Randn) seed parameters, and Save/Load plus
// SaveCheckpoint/LoadCheckpoint persist them.
//
// A typical classifier:
//
//	import (
//	    "github.com/grad-ml/grad/nn"
//	    "github.com/grad-ml/grad/backend/cpu"
//	)
//
//	backend := cpu.New()
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10, backend),
//	)
//
//	output := model.Forward(input)
//
// Linear layers are fully connected and Xavier-initialized by
// default; Flatten collapses trailing dimensions, turning
// [64, 28, 28] images into [64, 784] rows:
//
//	layer := nn.NewLinear(inFeatures, outFeatures, backend)
//	flatten := nn.NewFlatten[B]()
//
// Losses follow the same Forward convention as layers.
// CrossEntropyLoss fuses softmax with the negative log-likelihood and
// is the numerically stable choice for classification; MSELoss serves
// regression:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels)
//
// Every module exposes its learnable state through Parameters, which
// optimizers consume directly:
//
//	for _, param := range model.Parameters() {
//	    fmt.Println(param.Name(), param.Tensor().Shape())
//	}
package nn
