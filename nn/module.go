// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/serialization"
	"github.com/grad-ml/grad/tensor"
)

// Save writes the module's state dictionary to a .grad file.
// modelType names the architecture ("Sequential", "Linear", ...) and
// lands in the file header; metadata may be nil.
//
//	err := nn.Save(model, "model.grad", "Linear", nil)
func Save[B tensor.Backend](module Module[B], path, modelType string, metadata map[string]string) error {
	return nn.Save(module, path, modelType, metadata)
}

// Load reads a .grad file into module, which must already have the
// matching architecture. The file header is returned alongside any
// error.
//
//	model := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("model.grad", backend, model)
func Load[B tensor.Backend](path string, backend B, module Module[B]) (serialization.Header, error) {
	return nn.Load(path, backend, module)
}

// Checkpoint bundles model and optimizer state with training progress
// so a session can resume where it stopped.
type Checkpoint[B tensor.Backend] = nn.Checkpoint[B]

// OptimizerState is the optimizer-side contract for checkpointing.
type OptimizerState = nn.OptimizerState

// SaveCheckpoint writes a training checkpoint to path.
//
//	err := nn.SaveCheckpoint("epoch10.grad", model, optimizer, 10)
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], optimizer OptimizerState, epoch int) error {
	return nn.SaveCheckpoint(path, model, optimizer, epoch)
}

// LoadCheckpoint restores model and optimizer state from a checkpoint
// file written by SaveCheckpoint or Checkpoint.Save.
//
//	checkpoint, err := nn.LoadCheckpoint("epoch10.grad", backend, model, optimizer)
func LoadCheckpoint[B tensor.Backend](path string, backend B, model Module[B], optimizer OptimizerState) (*Checkpoint[B], error) {
	return nn.LoadCheckpoint(path, backend, model, optimizer)
}
