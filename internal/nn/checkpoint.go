package nn

import (
	"fmt"
	"strings"
	"time"

	"github.com/grad-ml/grad/internal/serialization"
	"github.com/grad-ml/grad/internal/tensor"
)

// optimizerPrefix separates optimizer tensors from model tensors when
// both land in the same state dictionary.
const optimizerPrefix = "optimizer."

// OptimizerState is the slice of an optimizer a checkpoint needs:
// state round-tripping plus the current learning rate. The optim
// package implements it; declaring it here avoids an import cycle.
type OptimizerState interface {
	StateDict() map[string]*tensor.RawTensor
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
	GetLR() float32
}

// Checkpoint bundles everything needed to resume a training run:
// model weights, optimizer buffers (momentum, Adam moments), and the
// position in the run (epoch, step, loss).
//
//	ckpt := &nn.Checkpoint[Backend]{
//	    Model:     model,
//	    Optimizer: optimizer,
//	    Epoch:     12,
//	    Step:      4800,
//	    Loss:      0.231,
//	}
//	err := ckpt.Save("checkpoint_epoch_12.grad")
//
// Resuming later:
//
//	ckpt, err := nn.LoadCheckpoint("checkpoint.grad", backend, model, optimizer)
//	startEpoch := ckpt.Epoch + 1
type Checkpoint[B tensor.Backend] struct {
	Model     Module[B]
	Optimizer OptimizerState
	Epoch     int
	Step      int64
	Loss      float64
	Metadata  map[string]any
	CreatedAt time.Time
}

// combinedStateDict merges model and optimizer tensors into one map,
// with optimizer entries renamed under optimizerPrefix so the two
// namespaces cannot collide.
func (c *Checkpoint[B]) combinedStateDict() map[string]*tensor.RawTensor {
	model := c.Model.StateDict()
	opt := c.Optimizer.StateDict()

	combined := make(map[string]*tensor.RawTensor, len(model)+len(opt))
	for name, raw := range model {
		combined[name] = raw
	}
	for name, raw := range opt {
		combined[optimizerPrefix+name] = raw
	}
	return combined
}

// splitStateDict undoes combinedStateDict, routing prefixed tensors
// back to the optimizer and everything else to the model.
func splitStateDict(combined map[string]*tensor.RawTensor) (model, opt map[string]*tensor.RawTensor) {
	model = make(map[string]*tensor.RawTensor, len(combined))
	opt = make(map[string]*tensor.RawTensor)
	for name, raw := range combined {
		if rest, ok := strings.CutPrefix(name, optimizerPrefix); ok {
			opt[rest] = raw
		} else {
			model[name] = raw
		}
	}
	return model, opt
}

func (c *Checkpoint[B]) header() serialization.Header {
	return serialization.Header{
		ModelType: "Checkpoint",
		CreatedAt: time.Now().UTC(),
		Metadata:  make(map[string]string),
		CheckpointMeta: &serialization.CheckpointMeta{
			IsCheckpoint:    true,
			Epoch:           c.Epoch,
			Step:            c.Step,
			Loss:            c.Loss,
			OptimizerType:   "Optimizer",
			OptimizerConfig: map[string]any{"lr": c.Optimizer.GetLR()},
			TrainingMeta:    c.Metadata,
		},
	}
}

// Save writes the checkpoint to a .grad file. Optimizer tensors are
// stored under the "optimizer." prefix so they cannot collide with
// model tensor names.
func (c *Checkpoint[B]) Save(path string) (err error) {
	writer, err := serialization.NewGradWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer closeKeeping(writer, &err)

	if err := writer.WriteStateDictWithHeader(c.combinedStateDict(), c.header()); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a checkpoint into a pre-built model and
// optimizer. Both must match the architecture and configuration that
// produced the file; their state is replaced in place.
//
//	model := nn.NewLinear(10, 5, backend)
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 0.001}, backend)
//	ckpt, err := nn.LoadCheckpoint("checkpoint.grad", backend, model, optimizer)
func LoadCheckpoint[B tensor.Backend](
	path string,
	backend B,
	model Module[B],
	optimizer OptimizerState,
) (ckpt *Checkpoint[B], err error) {
	reader, err := serialization.NewGradReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer closeKeeping(reader, &err)

	header := reader.Header()
	meta := header.CheckpointMeta
	if meta == nil || !meta.IsCheckpoint {
		return nil, fmt.Errorf("file is not a checkpoint")
	}

	combined, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}
	modelState, optimizerState := splitStateDict(combined)

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if err := optimizer.LoadStateDict(optimizerState); err != nil {
		return nil, fmt.Errorf("failed to load optimizer state: %w", err)
	}

	return &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     meta.Epoch,
		Step:      meta.Step,
		Loss:      meta.Loss,
		Metadata:  meta.TrainingMeta,
		CreatedAt: header.CreatedAt,
	}, nil
}

// SaveCheckpoint saves model and optimizer state at the end of epoch
// without building a Checkpoint struct by hand.
func SaveCheckpoint[B tensor.Backend](
	path string,
	model Module[B],
	optimizer OptimizerState,
	epoch int,
) error {
	c := &Checkpoint[B]{
		Model:     model,
		Optimizer: optimizer,
		Epoch:     epoch,
		CreatedAt: time.Now().UTC(),
	}
	return c.Save(path)
}
