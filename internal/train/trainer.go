// Package train drives the classifier training loop: per-batch
// forward/backward/update with progress lines, a no-grad evaluation
// pass, and an epoch driver tying the two together.
package train

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/grad-ml/grad/internal/autodiff"
	"github.com/grad-ml/grad/internal/dataset"
	"github.com/grad-ml/grad/internal/nn"
	"github.com/grad-ml/grad/internal/optim"
	"github.com/grad-ml/grad/internal/tensor"
)

// Trainer bundles a model, loss, optimizer and backend for a training
// session. The zero value is not usable; construct with NewTrainer.
//
// Scheduler, SWA and SWAStart are optional: when set, Fit steps the
// scheduler after each epoch and folds weights into the SWA average
// from epoch SWAStart onward.
type Trainer[B autodiff.BackwardCapable] struct {
	Scheduler optim.Scheduler
	SWA       *optim.SWA[B]
	SWAStart  int

	model     nn.Module[B]
	criterion *nn.CrossEntropyLoss[B]
	optimizer optim.Optimizer
	backend   B
	config    Config
	runID     string
	logger    zerolog.Logger
	metrics   *Metrics
}

// NewTrainer creates a training session. Unset config fields take the
// tutorial defaults (lr 1e-3, batch 64, 10 epochs).
func NewTrainer[B autodiff.BackwardCapable](
	model nn.Module[B],
	optimizer optim.Optimizer,
	backend B,
	config Config,
) *Trainer[B] {
	return &Trainer[B]{
		model:     model,
		criterion: nn.NewCrossEntropyLoss(backend),
		optimizer: optimizer,
		backend:   backend,
		config:    config.withDefaults(),
		runID:     uuid.NewString(),
		logger:    zerolog.Nop(),
	}
}

// SetLogger routes diagnostic events (run start/end, epoch summaries)
// to the given logger. Progress and summary lines stay on stdout.
func (t *Trainer[B]) SetLogger(logger zerolog.Logger) {
	t.logger = logger
}

// SetMetrics attaches a Prometheus metrics set updated during
// training.
func (t *Trainer[B]) SetMetrics(metrics *Metrics) {
	t.metrics = metrics
}

// RunID returns the unique identifier of this training session.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// Config returns the effective configuration after defaulting.
func (t *Trainer[B]) Config() Config {
	return t.config
}

// Model returns the model under training.
func (t *Trainer[B]) Model() nn.Module[B] {
	return t.model
}

// Optimizer returns the parameter updater.
func (t *Trainer[B]) Optimizer() optim.Optimizer {
	return t.optimizer
}

// TrainEpoch runs one pass over the training data: per batch, forward,
// loss, backward, parameter update. Returns the mean batch loss.
//
// A progress line is printed every LogEvery batches and for the final
// batch:
//
//	loss: 2.301052  [   64/60000]
func (t *Trainer[B]) TrainEpoch(data *dataset.Dataset, epoch int) float64 {
	batches := data.Batches(t.config.BatchSize, t.config.Shuffle, t.config.Seed+int64(epoch))
	tape := t.backend.GetTape()

	var lossSum float64
	seen := 0

	for batchIdx, batch := range batches {
		inputs, targets := t.batchTensors(batch, data.Features)

		tape.Clear()
		tape.StartRecording()

		predictions := t.model.Forward(inputs)
		loss := t.criterion.Forward(predictions, targets)

		tape.StopRecording()

		t.optimizer.ZeroGrad()
		grads := autodiff.Backward(loss, t.backend)
		t.optimizer.Step(grads)

		lossValue := loss.Raw().AsFloat32()[0]
		lossSum += float64(lossValue)
		seen += batch.Size

		if t.metrics != nil {
			t.metrics.ObserveBatch(batch.Size, lossValue, t.optimizer.GetLR())
		}

		if batchIdx%t.config.LogEvery == 0 || batchIdx == len(batches)-1 {
			fmt.Printf("loss: %7f  [%5d/%5d]\n", lossValue, seen, data.Samples)
		}
	}

	tape.Clear()

	return lossSum / float64(len(batches))
}

// Evaluate runs the model over the held-out data without recording
// gradients or touching parameters, then prints the summary line:
//
//	Test Error:
//	 Accuracy: 97.1%, Avg loss: 0.093214
//
// Returns accuracy in [0, 1] and the mean batch loss. Two successive
// calls with no training in between produce identical numbers.
func (t *Trainer[B]) Evaluate(data *dataset.Dataset) (accuracy float32, avgLoss float64) {
	batches := data.Batches(t.config.BatchSize, false, 0)
	tape := t.backend.GetTape()
	tape.StopRecording()
	tape.Clear()

	var lossSum float64
	correct := 0

	for _, batch := range batches {
		inputs, targets := t.batchTensors(batch, data.Features)

		predictions := t.model.Forward(inputs)
		loss := t.criterion.Forward(predictions, targets)

		lossSum += float64(loss.Raw().AsFloat32()[0])

		batchAccuracy := nn.Accuracy(predictions, targets)
		correct += int(batchAccuracy*float32(batch.Size) + 0.5)
	}

	accuracy = float32(correct) / float32(data.Samples)
	avgLoss = lossSum / float64(len(batches))

	fmt.Printf("Test Error: \n Accuracy: %.1f%%, Avg loss: %8f \n\n", accuracy*100, avgLoss)

	if t.metrics != nil {
		t.metrics.ObserveEval(accuracy, avgLoss)
	}

	return accuracy, avgLoss
}

// Fit runs the full session: Epochs times, one training pass followed
// by one evaluation pass. Scheduler and SWA hooks fire per epoch when
// configured. Nothing is persisted; checkpointing is the caller's
// decision.
func (t *Trainer[B]) Fit(trainData, testData *dataset.Dataset) {
	t.logger.Info().
		Str("run_id", t.runID).
		Float32("lr", t.config.LR).
		Int("batch_size", t.config.BatchSize).
		Int("epochs", t.config.Epochs).
		Int("train_samples", trainData.Samples).
		Int("test_samples", testData.Samples).
		Msg("training run started")

	start := time.Now()

	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		fmt.Printf("Epoch %d\n-------------------------------\n", epoch+1)

		epochStart := time.Now()
		trainLoss := t.TrainEpoch(trainData, epoch)
		accuracy, evalLoss := t.Evaluate(testData)
		elapsed := time.Since(epochStart)

		if t.Scheduler != nil {
			t.Scheduler.Step(epoch + 1)
		}
		if t.SWA != nil && epoch >= t.SWAStart {
			t.SWA.Update()
		}
		if t.metrics != nil {
			t.metrics.ObserveEpoch(elapsed)
		}

		t.logger.Info().
			Str("run_id", t.runID).
			Int("epoch", epoch+1).
			Float64("train_loss", trainLoss).
			Float64("eval_loss", evalLoss).
			Float32("accuracy", accuracy).
			Float32("lr", t.optimizer.GetLR()).
			Dur("elapsed", elapsed).
			Msg("epoch complete")
	}

	if t.SWA != nil && t.SWA.Count() > 0 {
		if err := t.SWA.Apply(); err == nil {
			t.logger.Info().
				Str("run_id", t.runID).
				Int("snapshots", t.SWA.Count()).
				Msg("applied averaged weights")
		}
	}

	fmt.Println("Done!")

	t.logger.Info().
		Str("run_id", t.runID).
		Dur("elapsed", time.Since(start)).
		Msg("training run finished")
}

// batchTensors materializes a dataset batch as input and target
// tensors on the trainer's backend.
func (t *Trainer[B]) batchTensors(batch dataset.Batch, features int) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B]) {
	inputs, err := tensor.FromSlice(batch.Inputs, tensor.Shape{batch.Size, features}, t.backend)
	if err != nil {
		panic(fmt.Sprintf("train: failed to create input tensor: %v", err))
	}

	targets, err := tensor.FromSlice(batch.Labels, tensor.Shape{batch.Size}, t.backend)
	if err != nil {
		panic(fmt.Sprintf("train: failed to create target tensor: %v", err))
	}

	return inputs, targets
}
