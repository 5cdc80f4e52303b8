package nn

import (
	"fmt"
	"math"

	"github.com/grad-ml/grad/internal/tensor"
)

// CrossEntropyLoss scores multi-class classifiers on raw logits:
//
//	Loss = -LogSoftmax(logits)[target]
//
// averaged over the batch. Working in log space with the max-shift
// keeps the result finite even when a logit exceeds the float32 exp
// range.
//
//	criterion := nn.NewCrossEntropyLoss[Backend](backend)
//	logits := model.Forward(input)             // [batch_size, num_classes]
//	loss := criterion.Forward(logits, targets) // targets: [batch_size] class indices
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// batchLayout validates a [batch, classes] logits tensor against its
// [batch] targets and returns the two sizes.
func batchLayout(logits tensor.Shape, targets int) (batch, classes int) {
	if len(logits) != 2 {
		panic("CrossEntropyLoss: logits must be 2D [batch_size, num_classes]")
	}
	if targets != logits[0] {
		panic("CrossEntropyLoss: targets must have shape [batch_size]")
	}
	return logits[0], logits[1]
}

// Forward computes the mean cross-entropy loss over the batch.
//
// Backends that implement the fused CrossEntropy op (the autodiff
// backend does) get it recorded on the tape, so gradients reach the
// logits. Other backends fall back to a direct computation.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	type fusedCrossEntropy interface {
		CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
	}
	if fused, ok := any(c.backend).(fusedCrossEntropy); ok {
		return tensor.New[float32, B](fused.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
	}

	zs := logits.Raw().AsFloat32()
	labels := targets.Raw().AsInt32()
	batch, classes := batchLayout(logits.Shape(), len(labels))

	var total float32
	for b := range batch {
		row := zs[b*classes : (b+1)*classes]
		label := int(labels[b])
		if label < 0 || label >= classes {
			panic("CrossEntropyLoss: target index out of bounds")
		}
		total -= logSoftmax(row)[label]
	}

	out, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("cross entropy: %v", err))
	}
	out.AsFloat32()[0] = total / float32(batch)
	return tensor.New[float32, B](out, c.backend)
}

// Parameters returns nil (loss functions have no trainable parameters).
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] { return nil }

// logSoftmax computes log(softmax(z)). Subtracting max(z) before
// exponentiating keeps every exp argument at or below zero.
func logSoftmax(z []float32) []float32 {
	peak := z[0]
	for _, v := range z[1:] {
		if v > peak {
			peak = v
		}
	}

	var sumExp float64
	for _, v := range z {
		sumExp += math.Exp(float64(v - peak))
	}
	logSumExp := peak + float32(math.Log(sumExp))

	out := make([]float32, len(z))
	for i, v := range z {
		out[i] = v - logSumExp
	}
	return out
}

// softmax exponentiates the stable log probabilities.
func softmax(z []float32) []float32 {
	out := logSoftmax(z)
	for i, lp := range out {
		out[i] = float32(math.Exp(float64(lp)))
	}
	return out
}

// CrossEntropyBackward returns the batch-averaged gradient of the loss
// with respect to the logits, softmax(row) minus the one-hot target:
//
//	∂L/∂logits[i] = probs[i] - [i == target]
//
// Tests and non-autodiff backends call this directly; the fused tape
// operation produces the same gradient during backward.
func CrossEntropyBackward[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	backend B,
) *tensor.Tensor[float32, B] {
	zs := logits.Raw().AsFloat32()
	labels := targets.Raw().AsInt32()
	batch, classes := batchLayout(logits.Shape(), len(labels))

	out, err := tensor.NewRaw(logits.Shape(), tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("cross entropy backward: %v", err))
	}
	grad := out.AsFloat32()

	scale := 1 / float32(batch)
	for b := range batch {
		probs := softmax(zs[b*classes : (b+1)*classes])
		label := int(labels[b])
		for i, p := range probs {
			if i == label {
				p--
			}
			grad[b*classes+i] = p * scale
		}
	}

	return tensor.New[float32, B](out, backend)
}

// argmax returns the position of the largest element.
func argmax(z []float32) int {
	best := 0
	for i, v := range z[1:] {
		if v > z[best] {
			best = i + 1
		}
	}
	return best
}

// Accuracy returns the fraction of rows whose argmax matches the
// target label, in [0, 1].
func Accuracy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) float32 {
	zs := logits.Raw().AsFloat32()
	labels := targets.Raw().AsInt32()
	batch, classes := batchLayout(logits.Shape(), len(labels))

	hits := 0
	for b := range batch {
		if argmax(zs[b*classes:(b+1)*classes]) == int(labels[b]) {
			hits++
		}
	}
	return float32(hits) / float32(batch)
}
