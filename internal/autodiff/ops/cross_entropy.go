package ops

import (
	"fmt"
	"math"

	"github.com/grad-ml/grad/internal/tensor"
)

// floating constrains the row helpers to floating-point element types.
type floating interface {
	~float32 | ~float64
}

// CrossEntropyOp represents the fused softmax + negative log-likelihood
// classification loss.
//
// Forward:
//
//	loss = mean_b(-log_softmax(logits[b])[targets[b]])
//
// with log_softmax computed through the log-sum-exp trick so large
// logits cannot overflow.
//
// Backward:
//
//	∂loss/∂logits[b,i] = (softmax(logits[b])[i] - onehot(targets[b])[i]) / batch
//
// The one-line gradient is why the two operations are fused instead of
// being recorded as separate softmax and log nodes.
//
// Shapes: logits [batch, classes], targets [batch] int32 class indices,
// output a single-element tensor. Targets are constants: no gradient
// flows to them, so Inputs() excludes the target tensor.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets *tensor.RawTensor
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns the differentiable inputs [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

// Output returns the scalar loss tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// Backward computes (softmax - onehot) / batch, scaled by the upstream
// gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: backward expects 2D logits, got %v", shape))
	}
	batch, classes := shape[0], shape[1]
	targets := op.targets.AsInt32()

	gradLogits, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: failed to create gradient tensor: %v", err))
	}

	switch op.logits.DType() {
	case tensor.Float32:
		scale := outputGrad.AsFloat32()[0] / float32(batch)
		lossGrad(gradLogits.AsFloat32(), op.logits.AsFloat32(), targets, classes, scale)
	case tensor.Float64:
		scale := outputGrad.AsFloat64()[0] / float64(batch)
		lossGrad(gradLogits.AsFloat64(), op.logits.AsFloat64(), targets, classes, scale)
	default:
		panic(fmt.Sprintf("cross_entropy: unsupported dtype %s", op.logits.DType()))
	}

	return []*tensor.RawTensor{gradLogits}
}

// CrossEntropyForward computes the fused loss outside any tape. The
// autodiff decorator calls this for the forward value and records a
// CrossEntropyOp alongside when the tape is live.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross_entropy: logits must be 2D [batch, classes], got %v", shape))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("cross_entropy: targets must be [batch=%d], got %v", shape[0], targets.Shape()))
	}
	classes := shape[1]
	targetData := targets.AsInt32()

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("cross_entropy: failed to create loss tensor: %v", err))
	}

	switch logits.DType() {
	case tensor.Float32:
		output.AsFloat32()[0] = meanNLL(logits.AsFloat32(), targetData, classes)
	case tensor.Float64:
		output.AsFloat64()[0] = meanNLL(logits.AsFloat64(), targetData, classes)
	default:
		panic(fmt.Sprintf("cross_entropy: unsupported dtype %s", logits.DType()))
	}

	return output
}

// meanNLL averages -log_softmax(row)[target] over the batch.
func meanNLL[T floating](data []T, targets []int32, classes int) T {
	var total T
	for b, target := range targets {
		row := data[b*classes : (b+1)*classes]
		if target < 0 || int(target) >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0, %d)", target, classes))
		}
		total -= logSoftmaxAt(row, int(target))
	}
	return total / T(len(targets))
}

// lossGrad fills grad with scale * (softmax(row) - onehot(target)) per
// sample.
func lossGrad[T floating](grad, logits []T, targets []int32, classes int, scale T) {
	for b, target := range targets {
		row := logits[b*classes : (b+1)*classes]
		probs := softmaxRow(row)
		probs[target]--
		for i, p := range probs {
			grad[b*classes+i] = scale * p
		}
	}
}

// rowMax returns the largest value in row.
func rowMax[T floating](row []T) T {
	m := row[0]
	for _, v := range row[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// softmaxRow computes numerically stable softmax for one sample.
func softmaxRow[T floating](logits []T) []T {
	probs := make([]T, len(logits))
	maxVal := rowMax(logits)

	var sum T
	for i, v := range logits {
		probs[i] = T(math.Exp(float64(v - maxVal)))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// logSoftmaxAt returns log_softmax(logits)[target] using the
// log-sum-exp trick.
func logSoftmaxAt[T floating](logits []T, target int) T {
	maxVal := rowMax(logits)

	var sumExp float64
	for _, v := range logits {
		sumExp += math.Exp(float64(v - maxVal))
	}
	logSumExp := float64(maxVal) + math.Log(sumExp)

	return logits[target] - T(logSumExp)
}
