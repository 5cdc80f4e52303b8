package nn

import (
	"fmt"

	"github.com/grad-ml/grad/internal/tensor"
)

// Linear is a fully connected layer computing y = x @ W.T + b.
//
// The weight is stored as [out_features, in_features] and drawn from a
// Xavier distribution; the bias is [out_features] and starts at zero.
//
//	layer := nn.NewLinear(784, 512, backend)
//	output := layer.Forward(input) // [32, 784] -> [32, 512]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewLinear creates a Linear layer with Xavier weights and zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight: NewParameter("weight",
			Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)),
		bias:    NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend)),
		backend: backend,
	}
}

// Forward maps [batch, in_features] input to [batch, out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, shape[1]))
	}

	// x @ W.T: [batch, in] @ [in, out] = [batch, out]
	out := input.MatMul(l.weight.Tensor().Transpose())

	if l.bias != nil {
		// The [1, out] view of the bias broadcasts over the batch.
		out = out.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}
	return out
}

// Parameters returns [weight, bias], or just [weight] when the layer
// has no bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias == nil {
		return []*Parameter[B]{l.weight}
	}
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input width.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output width.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }

// StateDict exposes the layer's tensors under "weight" and "bias".
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	dict := map[string]*tensor.RawTensor{
		"weight": l.weight.Tensor().Raw(),
	}
	if l.bias != nil {
		dict["bias"] = l.bias.Tensor().Raw()
	}
	return dict
}

// restoreParam copies a stored tensor into dst after checking that it
// exists and matches the expected shape and dtype.
func restoreParam(dst []float32, dict map[string]*tensor.RawTensor, name string, want tensor.Shape) error {
	raw, ok := dict[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(want) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, want, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst, raw.AsFloat32())
	return nil
}

// LoadStateDict replaces the layer's weights with stored values.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	want := tensor.Shape{l.outFeatures, l.inFeatures}
	if err := restoreParam(l.weight.Tensor().Data(), stateDict, "weight", want); err != nil {
		return err
	}
	if l.bias != nil {
		return restoreParam(l.bias.Tensor().Data(), stateDict, "bias", tensor.Shape{l.outFeatures})
	}
	return nil
}
