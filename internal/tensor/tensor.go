package tensor

import "fmt"

// Tensor pairs a RawTensor with the backend B that computes on it and
// the gradient bookkeeping autodiff needs. T fixes the element type at
// compile time.
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
//	sum := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw          *RawTensor
	backend      B
	grad         *Tensor[T, B]
	requiresGrad bool
}

// New wraps raw for computation on b.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor by copying a Go slice.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's dimensions.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the element type tag.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device reports where the data lives.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the element count.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying RawTensor. Backends and the autodiff
// tape key their bookkeeping on it.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Grad returns the gradient populated by a backward pass, or nil when
// none has been computed or it was cleared.
func (t *Tensor[T, B]) Grad() *Tensor[T, B] { return t.grad }

// SetGrad installs grad as this tensor's gradient buffer.
func (t *Tensor[T, B]) SetGrad(grad *Tensor[T, B]) { t.grad = grad }

// Detach returns a tensor sharing the same data without gradient
// tracking. Operations on the detached tensor are invisible to the
// autodiff tape, which freezes that part of the computation.
func (t *Tensor[T, B]) Detach() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw, backend: t.backend}
}

// Data returns a typed zero-copy view of the tensor's memory. Writes
// through the slice modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	var view any
	switch t.raw.DType() {
	case Float32:
		view = t.raw.AsFloat32()
	case Float64:
		view = t.raw.AsFloat64()
	case Int32:
		view = t.raw.AsInt32()
	case Int64:
		view = t.raw.AsInt64()
	case Uint8:
		view = t.raw.AsUint8()
	default:
		panic("unsupported type")
	}
	return view.([]T)
}

// Item returns the value of a single-element tensor, panicking for any
// other shape.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At reads the element at the given coordinates.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes value at the given coordinates.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

// flatIndex maps multi-dimensional indices onto the flat buffer,
// panicking on rank mismatch or out-of-bounds coordinates.
func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}

	strides := t.raw.Strides()
	offset := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// String returns a short description of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v on %s", t.raw.DType(), t.raw.Shape(), t.raw.Device())
}

// Clone creates a copy-on-write copy of the tensor. Gradient state is
// not cloned.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return &Tensor[T, B]{raw: t.raw.Clone(), backend: t.backend}
}

// RequireGrad marks this tensor for gradient computation, so
// subsequent operations through an autodiff backend land on the tape.
// Returns the tensor for chaining.
func (t *Tensor[T, B]) RequireGrad() *Tensor[T, B] {
	t.requiresGrad = true
	return t
}

// RequiresGrad reports whether the tensor participates in autodiff.
func (t *Tensor[T, B]) RequiresGrad() bool { return t.requiresGrad }
