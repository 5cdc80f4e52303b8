package tensor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Device identifies where a tensor's memory lives and where its
// operations execute. Only a CPU backend ships today; the type keeps
// the Backend interface device-agnostic.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// sharedBuffer reference-counts a byte buffer for copy-on-write:
// clones share it, and backends may mutate in place only while the
// count is 1.
type sharedBuffer struct {
	data []byte
	refs atomic.Int32
	mu   sync.Mutex // guards deallocation
}

func newSharedBuffer(size int) *sharedBuffer {
	buf := &sharedBuffer{data: make([]byte, size)}
	buf.refs.Store(1)
	return buf
}

func (b *sharedBuffer) retain() { b.refs.Add(1) }

func (b *sharedBuffer) release() {
	if b.refs.Add(-1) == 0 {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.data = nil
	}
}

func (b *sharedBuffer) unique() bool { return b.refs.Load() == 1 }

// RawTensor is the type-erased tensor the backends operate on: a
// reference-counted byte buffer plus shape, strides and a runtime
// dtype tag. The generic Tensor wraps it.
type RawTensor struct {
	buffer *sharedBuffer
	shape  Shape
	stride []int // row-major
	dtype  DataType
	device Device
	offset int // byte offset for views
}

// NewRaw allocates a zero-initialized RawTensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		buffer: newSharedBuffer(shape.NumElements() * dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the row-major strides, in elements.
func (r *RawTensor) Strides() []int { return r.stride }

// DType returns the runtime element type tag.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device reports where the buffer lives.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the element count over all dimensions.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the buffer size in bytes.
func (r *RawTensor) ByteSize() int { return r.NumElements() * r.dtype.Size() }

// Data returns the byte slice backing the tensor. Mutations through
// the slice are visible to every clone.
func (r *RawTensor) Data() []byte { return r.buffer.data[r.offset:] }

// typedView reinterprets the buffer as a slice of T after checking the
// dtype tag.
func typedView[T any](r *RawTensor, want DataType) []T {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
	data := r.buffer.data[r.offset:]
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat32 views the data as []float32, panicking on dtype mismatch.
func (r *RawTensor) AsFloat32() []float32 { return typedView[float32](r, Float32) }

// AsFloat64 views the data as []float64, panicking on dtype mismatch.
func (r *RawTensor) AsFloat64() []float64 { return typedView[float64](r, Float64) }

// AsInt32 views the data as []int32, panicking on dtype mismatch.
func (r *RawTensor) AsInt32() []int32 { return typedView[int32](r, Int32) }

// AsInt64 views the data as []int64, panicking on dtype mismatch.
func (r *RawTensor) AsInt64() []int64 { return typedView[int64](r, Int64) }

// AsUint8 views the data as []uint8, panicking on dtype mismatch.
func (r *RawTensor) AsUint8() []uint8 { return typedView[uint8](r, Uint8) }

// Clone creates a shallow copy sharing the underlying buffer. Only the
// reference count is bumped; data is copied lazily the first time
// either side is mutated through a backend.
func (r *RawTensor) Clone() *RawTensor {
	r.buffer.retain()
	return &RawTensor{
		buffer: r.buffer,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Release decrements the reference count, freeing the buffer on zero.
func (r *RawTensor) Release() { r.buffer.release() }

// IsUnique reports whether this tensor is the only reference to its
// buffer. When true, backends may mutate in place.
func (r *RawTensor) IsUnique() bool { return r.buffer.unique() }

// ForceNonUnique pins the buffer as shared so no backend will mutate
// it in place, and returns the function that undoes the pin (usually
// deferred). The autodiff backend pins operation inputs this way
// because the tape needs their original values for backward.
func (r *RawTensor) ForceNonUnique() func() {
	r.buffer.retain()
	return r.buffer.release
}
