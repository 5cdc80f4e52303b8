// Package tensor provides the core tensor types and operations for the grad library.
package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a deliberately naive backend used by tests. Every
// operation routes through float64 with fresh allocations, which keeps
// it slow, obvious and a convenient correctness reference for real
// backends.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend { return &MockBackend{} }

// Name returns the backend name.
func (m *MockBackend) Name() string { return "mock" }

// Device returns the device type.
func (m *MockBackend) Device() Device { return CPU }

// mockAlloc wraps NewRaw for internal call sites where an allocation
// failure is unrecoverable.
func mockAlloc(shape Shape, dtype DataType) *RawTensor {
	result, err := NewRaw(shape, dtype, CPU)
	if err != nil {
		panic(err)
	}
	return result
}

func addF64(x, y float64) float64 { return x + y }
func subF64(x, y float64) float64 { return x - y }
func mulF64(x, y float64) float64 { return x * y }
func divF64(x, y float64) float64 { return x / y }

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor { return m.elementWise(a, b, addF64) }

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor { return m.elementWise(a, b, subF64) }

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor { return m.elementWise(a, b, mulF64) }

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor { return m.elementWise(a, b, divF64) }

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	aData, bData := asF64(a), asF64(b)
	out := make([]float64, outShape.NumElements())
	for i := range out {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		out[i] = op(aData[aIdx], bData[bIdx])
	}
	return storeF64(mockAlloc(outShape, a.DType()), out)
}

// MatMul performs 2-D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}
	rows, k, cols := aShape[0], aShape[1], bShape[1]

	aData, bData := asF64(a), asF64(b)
	out := make([]float64, rows*cols)
	for i := range rows {
		for j := range cols {
			sum := 0.0
			for p := range k {
				sum += aData[i*k+p] * bData[p*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	return storeF64(mockAlloc(Shape{rows, cols}, a.DType()), out)
}

// Reshape changes the tensor shape, copying the data.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v (%d elements)",
			t.NumElements(), newShape, newShape.NumElements()))
	}

	result := mockAlloc(newShape, t.DType())
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes tensor dimensions.
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		for i := ndim - 1; i >= 0; i-- {
			axes = append(axes, i)
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), ndim))
	}

	newShape := make(Shape, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim {
			panic(fmt.Sprintf("axis %d out of bounds for tensor with %d dimensions", axis, ndim))
		}
		newShape[i] = shape[axis]
	}

	tData := asF64(t)
	out := make([]float64, t.NumElements())
	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	coords := make([]int, ndim)
	for i, v := range tData {
		unravel(i, oldStrides, coords)
		dst := 0
		for j, axis := range axes {
			dst += coords[axis] * newStrides[j]
		}
		out[dst] = v
	}
	return storeF64(mockAlloc(newShape, t.DType()), out)
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v - s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := scalarToFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v / s })
}

// Exp computes e^x element-wise.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor { return m.unary(x, math.Exp) }

// Log computes the natural logarithm element-wise.
func (m *MockBackend) Log(x *RawTensor) *RawTensor { return m.unary(x, math.Log) }

// Sqrt computes the square root element-wise.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor { return m.unary(x, math.Sqrt) }

func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	data := asF64(x)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = op(v)
	}
	return storeF64(mockAlloc(x.Shape(), x.DType()), out)
}

// Softmax normalizes along dim with the usual max-shift for stability.
func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	data := asF64(x)
	out := make([]float64, len(data))

	outer, dimSize, inner := sliceDims(shape, dim)
	for o := range outer {
		for in := range inner {
			at := func(d int) int { return (o*dimSize+d)*inner + in }

			maxVal := math.Inf(-1)
			for d := range dimSize {
				maxVal = math.Max(maxVal, data[at(d)])
			}
			sum := 0.0
			for d := range dimSize {
				e := math.Exp(data[at(d)] - maxVal)
				out[at(d)] = e
				sum += e
			}
			for d := range dimSize {
				out[at(d)] /= sum
			}
		}
	}
	return storeF64(mockAlloc(shape, x.DType()), out)
}

// Sum reduces all elements to a scalar tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	sum := 0.0
	for _, v := range asF64(x) {
		sum += v
	}
	return storeF64(mockAlloc(Shape{}, x.DType()), []float64{sum})
}

// SumDim sums along a dimension.
func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	return m.reduceDim(x, dim, keepDim, true)
}

func (m *MockBackend) reduceDim(x *RawTensor, dim int, keepDim, mean bool) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	data := asF64(x)
	outer, dimSize, inner := sliceDims(shape, dim)
	out := make([]float64, outer*inner)

	for o := range outer {
		for in := range inner {
			sum := 0.0
			for d := range dimSize {
				sum += data[(o*dimSize+d)*inner+in]
			}
			if mean {
				sum /= float64(dimSize)
			}
			out[o*inner+in] = sum
		}
	}
	return storeF64(mockAlloc(reducedShape(shape, dim, keepDim), x.DType()), out)
}

// Argmax returns int32 indices of the maximum along dim.
func (m *MockBackend) Argmax(x *RawTensor, dim int) *RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))

	result := mockAlloc(reducedShape(shape, dim, false), Int32)
	data := asF64(x)
	outer, dimSize, inner := sliceDims(shape, dim)
	out := result.AsInt32()

	for o := range outer {
		for in := range inner {
			best, bestIdx := math.Inf(-1), 0
			for d := range dimSize {
				if v := data[(o*dimSize+d)*inner+in]; v > best {
					best, bestIdx = v, d
				}
			}
			out[o*inner+in] = int32(bestIdx) //nolint:gosec // G115: dim index fits int32
		}
	}

	return result
}

// widen copies a typed slice into a fresh float64 slice.
func widen[T DType](src []T) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

// narrow copies float64 values into a typed destination, truncating as
// the element type requires.
func narrow[T DType](dst []T, src []float64) {
	for i, v := range src {
		dst[i] = T(v)
	}
}

// asF64 reads any supported tensor as a float64 slice.
func asF64(t *RawTensor) []float64 {
	switch t.DType() {
	case Float32:
		return widen(t.AsFloat32())
	case Float64:
		return t.AsFloat64()
	case Int32:
		return widen(t.AsInt32())
	case Int64:
		return widen(t.AsInt64())
	case Uint8:
		return widen(t.AsUint8())
	default:
		panic(fmt.Sprintf("unsupported dtype: %s", t.DType()))
	}
}

// storeF64 writes src into t's buffer, converting to t's element type,
// and returns t for use as an expression.
func storeF64(t *RawTensor, src []float64) *RawTensor {
	switch t.DType() {
	case Float32:
		narrow(t.AsFloat32(), src)
	case Float64:
		copy(t.AsFloat64(), src)
	case Int32:
		narrow(t.AsInt32(), src)
	case Int64:
		narrow(t.AsInt64(), src)
	case Uint8:
		narrow(t.AsUint8(), src)
	}
	return t
}

// unravel decomposes a flat index into per-dimension coordinates.
func unravel(flat int, strides []int, coords []int) {
	for i, s := range strides {
		coords[i] = flat / s
		flat %= s
	}
}

// broadcastIndex maps a flat index into outShape back to the flat
// index of the (possibly size-1 stretched) input that supplies it.
func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	coords := make([]int, len(outShape))
	unravel(flatIdx, outShape.ComputeStrides(), coords)

	inStrides := inShape.ComputeStrides()
	offset := len(outShape) - len(inShape)

	inIdx := 0
	for i, size := range inShape {
		if size > 1 {
			inIdx += coords[offset+i] * inStrides[i]
		}
	}
	return inIdx
}

func scalarToFloat64(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	case uint8:
		return float64(s)
	case int:
		return float64(s)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}

// normalizeDim resolves negative dimension indices and bounds-checks.
func normalizeDim(dim, rank int) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("dimension %d out of range for rank %d", dim, rank))
	}
	return dim
}

// sliceDims splits a shape into (outer, dim, inner) products around dim.
func sliceDims(shape Shape, dim int) (outer, dimSize, inner int) {
	outer, dimSize, inner = 1, shape[dim], 1
	for _, d := range shape[:dim] {
		outer *= d
	}
	for _, d := range shape[dim+1:] {
		inner *= d
	}
	return outer, dimSize, inner
}

// reducedShape removes or keeps (as 1) the reduced dimension.
func reducedShape(shape Shape, dim int, keepDim bool) Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
