package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var zero T
	raw, err := NewRaw(shape, inferDataType(zero), b.Device())
	if err != nil {
		panic(err)
	}
	// A fresh allocation is already zeroed.
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full(shape, T(1), b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// requireFloat panics unless T is float32 or float64.
func requireFloat[T DType](op string) {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
	default:
		panic(op + " only supports float32 and float64 types")
	}
}

// Randn creates a tensor of standard normal samples via the Box-Muller
// transform. Float types only. math/rand is fine here: this seeds
// weights, it does not produce secrets.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	requireFloat[T]("Randn")

	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := 0; i < len(data); i += 2 {
		u1 := rand.Float64() //nolint:gosec // G404: statistical use
		u2 := rand.Float64() //nolint:gosec // G404: statistical use
		r := math.Sqrt(-2 * math.Log(u1))
		data[i] = T(r * math.Cos(2*math.Pi*u2))
		if i+1 < len(data) {
			data[i+1] = T(r * math.Sin(2*math.Pi*u2))
		}
	}
	return t
}

// Rand creates a tensor of uniform samples in [0, 1). Float types only.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	requireFloat[T]("Rand")

	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = T(rand.Float64()) //nolint:gosec // G404: statistical use
	}
	return t
}

// spanLength returns the number of consecutive values in [start, end).
func spanLength[T DType](start, end T) int {
	// uint8 subtraction would wrap on an inverted range, so widen first.
	if s, ok := any(start).(uint8); ok {
		return int(any(end).(uint8)) - int(s)
	}
	return int(end - start)
}

// Arange creates a 1-D tensor with consecutive values in [start, end).
//
//	Arange[int32](0, 10, backend) // [0, 1, ..., 9]
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := spanLength(start, end)
	if n <= 0 {
		panic("Arange: end must be greater than start")
	}

	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = start + T(i)
	}
	return t
}

// Eye creates an n×n identity matrix.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	for i := 0; i < n; i++ {
		t.Set(T(1), i, i)
	}
	return t
}
