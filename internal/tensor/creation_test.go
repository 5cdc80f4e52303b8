package tensor

import (
	"math"
	"testing"
)

func requireShape(t *testing.T, got, want Shape) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("shape = %v, want %v", got, want)
	}
}

// allEqual fails unless every element of the tensor's data holds value.
func allEqual[T DType, B Backend](t *testing.T, tn *Tensor[T, B], value T) {
	t.Helper()
	for i, v := range tn.Data() {
		if v != value {
			t.Fatalf("element %d = %v, want %v", i, v, value)
		}
	}
}

func TestRandn_Moments(t *testing.T) {
	backend := NewMockBackend()

	sample := Randn[float32](Shape{100, 50}, backend)
	requireShape(t, sample.Shape(), Shape{100, 50})

	data := sample.Data()
	zeros := 0
	var sum float64
	for _, v := range data {
		if v == 0 {
			zeros++
		}
		sum += float64(v)
	}
	if zeros > len(data)/2 {
		t.Fatalf("%d of %d draws are exactly zero", zeros, len(data))
	}

	mean := sum / float64(len(data))
	var sumSq float64
	for _, v := range data {
		d := float64(v) - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(data)))

	// With 5000 draws these hold with overwhelming probability.
	if math.Abs(mean) > 0.2 {
		t.Logf("sample mean %v is far from 0 (possible but unlikely)", mean)
	}
	if math.Abs(std-1) > 0.3 {
		t.Logf("sample std %v is far from 1 (possible but unlikely)", std)
	}

	if s64 := Randn[float64](Shape{50, 40}, backend); len(s64.Data()) != 2000 {
		t.Errorf("float64 sample has %d elements", len(s64.Data()))
	}
}

func TestRand_UnitInterval(t *testing.T) {
	backend := NewMockBackend()

	check := func(data []float32) {
		t.Helper()
		for i, v := range data {
			if v < 0 || v >= 1 {
				t.Fatalf("draw %d = %v falls outside [0, 1)", i, v)
			}
		}
		distinct := false
		for _, v := range data[1:] {
			if v != data[0] {
				distinct = true
				break
			}
		}
		if !distinct {
			t.Fatal("every draw is identical")
		}
	}

	sample := Rand[float32](Shape{100, 50}, backend)
	requireShape(t, sample.Shape(), Shape{100, 50})
	check(sample.Data())

	d64 := Rand[float64](Shape{50, 40}, backend)
	for i, v := range d64.Data() {
		if v < 0 || v >= 1 {
			t.Fatalf("float64 draw %d = %v falls outside [0, 1)", i, v)
		}
	}
}

func TestArange_Ranges(t *testing.T) {
	backend := NewMockBackend()

	f := Arange[float32](0, 5, backend)
	requireShape(t, f.Shape(), Shape{5})
	for i, want := range []float32{0, 1, 2, 3, 4} {
		if f.Data()[i] != want {
			t.Errorf("float32 element %d = %v, want %v", i, f.Data()[i], want)
		}
	}

	// A nonzero start shifts the whole sequence.
	n := Arange[int64](5, 10, backend)
	requireShape(t, n.Shape(), Shape{5})
	for i, want := range []int64{5, 6, 7, 8, 9} {
		if n.Data()[i] != want {
			t.Errorf("int64 element %d = %v, want %v", i, n.Data()[i], want)
		}
	}
}

func TestEye_DiagonalOnly(t *testing.T) {
	backend := NewMockBackend()

	id := Eye[float32](4, backend)
	requireShape(t, id.Shape(), Shape{4, 4})
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := float32(0)
			if i == j {
				want = 1
			}
			if id.At(i, j) != want {
				t.Errorf("entry (%d,%d) = %v, want %v", i, j, id.At(i, j), want)
			}
		}
	}

	small := Eye[int32](3, backend)
	requireShape(t, small.Shape(), Shape{3, 3})
	for i := 0; i < 3; i++ {
		if small.At(i, i) != 1 {
			t.Errorf("int32 diagonal entry %d = %v", i, small.At(i, i))
		}
	}
}

func TestConstantFills(t *testing.T) {
	backend := NewMockBackend()

	z := Zeros[int64](Shape{2, 3}, backend)
	requireShape(t, z.Shape(), Shape{2, 3})
	allEqual(t, z, int64(0))

	o := Ones[float64](Shape{3, 2}, backend)
	requireShape(t, o.Shape(), Shape{3, 2})
	allEqual(t, o, float64(1))

	// uint8 ones exercise the narrowest dtype.
	allEqual(t, Ones[uint8](Shape{2, 2}, backend), uint8(1))

	f := Full(Shape{3, 3}, int64(42), backend)
	requireShape(t, f.Shape(), Shape{3, 3})
	allEqual(t, f, int64(42))
}
