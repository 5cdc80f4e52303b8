package cpu

import (
	"testing"

	"github.com/grad-ml/grad/internal/tensor"
)

func TestSumDim_Shapes(t *testing.T) {
	backend := New()

	cases := []struct {
		name    string
		in      tensor.Shape
		dim     int
		keepDim bool
		out     tensor.Shape
	}{
		{"1d keep", tensor.Shape{4}, 0, true, tensor.Shape{1}},
		{"1d drop to scalar", tensor.Shape{4}, 0, false, tensor.Shape{}},
		{"2d last keep", tensor.Shape{2, 3}, -1, true, tensor.Shape{2, 1}},
		{"2d first keep", tensor.Shape{2, 3}, 0, true, tensor.Shape{1, 3}},
		{"3d last keep", tensor.Shape{2, 3, 4}, -1, true, tensor.Shape{2, 3, 1}},
		{"3d middle drop", tensor.Shape{2, 3, 4}, 1, false, tensor.Shape{2, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, _ := tensor.NewRaw(tc.in, tensor.Float32, backend.Device())
			got := backend.SumDim(x, tc.dim, tc.keepDim).Shape()
			if !got.Equal(tc.out) {
				t.Errorf("shape %v, want %v", got, tc.out)
			}
		})
	}
}

func TestSumDim_Values(t *testing.T) {
	backend := New()
	m := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

	checkF32(t, "row sums", backend.SumDim(m, -1, true).AsFloat32(), []float32{6, 15})
	checkF32(t, "row sums dropped", backend.SumDim(m, 1, false).AsFloat32(), []float32{6, 15})
	checkF32(t, "column sums", backend.SumDim(m, 0, true).AsFloat32(), []float32{5, 7, 9})
	checkF32(t, "column sums dropped", backend.SumDim(m, 0, false).AsFloat32(), []float32{5, 7, 9})

	one := rawF32(t, tensor.Shape{4}, 1, 2, 3, 4)
	checkF32(t, "1d total", backend.SumDim(one, 0, false).AsFloat32(), []float32{10})
}

func TestSumDim_3DValues(t *testing.T) {
	backend := New()

	// Counting 1..24 over (2,3,4); reducing the middle axis adds three
	// rows of four per block.
	vals := make([]float32, 24)
	for i := range vals {
		vals[i] = float32(i + 1)
	}
	cube := rawF32(t, tensor.Shape{2, 3, 4}, vals...)

	got := backend.SumDim(cube, 1, false)
	if !got.Shape().Equal(tensor.Shape{2, 4}) {
		t.Fatalf("shape %v", got.Shape())
	}
	checkF32(t, "middle axis", got.AsFloat32(), []float32{
		1 + 5 + 9, 2 + 6 + 10, 3 + 7 + 11, 4 + 8 + 12,
		13 + 17 + 21, 14 + 18 + 22, 15 + 19 + 23, 16 + 20 + 24,
	})
}

func TestSumDim_NegativeDimAliases(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2, 3, 4}, tensor.Float32, backend.Device())

	if !backend.SumDim(x, -1, true).Shape().Equal(backend.SumDim(x, 2, true).Shape()) {
		t.Error("dim -1 and dim 2 disagree")
	}
	if !backend.SumDim(x, -2, false).Shape().Equal(backend.SumDim(x, 1, false).Shape()) {
		t.Error("dim -2 and dim 1 disagree")
	}
}

func TestSumDim_Float64(t *testing.T) {
	backend := New()
	m := rawOf(t, tensor.Shape{2, 3}, tensor.Float64,
		(*tensor.RawTensor).AsFloat64, []float64{1, 2, 3, 4, 5, 6})

	got := backend.SumDim(m, -1, true)
	if !got.Shape().Equal(tensor.Shape{2, 1}) {
		t.Fatalf("shape %v", got.Shape())
	}
	if d := got.AsFloat64(); d[0] != 6 || d[1] != 15 {
		t.Errorf("row sums %v", d)
	}
}

func TestSumDim_InvalidDimPanics(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, backend.Device())

	defer func() {
		if recover() == nil {
			t.Error("out-of-range dim did not panic")
		}
	}()
	backend.SumDim(x, 2, false)
}

func TestMeanDim(t *testing.T) {
	backend := New()
	m := rawF32(t, tensor.Shape{2, 4}, 1, 2, 3, 4, 5, 6, 7, 8)

	checkF32(t, "row means", backend.MeanDim(m, -1, true).AsFloat32(), []float32{2.5, 6.5})
	checkF32(t, "column means", backend.MeanDim(m, 0, false).AsFloat32(), []float32{3, 4, 5, 6})
}

func TestMeanDim_LossAveraging(t *testing.T) {
	backend := New()

	// Per-sample losses reduced to a batch mean, the pattern the loss
	// functions use. Rank-1 input with keepDim=false yields a scalar.
	losses := rawF32(t, tensor.Shape{4}, 0.5, 1.5, 2.0, 4.0)

	mean := backend.MeanDim(losses, 0, false)
	if len(mean.Shape()) != 0 {
		t.Fatalf("shape %v, want scalar", mean.Shape())
	}
	if mean.AsFloat32()[0] != 2 {
		t.Errorf("mean = %v, want 2", mean.AsFloat32()[0])
	}
}

func TestMeanDim_Float64(t *testing.T) {
	backend := New()
	m := rawOf(t, tensor.Shape{2, 4}, tensor.Float64,
		(*tensor.RawTensor).AsFloat64, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	got := backend.MeanDim(m, -1, true).AsFloat64()
	if got[0] != 2.5 || got[1] != 6.5 {
		t.Errorf("row means %v", got)
	}
}

func TestSumTotal(t *testing.T) {
	backend := New()

	t.Run("float32", func(t *testing.T) {
		x := rawF32(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
		got := backend.Sum(x)
		if len(got.Shape()) != 0 {
			t.Fatalf("shape %v, want scalar", got.Shape())
		}
		if got.AsFloat32()[0] != 21 {
			t.Errorf("total %v, want 21", got.AsFloat32()[0])
		}
	})
	t.Run("int32", func(t *testing.T) {
		x := rawOf(t, tensor.Shape{4}, tensor.Int32,
			(*tensor.RawTensor).AsInt32, []int32{10, 20, 30, 40})
		got := backend.Sum(x)
		if got.DType() != tensor.Int32 || got.AsInt32()[0] != 100 {
			t.Errorf("total %v (%v), want 100 (int32)", got.AsInt32()[0], got.DType())
		}
	})
	t.Run("int64", func(t *testing.T) {
		x := rawOf(t, tensor.Shape{3}, tensor.Int64,
			(*tensor.RawTensor).AsInt64, []int64{-5, 10, 100})
		if got := backend.Sum(x).AsInt64()[0]; got != 105 {
			t.Errorf("total %v, want 105", got)
		}
	})
}

func TestArgmax(t *testing.T) {
	backend := New()
	m := rawF32(t, tensor.Shape{2, 3}, 1, 5, 3, 9, 2, 7)

	perRow := backend.Argmax(m, 1)
	if !perRow.Shape().Equal(tensor.Shape{2}) || perRow.DType() != tensor.Int32 {
		t.Fatalf("per-row result %v (%v)", perRow.Shape(), perRow.DType())
	}
	if d := perRow.AsInt32(); d[0] != 1 || d[1] != 0 {
		t.Errorf("per-row indices %v, want [1 0]", d)
	}

	perCol := backend.Argmax(m, 0)
	if !perCol.Shape().Equal(tensor.Shape{3}) {
		t.Fatalf("per-column shape %v", perCol.Shape())
	}
	for i, want := range []int32{1, 0, 1} {
		if perCol.AsInt32()[i] != want {
			t.Errorf("column %d index %v, want %v", i, perCol.AsInt32()[i], want)
		}
	}

	neg := backend.Argmax(m, -1).AsInt32()
	for i, v := range perRow.AsInt32() {
		if neg[i] != v {
			t.Errorf("dim -1 diverges from dim 1 at %d", i)
		}
	}
}

func TestArgmax_FirstMaxWins(t *testing.T) {
	backend := New()

	// Ties resolve to the lowest index.
	x := rawF32(t, tensor.Shape{4}, 3, 1, 3, 2)
	got := backend.Argmax(x, 0)
	if len(got.Shape()) != 0 {
		t.Fatalf("shape %v, want scalar", got.Shape())
	}
	if got.AsInt32()[0] != 0 {
		t.Errorf("tie resolved to %v, want 0", got.AsInt32()[0])
	}
}

func TestArgmax_IntegerDTypes(t *testing.T) {
	backend := New()

	i32 := rawOf(t, tensor.Shape{2, 2}, tensor.Int32,
		(*tensor.RawTensor).AsInt32, []int32{4, 8, 15, 7})
	if d := backend.Argmax(i32, 1).AsInt32(); d[0] != 1 || d[1] != 0 {
		t.Errorf("int32 indices %v, want [1 0]", d)
	}

	i64 := rawOf(t, tensor.Shape{3}, tensor.Int64,
		(*tensor.RawTensor).AsInt64, []int64{-10, 100, 50})
	if got := backend.Argmax(i64, 0).AsInt32()[0]; got != 1 {
		t.Errorf("int64 index %v, want 1", got)
	}
}

func TestArgmax_InvalidDimPanics(t *testing.T) {
	backend := New()
	x, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, backend.Device())

	defer func() {
		if recover() == nil {
			t.Error("out-of-range dim did not panic")
		}
	}()
	backend.Argmax(x, 5)
}
