package tensor

import "testing"

func TestTypedViews_ZeroCopy(t *testing.T) {
	i64, _ := NewRaw(Shape{3, 2}, Int64, CPU)
	view := i64.AsInt64()
	if len(view) != 6 {
		t.Fatalf("int64 view length %d", len(view))
	}
	view[0] = 42
	if i64.AsInt64()[0] != 42 {
		t.Error("write through the int64 view did not land in the buffer")
	}

	u8, _ := NewRaw(Shape{4, 4}, Uint8, CPU)
	bytes := u8.AsUint8()
	if len(bytes) != 16 {
		t.Fatalf("uint8 view length %d", len(bytes))
	}
	bytes[0] = 255
	if u8.AsUint8()[0] != 255 {
		t.Error("write through the uint8 view did not land in the buffer")
	}
}

func TestTypedView_WrongDTypePanics(t *testing.T) {
	f32, _ := NewRaw(Shape{2}, Float32, CPU)
	_ = f32.AsFloat32()

	views := map[string]func(){
		"AsFloat64": func() { f32.AsFloat64() },
		"AsInt32":   func() { f32.AsInt32() },
		"AsInt64":   func() { f32.AsInt64() },
		"AsUint8":   func() { f32.AsUint8() },
	}
	for name, view := range views {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s on a float32 buffer did not panic", name)
				}
			}()
			view()
		})
	}
}

func TestReferenceCounting(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.AsFloat32()[0] = 1

	if !raw.IsUnique() {
		t.Fatal("fresh buffer is not unique")
	}

	first := raw.Clone()
	if first.AsFloat32()[0] != 1 {
		t.Error("clone does not see the shared buffer")
	}
	second := raw.Clone()
	if raw.IsUnique() || first.IsUnique() || second.IsUnique() {
		t.Error("a view of a shared buffer reports unique")
	}

	first.Release()
	second.Release()
	_ = raw.IsUnique()

	// Extra releases must not panic.
	raw.Release()
	raw.Release()
}

func TestForceNonUnique(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Float32, CPU)
	raw.ForceNonUnique()
	if raw.IsUnique() {
		t.Error("buffer still unique after ForceNonUnique")
	}
}

func TestNewRaw_ByteSizes(t *testing.T) {
	for dtype, elemSize := range map[DataType]int{
		Float32: 4,
		Float64: 8,
		Int32:   4,
		Int64:   8,
		Uint8:   1,
	} {
		raw, err := NewRaw(Shape{2, 3}, dtype, CPU)
		if err != nil {
			t.Fatalf("NewRaw(%v): %v", dtype, err)
		}
		if raw.DType() != dtype {
			t.Errorf("dtype %v reported as %v", dtype, raw.DType())
		}
		if raw.ByteSize() != 6*elemSize {
			t.Errorf("%v buffer spans %d bytes, want %d", dtype, raw.ByteSize(), 6*elemSize)
		}
	}
}

func TestNewRaw_RejectsNonPositiveDims(t *testing.T) {
	for _, shape := range []Shape{{0}, {-1}, {2, 0}, {2, -3}} {
		if _, err := NewRaw(shape, Float32, CPU); err == nil {
			t.Errorf("shape %v accepted", shape)
		}
	}
}

func TestNewRaw_ScalarShape(t *testing.T) {
	raw, _ := NewRaw(Shape{}, Float32, CPU)

	if raw.NumElements() != 1 || raw.ByteSize() != 4 {
		t.Errorf("scalar spans %d elements / %d bytes", raw.NumElements(), raw.ByteSize())
	}
	if len(raw.AsFloat32()) != 1 {
		t.Errorf("scalar view length %d", len(raw.AsFloat32()))
	}
}
