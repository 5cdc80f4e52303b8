package serialization

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/grad-ml/grad/internal/tensor"
)

func f32Tensor(t testing.TB, shape tensor.Shape, values ...float32) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(raw.AsFloat32(), values)
	return raw
}

func writeDict(t testing.TB, path string, dict map[string]*tensor.RawTensor, modelType string, meta map[string]string) {
	t.Helper()
	w, err := NewGradWriter(path)
	if err != nil {
		t.Fatalf("NewGradWriter: %v", err)
	}
	if err := w.WriteStateDict(dict, modelType, meta); err != nil {
		t.Fatalf("WriteStateDict: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// flipLastByte corrupts the final byte of the file, which sits inside
// the tensor data section.
func flipLastByte(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, info.Size()-1); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	buf[0] ^= 0xFF
	if _, err := f.WriteAt(buf, info.Size()-1); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.grad")
	backend := tensor.NewMockBackend()

	weight := f32Tensor(t, tensor.Shape{2, 3}, 0.25, -1.5, 3, 0, 42, -0.125)
	bias := f32Tensor(t, tensor.Shape{3}, 7, 8, 9)
	writeDict(t, path, map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}, "Linear", map[string]string{"run": "round-trip"})

	r, err := NewGradReader(path)
	if err != nil {
		t.Fatalf("NewGradReader: %v", err)
	}
	defer r.Close()

	if r.version != FormatVersion {
		t.Errorf("version = %d, want %d", r.version, FormatVersion)
	}

	dict, err := r.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("ReadStateDict: %v", err)
	}
	if len(dict) != 2 {
		t.Fatalf("read %d tensors, want 2", len(dict))
	}

	got, ok := dict["weight"]
	if !ok {
		t.Fatal("weight missing from state dict")
	}
	if !got.Shape().Equal(tensor.Shape{2, 3}) {
		t.Fatalf("weight shape %v", got.Shape())
	}
	want := weight.AsFloat32()
	for i, v := range got.AsFloat32() {
		if v != want[i] {
			t.Errorf("weight element %d = %v, want %v", i, v, want[i])
		}
	}
	if b, ok := dict["bias"]; !ok || b.AsFloat32()[2] != 9 {
		t.Error("bias missing or mangled")
	}
}

func TestOpen_TamperedDataFailsChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tampered.grad")

	writeDict(t, path, map[string]*tensor.RawTensor{
		"data": f32Tensor(t, tensor.Shape{2, 4}, 1, 2, 3, 4, 5, 6, 7, 8),
	}, "TestModel", nil)
	flipLastByte(t, path)

	_, err := NewGradReader(path)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("want ErrChecksumMismatch, got %v", err)
	}
}

func TestOpen_SkipChecksumAdmitsTamperedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skip.grad")

	writeDict(t, path, map[string]*tensor.RawTensor{
		"data": f32Tensor(t, tensor.Shape{2, 2}, 1, 2, 3, 4),
	}, "TestModel", nil)
	flipLastByte(t, path)

	if _, err := NewGradReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	}); err == nil {
		t.Fatal("strict open of a tampered file succeeded")
	}

	r, err := NewGradReaderWithOptions(path, ReaderOptions{
		SkipChecksumValidation: true,
		ValidationLevel:        ValidationNormal,
	})
	if err != nil {
		t.Fatalf("open with checksum skipped: %v", err)
	}
	defer r.Close()
	if r.version != FormatVersion {
		t.Errorf("version = %d, want %d", r.version, FormatVersion)
	}
}

func TestCheckpointHeaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.grad")
	backend := tensor.NewMockBackend()

	dict := map[string]*tensor.RawTensor{
		"model.weight":       f32Tensor(t, tensor.Shape{2, 2}, 1, 2, 3, 4),
		"optimizer.momentum": f32Tensor(t, tensor.Shape{2, 2}, 0.1, 0.2, 0.3, 0.4),
	}
	header := Header{
		FormatVersion: FormatVersion,
		GradVersion:   "0.1.0",
		ModelType:     "TestModel",
		Metadata:      map[string]string{"dataset": "mnist"},
		CheckpointMeta: &CheckpointMeta{
			IsCheckpoint:  true,
			Epoch:         7,
			Step:          3500,
			Loss:          0.082,
			OptimizerType: "SGD",
			OptimizerConfig: map[string]any{
				"learning_rate": 0.005,
				"momentum":      0.85,
			},
		},
	}

	w, err := NewGradWriter(path)
	if err != nil {
		t.Fatalf("NewGradWriter: %v", err)
	}
	if err := w.WriteStateDictWithHeader(dict, header); err != nil {
		t.Fatalf("WriteStateDictWithHeader: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := NewGradReader(path)
	if err != nil {
		t.Fatalf("NewGradReader: %v", err)
	}
	defer r.Close()

	meta := r.Header().CheckpointMeta
	if meta == nil {
		t.Fatal("checkpoint metadata dropped")
	}
	if !meta.IsCheckpoint || meta.Epoch != 7 || meta.Step != 3500 {
		t.Errorf("checkpoint meta = %+v", meta)
	}
	if meta.Loss != 0.082 {
		t.Errorf("loss = %v, want 0.082", meta.Loss)
	}

	loaded, err := r.ReadStateDict(backend)
	if err != nil {
		t.Fatalf("ReadStateDict: %v", err)
	}
	for _, name := range []string{"model.weight", "optimizer.momentum"} {
		if _, ok := loaded[name]; !ok {
			t.Errorf("%s missing after round trip", name)
		}
	}
}

func TestOpen_TruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.grad")

	writeDict(t, path, map[string]*tensor.RawTensor{
		"weight": f32Tensor(t, tensor.Shape{4, 4}, make([]float32, 16)...),
	}, "TestModel", nil)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-32); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	if _, err := NewGradReader(path); err == nil {
		t.Error("truncated file opened without error")
	}
}

func BenchmarkChecksum(b *testing.B) {
	for _, mb := range []int{1, 16} {
		data := make([]byte, mb<<20)
		for i := range data {
			data[i] = byte(i)
		}
		b.Run(fmt.Sprintf("%dMB", mb), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			for range b.N {
				_ = ComputeChecksum(data)
			}
		})
	}
}

func BenchmarkWriteStateDict(b *testing.B) {
	dir := b.TempDir()
	raw := f32Tensor(b, tensor.Shape{1 << 20})
	dict := map[string]*tensor.RawTensor{"weight": raw}

	b.SetBytes(int64(raw.ByteSize()))
	b.ResetTimer()
	for i := range b.N {
		writeDict(b, filepath.Join(dir, fmt.Sprintf("w%d.grad", i)), dict, "Bench", nil)
	}
}

func BenchmarkReadStateDict(b *testing.B) {
	path := filepath.Join(b.TempDir(), "r.grad")
	backend := tensor.NewMockBackend()
	raw := f32Tensor(b, tensor.Shape{1 << 20})
	writeDict(b, path, map[string]*tensor.RawTensor{"weight": raw}, "Bench", nil)

	b.SetBytes(int64(raw.ByteSize()))
	b.ResetTimer()
	for range b.N {
		r, err := NewGradReader(path)
		if err != nil {
			b.Fatalf("NewGradReader: %v", err)
		}
		if _, err := r.ReadStateDict(backend); err != nil {
			b.Fatalf("ReadStateDict: %v", err)
		}
		r.Close()
	}
}

func TestReader_UseAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.grad")
	writeDict(t, path, map[string]*tensor.RawTensor{
		"weight": f32Tensor(t, tensor.Shape{2}, 1, 2),
	}, "TestModel", nil)

	r, err := NewGradReader(path)
	if err != nil {
		t.Fatalf("NewGradReader: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := r.ReadStateDict(tensor.NewMockBackend()); err == nil {
		t.Error("ReadStateDict succeeded on a closed reader")
	}
	if _, err := r.ReadTensorData("weight"); err == nil {
		t.Error("ReadTensorData succeeded on a closed reader")
	}
	if _, err := r.LoadTensor("weight", tensor.NewMockBackend()); err == nil {
		t.Error("LoadTensor succeeded on a closed reader")
	}
}
