package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/grad-ml/grad/internal/tensor"
)

const gradVersion = "0.1.0" // Current library version

// GradWriter serializes state dictionaries into a .grad file.
type GradWriter struct {
	file   *os.File
	closed bool
}

// NewGradWriter creates (or truncates) path and prepares it for
// writing.
func NewGradWriter(path string) (*GradWriter, error) {
	//nolint:gosec // G304: file path comes from the caller, expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &GradWriter{file: file}, nil
}

// WriteStateDict writes stateDict under a header naming modelType.
// The dictionary maps parameter names to tensors; metadata may be nil.
func (w *GradWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return w.WriteStateDictWithHeader(stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// WriteStateDictWithHeader writes a state dictionary with a custom
// header to the .grad file. This allows setting CheckpointMeta and
// other header fields.
func (w *GradWriter) WriteStateDictWithHeader(stateDict map[string]*tensor.RawTensor, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return encodeStateDict(w.file, stateDict, header)
}

// Close releases the underlying file. Further calls are no-ops.
func (w *GradWriter) Close() error {
	if !w.closed {
		w.closed = true
		return w.file.Close()
	}
	return nil
}

// WriteTo writes a state dictionary to an io.Writer. Useful for writing
// to buffers or network connections.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	return encodeStateDict(writer, stateDict, Header{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// indexTensors fills header.Tensors with packed back-to-back offsets
// and returns the concatenated tensor payload in the same order.
func indexTensors(header *Header, stateDict map[string]*tensor.RawTensor) []byte {
	var payload []byte
	var offset int64

	header.Tensors = make([]TensorMeta, 0, len(stateDict))
	for name, raw := range stateDict {
		size := int64(raw.NumElements() * raw.DType().Size())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeToString(raw.DType()),
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		payload = append(payload, raw.Data()...)
		offset += size
	}
	return payload
}

// headerFlags derives the fixed-header flag bits from the JSON header.
func headerFlags(header Header) uint32 {
	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if header.CheckpointMeta != nil && header.CheckpointMeta.IsCheckpoint {
		flags |= FlagHasOptimizer
	}
	return flags
}

// encode lays f out as the FixedHeaderSize-byte binary preamble.
func (f fixedFields) encode() []byte {
	buf := make([]byte, FixedHeaderSize)
	copy(buf[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(buf[4:8], f.version)
	binary.LittleEndian.PutUint32(buf[8:12], f.flags)
	// 0x0C-0x0F reserved, left zero.
	binary.LittleEndian.PutUint64(buf[16:24], f.headerSize)
	binary.LittleEndian.PutUint64(buf[24:32], f.dataSize)
	copy(buf[ChecksumOffset:ChecksumOffset+ChecksumSize], f.checksum[:])
	return buf
}

// encodeStateDict serializes a state dictionary in .grad format:
// fixed 64-byte header, JSON header, alignment padding, tensor data.
// The SHA-256 checksum of the tensor data goes into the fixed header.
func encodeStateDict(writer io.Writer, stateDict map[string]*tensor.RawTensor, header Header) error {
	header.FormatVersion = FormatVersion
	header.GradVersion = gradVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	payload := indexTensors(&header, stateDict)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	fixed := fixedFields{
		version:    FormatVersion,
		flags:      headerFlags(header),
		headerSize: uint64(len(headerJSON)),
		dataSize:   uint64(len(payload)),
		checksum:   ComputeChecksum(payload),
	}

	if _, err := writer.Write(fixed.encode()); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Pad so tensor data starts on a 64-byte boundary.
	if pad := fixed.dataStart() - int64(FixedHeaderSize) - int64(len(headerJSON)); pad > 0 {
		if _, err := writer.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}
