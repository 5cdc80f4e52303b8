package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/grad-ml/grad/internal/tensor"
)

// fixedFields holds the decoded binary preamble of a .grad file.
type fixedFields struct {
	version    uint32
	flags      uint32
	headerSize uint64
	dataSize   uint64
	checksum   [32]byte
}

// decodeFixedHeader checks the magic and version and pulls the sizes
// and checksum out of the FixedHeaderSize-byte preamble.
func decodeFixedHeader(buf []byte) (fixedFields, error) {
	var f fixedFields

	if string(buf[0:4]) != MagicBytes {
		return f, ErrInvalidMagic
	}

	f.version = binary.LittleEndian.Uint32(buf[4:8])
	if f.version != FormatVersion {
		return f, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, f.version, FormatVersion)
	}

	f.flags = binary.LittleEndian.Uint32(buf[8:12])
	f.headerSize = binary.LittleEndian.Uint64(buf[16:24])
	f.dataSize = binary.LittleEndian.Uint64(buf[24:32])
	copy(f.checksum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if f.headerSize > MaxHeaderSize {
		return f, ErrHeaderTooLarge
	}
	return f, nil
}

// dataStart returns the absolute offset of the tensor data section,
// which begins at the first HeaderAlignment boundary after the JSON
// header.
func (f fixedFields) dataStart() int64 {
	//nolint:gosec // G115: headerSize is capped at MaxHeaderSize
	end := int64(FixedHeaderSize) + int64(f.headerSize)
	pad := (HeaderAlignment - (end % HeaderAlignment)) % HeaderAlignment
	return end + pad
}

// materializeTensor allocates a tensor for meta on device and fills it
// with data.
func materializeTensor(meta TensorMeta, data []byte, device tensor.Device) (*tensor.RawTensor, error) {
	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("unsupported dtype: %s", meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}

	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	copy(raw.Data(), data)
	return raw, nil
}

// GradReader reads tensors and metadata out of a .grad file.
type GradReader struct {
	file   *os.File
	opts   ReaderOptions
	closed bool

	header     Header
	fixed      fixedFields
	version    uint32
	dataOffset int64
	dataSize   int64 // size of the data section on disk
}

// ReaderOptions configures how strictly a GradReader verifies a file.
type ReaderOptions struct {
	// SkipChecksumValidation disables the data checksum pass. Faster,
	// but corruption goes undetected.
	SkipChecksumValidation bool

	// ValidationLevel selects the header validation strictness.
	ValidationLevel ValidationLevel
}

// NewGradReader opens path for reading with strict validation.
func NewGradReader(path string) (*GradReader, error) {
	return NewGradReaderWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// NewGradReaderWithOptions opens path for reading with the given
// options.
func NewGradReaderWithOptions(path string, opts ReaderOptions) (*GradReader, error) {
	//nolint:gosec // G304: file path comes from the caller, expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &GradReader{file: file, opts: opts}
	if err := r.init(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return r, nil
}

func (r *GradReader) init() error {
	if err := r.parseHeader(); err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	r.dataSize = info.Size() - r.dataOffset

	if err := ValidateHeader(&r.header, r.dataSize, r.opts.ValidationLevel); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// parseHeader reads the preamble and the JSON header, then verifies
// the data checksum unless the caller opted out.
func (r *GradReader) parseHeader() error {
	pre := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, pre); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	fixed, err := decodeFixedHeader(pre)
	if err != nil {
		return err
	}
	r.fixed = fixed
	r.version = fixed.version
	r.dataOffset = fixed.dataStart()

	headerBytes := make([]byte, fixed.headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if r.header, err = parseJSONHeader(headerBytes); err != nil {
		return err
	}

	if r.opts.SkipChecksumValidation {
		return nil
	}

	//nolint:gosec // G115: dataSize comes from a header this process wrote or validated
	payload, err := r.readSection(r.dataOffset, int64(fixed.dataSize))
	if err != nil {
		return fmt.Errorf("failed to read tensor data for checksum: %w", err)
	}
	return ValidateChecksum(ComputeChecksum(payload), fixed.checksum)
}

// parseJSONHeader decodes the JSON header section.
func parseJSONHeader(raw []byte) (Header, error) {
	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		return Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return header, nil
}

// readSection reads n bytes starting at absolute file offset off.
func (r *GradReader) readSection(off, n int64) ([]byte, error) {
	if _, err := r.file.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.file, buf); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	return buf, nil
}

func (r *GradReader) ensureOpen() error {
	if r.closed {
		return fmt.Errorf("reader is closed")
	}
	return nil
}

// Header returns the file header.
func (r *GradReader) Header() Header { return r.header }

// Metadata returns the metadata map from the header.
func (r *GradReader) Metadata() map[string]string { return r.header.Metadata }

// TensorNames lists every tensor recorded in the header, in file order.
func (r *GradReader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		names = append(names, meta.Name)
	}
	return names
}

// TensorInfo returns the header entry for the named tensor.
func (r *GradReader) TensorInfo(name string) (*TensorMeta, error) {
	for i, meta := range r.header.Tensors {
		if meta.Name == name {
			return &r.header.Tensors[i], nil
		}
	}
	return nil, fmt.Errorf("tensor %s not found", name)
}

// ReadTensorData returns the named tensor's bytes, unparsed.
func (r *GradReader) ReadTensorData(name string) ([]byte, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	return r.readSection(r.dataOffset+meta.Offset, meta.Size)
}

// LoadTensor materializes the named tensor on backend's device.
func (r *GradReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := r.readSection(r.dataOffset+meta.Offset, meta.Size)
	if err != nil {
		return nil, err
	}
	return materializeTensor(*meta, data, backend.Device())
}

// ReadStateDict materializes every tensor in the file into a state
// dictionary keyed by tensor name.
func (r *GradReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}

	dict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		data, err := r.readSection(r.dataOffset+meta.Offset, meta.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		raw, err := materializeTensor(meta, data, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		dict[meta.Name] = raw
	}
	return dict, nil
}

// Close releases the underlying file. Further calls are no-ops.
func (r *GradReader) Close() error {
	if !r.closed {
		r.closed = true
		return r.file.Close()
	}
	return nil
}

// ReadFrom reads a state dictionary from an io.Reader. Useful for
// reading from buffers or network connections. The checksum is always
// verified here because the whole payload is in memory anyway.
func ReadFrom(reader io.Reader, backend tensor.Backend) (map[string]*tensor.RawTensor, Header, error) {
	pre := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(reader, pre); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}

	fixed, err := decodeFixedHeader(pre)
	if err != nil {
		return nil, Header{}, err
	}

	headerBytes := make([]byte, fixed.headerSize)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header: %w", err)
	}
	header, err := parseJSONHeader(headerBytes)
	if err != nil {
		return nil, Header{}, err
	}

	// Streams cannot seek, so consume the alignment padding explicitly.
	//nolint:gosec // G115: headerSize is capped at MaxHeaderSize
	pad := fixed.dataStart() - int64(FixedHeaderSize) - int64(fixed.headerSize)
	if pad > 0 {
		if _, err := io.ReadFull(reader, make([]byte, pad)); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read padding: %w", err)
		}
	}

	payload := make([]byte, fixed.dataSize)
	if _, err := io.ReadFull(reader, payload); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateChecksum(ComputeChecksum(payload), fixed.checksum); err != nil {
		return nil, Header{}, err
	}

	section := bytes.NewReader(payload)
	dict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		data := make([]byte, meta.Size)
		if _, err := section.ReadAt(data, meta.Offset); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read tensor %s: %w", meta.Name, err)
		}
		raw, err := materializeTensor(meta, data, backend.Device())
		if err != nil {
			return nil, Header{}, err
		}
		dict[meta.Name] = raw
	}

	return dict, header, nil
}
