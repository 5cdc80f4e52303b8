package dataset

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers (big-endian).
const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049
)

// LoadIDX reads an IDX image/label file pair as distributed for MNIST
// and friends. Either file may be gzip-compressed; compression is
// detected from the content, not the extension.
//
// Pixel bytes are normalized to [0, 1].
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	images, rows, cols, err := readIDXImages(imagesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load IDX images from %s: %w", imagesPath, err)
	}

	labels, err := readIDXLabels(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load IDX labels from %s: %w", labelsPath, err)
	}

	features := rows * cols
	samples := len(images) / features
	if samples != len(labels) {
		return nil, fmt.Errorf("IDX sample count mismatch: %d images, %d labels", samples, len(labels))
	}

	return &Dataset{
		Images:   images,
		Labels:   labels,
		Samples:  samples,
		Features: features,
		Classes:  countClasses(labels),
	}, nil
}

// openMaybeGzip opens a file and transparently unwraps gzip content,
// sniffing the two-byte gzip magic.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	magic := make([]byte, 2)
	if _, err := io.ReadFull(file, magic); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read file magic: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, err
	}

	if magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &gzipReadCloser{gz: gz, file: file}, nil
	}

	return file, nil
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

func readIDXImages(path string) (pixels []float32, rows, cols int, err error) {
	reader, err := openMaybeGzip(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer reader.Close()

	var header [4]uint32
	for i := range header {
		if err := binary.Read(reader, binary.BigEndian, &header[i]); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read IDX header: %w", err)
		}
	}

	if header[0] != idxImagesMagic {
		return nil, 0, 0, fmt.Errorf("bad IDX image magic: expected %d, got %d", idxImagesMagic, header[0])
	}

	count := int(header[1])
	rows = int(header[2])
	cols = int(header[3])

	raw := make([]byte, count*rows*cols)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read %d image bytes: %w", len(raw), err)
	}

	pixels = make([]float32, len(raw))
	for i, b := range raw {
		pixels[i] = float32(b) / 255.0
	}

	return pixels, rows, cols, nil
}

func readIDXLabels(path string) ([]int32, error) {
	reader, err := openMaybeGzip(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var header [2]uint32
	for i := range header {
		if err := binary.Read(reader, binary.BigEndian, &header[i]); err != nil {
			return nil, fmt.Errorf("failed to read IDX header: %w", err)
		}
	}

	if header[0] != idxLabelsMagic {
		return nil, fmt.Errorf("bad IDX label magic: expected %d, got %d", idxLabelsMagic, header[0])
	}

	raw := make([]byte, header[1])
	if _, err := io.ReadFull(reader, raw); err != nil {
		return nil, fmt.Errorf("failed to read %d label bytes: %w", len(raw), err)
	}

	labels := make([]int32, len(raw))
	for i, b := range raw {
		labels[i] = int32(b)
	}

	return labels, nil
}
