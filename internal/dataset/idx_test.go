package dataset

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeIDXPair writes a minimal IDX image/label file pair with the
// given 2x2 samples.
func writeIDXPair(t *testing.T, dir string, pixels [][]byte, labels []byte, compress bool) (imagesPath, labelsPath string) {
	t.Helper()

	var images bytes.Buffer
	for _, v := range []uint32{idxImagesMagic, uint32(len(pixels)), 2, 2} {
		require.NoError(t, binary.Write(&images, binary.BigEndian, v))
	}
	for _, sample := range pixels {
		images.Write(sample)
	}

	var labelBuf bytes.Buffer
	for _, v := range []uint32{idxLabelsMagic, uint32(len(labels))} {
		require.NoError(t, binary.Write(&labelBuf, binary.BigEndian, v))
	}
	labelBuf.Write(labels)

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if compress {
			var gz bytes.Buffer
			w := gzip.NewWriter(&gz)
			_, err := w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			data = gz.Bytes()
		}
		require.NoError(t, os.WriteFile(path, data, 0o600))
		return path
	}

	return write("images.idx", images.Bytes()), write("labels.idx", labelBuf.Bytes())
}

func TestLoadIDX_Plain(t *testing.T) {
	dir := t.TempDir()

	imagesPath, labelsPath := writeIDXPair(t, dir,
		[][]byte{
			{0, 51, 102, 255},
			{255, 204, 153, 0},
		},
		[]byte{3, 7},
		false,
	)

	data, err := LoadIDX(imagesPath, labelsPath)
	require.NoError(t, err)

	require.Equal(t, 2, data.Samples)
	require.Equal(t, 4, data.Features)
	require.Equal(t, 8, data.Classes)
	require.Equal(t, []int32{3, 7}, data.Labels)

	// Pixels normalized to [0,1].
	require.InDelta(t, 0.0, data.Images[0], 1e-6)
	require.InDelta(t, 0.2, data.Images[1], 1e-6)
	require.InDelta(t, 1.0, data.Images[3], 1e-6)
	require.InDelta(t, 1.0, data.Images[4], 1e-6)
}

func TestLoadIDX_Gzip(t *testing.T) {
	dir := t.TempDir()

	imagesPath, labelsPath := writeIDXPair(t, dir,
		[][]byte{{10, 20, 30, 40}},
		[]byte{1},
		true,
	)

	data, err := LoadIDX(imagesPath, labelsPath)
	require.NoError(t, err)

	require.Equal(t, 1, data.Samples)
	require.Equal(t, []int32{1}, data.Labels)
	require.InDelta(t, 10.0/255.0, data.Images[0], 1e-6)
}

func TestLoadIDX_BadMagic(t *testing.T) {
	dir := t.TempDir()

	// Swap the files so each carries the wrong magic.
	imagesPath, labelsPath := writeIDXPair(t, dir,
		[][]byte{{1, 2, 3, 4}},
		[]byte{0},
		false,
	)

	_, err := LoadIDX(labelsPath, imagesPath)
	require.Error(t, err)
}

func TestLoadIDX_CountMismatch(t *testing.T) {
	imagesPath, _ := writeIDXPair(t, t.TempDir(),
		[][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}},
		[]byte{0, 1},
		false,
	)
	_, labelsPath := writeIDXPair(t, t.TempDir(),
		[][]byte{{1, 2, 3, 4}},
		[]byte{0},
		false,
	)

	_, err := LoadIDX(imagesPath, labelsPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mismatch")
}

func TestLoadIDX_MissingFile(t *testing.T) {
	_, err := LoadIDX("no_such_images.idx", "no_such_labels.idx")
	require.Error(t, err)
}
