package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSV_Basic(t *testing.T) {
	path := writeCSV(t, "3,0,51,102,255\n7,255,204,153,0\n")

	data, err := LoadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 2, data.Samples)
	require.Equal(t, 4, data.Features)
	require.Equal(t, []int32{3, 7}, data.Labels)

	require.InDelta(t, 0.0, data.Images[0], 1e-6)
	require.InDelta(t, 0.2, data.Images[1], 1e-6)
	require.InDelta(t, 1.0, data.Images[3], 1e-6)
}

func TestLoadCSV_SkipsHeader(t *testing.T) {
	path := writeCSV(t, "label,p0,p1\n1,128,255\n0,0,64\n")

	data, err := LoadCSV(path)
	require.NoError(t, err)

	require.Equal(t, 2, data.Samples)
	require.Equal(t, 2, data.Features)
	require.Equal(t, []int32{1, 0}, data.Labels)
}

func TestLoadCSV_NormalizedValuesPassThrough(t *testing.T) {
	path := writeCSV(t, "0,0.5,0.25\n1,1.0,0.0\n")

	data, err := LoadCSV(path)
	require.NoError(t, err)

	require.InDelta(t, 0.5, data.Images[0], 1e-6)
	require.InDelta(t, 0.25, data.Images[1], 1e-6)
	require.InDelta(t, 1.0, data.Images[2], 1e-6)
}

func TestLoadCSV_BadPixel(t *testing.T) {
	path := writeCSV(t, "0,12,oops\n")

	_, err := LoadCSV(path)
	require.Error(t, err)
}

func TestLoadCSV_Empty(t *testing.T) {
	path := writeCSV(t, "")

	_, err := LoadCSV(path)
	require.Error(t, err)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV("no_such_file.csv")
	require.Error(t, err)
}
