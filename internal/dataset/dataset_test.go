package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatches_CoversAllSamples(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 100, Classes: 5, Features: 8, Seed: 1})

	batches := data.Batches(32, false, 0)

	// 100 samples at batch size 32: three full batches plus a short one.
	require.Len(t, batches, 4)
	require.Equal(t, 32, batches[0].Size)
	require.Equal(t, 4, batches[3].Size)

	total := 0
	for _, batch := range batches {
		require.Len(t, batch.Inputs, batch.Size*data.Features)
		require.Len(t, batch.Labels, batch.Size)
		total += batch.Size
	}
	require.Equal(t, data.Samples, total)
}

func TestBatches_NoShufflePreservesOrder(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 10, Classes: 2, Features: 4, Seed: 7})

	batches := data.Batches(3, false, 0)

	idx := 0
	for _, batch := range batches {
		for i := 0; i < batch.Size; i++ {
			require.Equal(t, data.Labels[idx], batch.Labels[i])
			require.Equal(t,
				data.Images[idx*data.Features:(idx+1)*data.Features],
				batch.Inputs[i*data.Features:(i+1)*data.Features])
			idx++
		}
	}
}

func TestBatches_ShuffleDeterministicPerSeed(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 64, Classes: 4, Features: 4, Seed: 3})

	first := data.Batches(16, true, 42)
	second := data.Batches(16, true, 42)
	other := data.Batches(16, true, 43)

	require.Equal(t, first, second)
	require.NotEqual(t, first, other)
}

func TestBatches_RejectsBadBatchSize(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 10, Classes: 2, Features: 4, Seed: 1})

	require.Panics(t, func() { data.Batches(0, false, 0) })
}

func TestSplit_PartitionsSamples(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 100, Classes: 5, Features: 8, Seed: 1})

	train, test := data.Split(0.8)

	require.Equal(t, 80, train.Samples)
	require.Equal(t, 20, test.Samples)
	require.Equal(t, data.Features, train.Features)
	require.Equal(t, data.Classes, test.Classes)

	// First held-out sample is the 81st overall.
	require.Equal(t, data.Labels[80], test.Labels[0])
	require.Equal(t,
		data.Images[80*data.Features:81*data.Features],
		test.Images[:test.Features])
}

func TestSplit_RejectsBadRatio(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 10, Classes: 2, Features: 4, Seed: 1})

	require.Panics(t, func() { data.Split(0) })
	require.Panics(t, func() { data.Split(1) })
}

func TestSynthetic_Deterministic(t *testing.T) {
	first := Synthetic(SyntheticConfig{Samples: 50, Classes: 5, Features: 16, Seed: 9})
	second := Synthetic(SyntheticConfig{Samples: 50, Classes: 5, Features: 16, Seed: 9})

	require.Equal(t, first.Images, second.Images)
	require.Equal(t, first.Labels, second.Labels)
}

func TestSynthetic_ValuesInRange(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 100, Classes: 10, Features: 32, Seed: 5})

	require.Equal(t, 100, data.Samples)
	require.Equal(t, 10, data.Classes)

	for i, v := range data.Images {
		require.GreaterOrEqualf(t, v, float32(0), "pixel %d below range", i)
		require.LessOrEqualf(t, v, float32(1), "pixel %d above range", i)
	}
	for i, label := range data.Labels {
		require.GreaterOrEqual(t, label, int32(0), "label %d", i)
		require.Less(t, label, int32(10), "label %d", i)
	}
}

func TestSynthetic_ClassesCycle(t *testing.T) {
	data := Synthetic(SyntheticConfig{Samples: 12, Classes: 3, Features: 4, Seed: 2})

	for i, label := range data.Labels {
		require.Equal(t, int32(i%3), label)
	}
}
