// Package dataset loads image classification datasets and slices them
// into training batches.
//
// Supported sources:
//   - IDX image/label file pairs (the MNIST distribution format),
//     plain or gzip-compressed
//   - CSV files with one "label,pixel,pixel,..." row per sample
//   - a deterministic synthetic generator for tests and offline runs
//
// All loaders normalize pixel values to [0, 1] and hold samples as
// flat float32 rows.
package dataset

import (
	"fmt"
	"math/rand"
)

// Dataset is an in-memory collection of labeled samples. Images are
// stored row-major as one flat slice of Samples*Features values.
type Dataset struct {
	Images   []float32
	Labels   []int32
	Samples  int
	Features int
	Classes  int
}

// Batch is one training batch. Inputs is a flat [Size*features] slice
// matching the dataset's feature count.
type Batch struct {
	Inputs []float32
	Labels []int32
	Size   int
}

// Batches partitions the dataset into batches of batchSize samples.
// The last batch may be short. With shuffle set, sample order is
// permuted by a rand source seeded with seed, so a fixed seed yields a
// fixed order.
func (d *Dataset) Batches(batchSize int, shuffle bool, seed int64) []Batch {
	if batchSize <= 0 {
		panic(fmt.Sprintf("dataset: batch size must be positive, got %d", batchSize))
	}

	order := make([]int, d.Samples)
	for i := range order {
		order[i] = i
	}
	if shuffle {
		//nolint:gosec // math/rand is fine for batch shuffling
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	numBatches := (d.Samples + batchSize - 1) / batchSize
	batches := make([]Batch, 0, numBatches)

	for start := 0; start < d.Samples; start += batchSize {
		end := start + batchSize
		if end > d.Samples {
			end = d.Samples
		}
		size := end - start

		inputs := make([]float32, size*d.Features)
		labels := make([]int32, size)
		for i, idx := range order[start:end] {
			copy(inputs[i*d.Features:(i+1)*d.Features],
				d.Images[idx*d.Features:(idx+1)*d.Features])
			labels[i] = d.Labels[idx]
		}

		batches = append(batches, Batch{Inputs: inputs, Labels: labels, Size: size})
	}

	return batches
}

// Split partitions the dataset into a training part holding ratio of
// the samples and a held-out part with the remainder. Order is
// preserved; shuffle before splitting if the source is sorted by
// class.
func (d *Dataset) Split(ratio float64) (train, test *Dataset) {
	if ratio <= 0 || ratio >= 1 {
		panic(fmt.Sprintf("dataset: split ratio must be in (0, 1), got %f", ratio))
	}

	cut := int(float64(d.Samples) * ratio)
	if cut == 0 {
		cut = 1
	}

	train = &Dataset{
		Images:   d.Images[:cut*d.Features],
		Labels:   d.Labels[:cut],
		Samples:  cut,
		Features: d.Features,
		Classes:  d.Classes,
	}
	test = &Dataset{
		Images:   d.Images[cut*d.Features:],
		Labels:   d.Labels[cut:],
		Samples:  d.Samples - cut,
		Features: d.Features,
		Classes:  d.Classes,
	}
	return train, test
}

// countClasses returns max(label)+1 so class indices stay dense.
func countClasses(labels []int32) int {
	classes := int32(0)
	for _, label := range labels {
		if label+1 > classes {
			classes = label + 1
		}
	}
	return int(classes)
}
