// Copyright 2025 Grad ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides in-memory classification datasets and
// loaders for the IDX and CSV formats.
//
// # Basic Usage
//
//	import "github.com/grad-ml/grad/dataset"
//
//	func main() {
//	    data, err := dataset.LoadIDX("train-images-idx3-ubyte.gz", "train-labels-idx1-ubyte.gz")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    trainData, testData := data.Split(0.9)
//	    for _, batch := range trainData.Batches(64, true, 0) {
//	        // batch.Inputs, batch.Labels, batch.Size
//	    }
//	}
package dataset

import (
	"github.com/grad-ml/grad/internal/dataset"
)

// Dataset holds a classification dataset in memory as flat row-major
// float32 features and int32 labels.
type Dataset = dataset.Dataset

// Batch is one mini-batch view into a dataset.
type Batch = dataset.Batch

// SyntheticConfig configures generated datasets.
type SyntheticConfig = dataset.SyntheticConfig

// LoadIDX loads an image/label pair in the IDX format used by the
// MNIST distribution. Both plain and gzip-compressed files work.
//
// Example:
//
//	data, err := dataset.LoadIDX("train-images-idx3-ubyte", "train-labels-idx1-ubyte")
func LoadIDX(imagesPath, labelsPath string) (*Dataset, error) {
	return dataset.LoadIDX(imagesPath, labelsPath)
}

// LoadCSV loads a dataset from a CSV file with one sample per row,
// label first and pixel values after. A header row is skipped. Pixel
// values above 1 are treated as bytes and normalized to [0, 1].
func LoadCSV(path string) (*Dataset, error) {
	return dataset.LoadCSV(path)
}

// Synthetic generates a deterministic dataset of noisy class
// templates, useful for tests and smoke runs without real data.
//
// Example:
//
//	data := dataset.Synthetic(dataset.SyntheticConfig{Samples: 1024, Seed: 42})
func Synthetic(config SyntheticConfig) *Dataset {
	return dataset.Synthetic(config)
}
