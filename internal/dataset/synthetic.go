package dataset

import (
	"fmt"
	"math/rand"
)

// SyntheticConfig controls the generated dataset. Zero values take the
// MNIST-like defaults.
type SyntheticConfig struct {
	Samples  int   // total sample count (default 1024)
	Classes  int   // number of classes (default 10)
	Features int   // pixels per sample (default 784)
	Seed     int64 // generator seed
	Noise    float32
}

// Synthetic generates a deterministic labeled dataset. Each class gets
// a random template vector; samples are the template plus bounded
// noise, clamped to [0, 1]. Templates are well separated, so a linear
// model can fit the data. The same config always produces the same
// samples.
func Synthetic(config SyntheticConfig) *Dataset {
	if config.Samples == 0 {
		config.Samples = 1024
	}
	if config.Classes == 0 {
		config.Classes = 10
	}
	if config.Features == 0 {
		config.Features = 784
	}
	if config.Noise == 0 {
		config.Noise = 0.1
	}
	if config.Samples < config.Classes {
		panic(fmt.Sprintf("dataset: need at least %d samples for %d classes", config.Classes, config.Classes))
	}

	//nolint:gosec // math/rand is fine for synthetic data
	rng := rand.New(rand.NewSource(config.Seed))

	templates := make([][]float32, config.Classes)
	for c := range templates {
		template := make([]float32, config.Features)
		for i := range template {
			template[i] = rng.Float32()
		}
		templates[c] = template
	}

	images := make([]float32, config.Samples*config.Features)
	labels := make([]int32, config.Samples)

	for s := 0; s < config.Samples; s++ {
		class := s % config.Classes
		labels[s] = int32(class)

		row := images[s*config.Features : (s+1)*config.Features]
		for i, base := range templates[class] {
			value := base + (rng.Float32()*2-1)*config.Noise
			if value < 0 {
				value = 0
			}
			if value > 1 {
				value = 1
			}
			row[i] = value
		}
	}

	return &Dataset{
		Images:   images,
		Labels:   labels,
		Samples:  config.Samples,
		Features: config.Features,
		Classes:  config.Classes,
	}
}
