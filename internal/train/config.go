package train

// Config holds the training knobs. Zero values take the tutorial
// defaults.
type Config struct {
	LR        float32 // learning rate (default 1e-3)
	BatchSize int     // samples per batch (default 64)
	Epochs    int     // full passes over the training set (default 10)

	// LogEvery controls how often the per-batch progress line is
	// printed (default every 100 batches).
	LogEvery int

	// Shuffle permutes training sample order each epoch, seeded with
	// Seed for reproducible runs.
	Shuffle bool
	Seed    int64
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.LR == 0 {
		c.LR = 1e-3
	}
	if c.BatchSize == 0 {
		c.BatchSize = 64
	}
	if c.Epochs == 0 {
		c.Epochs = 10
	}
	if c.LogEvery == 0 {
		c.LogEvery = 100
	}
	return c
}
