package parallel

import (
	"sync/atomic"
	"testing"
)

// countVisits runs For over n indices and returns how many the body saw.
func countVisits(n int, cfg Config) int64 {
	var visits int64
	For(n, func(_ int) {
		atomic.AddInt64(&visits, 1)
	}, cfg)
	return visits
}

func TestFor_VisitsEveryIndex(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		n    int
	}{
		{"parallel", DefaultConfig(), 1000},
		{"disabled", Config{Enabled: false}, 100},
		{"below chunk threshold", DefaultConfig(), DefaultConfig().MinChunkSize - 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := countVisits(tc.n, tc.cfg); got != int64(tc.n) {
				t.Errorf("visited %d indices, want %d", got, tc.n)
			}
		})
	}
}

func TestFor_ExactIndices(t *testing.T) {
	seen := make([]int32, 64)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, DefaultConfig())

	for i, c := range seen {
		if c != 1 {
			t.Errorf("index %d visited %d times, want exactly once", i, c)
		}
	}
}

func TestForBatch_CoversGrid(t *testing.T) {
	outer, inner := 4, 8
	grid := make([][]bool, outer)
	for o := range grid {
		grid[o] = make([]bool, inner)
	}

	ForBatch(outer, inner, func(o, i int) {
		grid[o][i] = true
	}, DefaultConfig())

	for o, row := range grid {
		for i, visited := range row {
			if !visited {
				t.Errorf("cell [%d][%d] was not visited", o, i)
			}
		}
	}
}

func TestDefaultConfig_SaneValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want at least 1", cfg.NumWorkers)
	}
	if cfg.MinChunkSize < 1 {
		t.Errorf("MinChunkSize = %d, want at least 1", cfg.MinChunkSize)
	}
}

func benchConfigs() map[string]Config {
	seq := DefaultConfig()
	seq.Enabled = false
	return map[string]Config{"parallel": DefaultConfig(), "sequential": seq}
}

func BenchmarkFor(b *testing.B) {
	const n = 10000
	for name, cfg := range benchConfigs() {
		b.Run(name, func(b *testing.B) {
			for range b.N {
				var sum int64
				For(n, func(i int) {
					atomic.AddInt64(&sum, int64(i))
				}, cfg)
			}
		})
	}
}

func BenchmarkForBatch(b *testing.B) {
	const outer, inner = 16, 64
	for name, cfg := range benchConfigs() {
		b.Run(name, func(b *testing.B) {
			for range b.N {
				var sum int64
				ForBatch(outer, inner, func(o, j int) {
					atomic.AddInt64(&sum, int64(o*inner+j))
				}, cfg)
			}
		})
	}
}
