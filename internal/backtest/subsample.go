package backtest

import "math/rand"

// Subsampling defaults: retain one window in ten, fixed seed so repeated
// iterations (one per evaluated model) keep the identical subset.
const (
	DefaultFrac = 0.1
	DefaultSeed = 42
)

// SubsamplingSplitter wraps an expanding WindowSplitter and emits only a
// reproducible random subset of its windows. Useful for previewing
// computationally demanding models on a fraction of the validation set.
//
// The generator is owned by the splitter and re-seeded on every Windows
// call, never the process-wide rand state: every model evaluated against
// the same splitter sees the same retained windows regardless of iteration
// order.
type SubsamplingSplitter struct {
	inner *WindowSplitter
	frac  float64
	seed  int64
}

// NewSubsamplingSplitter builds a subsampling wrapper around an expanding
// splitter. frac is the fraction of windows to retain: 1 behaves like the
// wrapped splitter, 0 retains nothing.
func NewSubsamplingSplitter(inner *WindowSplitter, frac float64, seed int64) (*SubsamplingSplitter, error) {
	if inner == nil {
		return nil, configErrorf("subsample: inner splitter is nil")
	}
	if inner.Mode() != ModeExpanding {
		return nil, configErrorf("subsample: only expanding splitters can be wrapped, got %q", inner.Mode())
	}
	if frac < 0 || frac > 1 {
		return nil, configErrorf("subsample: frac must be between 0 and 1, got %g", frac)
	}
	return &SubsamplingSplitter{inner: inner, frac: frac, seed: seed}, nil
}

// Windows returns a fresh iteration with a freshly seeded generator.
func (s *SubsamplingSplitter) Windows(n int) Iterator {
	return &subsampleIter{
		inner: s.inner.Windows(n),
		rng:   rand.New(rand.NewSource(s.seed)),
		frac:  s.frac,
	}
}

type subsampleIter struct {
	inner Iterator
	rng   *rand.Rand
	frac  float64
}

// Next draws one uniform value per underlying window and retains the window
// iff the draw falls within frac. The draw happens for skipped windows too,
// keeping the random stream aligned with the window sequence.
func (it *subsampleIter) Next() (Window, bool) {
	for {
		w, ok := it.inner.Next()
		if !ok {
			return Window{}, false
		}
		if draw := it.rng.Float64(); it.frac > 0 && draw <= it.frac {
			return w, true
		}
	}
}
