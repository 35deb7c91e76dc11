package backtest

// Walk-forward window generation. A splitter carves a series of length n
// into successive (train, test) index ranges; the engine consumes them one
// at a time, so no window collection is ever materialized.

// Mode selects how the training range evolves across windows.
type Mode string

const (
	// ModeExpanding keeps the train start fixed and grows the train end by
	// the step length each window, so training data accumulates over time.
	ModeExpanding Mode = "expanding"
	// ModeSliding keeps the train length fixed and shifts the whole range
	// forward by the step length, discarding the oldest points.
	ModeSliding Mode = "sliding"
)

// Default splitter parameters, matching hourly energy-market data: one
// forecast step per day.
const (
	DefaultStepLength = 24
	DefaultHorizon    = 24
)

// Window is one train/test split. All ranges are half-open index intervals
// into the target series; TestStart always equals TrainEnd (no gap, no
// overlap) and the test range spans exactly the horizon.
type Window struct {
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// TrainLen returns the training range length.
func (w Window) TrainLen() int { return w.TrainEnd - w.TrainStart }

// Horizon returns the test range length.
func (w Window) Horizon() int { return w.TestEnd - w.TestStart }

// Iterator yields windows lazily in temporal order. Once Next returns false
// the iterator is exhausted for good; obtain a fresh one from the splitter
// to restart.
type Iterator interface {
	Next() (Window, bool)
}

// Splitter produces a fresh window iteration over a series of length n.
type Splitter interface {
	Windows(n int) Iterator
}

type splitState int

const (
	stateInit splitState = iota
	stateIterating
	stateExhausted
)

// SplitterOption configures a WindowSplitter.
type SplitterOption func(*WindowSplitter)

// WithProgress installs a callback invoked once per emitted window with its
// 1-based ordinal. The callback observes sequencing, it never alters it.
func WithProgress(fn func(i int, w Window)) SplitterOption {
	return func(s *WindowSplitter) { s.onWindow = fn }
}

// WindowSplitter generates expanding or sliding walk-forward windows.
type WindowSplitter struct {
	mode          Mode
	initialWindow int
	stepLength    int
	horizon       int
	onWindow      func(i int, w Window)
}

// NewWindowSplitter validates parameters and builds a splitter.
func NewWindowSplitter(mode Mode, initialWindow, stepLength, horizon int, opts ...SplitterOption) (*WindowSplitter, error) {
	if mode != ModeExpanding && mode != ModeSliding {
		return nil, configErrorf("splitter: unknown mode %q", mode)
	}
	if initialWindow <= 0 {
		return nil, configErrorf("splitter: initial window must be positive, got %d", initialWindow)
	}
	if stepLength <= 0 {
		return nil, configErrorf("splitter: step length must be positive, got %d", stepLength)
	}
	if horizon <= 0 {
		return nil, configErrorf("splitter: horizon must be positive, got %d", horizon)
	}
	s := &WindowSplitter{
		mode:          mode,
		initialWindow: initialWindow,
		stepLength:    stepLength,
		horizon:       horizon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mode returns the splitter mode.
func (s *WindowSplitter) Mode() Mode { return s.mode }

// Windows returns a fresh iterator over a series of length n.
func (s *WindowSplitter) Windows(n int) Iterator {
	return &windowIter{s: s, n: n}
}

// NumWindows returns how many windows a fresh iteration will emit for a
// series of length n.
func (s *WindowSplitter) NumWindows(n int) int {
	fit := n - s.initialWindow - s.horizon
	if fit < 0 {
		return 0
	}
	return fit/s.stepLength + 1
}

type windowIter struct {
	s     *WindowSplitter
	n     int
	i     int // next window ordinal, 0-based
	state splitState
}

// Next emits the next window, or false once the remaining series cannot fit
// a full train range plus horizon. No truncated final window is emitted.
func (it *windowIter) Next() (Window, bool) {
	if it.state == stateExhausted {
		return Window{}, false
	}
	it.state = stateIterating

	var trainStart, trainEnd int
	switch it.s.mode {
	case ModeSliding:
		trainStart = it.i * it.s.stepLength
		trainEnd = trainStart + it.s.initialWindow
	default: // expanding
		trainStart = 0
		trainEnd = it.s.initialWindow + it.i*it.s.stepLength
	}

	if trainEnd+it.s.horizon > it.n {
		it.state = stateExhausted
		return Window{}, false
	}

	w := Window{
		TrainStart: trainStart,
		TrainEnd:   trainEnd,
		TestStart:  trainEnd,
		TestEnd:    trainEnd + it.s.horizon,
	}
	it.i++
	if it.s.onWindow != nil {
		it.s.onWindow(it.i, w)
	}
	return w, true
}
