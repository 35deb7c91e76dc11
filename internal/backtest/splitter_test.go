package backtest

import (
	"testing"
	"time"

	"PowerCast/internal/domain/models"
)

var t0 = time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)

// hourlySeries builds n hourly points valued 1..n.
func hourlySeries(n int) models.Series {
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		times[i] = t0.Add(time.Duration(i) * time.Hour)
		values[i] = float64(i + 1)
	}
	return models.Series{Times: times, Values: values}
}

func constantSeries(n int, v float64) models.Series {
	s := hourlySeries(n)
	for i := range s.Values {
		s.Values[i] = v
	}
	return s
}

func collect(it Iterator) []Window {
	var out []Window
	for {
		w, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, w)
	}
}

func TestExpandingSplitterScenario(t *testing.T) {
	// 9 points, initial window 3, step 3, horizon 3: exactly two windows.
	s, err := NewWindowSplitter(ModeExpanding, 3, 3, 3)
	if err != nil {
		t.Fatalf("splitter: %v", err)
	}
	ws := collect(s.Windows(9))
	if len(ws) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(ws))
	}
	if ws[0] != (Window{TrainStart: 0, TrainEnd: 3, TestStart: 3, TestEnd: 6}) {
		t.Fatalf("unexpected window 1: %+v", ws[0])
	}
	if ws[1] != (Window{TrainStart: 0, TrainEnd: 6, TestStart: 6, TestEnd: 9}) {
		t.Fatalf("unexpected window 2: %+v", ws[1])
	}
}

func TestExpandingSplitterCount(t *testing.T) {
	cases := []struct {
		n, initial, step, horizon int
	}{
		{100, 24, 24, 24},
		{100, 10, 5, 24},
		{9, 3, 3, 3},
		{50, 48, 1, 3},
		{10, 20, 5, 5}, // initial window longer than series
		{24, 24, 24, 1}, // no room for any horizon? 24+1 > 24 -> 0
	}
	for _, c := range cases {
		s, err := NewWindowSplitter(ModeExpanding, c.initial, c.step, c.horizon)
		if err != nil {
			t.Fatalf("splitter: %v", err)
		}
		want := 0
		if fit := c.n - c.initial - c.horizon; fit >= 0 {
			want = fit/c.step + 1
		}
		got := len(collect(s.Windows(c.n)))
		if got != want {
			t.Fatalf("n=%d I=%d S=%d H=%d: expected %d windows, got %d",
				c.n, c.initial, c.step, c.horizon, want, got)
		}
		if nw := s.NumWindows(c.n); nw != want {
			t.Fatalf("NumWindows=%d, want %d", nw, want)
		}
	}
}

func TestExpandingTrainGrowsByStep(t *testing.T) {
	s, _ := NewWindowSplitter(ModeExpanding, 10, 5, 3)
	ws := collect(s.Windows(60))
	if len(ws) < 3 {
		t.Fatalf("expected several windows, got %d", len(ws))
	}
	for i, w := range ws {
		if w.TrainStart != 0 {
			t.Fatalf("window %d: train start %d, want 0", i, w.TrainStart)
		}
		if want := 10 + i*5; w.TrainLen() != want {
			t.Fatalf("window %d: train length %d, want %d", i, w.TrainLen(), want)
		}
	}
}

func TestSlidingTrainLengthConstant(t *testing.T) {
	s, _ := NewWindowSplitter(ModeSliding, 10, 5, 3)
	ws := collect(s.Windows(60))
	if len(ws) == 0 {
		t.Fatalf("expected windows")
	}
	for i, w := range ws {
		if w.TrainLen() != 10 {
			t.Fatalf("window %d: train length %d, want 10", i, w.TrainLen())
		}
		if w.TrainStart != i*5 {
			t.Fatalf("window %d: train start %d, want %d", i, w.TrainStart, i*5)
		}
	}
}

func TestTestRangeFollowsTrain(t *testing.T) {
	for _, mode := range []Mode{ModeExpanding, ModeSliding} {
		s, _ := NewWindowSplitter(mode, 7, 3, 4)
		for i, w := range collect(s.Windows(50)) {
			if w.TestStart != w.TrainEnd {
				t.Fatalf("%s window %d: gap between train end %d and test start %d",
					mode, i, w.TrainEnd, w.TestStart)
			}
			if w.Horizon() != 4 {
				t.Fatalf("%s window %d: horizon %d, want 4", mode, i, w.Horizon())
			}
			if w.TestEnd > 50 {
				t.Fatalf("%s window %d: test end %d beyond series", mode, i, w.TestEnd)
			}
		}
	}
}

func TestIteratorStaysExhausted(t *testing.T) {
	s, _ := NewWindowSplitter(ModeExpanding, 3, 3, 3)
	it := s.Windows(9)
	collect(it)
	for i := 0; i < 3; i++ {
		if _, ok := it.Next(); ok {
			t.Fatalf("exhausted iterator yielded a window")
		}
	}
	// a fresh iteration restarts from the beginning
	if got := len(collect(s.Windows(9))); got != 2 {
		t.Fatalf("fresh iterator: expected 2 windows, got %d", got)
	}
}

func TestSplitterProgressCallback(t *testing.T) {
	var ordinals []int
	s, _ := NewWindowSplitter(ModeExpanding, 3, 3, 3, WithProgress(func(i int, _ Window) {
		ordinals = append(ordinals, i)
	}))
	collect(s.Windows(12))
	if len(ordinals) != 3 {
		t.Fatalf("expected 3 callbacks, got %d", len(ordinals))
	}
	for i, ord := range ordinals {
		if ord != i+1 {
			t.Fatalf("callback %d: ordinal %d", i, ord)
		}
	}
}

func TestSplitterConfigErrors(t *testing.T) {
	cases := []struct {
		mode                    Mode
		initial, step, horizon int
	}{
		{"banana", 3, 3, 3},
		{ModeExpanding, 0, 3, 3},
		{ModeExpanding, 3, 0, 3},
		{ModeExpanding, 3, 3, 0},
		{ModeSliding, -1, 3, 3},
	}
	for _, c := range cases {
		_, err := NewWindowSplitter(c.mode, c.initial, c.step, c.horizon)
		if err == nil {
			t.Fatalf("expected error for %+v", c)
		}
		if !IsConfigError(err) {
			t.Fatalf("expected config error, got %T", err)
		}
	}
}

func TestSubsampleFullFraction(t *testing.T) {
	inner, _ := NewWindowSplitter(ModeExpanding, 5, 5, 5)
	sub, err := NewSubsamplingSplitter(inner, 1.0, DefaultSeed)
	if err != nil {
		t.Fatalf("subsample: %v", err)
	}
	plain := collect(inner.Windows(60))
	sampled := collect(sub.Windows(60))
	if len(plain) != len(sampled) {
		t.Fatalf("frac=1: expected %d windows, got %d", len(plain), len(sampled))
	}
	for i := range plain {
		if plain[i] != sampled[i] {
			t.Fatalf("frac=1 window %d differs: %+v vs %+v", i, plain[i], sampled[i])
		}
	}
}

func TestSubsampleZeroFraction(t *testing.T) {
	inner, _ := NewWindowSplitter(ModeExpanding, 5, 5, 5)
	sub, _ := NewSubsamplingSplitter(inner, 0, DefaultSeed)
	if got := collect(sub.Windows(60)); len(got) != 0 {
		t.Fatalf("frac=0: expected no windows, got %d", len(got))
	}
}

func TestSubsampleReproducibleAcrossIterations(t *testing.T) {
	inner, _ := NewWindowSplitter(ModeExpanding, 2, 2, 2)
	sub, _ := NewSubsamplingSplitter(inner, 0.5, DefaultSeed)

	// two full iterations simulate two models evaluated back to back
	first := collect(sub.Windows(100))
	second := collect(sub.Windows(100))
	if len(first) == 0 {
		t.Fatalf("expected a nonempty subset at frac=0.5")
	}
	if len(first) != len(second) {
		t.Fatalf("iterations disagree: %d vs %d windows", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("window %d differs across iterations: %+v vs %+v", i, first[i], second[i])
		}
	}
	// and the subset is a subset of the full sequence
	all := make(map[Window]bool)
	for _, w := range collect(inner.Windows(100)) {
		all[w] = true
	}
	for _, w := range first {
		if !all[w] {
			t.Fatalf("retained window %+v not produced by the wrapped splitter", w)
		}
	}
	if len(first) >= len(all) {
		t.Fatalf("frac=0.5 retained all %d windows", len(all))
	}
}

func TestSubsampleConfigErrors(t *testing.T) {
	inner, _ := NewWindowSplitter(ModeExpanding, 5, 5, 5)
	if _, err := NewSubsamplingSplitter(inner, -0.1, DefaultSeed); !IsConfigError(err) {
		t.Fatalf("expected config error for frac<0, got %v", err)
	}
	if _, err := NewSubsamplingSplitter(inner, 1.1, DefaultSeed); !IsConfigError(err) {
		t.Fatalf("expected config error for frac>1, got %v", err)
	}
	sliding, _ := NewWindowSplitter(ModeSliding, 5, 5, 5)
	if _, err := NewSubsamplingSplitter(sliding, 0.5, DefaultSeed); !IsConfigError(err) {
		t.Fatalf("expected config error for sliding inner splitter, got %v", err)
	}
}
