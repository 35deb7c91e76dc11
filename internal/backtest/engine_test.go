package backtest

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"PowerCast/internal/domain/models"
	domsvc "PowerCast/internal/domain/service"
)

// lastValue repeats the last training value across the horizon.
type lastValue struct{}

func (lastValue) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	return repeatFit(train.Values[train.Len()-1]), nil
}

type repeatFit float64

func (v repeatFit) Predict(_ context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = float64(v)
	}
	return out, nil
}

// failingFit errors on the given fit call number.
type failingFit struct {
	failOn int
	calls  int
}

func (f *failingFit) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	f.calls++
	if f.calls == f.failOn {
		return nil, errors.New("singular matrix")
	}
	return repeatFit(train.Values[train.Len()-1]), nil
}

// interruptingFit signals the engine interrupt from inside its first Fit,
// so the signal is pending when the loop reaches the next window boundary.
type interruptingFit struct {
	interrupt *Interrupt
	calls     int
}

func (f *interruptingFit) Fit(_ context.Context, train models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	f.calls++
	if f.calls == 1 {
		f.interrupt.Signal()
	}
	return repeatFit(train.Values[train.Len()-1]), nil
}

func twoWindowSplitter(t *testing.T) *WindowSplitter {
	t.Helper()
	s, err := NewWindowSplitter(ModeExpanding, 3, 3, 3)
	if err != nil {
		t.Fatalf("splitter: %v", err)
	}
	return s
}

func TestEvaluateConstantSeriesZeroError(t *testing.T) {
	mods := NewModels()
	if err := mods.Add("LAST", lastValue{}); err != nil {
		t.Fatalf("add model: %v", err)
	}
	eng, err := New(twoWindowSplitter(t), mods)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	res, err := eng.Evaluate(context.Background(), constantSeries(9, 7.5), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, metric := range []string{"MAPE", "MAE", "RMSE"} {
		v, ok := res.Errors.Score("LAST", metric)
		if !ok {
			t.Fatalf("missing %s score", metric)
		}
		if v != 0 {
			t.Fatalf("%s = %g on a constant series, want 0", metric, v)
		}
	}
}

func TestEvaluateForecastTableShape(t *testing.T) {
	mods := NewModels()
	_ = mods.Add("LAST", lastValue{})
	eng, _ := New(twoWindowSplitter(t), mods)

	y := hourlySeries(9)
	res, err := eng.Evaluate(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	table := res.Forecasts
	// two windows, horizon 3 each: test indices 3..8
	if len(table.Index) != 6 {
		t.Fatalf("expected 6 forecast rows, got %d", len(table.Index))
	}
	if table.Index[0] != y.Times[3] || table.Index[5] != y.Times[8] {
		t.Fatalf("unexpected index bounds %v..%v", table.Index[0], table.Index[5])
	}
	for i, ts := range table.Index {
		av, ok := y.At(ts)
		if !ok || table.Values[models.ActualColumn][i] != av {
			t.Fatalf("actual column mismatch at %v", ts)
		}
	}
	// window 1 trains on values 1..3 (last=3), window 2 on 1..6 (last=6)
	want := []float64{3, 3, 3, 6, 6, 6}
	for i, w := range want {
		if got := table.Values["LAST"][i]; got != w {
			t.Fatalf("forecast[%d] = %g, want %g", i, got, w)
		}
	}
}

func TestEvaluateModelFailureAborts(t *testing.T) {
	mods := NewModels()
	_ = mods.Add("BAD", &failingFit{failOn: 2})
	_ = mods.Add("GOOD", lastValue{})
	eng, _ := New(twoWindowSplitter(t), mods)

	_, err := eng.Evaluate(context.Background(), hourlySeries(9), nil)
	if err == nil {
		t.Fatalf("expected model failure to abort evaluate")
	}
	if !strings.HasPrefix(err.Error(), "model BAD window 2 fit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEvaluateInterruptIsLocalToModel(t *testing.T) {
	interrupt := NewInterrupt()
	mods := NewModels()
	_ = mods.Add("INTERRUPTED", &interruptingFit{interrupt: interrupt})
	_ = mods.Add("COMPLETE", lastValue{})
	eng, _ := New(twoWindowSplitter(t), mods, WithInterrupt(interrupt))

	y := hourlySeries(9)
	res, err := eng.Evaluate(context.Background(), y, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	table := res.Forecasts
	// the interrupted model kept window 1 (indices 3..5) and skipped window 2
	for i := range table.Index {
		got := table.Values["INTERRUPTED"][i]
		if i < 3 && math.IsNaN(got) {
			t.Fatalf("interrupted model lost window 1 forecast at row %d", i)
		}
		if i >= 3 && !math.IsNaN(got) {
			t.Fatalf("interrupted model forecast window 2 row %d after interrupt", i)
		}
	}
	// the second model still completed both windows
	for i := range table.Index {
		if math.IsNaN(table.Values["COMPLETE"][i]) {
			t.Fatalf("complete model missing forecast at row %d", i)
		}
	}
}

func TestEvaluateHorizonMismatch(t *testing.T) {
	mods := NewModels()
	_ = mods.Add("SHORT", shortPredict{})
	eng, _ := New(twoWindowSplitter(t), mods)
	if _, err := eng.Evaluate(context.Background(), hourlySeries(9), nil); err == nil {
		t.Fatalf("expected horizon mismatch error")
	}
}

type shortPredict struct{}

func (shortPredict) Fit(_ context.Context, _ models.Series, _ *models.FeatureTable) (domsvc.FittedModel, error) {
	return shortFit{}, nil
}

type shortFit struct{}

func (shortFit) Predict(_ context.Context, horizon int, _ *models.FeatureTable) ([]float64, error) {
	return make([]float64, horizon-1), nil
}

func TestModelRegistryRejectsDuplicates(t *testing.T) {
	mods := NewModels()
	if err := mods.Add("A", lastValue{}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mods.Add("A", lastValue{}); !IsConfigError(err) {
		t.Fatalf("expected config error for duplicate name, got %v", err)
	}
	if err := mods.Add(models.ActualColumn, lastValue{}); !IsConfigError(err) {
		t.Fatalf("expected config error for reserved name, got %v", err)
	}
}

func TestSubsampledEngineSameWindowsPerModel(t *testing.T) {
	inner, _ := NewWindowSplitter(ModeExpanding, 2, 2, 2)
	sub, _ := NewSubsamplingSplitter(inner, 0.5, DefaultSeed)

	mods := NewModels()
	_ = mods.Add("A", lastValue{})
	_ = mods.Add("B", lastValue{})
	eng, _ := New(sub, mods)

	res, err := eng.Evaluate(context.Background(), hourlySeries(60), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	// both models must forecast exactly the same retained timestamps
	table := res.Forecasts
	for i := range table.Index {
		aNaN := math.IsNaN(table.Values["A"][i])
		bNaN := math.IsNaN(table.Values["B"][i])
		if aNaN != bNaN {
			t.Fatalf("models saw different windows at row %d", i)
		}
	}
}

func TestChainOrderAndTransparency(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next EvaluateFunc) EvaluateFunc {
			return func(ctx context.Context, y models.Series, X *models.FeatureTable) (*Result, error) {
				order = append(order, name+":pre")
				res, err := next(ctx, y, X)
				order = append(order, name+":post")
				return res, err
			}
		}
	}

	mods := NewModels()
	_ = mods.Add("LAST", lastValue{})
	eng, _ := New(twoWindowSplitter(t), mods)

	wrapped := Chain(eng.Evaluate, mw("outer"), mw("inner"))
	res, err := wrapped(context.Background(), constantSeries(9, 2), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	want := []string{"outer:pre", "inner:pre", "inner:post", "outer:post"}
	if len(order) != len(want) {
		t.Fatalf("unexpected call order %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order %v, want %v", order, want)
		}
	}
	if v, _ := res.Errors.Score("LAST", "MAE"); v != 0 {
		t.Fatalf("wrapped evaluate altered results: MAE=%g", v)
	}
}
