package backtest

import (
	"testing"
)

func TestSplitSeriesByTestLen(t *testing.T) {
	y := hourlySeries(9)
	start := y.Times[3]

	train, test, err := SplitSeries(y, &start, nil, 3)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if train.Len() != 3 || train.Values[0] != 4 || train.Values[2] != 6 {
		t.Fatalf("unexpected train set %v", train.Values)
	}
	if test.Len() != 3 || test.Values[0] != 7 || test.Values[2] != 9 {
		t.Fatalf("unexpected test set %v", test.Values)
	}
}

func TestSplitSeriesByTrainEnd(t *testing.T) {
	y := hourlySeries(9)
	end := y.Times[5]

	train, test, err := SplitSeries(y, nil, &end, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	// train is strictly before the boundary
	if train.Len() != 5 || train.Values[4] != 5 {
		t.Fatalf("unexpected train set %v", train.Values)
	}
	if test.Len() != 4 || test.Values[0] != 6 {
		t.Fatalf("unexpected test set %v", test.Values)
	}
}

func TestSplitSeriesTruncatesTest(t *testing.T) {
	y := hourlySeries(9)
	end := y.Times[5]

	_, test, err := SplitSeries(y, nil, &end, 2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if test.Len() != 2 || test.Values[1] != 7 {
		t.Fatalf("unexpected truncated test set %v", test.Values)
	}
}

func TestSplitSeriesRequiresBoundary(t *testing.T) {
	_, _, err := SplitSeries(hourlySeries(9), nil, nil, 0)
	if !IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}
