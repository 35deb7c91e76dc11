package backtest

import (
	"time"

	"PowerCast/internal/domain/models"
)

// SplitSeries splits a series into train and test sets at an explicit
// boundary, for one-off evaluations outside the windowed backtest.
//
// trainStart, when set, drops points before it. The boundary is either
// trainEnd (train gets points strictly before it) or, when trainEnd is nil,
// a positive testLen (train gets the first testLen points). The test set is
// the remainder, truncated to testLen when given. The input is only viewed,
// never copied or mutated.
func SplitSeries(y models.Series, trainStart, trainEnd *time.Time, testLen int) (train, test models.Series, err error) {
	if trainEnd == nil && testLen <= 0 {
		return models.Series{}, models.Series{},
			configErrorf("split: one of trainEnd or testLen must be given")
	}

	if trainStart != nil {
		y = y.After(*trainStart)
	}

	var cut int
	if trainEnd != nil {
		for cut < y.Len() && y.Times[cut].Before(*trainEnd) {
			cut++
		}
	} else {
		cut = testLen
		if cut > y.Len() {
			cut = y.Len()
		}
	}

	train = y.Slice(0, cut)
	test = y.Slice(cut, y.Len())
	if testLen > 0 && test.Len() > testLen {
		test = test.Slice(0, testLen)
	}
	return train, test, nil
}
