package features

import (
	"math"
	"time"

	"PowerCast/internal/domain/models"
)

// Calendar feature builders for exogenous tables. Demand and price carry
// strong daily and weekly seasonality, so hour-of-day and day-of-week are
// encoded cyclically (sin/cos pairs) to avoid the midnight discontinuity.

const (
	HourSin = "hour_sin"
	HourCos = "hour_cos"
	DowSin  = "dow_sin"
	DowCos  = "dow_cos"
)

// Calendar builds a feature table of cyclic calendar encodings over the
// series index.
func Calendar(y models.Series) *models.FeatureTable {
	n := y.Len()
	table := &models.FeatureTable{
		Times: y.Times,
		Names: []string{HourSin, HourCos, DowSin, DowCos},
		Cols: map[string][]float64{
			HourSin: make([]float64, n),
			HourCos: make([]float64, n),
			DowSin:  make([]float64, n),
			DowCos:  make([]float64, n),
		},
	}
	for i, ts := range y.Times {
		h := float64(ts.Hour()) / 24
		d := float64(ts.Weekday()) / 7
		table.Cols[HourSin][i] = math.Sin(2 * math.Pi * h)
		table.Cols[HourCos][i] = math.Cos(2 * math.Pi * h)
		table.Cols[DowSin][i] = math.Sin(2 * math.Pi * d)
		table.Cols[DowCos][i] = math.Cos(2 * math.Pi * d)
	}
	return table
}

// Align reindexes a table onto the target timestamp index. Timestamps the
// table does not cover come out as NaN; timestamps outside the target index
// are dropped. The result shares the target index, so it can be merged with
// other tables built over the same series.
func Align(table *models.FeatureTable, times []time.Time) *models.FeatureTable {
	if table == nil {
		return nil
	}
	pos := make(map[time.Time]int, len(table.Times))
	for i, ts := range table.Times {
		pos[ts] = i
	}

	out := &models.FeatureTable{
		Times: times,
		Names: append([]string{}, table.Names...),
		Cols:  make(map[string][]float64, len(table.Names)),
	}
	for _, name := range table.Names {
		src := table.Cols[name]
		col := make([]float64, len(times))
		for i, ts := range times {
			if j, ok := pos[ts]; ok {
				col[i] = src[j]
			} else {
				col[i] = math.NaN()
			}
		}
		out.Cols[name] = col
	}
	return out
}

// Merge appends the columns of extra to base; both must share the same
// timestamp index. Columns already present in base keep their values.
func Merge(base, extra *models.FeatureTable) *models.FeatureTable {
	if base == nil {
		return extra
	}
	if extra == nil {
		return base
	}
	for _, name := range extra.Names {
		if _, exists := base.Cols[name]; exists {
			continue
		}
		base.Names = append(base.Names, name)
		base.Cols[name] = extra.Cols[name]
	}
	return base
}
