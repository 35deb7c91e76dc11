package forecast

import (
	"fmt"
	"time"

	"PowerCast/internal/backtest"
	domsvc "PowerCast/internal/domain/service"
)

// Built-in model names.
const (
	SeasonalNaiveMean      = "SEASONAL_NAIVE_MEAN"
	SeasonalNaiveMean3Days = "SEASONAL_NAIVE_MEAN_3_DAYS"
	NaiveLastName          = "NAIVE_LAST"
	DriftName              = "DRIFT"
)

// builders maps model names to constructors so requests can select models
// by name.
var builders = map[string]func() domsvc.Forecaster{
	SeasonalNaiveMean:      func() domsvc.Forecaster { return NewSeasonalNaive(DefaultSeasonalPeriod) },
	SeasonalNaiveMean3Days: func() domsvc.Forecaster { return NewSeasonalNaive(DefaultSeasonalPeriod).WithLookback(72) },
	NaiveLastName:          func() domsvc.Forecaster { return NewNaiveLast() },
	DriftName:              func() domsvc.Forecaster { return NewDrift() },
}

// DefaultModels returns the stock registry: two cheap seasonal-naive
// variants for quick comparisons.
func DefaultModels() *backtest.Models {
	m := backtest.NewModels()
	_ = m.Add(SeasonalNaiveMean, NewSeasonalNaive(DefaultSeasonalPeriod))
	_ = m.Add(SeasonalNaiveMean3Days, NewSeasonalNaive(DefaultSeasonalPeriod).WithLookback(72))
	return m
}

// ModelsByName builds a registry from model names, in request order.
// Unknown names are rejected before any model runs.
func ModelsByName(names []string) (*backtest.Models, error) {
	if len(names) == 0 {
		return DefaultModels(), nil
	}
	m := backtest.NewModels()
	for _, name := range names {
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown model %q", name)
		}
		if err := m.Add(name, build()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterRemote makes a remote-served model selectable by name. Called
// once at startup for each model the external service exposes; later
// registrations for the same name win.
func RegisterRemote(name, baseURL string, timeout time.Duration) {
	builders[name] = func() domsvc.Forecaster { return NewRemoteForecaster(baseURL, name, timeout) }
	remoteNames = append(remoteNames, name)
}

// KnownModels lists the selectable model names.
func KnownModels() []string {
	names := []string{SeasonalNaiveMean, SeasonalNaiveMean3Days, NaiveLastName, DriftName}
	return append(names, remoteNames...)
}

var remoteNames []string
