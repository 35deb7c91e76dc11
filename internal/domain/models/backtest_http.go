package models

// Requests for the backtest and series HTTP endpoints. Defined in domain for
// consistency and reuse.

type BacktestRequest struct {
	Source        string   `query:"source" json:"source" validate:"required"`
	Metric        string   `query:"metric" json:"metric" validate:"required"`
	Mode          string   `query:"mode" json:"mode" default:"expanding" validate:"oneof=expanding sliding"`
	InitialWindow int      `query:"initial_window" json:"initial_window" validate:"required,gte=1"`
	StepLength    int      `query:"step_length" json:"step_length" default:"24" validate:"gte=1"`
	Horizon       int      `query:"horizon" json:"horizon" default:"24" validate:"gte=1"`
	Frac          float64  `query:"frac" json:"frac" default:"1" validate:"gte=0,lte=1"`
	Seed          int64    `query:"seed" json:"seed" default:"42"`
	Models        []string `json:"models"`
	Features      []string `json:"features"`
	From          string   `query:"from" json:"from"`
	To            string   `query:"to" json:"to"`
	Async         bool     `query:"async" json:"async"`
}

type SeriesRequest struct {
	Source string `query:"source" json:"source" validate:"required"`
	Metric string `query:"metric" json:"metric" validate:"required"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Res    string `query:"res" json:"res" default:"1h" validate:"oneof=1h 1d"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=100000"`
}
