package models

import "time"

// Observation is a single ingested energy-market point: a metered or quoted
// value for one source/metric pair (demand, day-ahead price, temperature,
// fuel cost) at one timestamp.
type Observation struct {
	Source string  `json:"source"`
	Metric string  `json:"metric"`
	Time   int64   `json:"t"` // unix seconds
	Value  float64 `json:"v"`
}

// Timestamp returns the observation time as time.Time.
func (o *Observation) Timestamp() time.Time { return time.Unix(o.Time, 0).UTC() }
