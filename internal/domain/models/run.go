package models

import "time"

// Run statuses.
const (
	RunQueued   = "queued"
	RunRunning  = "running"
	RunFinished = "finished"
	RunFailed   = "failed"
)

// RunSpec captures the configuration a backtest run was started with.
type RunSpec struct {
	Source        string  `json:"source"`
	Metric        string  `json:"metric"`
	Mode          string  `json:"mode"`
	InitialWindow int     `json:"initial_window"`
	StepLength    int     `json:"step_length"`
	Horizon       int     `json:"horizon"`
	Frac          float64 `json:"frac"`
	Seed          int64   `json:"seed"`
	Models        []string `json:"models"`
	Features      []string `json:"features,omitempty"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
}

// BacktestRun is the persisted record of one evaluation.
type BacktestRun struct {
	ID       string      `json:"id"`
	Spec     RunSpec     `json:"spec"`
	Status   string      `json:"status"`
	Started  time.Time   `json:"started"`
	Finished time.Time   `json:"finished,omitempty"`
	Error    string      `json:"error,omitempty"`
	Errors   *ErrorTable `json:"errors,omitempty"`
}
