package usecase

import (
	"testing"
	"time"

	"PowerCast/internal/backtest"
	models "PowerCast/internal/domain/models"
)

func TestNormalizeSpecFillsDefaults(t *testing.T) {
	spec := models.RunSpec{Source: "pse", Metric: "demand", InitialWindow: 168}
	if err := normalizeSpec(&spec); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if spec.Mode != string(backtest.ModeExpanding) {
		t.Fatalf("mode = %q", spec.Mode)
	}
	if spec.StepLength != backtest.DefaultStepLength || spec.Horizon != backtest.DefaultHorizon {
		t.Fatalf("step/horizon = %d/%d", spec.StepLength, spec.Horizon)
	}
	if spec.Frac != 1 || spec.Seed != backtest.DefaultSeed {
		t.Fatalf("frac/seed = %v/%d", spec.Frac, spec.Seed)
	}
	if spec.To.IsZero() || spec.From.IsZero() {
		t.Fatalf("time range not filled: %v..%v", spec.From, spec.To)
	}
	if !spec.From.Before(spec.To) {
		t.Fatalf("from %v not before to %v", spec.From, spec.To)
	}
}

func TestNormalizeSpecRequiresSeriesKey(t *testing.T) {
	spec := models.RunSpec{Metric: "demand"}
	if err := normalizeSpec(&spec); err == nil {
		t.Fatalf("expected error for missing source")
	}
}

func TestNormalizeSpecRejectsBadFrac(t *testing.T) {
	spec := models.RunSpec{Source: "pse", Metric: "demand", Frac: 1.2}
	if err := normalizeSpec(&spec); err == nil {
		t.Fatalf("expected frac error")
	}
	spec = models.RunSpec{Source: "pse", Metric: "demand", Frac: -0.1}
	if err := normalizeSpec(&spec); err == nil {
		t.Fatalf("expected frac error")
	}
}

func TestNormalizeSpecRejectsInvertedRange(t *testing.T) {
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	spec := models.RunSpec{Source: "pse", Metric: "demand", From: to.Add(time.Hour), To: to}
	if err := normalizeSpec(&spec); err == nil {
		t.Fatalf("expected range error")
	}
}
