package config

import (
	"context"
	"testing"
	"time"

	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/timeutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPrediction struct {
	bundle forecast.HourlyBundle
}

func (f fixedPrediction) Forecast(context.Context, time.Time, *time.Location, int) (forecast.HourlyBundle, error) {
	return f.bundle, nil
}

func TestDuosAdjustedPredictionAddsImportChargeAndSubtractsExportCharge(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	peakPeriod := timeutils.ClockTimePeriod{
		Start: timeutils.ClockTime{Hour: 16, Location: loc},
		End:   timeutils.ClockTime{Hour: 19, Location: loc},
	}

	pricing := PricingConfig{
		DuosChargesImport: []TimedCharge{{Rate: 0.10, PeriodsWeekday: []timeutils.ClockTimePeriod{peakPeriod}, PeriodsWeekend: []timeutils.ClockTimePeriod{peakPeriod}}},
		DuosChargesExport: []TimedCharge{{Rate: 0.02, PeriodsWeekday: []timeutils.ClockTimePeriod{peakPeriod}, PeriodsWeekend: []timeutils.ClockTimePeriod{peakPeriod}}},
	}

	inner := fixedPrediction{bundle: forecast.HourlyBundle{
		ImportPricePerKWh: forecast.Series{
			0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20,
			0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20,
			0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20,
		},
		FeedInTariffPerKWh: forecast.Series{
			0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05,
			0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05,
			0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05,
		},
	}}

	decorated := NewDuosAdjustedPrediction(inner, pricing)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, loc)
	bundle, err := decorated.Forecast(context.Background(), start, loc, 24)
	require.NoError(t, err)

	// hour 16 (4pm) falls inside the peak period, hour 10 does not
	assert.InDelta(t, 0.30, bundle.ImportPricePerKWh[16], 1e-9)
	assert.InDelta(t, 0.20, bundle.ImportPricePerKWh[10], 1e-9)
	assert.InDelta(t, 0.03, bundle.FeedInTariffPerKWh[16], 1e-9)
	assert.InDelta(t, 0.05, bundle.FeedInTariffPerKWh[10], 1e-9)
}

func TestDuosAdjustedPredictionNoChargesPassesThrough(t *testing.T) {
	loc := time.UTC
	inner := fixedPrediction{bundle: forecast.HourlyBundle{ImportPricePerKWh: forecast.Series{0.2}}}
	decorated := NewDuosAdjustedPrediction(inner, PricingConfig{})

	bundle, err := decorated.Forecast(context.Background(), time.Now(), loc, 1)
	require.NoError(t, err)
	assert.Equal(t, forecast.Series{0.2}, bundle.ImportPricePerKWh)
}
