package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genparams"
	"github.com/cepro/eosbess/materializer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrediction struct {
	bundle forecast.HourlyBundle
	err    error
}

func (s stubPrediction) Forecast(ctx context.Context, start time.Time, loc *time.Location, nHours int) (forecast.HourlyBundle, error) {
	return s.bundle, s.err
}

type stubMeasurement struct {
	bundle forecast.MeasurementBundle
	err    error
}

func (s stubMeasurement) Current(ctx context.Context) (forecast.MeasurementBundle, error) {
	return s.bundle, s.err
}

type stubDispatcher struct {
	applied int
	err     error
}

func (d *stubDispatcher) ApplyPlan(ctx context.Context, plan materializer.Plan) error {
	d.applied++
	return d.err
}

func flatSiteConfig(batteryID uuid.UUID, n int) genparams.SiteConfig {
	return genparams.SiteConfig{
		TimezoneName: "UTC",
		HorizonHours: n,
		Battery: devices.Battery{
			ID: batteryID, NameplateEnergy: 20, NameplatePower: 10,
			SocMin: 0.1, SocMax: 0.9, ChargeEfficiency: 0.95, DischargeEfficiency: 0.95,
			MaxChargePowerAC: 10, MaxDischargePowerAC: 10,
		},
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 30, SiteExportPowerLimitKW: 30},
		GAOverrides: map[string]interface{}{
			"PopulationSize": 10, "Mu": 4, "Lambda": 6, "NumGenerations": 3,
		},
	}
}

func flatBundle(n int) forecast.HourlyBundle {
	return forecast.HourlyBundle{
		PVGenerationKWh:    make(forecast.Series, n),
		LoadKWh:            make(forecast.Series, n),
		ImportPricePerKWh:  make(forecast.Series, n),
		FeedInTariffPerKWh: make(forecast.Series, n),
		AmbientTempCelsius: make(forecast.Series, n),
	}
}

func TestExecuteOnceRunsFullCycleAndDispatches(t *testing.T) {
	batteryID := uuid.New()
	n := 6

	prediction := stubPrediction{bundle: flatBundle(n)}
	measurement := stubMeasurement{bundle: forecast.MeasurementBundle{
		BatterySoc: map[string]float64{batteryID.String(): 0.5},
	}}
	dispatcher := &stubDispatcher{}

	c := New(flatSiteConfig(batteryID, n), prediction, measurement, dispatcher, nil, nil, 4)

	outcome := c.ExecuteOnce(context.Background())
	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, 1, dispatcher.applied)

	history := c.History(4)
	require.Len(t, history, 1)
	assert.True(t, history[0].Succeeded())
}

func TestExecuteOnceClassifiesMeasurementFailureAsDataAcquisition(t *testing.T) {
	batteryID := uuid.New()
	n := 4

	prediction := stubPrediction{bundle: flatBundle(n)}
	measurement := stubMeasurement{err: errors.New("meter offline")}

	c := New(flatSiteConfig(batteryID, n), prediction, measurement, nil, nil, nil, 4)

	outcome := c.ExecuteOnce(context.Background())
	assert.Error(t, outcome.Err)
	assert.Equal(t, StageDataAcquisition, outcome.FinalStage)
}

func TestExecuteOnceSkipsConcurrentRun(t *testing.T) {
	batteryID := uuid.New()
	n := 4

	prediction := stubPrediction{bundle: flatBundle(n)}
	measurement := stubMeasurement{bundle: forecast.MeasurementBundle{
		BatterySoc: map[string]float64{batteryID.String(): 0.5},
	}}

	c := New(flatSiteConfig(batteryID, n), prediction, measurement, nil, nil, nil, 4)

	c.runLock.Lock()
	defer c.runLock.Unlock()

	outcome := c.ExecuteOnce(context.Background())
	assert.ErrorIs(t, outcome.Err, ErrRunInProgress)
}

func TestRunHistoryCacheEvictsOldestBeyondCapacity(t *testing.T) {
	cache := newRunHistoryCache(2)
	cache.Add(1, RunOutcome{FinalStage: StageIdle})
	cache.Add(2, RunOutcome{FinalStage: StageDataAcquisition})
	cache.Add(3, RunOutcome{FinalStage: StageControlDispatch})

	_, ok := cache.Get(1)
	assert.False(t, ok)

	recent := cache.Recent(2)
	assert.Len(t, recent, 2)
	assert.Equal(t, StageControlDispatch, recent[0].FinalStage)
}
