package genparams

import (
	"context"
	"testing"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPrediction struct {
	bundle forecast.HourlyBundle
}

func (f fixedPrediction) Forecast(ctx context.Context, start time.Time, loc *time.Location, nHours int) (forecast.HourlyBundle, error) {
	return f.bundle, nil
}

type fixedMeasurement struct {
	bundle forecast.MeasurementBundle
}

func (f fixedMeasurement) Current(ctx context.Context) (forecast.MeasurementBundle, error) {
	return f.bundle, nil
}

func TestAssembleBuildsRunFromConfig(t *testing.T) {
	batteryID := uuid.New()
	n := 24
	bundle := forecast.HourlyBundle{
		PVGenerationKWh:    make(forecast.Series, n),
		LoadKWh:            make(forecast.Series, n),
		ImportPricePerKWh:  make(forecast.Series, n),
		FeedInTariffPerKWh: make(forecast.Series, n),
		AmbientTempCelsius: make(forecast.Series, n),
	}

	cfg := SiteConfig{
		TimezoneName: "Europe/London",
		HorizonHours: n,
		Battery: devices.Battery{
			ID:                  batteryID,
			NameplateEnergy:     50,
			NameplatePower:      25,
			SocMin:              0.1,
			SocMax:              0.95,
			ChargeEfficiency:    0.95,
			DischargeEfficiency: 0.95,
			MaxChargePowerAC:    25,
			MaxDischargePowerAC: 25,
		},
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 60, SiteExportPowerLimitKW: 60},
		GAOverrides: map[string]interface{}{
			"PopulationSize": 50,
			"NumGenerations": 10,
		},
	}

	prediction := fixedPrediction{bundle: bundle}
	measurement := fixedMeasurement{bundle: forecast.MeasurementBundle{
		BatterySoc: map[string]float64{batteryID.String(): 0.5},
	}}

	run, err := Assemble(context.Background(), cfg, prediction, measurement, time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, n, run.Codec.Horizon)
	assert.Equal(t, 50, run.GAConfig.PopulationSize)
	assert.Equal(t, 10, run.GAConfig.NumGenerations)
	assert.InDelta(t, 0.5, run.Evaluator.InitialBatterySoc, 1e-9)
	assert.Len(t, run.Horizon, n)
}

func TestAssembleErrorsWithoutBatteryMeasurement(t *testing.T) {
	n := 4
	cfg := SiteConfig{
		TimezoneName: "UTC",
		HorizonHours: n,
		Battery: devices.Battery{
			ID: uuid.New(), NameplateEnergy: 10, NameplatePower: 5,
			SocMax: 1, ChargeEfficiency: 1, DischargeEfficiency: 1,
		},
	}
	prediction := fixedPrediction{bundle: forecast.HourlyBundle{
		PVGenerationKWh: make(forecast.Series, n), LoadKWh: make(forecast.Series, n),
		ImportPricePerKWh: make(forecast.Series, n), FeedInTariffPerKWh: make(forecast.Series, n),
		AmbientTempCelsius: make(forecast.Series, n),
	}}
	measurement := fixedMeasurement{}

	_, err := Assemble(context.Background(), cfg, prediction, measurement, time.Now())
	assert.Error(t, err)
}
