package simulate

import (
	"testing"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genome"
	"github.com/stretchr/testify/assert"
)

func flatBattery() devices.Battery {
	return devices.Battery{
		NameplateEnergy:     10,
		NameplatePower:      5,
		SocMin:              0.1,
		SocMax:              0.95,
		ChargeEfficiency:    1,
		DischargeEfficiency: 1,
		MaxChargePowerAC:    5,
		MaxDischargePowerAC: 5,
	}
}

func horizon(n int) []time.Time {
	h := make([]time.Time, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range h {
		h[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return h
}

func TestRunIdleGenomeZeroLoadAndPV(t *testing.T) {
	n := 4
	g := genome.Genome{
		Battery:     make([]genome.BatteryAction, n),
		EVRateIndex: make([]int, n),
	}

	result, err := Run(Input{
		Genome:   g,
		Battery:  flatBattery(),
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 50, SiteExportPowerLimitKW: 50},
		Forecast: forecast.HourlyBundle{
			PVGenerationKWh:     make(forecast.Series, n),
			LoadKWh:             make(forecast.Series, n),
			ImportPricePerKWh:   make(forecast.Series, n),
			FeedInTariffPerKWh:  make(forecast.Series, n),
			AmbientTempCelsius:  make(forecast.Series, n),
		},
		InitialBatterySoc: 0.5,
		Horizon:           horizon(n),
	})

	assert.NoError(t, err)
	assert.InDelta(t, 0.5, result.FinalBatterySoc, 1e-9)
	assert.Equal(t, -1.0, result.FinalEVSoc)
	assert.InDelta(t, 0, result.NetCost, 1e-9)
	for _, hs := range result.Hours {
		assert.Equal(t, 0.0, hs.GridPowerKW)
		assert.False(t, hs.Clipped)
	}
}

func TestRunBatteryChargeRespectsSocMax(t *testing.T) {
	n := 1
	g := genome.Genome{
		Battery:     []genome.BatteryAction{{Kind: genome.ACCharge}},
		EVRateIndex: []int{0},
	}
	b := flatBattery()
	b.SocMax = 0.91 // only 0.1 kWh of headroom from an initial soc of 0.9

	result, err := Run(Input{
		Genome:   g,
		Battery:  b,
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 50, SiteExportPowerLimitKW: 50},
		Forecast: forecast.HourlyBundle{
			PVGenerationKWh:    forecast.Series{0},
			LoadKWh:            forecast.Series{0},
			ImportPricePerKWh:  forecast.Series{0.3},
			FeedInTariffPerKWh: forecast.Series{0.1},
			AmbientTempCelsius: forecast.Series{15},
		},
		InitialBatterySoc: 0.9,
		Horizon:           horizon(n),
	})

	assert.NoError(t, err)
	assert.InDelta(t, 0.91, result.FinalBatterySoc, 1e-9)
	assert.Less(t, result.Hours[0].BatteryPowerAC, b.MaxChargePowerAC)
}

func TestRunLengthMismatchErrors(t *testing.T) {
	g := genome.Genome{Battery: make([]genome.BatteryAction, 2), EVRateIndex: make([]int, 2)}
	_, err := Run(Input{
		Genome:  g,
		Battery: flatBattery(),
		Forecast: forecast.HourlyBundle{
			PVGenerationKWh: make(forecast.Series, 3), // mismatched length
		},
		Horizon: horizon(2),
	})
	assert.Error(t, err)
}
