package fitness

import (
	"testing"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genome"
	"github.com/stretchr/testify/assert"
)

func battery() devices.Battery {
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

func horizonTimes(n int) []time.Time {
	times := make([]time.Time, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return times
}

func TestRepairZeroesEVGenesAfterTargetReached(t *testing.T) {
	ev := devices.EV{
		BatteryCapacityKWh: 10,
		ChargeEfficiency:   1,
		ChargeRates:        []devices.ChargeRate{{Name: "off", PowerKW: 0}, {Name: "fast", PowerKW: 10}},
		InitialSoc:         0,
		TargetSoc:          0.5,
	}
	g := &genome.Genome{
		Battery:     make([]genome.BatteryAction, 3),
		EVRateIndex: []int{1, 1, 1}, // charges the empty 10kWh battery to 100% in hour 0, past its 50% target
	}

	Repair(g, battery(), &ev)

	assert.Equal(t, 1, g.EVRateIndex[0])
	assert.Equal(t, 0, g.EVRateIndex[1])
	assert.Equal(t, 0, g.EVRateIndex[2])
}

func TestEvaluateNoDevicesIsJustNetCost(t *testing.T) {
	n := 2
	e := &Evaluator{
		Battery:  battery(),
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 50, SiteExportPowerLimitKW: 50},
		Forecast: forecast.HourlyBundle{
			PVGenerationKWh:    make(forecast.Series, n),
			LoadKWh:            forecast.Series{1, 1},
			ImportPricePerKWh:  forecast.Series{0.2, 0.2},
			FeedInTariffPerKWh: forecast.Series{0.05, 0.05},
			AmbientTempCelsius: make(forecast.Series, n),
		},
		Horizon:   horizonTimes(n),
		Penalties: DefaultPenalties(),
	}
	g := &genome.Genome{Battery: make([]genome.BatteryAction, n), EVRateIndex: make([]int, n)}

	score, result, err := e.Evaluate(g)
	assert.NoError(t, err)
	assert.InDelta(t, 0.4, result.NetCost, 1e-9) // 2 hours * 1kWh * 0.2/kWh import
	// no penalty_no_discharge: the battery starts at SocMin, so Repair forces both idle hours to
	// Discharge
	assert.InDelta(t, 0.4, score, 1e-9)
}

func TestEvaluatePenalisesEVShortfall(t *testing.T) {
	ev := devices.EV{
		BatteryCapacityKWh: 10,
		ChargeEfficiency:   1,
		ChargeRates:        []devices.ChargeRate{{Name: "off", PowerKW: 0}, {Name: "slow", PowerKW: 1}},
		TargetSoc:          0.8,
	}
	n := 1
	e := &Evaluator{
		Battery:  battery(),
		Inverter: devices.Inverter{SiteImportPowerLimitKW: 50, SiteExportPowerLimitKW: 50},
		EV:       &ev,
		Forecast: forecast.HourlyBundle{
			PVGenerationKWh:    make(forecast.Series, n),
			LoadKWh:            make(forecast.Series, n),
			ImportPricePerKWh:  make(forecast.Series, n),
			FeedInTariffPerKWh: make(forecast.Series, n),
			AmbientTempCelsius: make(forecast.Series, n),
		},
		Horizon:   horizonTimes(n),
		Penalties: DefaultPenalties(),
	}
	// commands the "slow" rate for the single hour available, but it isn't enough to close the
	// 0.8 soc gap in one hour, so penalty_ev_soc_miss should still fire.
	g := &genome.Genome{Battery: make([]genome.BatteryAction, n), EVRateIndex: []int{1}}

	score, _, err := e.Evaluate(g)
	assert.NoError(t, err)
	assert.Greater(t, score, 0.0) // shortfall penalty dominates a zero-cost plan
}
