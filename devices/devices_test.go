package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatteryValidate(t *testing.T) {
	cases := []struct {
		name    string
		battery Battery
		wantErr bool
	}{
		{
			name: "valid",
			battery: Battery{
				NameplateEnergy: 50, NameplatePower: 25,
				SocMin: 0.1, SocMax: 0.95,
				ChargeEfficiency: 0.95, DischargeEfficiency: 0.95,
			},
			wantErr: false,
		},
		{
			name:    "zero nameplate energy",
			battery: Battery{NameplateEnergy: 0, NameplatePower: 25, SocMax: 1, ChargeEfficiency: 1, DischargeEfficiency: 1},
			wantErr: true,
		},
		{
			name:    "soc min above soc max",
			battery: Battery{NameplateEnergy: 50, NameplatePower: 25, SocMin: 0.9, SocMax: 0.5, ChargeEfficiency: 1, DischargeEfficiency: 1},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.battery.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBatterySocEnergyRoundTrip(t *testing.T) {
	b := Battery{NameplateEnergy: 40}
	assert.InDelta(t, 20.0, b.SocToEnergy(0.5), 1e-9)
	assert.InDelta(t, 0.5, b.EnergyToSoc(20), 1e-9)
}

func TestBatteryClampSoc(t *testing.T) {
	b := Battery{SocMin: 0.1, SocMax: 0.9}
	assert.Equal(t, 0.1, b.ClampSoc(-0.2))
	assert.Equal(t, 0.9, b.ClampSoc(1.2))
	assert.Equal(t, 0.5, b.ClampSoc(0.5))
}

func TestEVValidateRequiresOffRate(t *testing.T) {
	ev := EV{
		BatteryCapacityKWh: 60,
		ChargeRates:        []ChargeRate{{Name: "slow", PowerKW: 3.6}},
	}
	assert.Error(t, ev.Validate())
}

func TestApplianceLatestFeasibleStartHour(t *testing.T) {
	a := HomeAppliance{
		PowerProfileKW: []float64{1, 1, 1},
		TimeWindows:    []TimeWindow{{StartHour: 0, DurationHours: 24}},
	}
	assert.Equal(t, 21, a.LatestFeasibleStartHour(24))
}

func TestApplianceAllowsStartAcrossDisjointWindows(t *testing.T) {
	a := HomeAppliance{
		PowerProfileKW: []float64{1, 1, 1},
		TimeWindows:    []TimeWindow{{StartHour: 8, DurationHours: 5}, {StartHour: 18, DurationHours: 4}},
	}
	assert.True(t, a.AllowsStart(8))
	assert.True(t, a.AllowsStart(10))
	assert.False(t, a.AllowsStart(11)) // would run 11-14, past the first window's end at 13
	assert.False(t, a.AllowsStart(15)) // falls in the gap between windows
	assert.True(t, a.AllowsStart(19))
	assert.Equal(t, 8, a.EarliestStartHour())
}

func TestApplianceValidateRequiresAWindowThatFitsTheCycle(t *testing.T) {
	a := HomeAppliance{
		PowerProfileKW: []float64{1, 1, 1},
		TimeWindows:    []TimeWindow{{StartHour: 8, DurationHours: 2}},
	}
	assert.Error(t, a.Validate())
}

func TestInverterClampGridPower(t *testing.T) {
	i := Inverter{SiteImportPowerLimitKW: 10, SiteExportPowerLimitKW: 5}
	assert.Equal(t, 10.0, i.ClampGridPower(20))
	assert.Equal(t, -5.0, i.ClampGridPower(-20))
	assert.Equal(t, 2.0, i.ClampGridPower(2))
}
