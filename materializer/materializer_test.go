package materializer

import (
	"testing"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/genome"
	"github.com/cepro/eosbess/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatBattery() devices.Battery {
	return devices.Battery{
		NameplateEnergy: 10, NameplatePower: 5,
		SocMin: 0.1, SocMax: 0.9,
		ChargeEfficiency: 1, DischargeEfficiency: 1,
		MaxChargePowerAC: 5, MaxDischargePowerAC: 5,
	}
}

func flatInverter() devices.Inverter {
	return devices.Inverter{SiteImportPowerLimitKW: 10, SiteExportPowerLimitKW: 10}
}

func hourAt(h int, action genome.BatteryAction, batteryPowerAC, pv, load, grid float64) simulate.HourState {
	return simulate.HourState{
		Hour: h, Time: time.Date(2026, 6, 1, h, 0, 0, 0, time.UTC),
		BatteryAction: action, BatteryPowerAC: batteryPowerAC,
		PVGenerationKWh: pv, LoadKWh: load, GridPowerKW: grid,
	}
}

func TestMaterializeIdleWithNoSurplusIsIdleMode(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Idle}, 0, 1, 2, 1),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	require.Len(t, plan.BatteryInstructions, 1)
	assert.Equal(t, ModeIdle, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeIdleWithSurplusIsNonExport(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Idle}, 0, 3, 1, 2),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	assert.Equal(t, ModeNonExport, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeDischargeAboveImportLimitIsPeakShaving(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Discharge}, -5, 0, 20, 15),
	}}
	inverter := devices.Inverter{SiteImportPowerLimitKW: 10, SiteExportPowerLimitKW: 10}

	plan, err := Materialize(time.Now(), result, flatBattery(), inverter, "", "")
	require.NoError(t, err)
	assert.Equal(t, ModePeakShaving, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeDischargeBelowImportLimitIsGridSupport(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Discharge}, -2, 0, 5, 3),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	assert.Equal(t, ModeGridSupportImport, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeChargeFromSurplusIsSelfConsumption(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.ACCharge}, 3, 10, 2, 0),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	assert.Equal(t, ModeSelfConsumption, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeChargeFromGridIsForcedCharge(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.ACCharge}, 5, 1, 5, 9),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	assert.Equal(t, ModeForcedCharge, plan.BatteryInstructions[0].Mode)
}

func TestMaterializeCompactsRepeatedModeIntoOneInstruction(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Idle}, 0, 0, 0, 0),
		hourAt(1, genome.BatteryAction{Kind: genome.Idle}, 0, 0, 0, 0),
		hourAt(2, genome.BatteryAction{Kind: genome.Discharge}, -1, 0, 1, 0),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)
	assert.Len(t, plan.BatteryInstructions, 2)
}

func TestSocClampedFactorClampsToUnitInterval(t *testing.T) {
	b := flatBattery()
	f := socClampedFactor(genome.BatteryAction{Kind: genome.Discharge}, -50, b)
	assert.Equal(t, 1.0, f)

	f = socClampedFactor(genome.BatteryAction{Kind: genome.Idle}, 0, b)
	assert.Equal(t, 0.0, f)
}

func TestDataFrameHasOneRowPerHourAndModeColumns(t *testing.T) {
	result := simulate.Result{Hours: []simulate.HourState{
		hourAt(0, genome.BatteryAction{Kind: genome.Idle}, 0, 1, 1, 0),
		hourAt(1, genome.BatteryAction{Kind: genome.Discharge}, -2, 0, 2, 0),
	}}

	plan, err := Materialize(time.Now(), result, flatBattery(), flatInverter(), "", "")
	require.NoError(t, err)

	df := plan.DataFrame()
	assert.Equal(t, 2, df.Nrow())
	assert.Equal(t, len(AllModes)+8, df.Ncol())
}
