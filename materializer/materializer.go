// Package materializer is the Plan assembler (spec §5, component C7): it turns a winning
// simulate.Result into the high-level BatteryOperationMode + SoC-clamped factor sequence dispatch
// actually issues, compacts that sequence into FRBC/DDBC instructions (emitting only on a
// transition, not every hour), and renders the full per-hour trace as a go-gota/gota DataFrame for
// persistence/upload.
//
// Grounded on geneticsolution.py's _battery_operation_from_solution (priority-ordered mode
// mapping with illegal-state detection), _soc_clamped_operation_factors (headroom-based factor
// clamping), and energy_management_plan (instruction-stream compaction).
package materializer

import (
	"fmt"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/genome"
	"github.com/cepro/eosbess/simulate"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// BatteryOperationMode is the high-level instruction dispatch issues to the battery inverter,
// replacing the raw genome.BatteryAction with the vocabulary the physical device/control protocol
// actually understands.
type BatteryOperationMode string

const (
	ModeIdle               BatteryOperationMode = "IDLE"
	ModePeakShaving        BatteryOperationMode = "PEAK_SHAVING"
	ModeGridSupportImport  BatteryOperationMode = "GRID_SUPPORT_IMPORT"
	ModeNonExport          BatteryOperationMode = "NON_EXPORT"
	ModeForcedCharge       BatteryOperationMode = "FORCED_CHARGE"
	ModeSelfConsumption    BatteryOperationMode = "SELF_CONSUMPTION"
)

// AllModes lists every BatteryOperationMode value, in a stable order, for building the per-mode
// indicator columns the supplemented DataFrame output carries (every mode gets a column, not just
// whichever one was active, so downstream analysis doesn't need to know the enum to pivot on it).
var AllModes = []BatteryOperationMode{
	ModeIdle, ModePeakShaving, ModeGridSupportImport, ModeNonExport, ModeForcedCharge, ModeSelfConsumption,
}

// FRBCInstruction is a Fill-Rate-Based-Control instruction for the battery: hold the given mode at
// the given fractional fill rate until superseded by the next instruction.
type FRBCInstruction struct {
	Time   time.Time
	Mode   BatteryOperationMode
	Factor float64 // SoC-clamped fraction of the relevant power limit, in [0, 1]
}

// DDBCInstruction is a Demand-Driven-Based-Control instruction for a non-battery controllable
// device (EV or appliance): be active (drawing PowerKW) or not, from Time until superseded.
type DDBCInstruction struct {
	Time     time.Time
	DeviceID string
	Active   bool
	PowerKW  float64
}

// Plan is the complete, compacted output of one optimization run: what to tell the battery, the
// EV, and the appliance, plus the full uncompacted hourly trace for persistence/analysis.
type Plan struct {
	GeneratedAt time.Time
	Horizon     []time.Time

	BatteryInstructions []FRBCInstruction
	EVInstructions       []DDBCInstruction
	ApplianceInstructions []DDBCInstruction

	Hours []simulate.HourState
}

// Materialize builds a Plan from a simulated result. battery and inverter are needed to compute
// SoC-clamped fill-rate factors; evID/applianceID label DDBC instructions (empty string if the
// corresponding device is absent from this run).
func Materialize(generatedAt time.Time, result simulate.Result, battery devices.Battery, inverter devices.Inverter, evID, applianceID string) (Plan, error) {
	plan := Plan{
		GeneratedAt: generatedAt,
		Hours:       result.Hours,
	}

	var lastMode BatteryOperationMode = "__unset__"
	var lastFactor = -1.0
	var lastEVActive = false
	var lastApplianceActive = false

	for _, hs := range result.Hours {
		plan.Horizon = append(plan.Horizon, hs.Time)

		pvSurplus := hs.PVGenerationKWh - hs.LoadKWh
		preBatteryGrid := hs.GridPowerKW - hs.BatteryPowerAC

		mode, err := batteryOperationMode(hs.BatteryAction, pvSurplus, preBatteryGrid, inverter)
		if err != nil {
			return Plan{}, fmt.Errorf("hour %d: %w", hs.Hour, err)
		}

		factor := socClampedFactor(hs.BatteryAction, hs.BatteryPowerAC, battery)

		if mode != lastMode || factor != lastFactor {
			plan.BatteryInstructions = append(plan.BatteryInstructions, FRBCInstruction{
				Time: hs.Time, Mode: mode, Factor: factor,
			})
			lastMode, lastFactor = mode, factor
		}

		if evID != "" && hs.EVChargePowerKW != 0 != lastEVActive {
			plan.EVInstructions = append(plan.EVInstructions, DDBCInstruction{
				Time: hs.Time, DeviceID: evID, Active: hs.EVChargePowerKW != 0, PowerKW: hs.EVChargePowerKW,
			})
			lastEVActive = hs.EVChargePowerKW != 0
		}

		if applianceID != "" && hs.ApplianceActive != lastApplianceActive {
			plan.ApplianceInstructions = append(plan.ApplianceInstructions, DDBCInstruction{
				Time: hs.Time, DeviceID: applianceID, Active: hs.ApplianceActive, PowerKW: hs.AppliancePowerKW,
			})
			lastApplianceActive = hs.ApplianceActive
		}
	}

	return plan, nil
}

// batteryOperationMode maps one hour's simulated state onto a BatteryOperationMode, prioritising
// AC charge, then DC charge, then discharge, then idle — the same priority order
// geneticsolution.py's _battery_operation_from_solution uses, generalised to the BatteryAction sum
// type in place of independent ac/dc/discharge floats. Because genome.ActionSpace.Decode can only
// ever produce one of Idle/Discharge/ACCharge/DCCharge per hour, the "ac and discharge both
// nonzero" illegal state the original guards against cannot actually arise here, so there is no
// check for it; the only error returned is for an unknown action kind.
func batteryOperationMode(action genome.BatteryAction, pvSurplusKW, preBatteryGridKW float64, inverter devices.Inverter) (BatteryOperationMode, error) {
	switch action.Kind {
	case genome.ACCharge, genome.DCCharge:
		if pvSurplusKW > 0 {
			return ModeSelfConsumption, nil
		}
		return ModeForcedCharge, nil

	case genome.Discharge:
		if preBatteryGridKW > inverter.SiteImportPowerLimitKW {
			return ModePeakShaving, nil
		}
		return ModeGridSupportImport, nil

	case genome.Idle:
		if pvSurplusKW > 0 {
			return ModeNonExport, nil
		}
		return ModeIdle, nil

	default:
		return "", fmt.Errorf("unknown battery action kind %v", action.Kind)
	}
}

// socClampedFactor expresses a simulated battery power as a fraction of the relevant rated power,
// clamped to [0, 1], following geneticsolution.py's _soc_clamped_operation_factors.
func socClampedFactor(action genome.BatteryAction, powerAC float64, battery devices.Battery) float64 {
	var rated float64
	switch action.Kind {
	case genome.ACCharge, genome.DCCharge:
		rated = battery.MaxChargePowerAC
	case genome.Discharge:
		rated = battery.MaxDischargePowerAC
	default:
		return 0
	}
	if rated <= 0 {
		return 0
	}

	factor := abs(powerAC) / rated
	if factor < 0 {
		return 0
	}
	if factor > 1 {
		return 1
	}
	return factor
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// DataFrame renders the plan's full hourly trace as a go-gota/gota DataFrame, with one indicator
// column per BatteryOperationMode value (spec supplement: every mode gets a column, populated 1
// for the hour it was active and 0 otherwise, rather than only the single active mode per row) so
// downstream consumers can aggregate "hours spent in PEAK_SHAVING" etc. without re-deriving the
// mode mapping.
func (p Plan) DataFrame() dataframe.DataFrame {
	n := len(p.Hours)

	times := make([]string, n)
	soc := make([]float64, n)
	gridPower := make([]float64, n)
	batteryPower := make([]float64, n)
	evPower := make([]float64, n)
	appliancePower := make([]float64, n)
	importCost := make([]float64, n)
	exportRevenue := make([]float64, n)

	modeColumns := make(map[BatteryOperationMode][]float64, len(AllModes))
	for _, m := range AllModes {
		modeColumns[m] = make([]float64, n)
	}

	for i, hs := range p.Hours {
		times[i] = hs.Time.Format(time.RFC3339)
		soc[i] = hs.BatterySoc
		gridPower[i] = hs.GridPowerKW
		batteryPower[i] = hs.BatteryPowerAC
		evPower[i] = hs.EVChargePowerKW
		appliancePower[i] = hs.AppliancePowerKW
		importCost[i] = hs.ImportCost
		exportRevenue[i] = hs.ExportRevenue
	}

	for i, instr := range p.BatteryInstructions {
		// fan each compacted instruction back out across the hours it covers so the dataframe
		// stays one row per hour regardless of how much the instruction stream was compacted.
		var nextTime time.Time
		if i+1 < len(p.BatteryInstructions) {
			nextTime = p.BatteryInstructions[i+1].Time
		}
		markModeActive(modeColumns, p.Hours, instr, nextTime)
	}

	cols := []series.Series{
		series.New(times, series.String, "time"),
		series.New(soc, series.Float, "battery_soc"),
		series.New(gridPower, series.Float, "grid_power_kw"),
		series.New(batteryPower, series.Float, "battery_power_ac_kw"),
		series.New(evPower, series.Float, "ev_charge_power_kw"),
		series.New(appliancePower, series.Float, "appliance_power_kw"),
		series.New(importCost, series.Float, "import_cost"),
		series.New(exportRevenue, series.Float, "export_revenue"),
	}
	for _, m := range AllModes {
		cols = append(cols, series.New(modeColumns[m], series.Float, "mode_"+string(m)))
	}

	return dataframe.New(cols...)
}

// markModeActive sets the indicator column for instr.Mode to 1 for every hour from instr.Time up
// to (but not including) nextTime, the following instruction's time. A zero nextTime means instr
// is the last instruction in the stream, so it covers every remaining hour.
func markModeActive(modeColumns map[BatteryOperationMode][]float64, hours []simulate.HourState, instr FRBCInstruction, nextTime time.Time) {
	col := modeColumns[instr.Mode]
	for i, hs := range hours {
		if hs.Time.Before(instr.Time) {
			continue
		}
		if !nextTime.IsZero() && !hs.Time.Before(nextTime) {
			continue
		}
		col[i] = 1
	}
}
