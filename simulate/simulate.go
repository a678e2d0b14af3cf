// Package simulate walks one hourly horizon forward for a single decoded Genome, producing the
// per-hour device and grid state the fitness evaluator scores. It generalises
// controller.Controller's real-time "evaluate the prioritised control components, derive a power
// setpoint" loop (controller.go's runControlLoop/prioritisedAction) into an hour-at-a-time,
// genome-driven replay used once per GA fitness evaluation rather than continuously against live
// telemetry.
package simulate

import (
	"fmt"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genome"
)

// HourState is the simulated outcome of a single horizon slot.
type HourState struct {
	Hour int
	Time time.Time

	BatteryAction  genome.BatteryAction
	BatteryPowerAC float64 // signed: positive charges the battery, negative discharges it
	BatterySoc     float64 // soc at the end of this hour

	EVChargePowerKW float64
	EVSoc           float64 // soc at the end of this hour, left 0 if no EV present

	ApplianceActive  bool
	AppliancePowerKW float64

	PVGenerationKWh float64
	LoadKWh         float64

	// GridPowerKW is signed: positive imports from the grid, negative exports to it.
	GridPowerKW float64

	// Clipped is true if the grid power this hour had to be clamped to the site's
	// import/export limits, meaning the plan for this hour is not fully achievable as decoded.
	Clipped bool

	ImportCost    float64
	ExportRevenue float64
}

// Result is a whole horizon's simulated trace plus the summary figures the fitness evaluator and
// the materializer both need.
type Result struct {
	Hours []HourState

	FinalBatterySoc float64
	FinalEVSoc      float64 // -1 if no EV present

	TotalImportCost    float64
	TotalExportRevenue float64
	NetCost            float64

	// TotalBalance is the horizon-wide sum of (grid + pv) - (load + battery + ev + appliance), in
	// kWh, using the clamped grid power. Over hours that were not Clipped it is within floating
	// point tolerance of zero (spec §8 energy balance invariant); each Clipped hour adds the amount
	// its grid power was clamped by.
	TotalBalance float64
}

// DeratingCache memoizes the per-hour temperature-derating factor a Battery's
// TemperatureDeratingCurve produces. The factor is a pure function of the hour's forecast ambient
// temperature, which is fixed for an entire optimization run, but Run recomputes it from scratch
// on every battery-active hour of every genome the genetic engine evaluates — tens of thousands of
// times over a single run's population and generations. A DeratingCache lets that curve lookup
// happen once per hour per run instead (spec §4.8's per-run memoization cache); it is optional, and
// a nil cache simply recomputes every time.
type DeratingCache interface {
	Get(hour int) (float64, bool)
	Put(hour int, value float64)
}

// Input bundles everything Simulate needs for one genome evaluation.
type Input struct {
	Genome genome.Genome

	Battery   devices.Battery
	Inverter  devices.Inverter
	EV        *devices.EV            // nil if no EV is part of this run
	Appliance *devices.HomeAppliance // nil if no schedulable appliance is part of this run

	Forecast forecast.HourlyBundle

	InitialBatterySoc float64
	InitialEVSoc      float64 // ignored if EV is nil

	Horizon []time.Time // one timestamp per hour, from timeutils.Horizon

	// Cache, if set, memoizes the per-hour battery derating factor across the many evaluations one
	// optimization run performs. Left nil outside of a coordinator-driven run (e.g. in tests),
	// which simply disables the memoization.
	Cache DeratingCache
}

// Run simulates one hourly horizon for the given, already-decoded genome. It does not mutate the
// genome and does not perform the look-ahead repairs described in spec §4.4/§9 — those happen
// in-place on the Genome before Run is called (see package fitness) — so Run can safely be called
// repeatedly against the same Genome value without side effects.
func Run(in Input) (Result, error) {
	h := len(in.Genome.Battery)
	if err := in.Forecast.PVGenerationKWh.ValidateLength(h); err != nil {
		return Result{}, fmt.Errorf("pv generation: %w", err)
	}
	if err := in.Forecast.LoadKWh.ValidateLength(h); err != nil {
		return Result{}, fmt.Errorf("load: %w", err)
	}
	if err := in.Forecast.ImportPricePerKWh.ValidateLength(h); err != nil {
		return Result{}, fmt.Errorf("import price: %w", err)
	}
	if err := in.Forecast.FeedInTariffPerKWh.ValidateLength(h); err != nil {
		return Result{}, fmt.Errorf("feed-in tariff: %w", err)
	}
	if len(in.Horizon) != h {
		return Result{}, fmt.Errorf("horizon has %d timestamps, want %d", len(in.Horizon), h)
	}

	result := Result{Hours: make([]HourState, h)}

	batterySoc := in.Battery.ClampSoc(in.InitialBatterySoc)
	evSoc := in.InitialEVSoc

	for i := 0; i < h; i++ {
		hs := HourState{
			Hour:            i,
			Time:            in.Horizon[i],
			PVGenerationKWh: in.Forecast.PVGenerationKWh[i],
			LoadKWh:         in.Forecast.LoadKWh[i],
		}

		// EV charging is applied first and treated as committed load ahead of the battery
		// decision (spec §9 open question, resolved in DESIGN.md in favour of EV priority,
		// following genetic.py's gene decode ordering: segment B is read before segment A's
		// effect on available headroom is computed).
		if in.EV != nil {
			rateIdx := in.Genome.EVRateIndex[i]
			energy := in.EV.EnergyForHour(rateIdx)
			remainingCapacity := (1 - evSoc) * in.EV.BatteryCapacityKWh
			if energy > remainingCapacity {
				energy = remainingCapacity
			}
			if energy < 0 {
				energy = 0
			}
			hs.EVChargePowerKW = in.EV.ChargeRates[rateIdx].PowerKW
			if energy < hs.EVChargePowerKW*in.EV.ChargeEfficiency {
				// the rate was clamped down to avoid overcharging; report actual draw
				if in.EV.ChargeEfficiency > 0 {
					hs.EVChargePowerKW = energy / in.EV.ChargeEfficiency
				}
			}
			evSoc += energy / in.EV.BatteryCapacityKWh
			hs.EVSoc = evSoc
		}

		if in.Appliance != nil {
			start := in.Genome.ApplianceStartHour
			if in.Appliance.AllowsStart(start) && i >= start && i < start+in.Appliance.DurationHours() {
				hs.ApplianceActive = true
				hs.AppliancePowerKW = in.Appliance.PowerProfileKW[i-start]
			}
		}

		action := in.Genome.Battery[i]
		hs.BatteryAction = action
		ambientTemp := 0.0
		if len(in.Forecast.AmbientTempCelsius) > i {
			ambientTemp = in.Forecast.AmbientTempCelsius[i]
		}
		deratingFactor := cachedDeratingFactor(in.Battery, ambientTemp, i, in.Cache)
		batteryPowerAC, newSoc := applyBatteryAction(in.Battery, action, batterySoc, deratingFactor)
		hs.BatteryPowerAC = batteryPowerAC
		batterySoc = newSoc
		hs.BatterySoc = batterySoc

		gridPower := in.LoadPlusDevicesMinusPV(hs)
		clampedGrid := in.Inverter.ClampGridPower(gridPower)
		hs.GridPowerKW = clampedGrid
		hs.Clipped = clampedGrid != gridPower

		if clampedGrid > 0 {
			hs.ImportCost = clampedGrid * in.Forecast.ImportPricePerKWh[i]
		} else {
			hs.ExportRevenue = -clampedGrid * in.Forecast.FeedInTariffPerKWh[i]
		}

		result.TotalBalance += (clampedGrid + hs.PVGenerationKWh) - (hs.LoadKWh + hs.BatteryPowerAC + hs.EVChargePowerKW + hs.AppliancePowerKW)

		result.Hours[i] = hs
		result.TotalImportCost += hs.ImportCost
		result.TotalExportRevenue += hs.ExportRevenue
	}

	result.FinalBatterySoc = batterySoc
	if in.EV != nil {
		result.FinalEVSoc = evSoc
	} else {
		result.FinalEVSoc = -1 // sentinel: no EV in this run
	}
	result.NetCost = result.TotalImportCost - result.TotalExportRevenue

	return result, nil
}

// LoadPlusDevicesMinusPV returns the signed grid power implied by one hour's state before
// inverter clamping: positive means the site would need to import, negative means it would
// export. Exported as a method on Input purely so it reads next to the devices/forecast fields it
// closes over; it has no Input-specific state.
func (in Input) LoadPlusDevicesMinusPV(hs HourState) float64 {
	return hs.LoadKWh + hs.BatteryPowerAC + hs.EVChargePowerKW + hs.AppliancePowerKW - hs.PVGenerationKWh
}

// cachedDeratingFactor returns battery's temperature-derating factor for this hour, reusing cache's
// memoized value for hour if present (the factor only depends on the hour's forecast ambient
// temperature, which is the same for every genome Run evaluates this optimization run).
func cachedDeratingFactor(b devices.Battery, ambientTempCelsius float64, hour int, cache DeratingCache) float64 {
	if cache != nil {
		if v, ok := cache.Get(hour); ok {
			return v
		}
	}
	factor := b.DeratingFactor(ambientTempCelsius)
	if cache != nil {
		cache.Put(hour, factor)
	}
	return factor
}

// applyBatteryAction returns the signed AC power drawn (positive) or delivered (negative) by the
// battery this hour, and the resulting SoC, given the battery's power/efficiency/SoC limits
// (derated by deratingFactor, the battery's TemperatureDeratingCurve multiplier for this hour). A
// requested action that would violate a limit is scaled back to the feasible amount rather than
// rejected outright — genetic.py's evaluate_inner applies the same "do as much of this as
// possible" semantics rather than treating an infeasible gene as invalid.
func applyBatteryAction(b devices.Battery, a genome.BatteryAction, soc float64, deratingFactor float64) (powerAC float64, newSoc float64) {
	switch a.Kind {
	case genome.Idle:
		return 0, soc

	case genome.Discharge, genome.ACCharge, genome.DCCharge:
		// DC-coupled charging is metered identically to AC charging at this level of
		// abstraction (both draw from the grid/PV side of the inverter); the distinction
		// only matters to the materializer's instruction encoding.
		charging := a.Kind == genome.ACCharge || a.Kind == genome.DCCharge

		if charging {
			headroomKwh := (b.SocMax - soc) * b.NameplateEnergy
			maxPower := b.MaxChargePowerAC * deratingFactor
			if b.NameplatePower < maxPower {
				maxPower = b.NameplatePower
			}
			// only the ac_charge bucket is rate-indexed (spec §3.4/§4.2): dc_charge is a binary
			// allowed/disallowed flag, not a rate selection, so it always requests full power.
			if a.Kind == genome.ACCharge {
				maxPower *= b.ChargeRateFraction(a.RateIndex)
			}
			power := maxPower
			energyIn := power * b.ChargeEfficiency
			if energyIn > headroomKwh {
				if b.ChargeEfficiency > 0 {
					power = headroomKwh / b.ChargeEfficiency
				} else {
					power = 0
				}
			}
			if power < 0 {
				power = 0
			}
			newSocVal := soc + (power*b.ChargeEfficiency)/b.NameplateEnergy
			return power, newSocVal
		}

		headroomKwh := (soc - b.SocMin) * b.NameplateEnergy
		maxPower := b.MaxDischargePowerAC * deratingFactor
		if b.NameplatePower < maxPower {
			maxPower = b.NameplatePower
		}
		power := maxPower
		energyOut := power / b.DischargeEfficiency
		if energyOut > headroomKwh {
			power = headroomKwh * b.DischargeEfficiency
		}
		if power < 0 {
			power = 0
		}
		newSocVal := soc - (power/b.DischargeEfficiency)/b.NameplateEnergy
		return -power, newSocVal

	default:
		return 0, soc
	}
}
