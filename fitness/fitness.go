package fitness

import (
	"fmt"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genome"
	"github.com/cepro/eosbess/simulate"
)

// Evaluator scores genomes against a fixed forecast/device input, repairing each genome in place
// before simulating it. One Evaluator is built per optimization run (see genparams) and reused for
// every individual the genetic engine creates.
type Evaluator struct {
	Battery   devices.Battery
	Inverter  devices.Inverter
	EV        *devices.EV
	Appliance *devices.HomeAppliance

	Forecast forecast.HourlyBundle
	Horizon  []time.Time

	InitialBatterySoc float64
	InitialEVSoc      float64

	// EVOptimizationHours is the length of the EV's executable optimization window, mirroring
	// genome.Codec.OptimizationHours: hours at or beyond this index are the "locked tail" (spec
	// §3.4/§4.3/§4.5) that penalty_ev_locked_hours watches for a stray nonzero command. A value
	// <= 0 or >= len(Horizon) means no lock at all.
	EVOptimizationHours int

	// Memo, if set, memoizes the per-hour battery temperature-derating factor across the many
	// evaluations one optimization run performs (spec §4.8's per-run memoization cache). Left nil
	// outside a coordinator-driven run.
	Memo simulate.DeratingCache

	Penalties Penalties
}

// evLockedFrom is the first horizon index whose EV gene is in the locked tail, following
// genome.Codec.EVLockedFrom's same defaulting rule.
func (e *Evaluator) evLockedFrom() int {
	if e.EVOptimizationHours <= 0 || e.EVOptimizationHours >= len(e.Horizon) {
		return len(e.Horizon)
	}
	return e.EVOptimizationHours
}

// Evaluate repairs g in place and returns its fitness (lower is better) plus the full simulated
// trace, which the materializer uses for the winning individual to build the dispatch plan.
func (e *Evaluator) Evaluate(g *genome.Genome) (float64, simulate.Result, error) {
	Repair(g, e.Battery, e.EV)

	result, err := simulate.Run(simulate.Input{
		Genome:            *g,
		Battery:           e.Battery,
		Inverter:          e.Inverter,
		EV:                e.EV,
		Appliance:         e.Appliance,
		Forecast:          e.Forecast,
		InitialBatterySoc: e.InitialBatterySoc,
		InitialEVSoc:      e.InitialEVSoc,
		Horizon:           e.Horizon,
		Cache:             e.Memo,
	})
	if err != nil {
		return 0, simulate.Result{}, fmt.Errorf("simulate genome: %w", err)
	}

	score := result.NetCost

	lockedFrom := e.evLockedFrom()
	maxRate := 0
	if e.EV != nil {
		maxRate = e.EV.MaxRateIndex()
	}

	noDischargeHours := 0
	lockedHours := 0
	overflowHours := 0
	nonzeroEVHours := 0
	for i, hs := range result.Hours {
		if hs.BatteryAction.Kind != genome.Discharge {
			noDischargeHours++
		}
		if e.EV == nil {
			continue
		}
		rate := g.EVRateIndex[i]
		if rate != 0 {
			nonzeroEVHours++
		}
		if i >= lockedFrom && rate != 0 {
			lockedHours++
		}
		if rate > maxRate {
			overflowHours++
		}
	}
	score += float64(noDischargeHours) * e.Penalties.NoDischarge
	score += float64(lockedHours) * e.Penalties.EVLockedHours
	score += float64(overflowHours) * e.Penalties.EVRateOverflow

	if e.EV != nil && result.FinalEVSoc >= 0 {
		target := e.EV.TargetSoc
		if target <= 0 {
			target = 1.0
		}
		if shortfall := target - result.FinalEVSoc; shortfall > 0 {
			score += shortfall * float64(nonzeroEVHours) * e.Penalties.EVSocMissWeight
		}
	}

	if violations := illegalBatteryStates(*g, e.Battery); violations > 0 {
		score += float64(violations) * e.Penalties.HardViolationPenalty
	}

	return score, result, nil
}

// illegalBatteryStates counts genome hours that decode to a combination the materializer would
// reject outright. ActionSpace.Decode can never itself produce an ac+dc-simultaneous gene, so the
// only reachable illegal state here is a DCCharge gene surviving against a battery configured
// with AllowDCCharge=false; this is a defensive check mirroring geneticsolution.py's ValueError
// raises in _battery_operation_from_solution, not expected to ever fire in practice.
func illegalBatteryStates(g genome.Genome, battery devices.Battery) int {
	if battery.AllowDCCharge {
		return 0
	}
	count := 0
	for _, a := range g.Battery {
		if a.Kind == genome.DCCharge {
			count++
		}
	}
	return count
}
