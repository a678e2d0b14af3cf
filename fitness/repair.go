package fitness

import (
	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/genome"
)

// Repair mutates g in place so it no longer contains genes that cannot be physically realised,
// mirroring genetic.py's walk-forward correction inside evaluate_inner. It must be called before
// simulate.Run, and the genetic engine must tolerate fitness evaluation mutating the individual it
// is scoring (individuals are repaired, not discarded, on crossover/mutation producing an
// infeasible gene).
//
// Two corrections are applied, each a forward walk over the same simulated SoC trajectory
// simulate.Run would produce:
//
//  1. Once the EV's simulated SoC reaches 100%, every subsequent EV charge-rate gene is zeroed. Leaving a nonzero rate gene there is functionally
//     a no-op once simulate.Run clamps the energy to remaining capacity, but zeroing it stops the
//     GA wasting search effort distinguishing between chromosomes that differ only in genes with no
//     effect on the outcome.
//  2. Once the battery's simulated SoC reaches SocMin, any gene that is not already Discharge is
//     forced to Discharge: the battery cannot be floored and then commanded to charge or idle in
//     the same hour, so every chromosome encoding "the battery is floored and staying floored"
//     collapses to the same gene sequence. This keeps the GA's notion of genome equality (used by
//     HallOfFame deduplication) meaningful across otherwise-equivalent plans.
func Repair(g *genome.Genome, battery devices.Battery, ev *devices.EV) {
	if ev != nil {
		repairEV(g, *ev)
	}
	repairBatteryFloor(g, battery)
}

func repairEV(g *genome.Genome, ev devices.EV) {
	soc := ev.InitialSoc

	reached := false
	for i := range g.EVRateIndex {
		if reached {
			g.EVRateIndex[i] = 0
			continue
		}

		rateIdx := g.EVRateIndex[i]
		energy := ev.EnergyForHour(rateIdx)
		remaining := (1 - soc) * ev.BatteryCapacityKWh
		if energy > remaining {
			energy = remaining
		}
		soc += energy / ev.BatteryCapacityKWh

		if soc >= 1.0 {
			reached = true
		}
	}
}

func repairBatteryFloor(g *genome.Genome, battery devices.Battery) {
	soc := battery.ClampSoc(0) // the lowest reachable soc is SocMin, never raw zero

	for i, action := range g.Battery {
		if soc <= battery.SocMin && action.Kind != genome.Discharge {
			g.Battery[i] = genome.BatteryAction{Kind: genome.Discharge}
		}

		// advance soc the same way simulate.applyBatteryAction would, using only the sign of the
		// action (charge vs discharge vs idle) since the exact power delivered doesn't change
		// which hours are floored, only by how much headroom remains within a floored hour.
		switch g.Battery[i].Kind {
		case genome.ACCharge, genome.DCCharge:
			if soc < battery.SocMax {
				soc = battery.SocMax // optimistic: assume the hour could reach the ceiling
			}
		case genome.Discharge:
			soc = battery.SocMin
		}
	}
}
