// Package fitness scores one decoded Genome by simulating it (package simulate) and turning the
// result into a single float the genetic engine minimises. It also performs the in-place genome
// repair described in spec §4.4/§9: genetic.py mutates the individual it is scoring as part of
// evaluate_inner, rather than rejecting infeasible genomes outright, and the engine must tolerate
// that (see genetic.Run's comments on this).
package fitness

// Penalties holds the magnitudes added to the raw financial cost to discourage physically
// dubious or contractually-unmet plans. The specific values are carried over from
// genetic.py's fitness function as load-bearing defaults, not arbitrary placeholders: they were
// tuned so that the mild no-discharge bias never outweighs a real cost difference, while the
// hard-violation penalty always outweighs any achievable cost saving, so the GA cannot trade away
// a hard constraint for a cheaper bill.
type Penalties struct {
	// NoDischarge is added per hour the battery gene does not command discharge, a mild bias
	// against pathological all-idle solutions. Default 0.01.
	NoDischarge float64

	// EVLockedHours is added per hour, within the EV's locked tail (beyond the optimization
	// window), that the genome still commands a nonzero EV charge rate. Default 10 ("P" in
	// genetic.py).
	EVLockedHours float64

	// EVRateOverflow is added per hour the genome's EV rate index exceeds the EV's highest valid
	// rate index. Default 100 (10*P) — decode already reduces any out-of-range gene modulo the
	// rate table size, so this term is defensive rather than expected to ever fire.
	EVRateOverflow float64

	// EVSocMissWeight is "P" in penalty_ev_soc_miss: the shortfall below the EV's target SoC,
	// scaled by how many hours the genome actually spent charging it, is multiplied by this
	// weight. Default 10.
	EVSocMissWeight float64

	// HardViolationPenalty is added once per hour an illegal device state is detected (a DCCharge
	// gene on a battery configured with AllowDCCharge=false — see illegalBatteryStates). Default
	// 100000.0, large enough to dominate every other
	// term combined for any horizon length this system is expected to run.
	HardViolationPenalty float64
}

// DefaultPenalties returns the magnitudes genetic.py uses.
func DefaultPenalties() Penalties {
	return Penalties{
		NoDischarge:          0.01,
		EVLockedHours:        10,
		EVRateOverflow:       100,
		EVSocMissWeight:      10,
		HardViolationPenalty: 100000.0,
	}
}
