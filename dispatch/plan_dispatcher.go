package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cepro/eosbess/materializer"
	"github.com/cepro/eosbess/telemetry"
)

// Bess is the subset of powerpack.PowerPack (or powerpack.PowerPackMock) that PlanDispatcher needs
// to issue a target power command. Kept as a small local interface, following the teacher's
// top-level `Bess` interface in main.go, so PlanDispatcher doesn't import powerpack directly.
type Bess interface {
	Commands() chan<- telemetry.BessCommand
}

// PlanDispatcher issues the battery leg of a materializer.Plan to the physical BESS: only the FRBC
// instruction in force at "now" is sent, i.e. the last one whose Time is not after the current
// time (the plan's horizon starts at the start of the local day, so earlier instructions are
// already superseded; if every instruction is still in the future, the first is sent). EV and appliance DDBC instructions are logged but not
// physically dispatched here, because the retrieved pack carries no EV-charger or
// appliance-relay Modbus adapter to drive (Acuvim2/PowerPack cover meters and the battery
// inverter only); a site with EV/appliance hardware would plug in another Dispatcher
// implementation for those resource IDs.
//
// Per the "negative target power charges, positive discharges" convention used throughout the
// teacher's controller package (see e.g. comp_import_avoidance.go), mode/factor pairs are mapped to
// a signed power in kW before being sent.
type PlanDispatcher struct {
	Bess Bess

	RatedChargePowerKW    float64
	RatedDischargePowerKW float64

	logger *slog.Logger
}

func NewPlanDispatcher(bess Bess, ratedChargePowerKW, ratedDischargePowerKW float64) *PlanDispatcher {
	return &PlanDispatcher{
		Bess:                  bess,
		RatedChargePowerKW:    ratedChargePowerKW,
		RatedDischargePowerKW: ratedDischargePowerKW,
		logger:                slog.Default(),
	}
}

// ApplyPlan implements coordinator.Dispatcher.
func (d *PlanDispatcher) ApplyPlan(ctx context.Context, plan materializer.Plan) error {
	if len(plan.EVInstructions) > 0 {
		d.logger.Info("plan carries EV instructions with no EV dispatcher wired; logging only",
			"count", len(plan.EVInstructions))
	}
	if len(plan.ApplianceInstructions) > 0 {
		d.logger.Info("plan carries appliance instructions with no appliance dispatcher wired; logging only",
			"count", len(plan.ApplianceInstructions))
	}

	if len(plan.BatteryInstructions) == 0 || d.Bess == nil {
		return nil
	}

	now := time.Now()
	current := plan.BatteryInstructions[0]
	for _, instr := range plan.BatteryInstructions {
		if instr.Time.After(now) {
			break
		}
		current = instr
	}
	command := telemetry.BessCommand{
		TargetPower: targetPowerKW(current.Mode, current.Factor, d.RatedChargePowerKW, d.RatedDischargePowerKW),
	}

	select {
	case d.Bess.Commands() <- command:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		d.logger.Warn("bess command channel full, dropping command", "command", command)
		return nil
	}
}

// targetPowerKW converts a high-level battery mode/factor into the signed power (kW) the BESS
// command channel expects: negative charges, positive discharges.
func targetPowerKW(mode materializer.BatteryOperationMode, factor, ratedChargePowerKW, ratedDischargePowerKW float64) float64 {
	switch mode {
	case materializer.ModeForcedCharge, materializer.ModeSelfConsumption:
		return -factor * ratedChargePowerKW
	case materializer.ModePeakShaving, materializer.ModeGridSupportImport:
		return factor * ratedDischargePowerKW
	default: // ModeIdle, ModeNonExport
		return 0
	}
}
