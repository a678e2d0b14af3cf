package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/cepro/eosbess/materializer"
	"github.com/cepro/eosbess/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBess struct {
	commands chan telemetry.BessCommand
}

func newFakeBess() *fakeBess {
	return &fakeBess{commands: make(chan telemetry.BessCommand, 1)}
}

func (f *fakeBess) Commands() chan<- telemetry.BessCommand {
	return f.commands
}

func TestTargetPowerKWSignConvention(t *testing.T) {
	assert.Equal(t, -4.0, targetPowerKW(materializer.ModeForcedCharge, 1.0, 4, 5))
	assert.Equal(t, -2.0, targetPowerKW(materializer.ModeSelfConsumption, 0.5, 4, 5))
	assert.Equal(t, 5.0, targetPowerKW(materializer.ModePeakShaving, 1.0, 4, 5))
	assert.Equal(t, 2.5, targetPowerKW(materializer.ModeGridSupportImport, 0.5, 4, 5))
	assert.Equal(t, 0.0, targetPowerKW(materializer.ModeIdle, 1.0, 4, 5))
	assert.Equal(t, 0.0, targetPowerKW(materializer.ModeNonExport, 1.0, 4, 5))
}

func TestApplyPlanSendsLatestBatteryInstruction(t *testing.T) {
	bess := newFakeBess()
	d := NewPlanDispatcher(bess, 4, 5)

	plan := materializer.Plan{
		BatteryInstructions: []materializer.FRBCInstruction{
			{Time: time.Now(), Mode: materializer.ModeIdle, Factor: 0},
			{Time: time.Now(), Mode: materializer.ModePeakShaving, Factor: 1},
		},
	}

	require.NoError(t, d.ApplyPlan(context.Background(), plan))

	select {
	case cmd := <-bess.commands:
		assert.Equal(t, 5.0, cmd.TargetPower)
	default:
		t.Fatal("expected a command to be sent")
	}
}

func TestApplyPlanNoBatteryInstructionsIsNoop(t *testing.T) {
	bess := newFakeBess()
	d := NewPlanDispatcher(bess, 4, 5)

	require.NoError(t, d.ApplyPlan(context.Background(), materializer.Plan{}))

	select {
	case <-bess.commands:
		t.Fatal("expected no command to be sent")
	default:
	}
}
