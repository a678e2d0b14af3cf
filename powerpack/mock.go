package powerpack

import (
	"context"
	"log/slog"
	"time"

	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
)

// PowerPackMock stands in for a PowerPack without any Modbus connection, for local development and
// tests. It echoes a fixed reading every period and logs whatever commands it receives instead of
// writing registers.
type PowerPackMock struct {
	id              uuid.UUID
	nameplateEnergy float64
	nameplatePower  float64

	telemetry chan telemetry.BessReading
	commands  chan telemetry.BessCommand
}

func NewMock(id uuid.UUID, nameplateEnergy, nameplatePower float64) (*PowerPackMock, error) {
	return &PowerPackMock{
		id:              id,
		nameplateEnergy: nameplateEnergy,
		nameplatePower:  nameplatePower,
		telemetry:       make(chan telemetry.BessReading, 1),
		commands:        make(chan telemetry.BessCommand, 1),
	}, nil
}

func (p *PowerPackMock) Run(ctx context.Context, period time.Duration) error {
	readingTicker := time.NewTicker(period)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-readingTicker.C:
			p.telemetry <- telemetry.BessReading{
				ReadingMeta: telemetry.ReadingMeta{
					ID:       uuid.New(),
					DeviceID: p.id,
					Time:     t,
				},
				TargetPower: 0,
				Soe:         p.nameplateEnergy / 2,
			}
		case command := <-p.commands:
			slog.Info("Issue command to BESS", "bess_command", command)
		}
	}
}

func (p *PowerPackMock) NameplateEnergy() float64 {
	return p.nameplateEnergy
}

func (p *PowerPackMock) NameplatePower() float64 {
	return p.nameplatePower
}

func (p *PowerPackMock) Commands() chan<- telemetry.BessCommand {
	return p.commands
}

func (p *PowerPackMock) Telemetry() <-chan telemetry.BessReading {
	return p.telemetry
}
