package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ReadingMeta is embedded in every telemetry reading; it identifies which device produced the
// reading and when it was taken, and doubles as the storage/upload primary key.
type ReadingMeta struct {
	ID       uuid.UUID
	DeviceID uuid.UUID
	Time     time.Time
}

// MeterReading holds one poll of a three-phase site or BESS meter (e.g. an Acuvim2).
type MeterReading struct {
	ReadingMeta

	Frequency          float64
	VoltageLineAverage float64
	CurrentPhA         float64
	CurrentPhB         float64
	CurrentPhC         float64
	CurrentPhAverage   float64
	PowerPhAActive     float64
	PowerPhBActive     float64
	PowerPhCActive     float64
	PowerTotalActive   float64
	PowerTotalReactive float64
	PowerTotalApparent float64
	PowerFactorTotal   float64

	EnergyImportedActive   int32
	EnergyExportedActive   int32
	EnergyImportedReactive int32
	EnergyExportedReactive int32

	EnergyImportedPhAActive int32
	EnergyExportedPhAActive int32
	EnergyImportedPhBActive int32
	EnergyExportedPhBActive int32
	EnergyImportedPhCActive int32
	EnergyExportedPhCActive int32
}

// BessReading holds one poll of a battery energy storage system (inverter + battery pack).
type BessReading struct {
	ReadingMeta

	TargetPower             float64
	Soe                     float64
	AvailableInverterBlocks uint16
	CommandSource           uint16
}

// BessCommand carries a dispatch instruction issued to a battery energy storage system.
type BessCommand struct {
	TargetPower float64
}
