package dataplatform

import (
	"fmt"
	"time"

	"github.com/cepro/eosbess/materializer"
	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
)

const (
	supabaseBessReadingsTable  = "bess_readings"
	supabaseMeterReadingsTable = "meter_readings"
	supabasePlansTable         = "plans"
)

// supabaseBessReading holds the json encoding schema for a BESS reading in supabase.
type supabaseBessReading struct {
	ID                      uuid.UUID `json:"id"`
	Time                    time.Time `json:"time"`
	BessID                  uuid.UUID `json:"bess_id"`
	TargetPower             float64   `json:"target_power"`
	Soe                     float64   `json:"soe"`
	AvailableInverterBlocks uint16    `json:"available_inverter_blocks"`
	CommandSource           uint16    `json:"command_source"`
}

func newSupabaseBessReading(r telemetry.BessReading) supabaseBessReading {
	return supabaseBessReading{
		ID:                      r.ID,
		Time:                    r.Time,
		BessID:                  r.DeviceID,
		TargetPower:             r.TargetPower,
		Soe:                     r.Soe,
		AvailableInverterBlocks: r.AvailableInverterBlocks,
		CommandSource:           r.CommandSource,
	}
}

// supabaseMeterReading holds the json encoding schema for a meter reading in supabase.
type supabaseMeterReading struct {
	ID                 uuid.UUID `json:"id"`
	Time               time.Time `json:"time"`
	MeterID            uuid.UUID `json:"meter_id"`
	Frequency          float64   `json:"frequency"`
	VoltageLineAverage float64   `json:"voltage_line_average"`
	CurrentPhA         float64   `json:"current_ph_a"`
	CurrentPhB         float64   `json:"current_ph_b"`
	CurrentPhC         float64   `json:"current_ph_c"`
	CurrentPhAverage   float64   `json:"current_ph_average"`
	PowerPhAActive     float64   `json:"power_ph_a_active"`
	PowerPhBActive     float64   `json:"power_ph_b_active"`
	PowerPhCActive     float64   `json:"power_ph_c_active"`
	PowerTotalActive   float64   `json:"power_total_active"`
	PowerTotalReactive float64   `json:"power_total_reactive"`
	PowerTotalApparent float64   `json:"power_total_apparent"`
	PowerFactorTotal   float64   `json:"power_factor_total"`

	EnergyImportedActive   int32 `json:"energy_imported_active"`
	EnergyExportedActive   int32 `json:"energy_exported_active"`
	EnergyImportedReactive int32 `json:"energy_imported_reactive"`
	EnergyExportedReactive int32 `json:"energy_exported_reactive"`

	EnergyImportedPhAActive int32 `json:"energy_imported_ph_a_active"`
	EnergyExportedPhAActive int32 `json:"energy_exported_ph_a_active"`
	EnergyImportedPhBActive int32 `json:"energy_imported_ph_b_active"`
	EnergyExportedPhBActive int32 `json:"energy_exported_ph_b_active"`
	EnergyImportedPhCActive int32 `json:"energy_imported_ph_c_active"`
	EnergyExportedPhCActive int32 `json:"energy_exported_ph_c_active"`
}

func newSupabaseMeterReading(r telemetry.MeterReading) supabaseMeterReading {
	return supabaseMeterReading{
		ID:                      r.ID,
		Time:                    r.Time,
		MeterID:                 r.DeviceID,
		Frequency:               r.Frequency,
		VoltageLineAverage:      r.VoltageLineAverage,
		CurrentPhA:              r.CurrentPhA,
		CurrentPhB:              r.CurrentPhB,
		CurrentPhC:              r.CurrentPhC,
		CurrentPhAverage:        r.CurrentPhAverage,
		PowerPhAActive:          r.PowerPhAActive,
		PowerPhBActive:          r.PowerPhBActive,
		PowerPhCActive:          r.PowerPhCActive,
		PowerTotalActive:        r.PowerTotalActive,
		PowerTotalReactive:      r.PowerTotalReactive,
		PowerTotalApparent:      r.PowerTotalApparent,
		PowerFactorTotal:        r.PowerFactorTotal,
		EnergyImportedActive:    r.EnergyImportedActive,
		EnergyExportedActive:    r.EnergyExportedActive,
		EnergyImportedReactive:  r.EnergyImportedReactive,
		EnergyExportedReactive:  r.EnergyExportedReactive,
		EnergyImportedPhAActive: r.EnergyImportedPhAActive,
		EnergyExportedPhAActive: r.EnergyExportedPhAActive,
		EnergyImportedPhBActive: r.EnergyImportedPhBActive,
		EnergyExportedPhBActive: r.EnergyExportedPhBActive,
		EnergyImportedPhCActive: r.EnergyImportedPhCActive,
		EnergyExportedPhCActive: r.EnergyExportedPhCActive,
	}
}

// supabasePlan holds the json encoding schema for a materialized plan in supabase: the full plan
// is stored as a single JSON payload column, mirroring persistence.StoredPlan, rather than
// normalized into per-hour rows, since nothing downstream queries plans by hour.
type supabasePlan struct {
	ID          uuid.UUID `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	Payload     string    `json:"payload"`
}

func newSupabasePlan(plan materializer.Plan, payload string) supabasePlan {
	return supabasePlan{
		ID:          uuid.New(),
		GeneratedAt: plan.GeneratedAt,
		Payload:     payload,
	}
}

// convertReadingsForSupabase converts the given readings (of any reading type) into the equivalent
// supabase json-schema type and returns it alongside the supabase table name to upload to.
func convertReadingsForSupabase(readings interface{}) (interface{}, string) {
	switch readingsTyped := readings.(type) {

	case []telemetry.BessReading:
		supabaseReadings := make([]supabaseBessReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			supabaseReadings = append(supabaseReadings, newSupabaseBessReading(reading))
		}
		return supabaseReadings, supabaseBessReadingsTable

	case []telemetry.MeterReading:
		supabaseReadings := make([]supabaseMeterReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			supabaseReadings = append(supabaseReadings, newSupabaseMeterReading(reading))
		}
		return supabaseReadings, supabaseMeterReadingsTable

	default:
		panic(fmt.Sprintf("Unknown readings type: '%T'", readings))
	}
}
