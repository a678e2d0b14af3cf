package dataplatform

import (
	"testing"
	"time"

	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertReadingsForSupabaseBessReadings(t *testing.T) {
	reading := telemetry.BessReading{
		ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()},
		TargetPower: 1.5,
		Soe:         0.4,
	}

	converted, table := convertReadingsForSupabase([]telemetry.BessReading{reading})

	assert.Equal(t, supabaseBessReadingsTable, table)
	rows, ok := converted.([]supabaseBessReading)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, reading.DeviceID, rows[0].BessID)
	assert.Equal(t, reading.TargetPower, rows[0].TargetPower)
}

func TestConvertReadingsForSupabaseMeterReadings(t *testing.T) {
	reading := telemetry.MeterReading{
		ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()},
		Frequency:   50.1,
	}

	converted, table := convertReadingsForSupabase([]telemetry.MeterReading{reading})

	assert.Equal(t, supabaseMeterReadingsTable, table)
	rows, ok := converted.([]supabaseMeterReading)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, reading.DeviceID, rows[0].MeterID)
	assert.Equal(t, reading.Frequency, rows[0].Frequency)
}

func TestConvertReadingsForSupabasePanicsOnUnknownType(t *testing.T) {
	assert.Panics(t, func() {
		convertReadingsForSupabase("not a reading")
	})
}
