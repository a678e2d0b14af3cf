package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/eosbess/materializer"
	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	store, err := New(path)
	require.NoError(t, err)
	return store
}

func TestStoreReadingsRoundTrip(t *testing.T) {
	store := newTestStore(t)

	deviceID := uuid.New()
	reading := telemetry.BessReading{
		ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: deviceID, Time: time.Now()},
		TargetPower: 3.5,
		Soe:         0.6,
	}

	require.NoError(t, store.StoreReadings([]telemetry.BessReading{reading}))

	stored, err := store.GetBessReadings(10, 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, reading.TargetPower, stored[0].TargetPower)
	assert.Equal(t, uint(0), stored[0].UploadAttemptCount)
}

func TestGetBessReadingsExcludesExhaustedUploadAttempts(t *testing.T) {
	store := newTestStore(t)

	reading := telemetry.BessReading{ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), DeviceID: uuid.New(), Time: time.Now()}}
	require.NoError(t, store.StoreReadings([]telemetry.BessReading{reading}))

	stored, err := store.GetBessReadings(10, 5)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.IncrementUploadAttemptCount(&stored))
	}

	remaining, err := store.GetBessReadings(10, 5)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestSavePlan(t *testing.T) {
	store := newTestStore(t)

	plan := materializer.Plan{
		GeneratedAt: time.Now(),
		BatteryInstructions: []materializer.FRBCInstruction{
			{Time: time.Now(), Mode: materializer.ModeIdle, Factor: 0},
		},
	}

	require.NoError(t, store.SavePlan(context.Background(), plan))

	var count int64
	require.NoError(t, store.db.Model(&StoredPlan{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
