package persistence

import (
	"time"

	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoredMeterReading represents a meter reading that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredMeterReading struct {
	telemetry.MeterReading
	UploadAttemptCount uint
}

// StoredBessReading represents a BESS reading that is persisted to the SQLite database, and includes a count of upload attempts.
type StoredBessReading struct {
	telemetry.BessReading
	UploadAttemptCount uint
}

func newStoredMeterReading(reading telemetry.MeterReading) StoredMeterReading {
	return StoredMeterReading{
		MeterReading:       reading,
		UploadAttemptCount: 0,
	}
}

func newStoredBessReading(reading telemetry.BessReading) StoredBessReading {
	return StoredBessReading{
		BessReading:        reading,
		UploadAttemptCount: 0,
	}
}

// StoredPlan is a single completed optimization run, persisted as an opaque JSON payload rather
// than a fully normalized schema: plans are written once for audit/replay and are never queried
// by field, so there is no benefit to the column-per-field treatment given to readings above.
type StoredPlan struct {
	ID          uuid.UUID `gorm:"primaryKey"`
	GeneratedAt time.Time
	Payload     string
}

func (p *StoredPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
