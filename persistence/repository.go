// Package persistence stores telemetry and optimization plans to the local file system (SQLite)
// before telemetry is uploaded to the data platform and plans are kept for audit. Grounded on the
// teacher's repository package; renamed and extended to also satisfy coordinator.Persistence
// (SavePlan), which the teacher's repository had no equivalent of since it predates the GA planner.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cepro/eosbess/materializer"
	"github.com/cepro/eosbess/telemetry"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Store stores telemetry readings and optimization plans to a local SQLite file.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredBessReading{}, &StoredMeterReading{}, &StoredPlan{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{
		db: db,
	}, nil
}

// convertReadingsForStorage returns the equivalent "stored type" (which includes an 'upload attempt count') for the given readings
func (s *Store) convertReadingsForStorage(readings interface{}) interface{} {
	switch readingsTyped := readings.(type) {

	case []telemetry.BessReading:
		storedReading := make([]StoredBessReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			storedReading = append(storedReading, newStoredBessReading(reading))
		}
		return storedReading

	case []telemetry.MeterReading:
		storedReading := make([]StoredMeterReading, 0, len(readingsTyped))
		for _, reading := range readingsTyped {
			storedReading = append(storedReading, newStoredMeterReading(reading))
		}
		return storedReading

	default:
		panic(fmt.Sprintf("Unknown readings type: '%T'", readings))
	}
}

// ConvertStoredToReadings returns the "original reading" from the given stored readings
func (s *Store) ConvertStoredToReadings(storedReadings interface{}) interface{} {
	switch storedReadingsTyped := storedReadings.(type) {

	case []StoredBessReading:
		readings := make([]telemetry.BessReading, 0, len(storedReadingsTyped))
		for _, storedReading := range storedReadingsTyped {
			readings = append(readings, storedReading.BessReading)
		}
		return readings

	case []StoredMeterReading:
		readings := make([]telemetry.MeterReading, 0, len(storedReadingsTyped))
		for _, storedReading := range storedReadingsTyped {
			readings = append(readings, storedReading.MeterReading)
		}
		return readings

	default:
		panic(fmt.Sprintf("Unknown stored readings type: '%T'", storedReadings))
	}
}

// StoreReadings adds the given readings (which can be of any reading type) into the database and
// sets the 'upload attempt count' to 0.
func (s *Store) StoreReadings(readings interface{}) error {
	storedReadings := s.convertReadingsForStorage(readings)
	result := s.db.Create(storedReadings)
	return result.Error
}

func (s *Store) DeleteReadings(readings interface{}) error {
	result := s.db.Delete(&readings)
	return result.Error
}

// GetMeterReadings returns up to limit stored meter readings with fewer than maxUploadAttempts
// upload attempts already recorded, oldest-attempted first.
func (s *Store) GetMeterReadings(limit int, maxUploadAttempts uint) ([]StoredMeterReading, error) {
	var readings []StoredMeterReading

	query := s.db.Where("upload_attempt_count < ?", maxUploadAttempts).
		Limit(limit).
		Order("upload_attempt_count asc, time desc")
	result := query.Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

// GetBessReadings returns up to limit stored BESS readings with fewer than maxUploadAttempts
// upload attempts already recorded, oldest-attempted first.
func (s *Store) GetBessReadings(limit int, maxUploadAttempts uint) ([]StoredBessReading, error) {
	var readings []StoredBessReading

	query := s.db.Where("upload_attempt_count < ?", maxUploadAttempts).
		Limit(limit).
		Order("upload_attempt_count asc, time desc")
	result := query.Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

func (s *Store) IncrementUploadAttemptCount(readings interface{}) error {
	result := s.db.Model(readings).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}

// SavePlan implements coordinator.Persistence: it stores a completed optimization Plan (as the
// uncompacted per-hour trace plus the compacted instruction streams, JSON-encoded) for later
// audit/replay. Unlike telemetry readings, plans are write-once records, not re-attempted uploads,
// so there is no upload-attempt bookkeeping here.
func (s *Store) SavePlan(_ context.Context, plan materializer.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	stored := StoredPlan{
		GeneratedAt: plan.GeneratedAt,
		Payload:     string(payload),
	}
	result := s.db.Create(&stored)
	return result.Error
}
