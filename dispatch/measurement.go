package dispatch

import (
	"context"
	"sync"

	"github.com/cepro/eosbess/forecast"
	"github.com/google/uuid"
)

// LiveMeasurement is a forecast.Measurement backed by the latest telemetry seen from the site's
// Modbus-polled devices, as referenced by forecast.Measurement's doc comment. BESS SoC is updated
// from every powerpack.PowerPack (or mock) telemetry reading; EV SoC/plugged-in state has no
// Modbus adapter in this deployment (see PlanDispatcher's doc comment on the same limitation), so
// those maps are seeded once at construction and otherwise held static.
type LiveMeasurement struct {
	mu sync.RWMutex

	batterySoc  map[string]float64
	evSoc       map[string]float64
	evPluggedIn map[string]bool
}

func NewLiveMeasurement() *LiveMeasurement {
	return &LiveMeasurement{
		batterySoc:  make(map[string]float64),
		evSoc:       make(map[string]float64),
		evPluggedIn: make(map[string]bool),
	}
}

// UpdateBatterySoc records the latest observed state of energy for the battery with the given ID.
func (m *LiveMeasurement) UpdateBatterySoc(id uuid.UUID, soc float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batterySoc[id.String()] = soc
}

// SeedEV sets a static EV SoC/plugged-in reading for sites with no EV telemetry feed.
func (m *LiveMeasurement) SeedEV(id uuid.UUID, soc float64, pluggedIn bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evSoc[id.String()] = soc
	m.evPluggedIn[id.String()] = pluggedIn
}

// Current implements forecast.Measurement.
func (m *LiveMeasurement) Current(_ context.Context) (forecast.MeasurementBundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bundle := forecast.MeasurementBundle{
		BatterySoc:  make(map[string]float64, len(m.batterySoc)),
		EVSoc:       make(map[string]float64, len(m.evSoc)),
		EVPluggedIn: make(map[string]bool, len(m.evPluggedIn)),
	}
	for k, v := range m.batterySoc {
		bundle.BatterySoc[k] = v
	}
	for k, v := range m.evSoc {
		bundle.EVSoc[k] = v
	}
	for k, v := range m.evPluggedIn {
		bundle.EVPluggedIn[k] = v
	}
	return bundle, nil
}
