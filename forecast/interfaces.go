package forecast

import (
	"context"
	"time"
)

// HourlyBundle is the complete set of forecast series the Parameter Assembler (genparams) needs
// to build one optimization run's input, following the dataframe columns geneticsolution.py
// constructs from its prediction providers (pvforecast_ac_energy_wh, elec_price_amt_kwh,
// weather_air_temp_celcius, loadforecast_energy_wh).
type HourlyBundle struct {
	// PVGenerationKWh is the forecast PV energy yield for each horizon slot.
	PVGenerationKWh Series
	// LoadKWh is the forecast uncontrollable household/site load for each horizon slot.
	LoadKWh Series
	// ImportPricePerKWh is the grid import tariff for each horizon slot.
	ImportPricePerKWh Series
	// FeedInTariffPerKWh is the grid export/feed-in tariff for each horizon slot.
	FeedInTariffPerKWh Series
	// AmbientTempCelsius is the forecast outside air temperature for each horizon slot, used to
	// derate battery charge/discharge limits.
	AmbientTempCelsius Series
}

// Prediction is the interface a forecast data source must satisfy to feed the optimizer (spec
// §6.1). Implementations may be backed by an HTTP API, a local model, or a fixture in tests; the
// coordinator and genparams packages depend only on this interface, never on a concrete provider.
type Prediction interface {
	// Forecast returns hourly forecasts for nHours slots, starting at the hour containing start,
	// in the site's local timezone (see timeutils.Horizon). ForecastUnavailable is returned if the
	// provider cannot produce a value for any requested slot.
	Forecast(ctx context.Context, start time.Time, loc *time.Location, nHours int) (HourlyBundle, error)
}

// MeasurementBundle is the set of live device readings the optimizer uses to initialise a run
// (current battery SoC, EV SoC and connection state, appliance availability).
type MeasurementBundle struct {
	BatterySoc map[string]float64 // keyed by devices.Battery.ID.String()
	EVSoc      map[string]float64 // keyed by devices.EV.ID.String()
	EVPluggedIn map[string]bool
}

// Measurement is the interface for retrieving the current state of controllable devices (spec
// §6.2), satisfied by dispatch's concrete Modbus-backed adapters and by test doubles.
type Measurement interface {
	Current(ctx context.Context) (MeasurementBundle, error)
}
