package devices

import (
	"fmt"

	"github.com/google/uuid"
)

// ChargeRate is one entry of an EV's discrete charge-rate table. The genetic encoding picks a
// charge rate by index (see genome.EVGene) rather than a continuous power, mirroring how
// geneticsolution.py always treats EV charging as selecting from a small set of named rates
// (off/6A/10A/16A/32A-equivalent) rather than an arbitrary setpoint.
type ChargeRate struct {
	Name    string  `json:"name"`
	PowerKW float64 `json:"powerKw"`
}

// EV describes the static characteristics of an electric vehicle connected over the optimization
// horizon.
type EV struct {
	ID uuid.UUID `json:"id"`

	BatteryCapacityKWh float64      `json:"batteryCapacityKwh"`
	ChargeEfficiency   float64      `json:"chargeEfficiency"`
	ChargeRates        []ChargeRate `json:"chargeRates"` // index 0 must be the "off" rate (PowerKW == 0)

	InitialSoc float64 `json:"initialSoc"` // fraction 0..1 at the start of the horizon
	TargetSoc  float64 `json:"targetSoc"`  // fraction 0..1 required by DepartureHour

	// DepartureHour is the horizon slot index (0-based) by which TargetSoc must be reached. A
	// DepartureHour beyond the horizon length means "no deadline within this run".
	DepartureHour int `json:"departureHour"`
}

func (e EV) Validate() error {
	if e.BatteryCapacityKWh <= 0 {
		return fmt.Errorf("ev battery capacity must be positive, got %v", e.BatteryCapacityKWh)
	}
	if len(e.ChargeRates) == 0 {
		return fmt.Errorf("ev must have at least one charge rate (the off rate)")
	}
	if e.ChargeRates[0].PowerKW != 0 {
		return fmt.Errorf("ev charge rate 0 must be the off rate (0 kW), got %v", e.ChargeRates[0].PowerKW)
	}
	if e.InitialSoc < 0 || e.InitialSoc > 1 || e.TargetSoc < 0 || e.TargetSoc > 1 {
		return fmt.Errorf("ev soc values must be within [0, 1]: initial=%v target=%v", e.InitialSoc, e.TargetSoc)
	}
	return nil
}

// MaxRateIndex returns the highest valid index into ChargeRates.
func (e EV) MaxRateIndex() int {
	return len(e.ChargeRates) - 1
}

// EnergyForHour returns the kWh delivered to the battery (post charge-efficiency) in one hour at
// the given rate index.
func (e EV) EnergyForHour(rateIndex int) float64 {
	return e.ChargeRates[rateIndex].PowerKW * e.ChargeEfficiency
}
