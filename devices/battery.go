// Package devices holds the static, per-site configuration and invariant checks for the
// controllable assets the optimizer plans over: the battery/inverter pair, electric vehicles, and
// schedulable appliances. These are value types describing what a device *is*; how it is actually
// talked to lives in dispatch, and how its behaviour over an hour is simulated lives in simulate.
package devices

import (
	"fmt"

	"github.com/cepro/eosbess/cartesian"
	"github.com/google/uuid"
)

// Battery describes the static characteristics of a site battery and its inverter, following the
// device-invariant fields of controller.ControllerConfig (BessSoeMin/Max, charge/discharge power
// limits, charge efficiency) generalised from one hardcoded site to arbitrary per-site config.
type Battery struct {
	ID uuid.UUID `json:"id"`

	NameplateEnergy float64 `json:"nameplateEnergy"` // kWh, full-scale state of energy
	NameplatePower  float64 `json:"nameplatePower"`  // kW, inverter AC power rating

	SocMin float64 `json:"socMin"` // fraction 0..1, floor the GA and dispatch must respect
	SocMax float64 `json:"socMax"` // fraction 0..1, ceiling the GA and dispatch must respect

	ChargeEfficiency    float64 `json:"chargeEfficiency"`    // fraction 0..1 applied to AC energy in
	DischargeEfficiency float64 `json:"dischargeEfficiency"` // fraction 0..1 applied to AC energy out

	MaxChargePowerAC    float64 `json:"maxChargePowerAc"`
	MaxDischargePowerAC float64 `json:"maxDischargePowerAc"`

	// ChargeRates is the battery's discrete AC-charge rate table (spec §3.4's charge_rates_bat):
	// each entry is a fraction of MaxChargePowerAC the genome's ac_charge bucket can select, the
	// same multi-level rate selection devices.EV.ChargeRates already gives the EV (genetic.py
	// shares one available_charging_rates_in_percentage table between the battery's AC-charge
	// buckets and the EV rate index). A nil/empty table means a single full-rate bucket, the
	// common single-rate-inverter case.
	ChargeRates []float64 `json:"chargeRates"`

	// AllowDCCharge enables the experimental ac=0,dc>0 genome states described in
	// geneticsolution.py's _battery_operation_from_solution. Left false by default since DC
	// coupling is not fitted at every site.
	AllowDCCharge bool `json:"allowDcCharge"`

	// TemperatureDeratingCurve maps ambient temperature (celsius) to a fractional multiplier
	// applied to both MaxChargePowerAC and MaxDischargePowerAC, for cells whose rated power drops
	// at temperature extremes. Nil means no derating is applied, the common case for a
	// climate-controlled enclosure.
	TemperatureDeratingCurve *cartesian.Curve `json:"temperatureDeratingCurve"`
}

// Validate reports whether the battery's static configuration is internally consistent. It is the
// device-level analogue of the InputValidationError family in spec §7.
func (b Battery) Validate() error {
	if b.NameplateEnergy <= 0 {
		return fmt.Errorf("nameplate energy must be positive, got %v", b.NameplateEnergy)
	}
	if b.NameplatePower <= 0 {
		return fmt.Errorf("nameplate power must be positive, got %v", b.NameplatePower)
	}
	if b.SocMin < 0 || b.SocMax > 1 || b.SocMin >= b.SocMax {
		return fmt.Errorf("invalid soc bounds [%v, %v]", b.SocMin, b.SocMax)
	}
	if b.ChargeEfficiency <= 0 || b.ChargeEfficiency > 1 || b.DischargeEfficiency <= 0 || b.DischargeEfficiency > 1 {
		return fmt.Errorf("charge/discharge efficiency must be in (0, 1], got %v/%v", b.ChargeEfficiency, b.DischargeEfficiency)
	}
	for _, rate := range b.ChargeRates {
		if rate <= 0 || rate > 1 {
			return fmt.Errorf("charge rate fractions must be in (0, 1], got %v", rate)
		}
	}
	return nil
}

// NumChargeRateBuckets is the cardinality of the genome's ac_charge rate-index gene: the number of
// distinct AC charge rates the GA can select between. A battery with no configured ChargeRates has
// exactly one (full rated power).
func (b Battery) NumChargeRateBuckets() int {
	if len(b.ChargeRates) == 0 {
		return 1
	}
	return len(b.ChargeRates)
}

// ChargeRateFraction returns the fraction of MaxChargePowerAC the genome's ac_charge bucket at
// rateIndex selects, following spec §4.2's "ac_charge(r)" where r = charge_rates_bat[rateIndex]. An
// out-of-range index, or a battery with no configured ChargeRates, yields full rate (1.0).
func (b Battery) ChargeRateFraction(rateIndex int) float64 {
	if rateIndex < 0 || rateIndex >= len(b.ChargeRates) {
		return 1.0
	}
	return b.ChargeRates[rateIndex]
}

// SocToEnergy converts a fractional SoC into the equivalent kWh of stored energy.
func (b Battery) SocToEnergy(soc float64) float64 {
	return soc * b.NameplateEnergy
}

// EnergyToSoc converts stored energy in kWh into a fractional SoC.
func (b Battery) EnergyToSoc(energyKwh float64) float64 {
	return energyKwh / b.NameplateEnergy
}

// ClampSoc constrains soc to the battery's configured operating band.
func (b Battery) ClampSoc(soc float64) float64 {
	if soc < b.SocMin {
		return b.SocMin
	}
	if soc > b.SocMax {
		return b.SocMax
	}
	return soc
}

// DeratedMaxChargePowerAC returns MaxChargePowerAC scaled by TemperatureDeratingCurve's
// multiplier at ambientTempCelsius, or the undeated rating if no curve is configured.
func (b Battery) DeratedMaxChargePowerAC(ambientTempCelsius float64) float64 {
	return b.MaxChargePowerAC * b.DeratingFactor(ambientTempCelsius)
}

// DeratedMaxDischargePowerAC is DeratedMaxChargePowerAC's discharge-side counterpart.
func (b Battery) DeratedMaxDischargePowerAC(ambientTempCelsius float64) float64 {
	return b.MaxDischargePowerAC * b.DeratingFactor(ambientTempCelsius)
}

// DeratingFactor returns TemperatureDeratingCurve's multiplier at ambientTempCelsius, or 1.0 if no
// curve is configured. Exposed directly (rather than only through the Derated*PowerAC helpers) so
// a caller evaluating the same hour's factor many times over, such as simulate's per-run
// derating cache, can look it up once instead of scaling two different power ratings by it.
func (b Battery) DeratingFactor(ambientTempCelsius float64) float64 {
	if b.TemperatureDeratingCurve == nil {
		return 1.0
	}
	return b.TemperatureDeratingCurve.ValueAt(ambientTempCelsius)
}
