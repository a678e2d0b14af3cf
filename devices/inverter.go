package devices

import "fmt"

// Inverter describes the site's grid-tie inverter / connection point limits that bound every
// hour's simulated power flow, equivalent to controller.ControllerConfig's
// SiteImportPowerLimit/SiteExportPowerLimit.
type Inverter struct {
	SiteImportPowerLimitKW float64 `json:"siteImportPowerLimitKw"`
	SiteExportPowerLimitKW float64 `json:"siteExportPowerLimitKw"`
}

func (i Inverter) Validate() error {
	if i.SiteImportPowerLimitKW < 0 || i.SiteExportPowerLimitKW < 0 {
		return fmt.Errorf("site power limits must be non-negative: import=%v export=%v", i.SiteImportPowerLimitKW, i.SiteExportPowerLimitKW)
	}
	return nil
}

// ClampGridPower constrains a signed grid power flow (positive = import, negative = export) to
// the site's connection limits.
func (i Inverter) ClampGridPower(gridPowerKW float64) float64 {
	if gridPowerKW > i.SiteImportPowerLimitKW {
		return i.SiteImportPowerLimitKW
	}
	if gridPowerKW < -i.SiteExportPowerLimitKW {
		return -i.SiteExportPowerLimitKW
	}
	return gridPowerKW
}
