package config

import (
	"context"
	"time"

	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/timeutils"
)

// DuosAdjustedPrediction wraps another forecast.Prediction and layers DUOS (UK distribution use of
// system) charges on top of its returned import/export prices, following the teacher's
// ControllerConfig.DuosChargesImport/DuosChargesExport plus comp_import_avoidance.go's per-slot use
// of SumTimedCharges. Forecast providers return a wholesale/market price; the cost the site
// actually pays (or is paid) per kWh also depends on the time-of-use network charge for that
// settlement period, which this type adds in before genparams ever sees the bundle.
type DuosAdjustedPrediction struct {
	Inner forecast.Prediction

	ChargesImport []TimedCharge
	ChargesExport []TimedCharge
}

func NewDuosAdjustedPrediction(inner forecast.Prediction, pricing PricingConfig) *DuosAdjustedPrediction {
	return &DuosAdjustedPrediction{
		Inner:         inner,
		ChargesImport: pricing.DuosChargesImport,
		ChargesExport: pricing.DuosChargesExport,
	}
}

// Forecast implements forecast.Prediction: it delegates to Inner and then adds the applicable DUOS
// rate onto every slot's import price, and subtracts it from every slot's feed-in tariff (an export
// DUOS charge reduces what a site is paid for exporting, it does not reduce its import cost).
func (d *DuosAdjustedPrediction) Forecast(ctx context.Context, start time.Time, loc *time.Location, nHours int) (forecast.HourlyBundle, error) {
	bundle, err := d.Inner.Forecast(ctx, start, loc, nHours)
	if err != nil {
		return forecast.HourlyBundle{}, err
	}

	if len(d.ChargesImport) == 0 && len(d.ChargesExport) == 0 {
		return bundle, nil
	}

	horizon := timeutils.Horizon(start, loc, nHours)

	importPrice := make(forecast.Series, len(bundle.ImportPricePerKWh))
	copy(importPrice, bundle.ImportPricePerKWh)
	feedInTariff := make(forecast.Series, len(bundle.FeedInTariffPerKWh))
	copy(feedInTariff, bundle.FeedInTariffPerKWh)

	for i, t := range horizon {
		if i < len(importPrice) {
			importPrice[i] += SumTimedCharges(t, d.ChargesImport)
		}
		if i < len(feedInTariff) {
			feedInTariff[i] -= SumTimedCharges(t, d.ChargesExport)
		}
	}

	bundle.ImportPricePerKWh = importPrice
	bundle.FeedInTariffPerKWh = feedInTariff

	return bundle, nil
}
