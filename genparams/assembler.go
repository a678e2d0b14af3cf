// Package genparams is the Parameter Assembler (spec §5, component C6): it gathers device
// configuration, forecasts, and live measurements into the concrete inputs the genetic engine and
// fitness evaluator need for one optimization run, and resolves per-site overrides of the GA's
// tunable constants on top of their load-bearing defaults.
package genparams

import (
	"context"
	"fmt"
	"time"

	"github.com/cepro/eosbess/devices"
	"github.com/cepro/eosbess/fitness"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/genetic"
	"github.com/cepro/eosbess/genome"
	"github.com/cepro/eosbess/simulate"
	"github.com/cepro/eosbess/timeutils"
	"github.com/mitchellh/mapstructure"
)

// SiteConfig is the static, per-site portion of an optimization run's configuration: which devices
// exist and what the GA's tunables should be for this site. It is loaded as part of config.Config
// (see config/config.go) via plain JSON, the same as the rest of the teacher's configuration tree.
type SiteConfig struct {
	TimezoneName string `json:"timezone"`

	// HorizonHours is the length of forecast data pulled for the run (spec §6.5's
	// prediction.hours, "H"). Defaults to 48.
	HorizonHours int `json:"horizonHours"`

	// OptimizationHorizonHours is the length of the EV's executable optimization window (spec
	// §6.5's optimization.horizon_hours), counted from the start of the horizon. It is always
	// clamped to HorizonHours and defaults to 24, i.e. "the EV can only be scheduled across the
	// coming day even though tomorrow's forecast is already known."
	OptimizationHorizonHours int `json:"optimizationHorizonHours"`

	Battery   devices.Battery        `json:"battery"`
	Inverter  devices.Inverter       `json:"inverter"`
	EV        *devices.EV            `json:"ev"`
	Appliance *devices.HomeAppliance `json:"appliance"`

	// GAOverrides holds a partial override of genetic.DefaultConfig(), decoded with mapstructure
	// so a site only needs to name the fields it wants to change (e.g. a smaller population for a
	// constrained deployment target) without redeclaring the whole tunable set in every config
	// file.
	GAOverrides map[string]interface{} `json:"gaOverrides"`

	// PenaltyOverrides is the same partial-override mechanism for fitness.DefaultPenalties().
	PenaltyOverrides map[string]interface{} `json:"penaltyOverrides"`
}

// HorizonHoursOrDefault is HorizonHours with its spec-default (48, spec §6.5's prediction.hours)
// applied when unset.
func (cfg SiteConfig) HorizonHoursOrDefault() int {
	if cfg.HorizonHours <= 0 {
		return 48
	}
	return cfg.HorizonHours
}

// OptimizationHoursOrDefault is OptimizationHorizonHours with its spec-default (24, spec §6.5's
// optimization.horizon_hours) applied when unset, clamped to never exceed horizonHours.
func (cfg SiteConfig) OptimizationHoursOrDefault(horizonHours int) int {
	optimizationHours := cfg.OptimizationHorizonHours
	if optimizationHours <= 0 {
		optimizationHours = 24
	}
	if optimizationHours > horizonHours {
		optimizationHours = horizonHours
	}
	return optimizationHours
}

// Run is everything a single optimization pass (genetic.Run plus the Evaluator it scores against)
// needs, assembled from a SiteConfig, a point in time, and live forecast/measurement data.
type Run struct {
	Codec     genome.Codec
	GAConfig  genetic.Config
	Evaluator *fitness.Evaluator
	Horizon   []time.Time
}

// FetchMeasurements retrieves the devices' current state from measurement, wrapping any failure
// with a stable "retrieve measurements" prefix so the coordinator can attribute it to the
// DATA_ACQUISITION stage (spec §7).
func FetchMeasurements(ctx context.Context, measurement forecast.Measurement) (forecast.MeasurementBundle, error) {
	measured, err := measurement.Current(ctx)
	if err != nil {
		return forecast.MeasurementBundle{}, fmt.Errorf("retrieve measurements: %w", err)
	}
	return measured, nil
}

// FetchForecast retrieves horizonHours of forecast data from prediction, starting at now in loc,
// wrapping any failure with a stable "retrieve forecast" prefix so the coordinator can attribute it
// to the FORECAST_RETRIEVAL stage (spec §7).
func FetchForecast(ctx context.Context, prediction forecast.Prediction, now time.Time, loc *time.Location, horizonHours int) (forecast.HourlyBundle, error) {
	bundle, err := prediction.Forecast(ctx, now, loc, horizonHours)
	if err != nil {
		return forecast.HourlyBundle{}, fmt.Errorf("retrieve forecast: %w", err)
	}
	return bundle, nil
}

// Assemble is FetchMeasurements, FetchForecast and Build run back to back, for callers (tests,
// one-off tooling) that don't need the coordinator's stage-by-stage observability or its per-run
// memoization cache.
func Assemble(ctx context.Context, cfg SiteConfig, prediction forecast.Prediction, measurement forecast.Measurement, now time.Time) (Run, error) {
	loc, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return Run{}, fmt.Errorf("load site timezone %q: %w", cfg.TimezoneName, err)
	}

	measured, err := FetchMeasurements(ctx, measurement)
	if err != nil {
		return Run{}, err
	}

	bundle, err := FetchForecast(ctx, prediction, now, loc, cfg.HorizonHoursOrDefault())
	if err != nil {
		return Run{}, err
	}

	return Build(cfg, bundle, measured, loc, now, nil)
}

// Build assembles a Run from an already-retrieved forecast bundle and measurement bundle — the
// OPTIMIZATION-stage half of what Assemble does, split out so the coordinator can fetch
// measurements and forecast under their own observable stages first (spec §7). memo, if non-nil,
// is threaded into the resulting Evaluator as its per-run memoization cache (spec §4.8).
func Build(cfg SiteConfig, bundle forecast.HourlyBundle, measured forecast.MeasurementBundle, loc *time.Location, now time.Time, memo simulate.DeratingCache) (Run, error) {
	horizonHours := cfg.HorizonHoursOrDefault()
	optimizationHours := cfg.OptimizationHoursOrDefault(horizonHours)
	horizon := timeutils.Horizon(now, loc, horizonHours)

	if err := cfg.Battery.Validate(); err != nil {
		return Run{}, fmt.Errorf("invalid battery config: %w", err)
	}
	if err := cfg.Inverter.Validate(); err != nil {
		return Run{}, fmt.Errorf("invalid inverter config: %w", err)
	}

	initialBatterySoc, ok := measured.BatterySoc[cfg.Battery.ID.String()]
	if !ok {
		return Run{}, fmt.Errorf("no battery soc measurement for device %s", cfg.Battery.ID)
	}

	initialEVSoc := 0.0
	minStartHour := 0
	maxStartHour := horizonHours - 1
	numEVRates := 1

	if cfg.EV != nil {
		if err := cfg.EV.Validate(); err != nil {
			return Run{}, fmt.Errorf("invalid ev config: %w", err)
		}
		if soc, ok := measured.EVSoc[cfg.EV.ID.String()]; ok {
			initialEVSoc = soc
		} else {
			initialEVSoc = cfg.EV.InitialSoc
		}
		numEVRates = len(cfg.EV.ChargeRates)
	}

	if cfg.Appliance != nil {
		if err := cfg.Appliance.Validate(); err != nil {
			return Run{}, fmt.Errorf("invalid appliance config: %w", err)
		}
		// the gene's lower bound is never earlier than both the appliance's own earliest window
		// and the run's current hour of day (spec §3.1/§4.5's start_hour: a plan can't schedule an
		// appliance to have already started).
		minStartHour = cfg.Appliance.EarliestStartHour()
		if nowHour := now.In(loc).Hour(); nowHour > minStartHour {
			minStartHour = nowHour
		}
		maxStartHour = cfg.Appliance.LatestFeasibleStartHour(horizonHours)
		if maxStartHour < minStartHour {
			maxStartHour = minStartHour
		}
	}

	codec := genome.Codec{
		Horizon:           horizonHours,
		BatterySpace:      genome.ActionSpace{NumChargeRates: cfg.Battery.NumChargeRateBuckets(), AllowDCCharge: cfg.Battery.AllowDCCharge},
		NumEVRates:        numEVRates,
		OptimizationHours: optimizationHours,
		MinStartHour:      minStartHour,
		MaxStartHour:      maxStartHour,
	}

	gaConfig, err := resolveGAConfig(cfg.GAOverrides)
	if err != nil {
		return Run{}, fmt.Errorf("resolve ga config: %w", err)
	}

	penalties, err := resolvePenalties(cfg.PenaltyOverrides)
	if err != nil {
		return Run{}, fmt.Errorf("resolve penalty config: %w", err)
	}

	evaluator := &fitness.Evaluator{
		Battery:             cfg.Battery,
		Inverter:            cfg.Inverter,
		EV:                  cfg.EV,
		Appliance:           cfg.Appliance,
		Forecast:            bundle,
		Horizon:             horizon,
		InitialBatterySoc:   initialBatterySoc,
		InitialEVSoc:        initialEVSoc,
		EVOptimizationHours: optimizationHours,
		Memo:                memo,
		Penalties:           penalties,
	}

	return Run{Codec: codec, GAConfig: gaConfig, Evaluator: evaluator, Horizon: horizon}, nil
}

func resolveGAConfig(overrides map[string]interface{}) (genetic.Config, error) {
	cfg := genetic.DefaultConfig()
	if len(overrides) == 0 {
		return cfg, nil
	}
	if err := mapstructure.Decode(overrides, &cfg); err != nil {
		return genetic.Config{}, fmt.Errorf("decode ga overrides: %w", err)
	}
	return cfg, nil
}

func resolvePenalties(overrides map[string]interface{}) (fitness.Penalties, error) {
	penalties := fitness.DefaultPenalties()
	if len(overrides) == 0 {
		return penalties, nil
	}
	if err := mapstructure.Decode(overrides, &penalties); err != nil {
		return fitness.Penalties{}, fmt.Errorf("decode penalty overrides: %w", err)
	}
	return penalties, nil
}
