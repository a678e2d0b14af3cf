// Command eos is the energy optimization system's entrypoint: it wires together the Modbus device
// adapters, the forecast/measurement sources, and the genetic-algorithm coordinator described by
// the rest of this module, following the shape of the teacher's main.go (device construction, a
// fan-out goroutine over telemetry channels, signal-driven shutdown) generalised from a single
// hardcoded controller to the coordinator's optimize-plan-dispatch cycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cepro/eosbess/acuvim2"
	"github.com/cepro/eosbess/config"
	"github.com/cepro/eosbess/coordinator"
	"github.com/cepro/eosbess/dataplatform"
	"github.com/cepro/eosbess/dispatch"
	"github.com/cepro/eosbess/forecast"
	"github.com/cepro/eosbess/persistence"
	"github.com/cepro/eosbess/powerpack"
	"github.com/cepro/eosbess/telemetry"
	"github.com/google/uuid"
)

const (
	defaultOptimizationInterval = time.Minute * 30
	defaultForecastPollInterval = time.Minute * 15
	runHistoryLength            = 48
)

// Bess is the subset of powerpack.PowerPack (or powerpack.PowerPackMock) main needs: a run loop
// plus the telemetry/command channels dispatch.PlanDispatcher and dispatch.LiveMeasurement consume.
type Bess interface {
	Run(ctx context.Context, period time.Duration) error
	NameplateEnergy() float64
	NameplatePower() float64
	Commands() chan<- telemetry.BessCommand
	Telemetry() <-chan telemetry.BessReading
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	var configFilePath string
	flag.StringVar(&configFilePath, "f", "./config.json", "Specify config file path")
	flag.Parse()

	slog.Info("Starting", "config_file", configFilePath)

	cfg, err := config.Read(configFilePath)
	if err != nil {
		slog.Error("Failed to read config", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	meterReadings := make(chan telemetry.MeterReading, 25)

	acuvimMeters := make(map[uuid.UUID]*acuvim2.Acuvim2Meter, len(cfg.Meters.Acuvim2))
	for _, meterConfig := range cfg.Meters.Acuvim2 {
		slog.Debug("Creating real acuvim2 meter", "meter_id", meterConfig.ID)
		meter, err := acuvim2.New(meterConfig.ID, meterConfig.Host, meterConfig.Pt1, meterConfig.Pt2, meterConfig.Ct1, meterConfig.Ct2)
		if err != nil {
			slog.Error("Failed to create meter", "meter_id", meterConfig.ID, "error", err)
			return
		}
		go meter.Run(ctx, time.Second*time.Duration(meterConfig.PollIntervalSecs))
		go forwardMeterReadings(ctx, meter.Telemetry, meterReadings)
		acuvimMeters[meterConfig.ID] = meter
	}

	mockMeters := make(map[uuid.UUID]*acuvim2.Acuvim2MeterMock, len(cfg.Meters.Mock))
	for _, meterConfig := range cfg.Meters.Mock {
		slog.Debug("Creating mock meter", "meter_id", meterConfig.ID)
		meter, err := acuvim2.NewMock(meterConfig.ID)
		if err != nil {
			slog.Error("Failed to create mock meter", "meter_id", meterConfig.ID, "error", err)
			return
		}
		go meter.Run(ctx, time.Second*time.Duration(meterConfig.PollIntervalSecs))
		go forwardMeterReadings(ctx, meter.Telemetry, meterReadings)
		mockMeters[meterConfig.ID] = meter
	}

	var bess Bess
	if cfg.Bess.PowerPack != nil {
		ppConfig := cfg.Bess.PowerPack
		slog.Debug("Creating real powerpack", "bess_id", ppConfig.ID)
		powerPack, err := powerpack.New(ppConfig.ID, ppConfig.Host, ppConfig.NameplateEnergy, ppConfig.NameplatePower)
		if err != nil {
			slog.Error("Failed to create power pack", "error", err)
			return
		}
		bess = powerPack
		go powerPack.Run(ctx, time.Second*time.Duration(ppConfig.PollIntervalSecs))
	} else if cfg.Bess.Mock != nil {
		mockConfig := cfg.Bess.Mock
		slog.Debug("Creating mock powerpack", "bess_id", mockConfig.ID)
		powerPackMock, err := powerpack.NewMock(mockConfig.ID, mockConfig.NameplateEnergy, mockConfig.NameplatePower)
		if err != nil {
			slog.Error("Failed to create mock power pack", "error", err)
			return
		}
		bess = powerPackMock
		go powerPackMock.Run(ctx, time.Second*time.Duration(mockConfig.PollIntervalSecs))
	} else {
		slog.Error("No bess configured")
		return
	}

	bufferFilename := cfg.DataPlatform.BufferFilename
	if bufferFilename == "" {
		bufferFilename = bufferFilenameFromURL(cfg.DataPlatform.Supabase.Url)
	}

	supabaseAnonKey, ok := os.LookupEnv(cfg.DataPlatform.Supabase.AnonKeyEnvVar)
	if !ok {
		slog.Error("Environment variable not found", "env_var", cfg.DataPlatform.Supabase.AnonKeyEnvVar)
		return
	}
	supabaseUserKey, ok := os.LookupEnv(cfg.DataPlatform.Supabase.UserKeyEnvVar)
	if !ok {
		slog.Error("Environment variable not found", "env_var", cfg.DataPlatform.Supabase.UserKeyEnvVar)
		return
	}

	dataPlatform, err := dataplatform.New(
		cfg.DataPlatform.Supabase.Url,
		supabaseAnonKey,
		supabaseUserKey,
		cfg.DataPlatform.Supabase.Schema,
		bufferFilename,
	)
	if err != nil {
		slog.Error("Failed to create data platform", "error", err)
		return
	}
	uploadInterval := time.Second * time.Duration(cfg.DataPlatform.UploadIntervalSecs)
	if uploadInterval <= 0 {
		uploadInterval = time.Minute
	}
	go dataPlatform.Run(ctx, uploadInterval)

	planStore, err := persistence.New("plans.sqlite")
	if err != nil {
		slog.Error("Failed to create plan store", "error", err)
		return
	}

	forecastEndpoint := cfg.Forecast.Endpoint
	forecastPollInterval := time.Second * time.Duration(cfg.Forecast.PollIntervalSecs)
	if forecastPollInterval <= 0 {
		forecastPollInterval = defaultForecastPollInterval
	}
	httpForecast := forecast.NewHTTPProvider(http.Client{Timeout: time.Second * 10}, forecastEndpoint)
	go httpForecast.Run(ctx, forecastPollInterval)

	prediction := forecast.Prediction(httpForecast)
	if len(cfg.Pricing.DuosChargesImport) > 0 || len(cfg.Pricing.DuosChargesExport) > 0 {
		prediction = config.NewDuosAdjustedPrediction(httpForecast, cfg.Pricing)
	}

	measurement := dispatch.NewLiveMeasurement()
	if cfg.Site.EV != nil {
		measurement.SeedEV(cfg.Site.EV.ID, cfg.Site.EV.InitialSoc, false)
	}

	planDispatcher := dispatch.NewPlanDispatcher(bess, cfg.Site.Battery.MaxChargePowerAC, cfg.Site.Battery.MaxDischargePowerAC)

	coord := coordinator.New(cfg.Site, prediction, measurement, planDispatcher, planStore, dataPlatform, runHistoryLength)
	optimizationInterval := time.Second * time.Duration(cfg.OptimizationIntervalSecs)
	if optimizationInterval <= 0 {
		optimizationInterval = defaultOptimizationInterval
	}
	go coord.Run(ctx, optimizationInterval)

	// fan out meter and bess readings to the data platform and the live measurement store
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case meterReading := <-meterReadings:
				sendIfNonBlocking(dataPlatform.MeterReadings, meterReading, "dataplatform meter readings")
			case bessReading := <-bess.Telemetry():
				measurement.UpdateBatterySoc(bessReading.DeviceID, bessReading.Soe)
				sendIfNonBlocking(dataPlatform.BessReadings, bessReading, "dataplatform bess readings")
			}
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	<-signalChan

	cancel()
	time.Sleep(time.Millisecond * 100)

	slog.Info("Exiting")
	os.Exit(0)
}

// forwardMeterReadings copies readings from a per-meter channel onto the shared meterReadings
// channel, following the teacher's single-shared-channel fan-in but adapted to this module's
// per-meter Telemetry channels (see acuvim2.Acuvim2Meter).
func forwardMeterReadings(ctx context.Context, from <-chan telemetry.MeterReading, to chan<- telemetry.MeterReading) {
	for {
		select {
		case <-ctx.Done():
			return
		case reading := <-from:
			sendIfNonBlocking(to, reading, "meter reading fan-in")
		}
	}
}

// bufferFilenameFromURL derives a unique local SQLite buffer filename from the data platform's
// upload URL, following the teacher's main.go bufferFilename derivation.
func bufferFilenameFromURL(url string) string {
	name := strings.TrimPrefix(url, "https://")
	name = strings.TrimPrefix(name, "http://")
	return fmt.Sprintf("telemetry_%s.sqlite", name)
}

// sendIfNonBlocking attempts to send the given value onto the given channel, but will only do so if
// the operation is non-blocking, otherwise it logs a warning message and returns.
func sendIfNonBlocking[V any](ch chan V, val V, messageTargetLogStr string) {
	select {
	case ch <- val:
	default:
		slog.Warn("Dropped message", "message_target", messageTargetLogStr)
	}
}
