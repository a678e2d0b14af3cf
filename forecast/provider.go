package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"log/slog"
)

// HTTPProvider is a concrete Prediction implementation that polls a forecast API on a fixed
// period and serves the last successfully retrieved bundle, following modo.Client's
// mutex-guarded-cache-plus-background-Run shape. It is a supplement beyond spec.md's interface
// definition (which only requires *some* Prediction implementation exist): the original Python
// system has concrete providers per forecast type (pvforecastakkudoktor.py,
// weatherclearoutside.py); here one HTTP-backed provider stands in for all of them behind a
// single endpoint that is expected to return a pre-assembled HourlyBundle.
type HTTPProvider struct {
	client   http.Client
	endpoint string

	lock   sync.RWMutex
	last   HourlyBundle
	haveAt time.Time

	logger *slog.Logger
}

func NewHTTPProvider(client http.Client, endpoint string) *HTTPProvider {
	return &HTTPProvider{
		client:   client,
		endpoint: endpoint,
		logger:   slog.Default().With("component", "forecast.HTTPProvider"),
	}
}

// Run polls the endpoint every period and refreshes the cached bundle. Exits when ctx is
// cancelled.
func (p *HTTPProvider) Run(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				p.logger.Error("failed to refresh forecast", "error", err)
			}
		}
	}
}

func (p *HTTPProvider) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var bundle HourlyBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return fmt.Errorf("decode forecast response: %w", err)
	}

	p.lock.Lock()
	p.last = bundle
	p.haveAt = time.Now()
	p.lock.Unlock()

	return nil
}

// Forecast returns the most recently cached bundle unchanged, after checking that its PV
// generation and load series have exactly nHours entries (nothing is truncated). It ignores
// start/loc beyond validating that a bundle has been retrieved at all; the endpoint is expected to
// return data already aligned to the caller's horizon.
func (p *HTTPProvider) Forecast(ctx context.Context, start time.Time, loc *time.Location, nHours int) (HourlyBundle, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()

	if p.haveAt.IsZero() {
		return HourlyBundle{}, ErrForecastUnavailable
	}

	if err := p.last.PVGenerationKWh.ValidateLength(nHours); err != nil {
		return HourlyBundle{}, fmt.Errorf("%w: pv generation: %v", ErrForecastUnavailable, err)
	}
	if err := p.last.LoadKWh.ValidateLength(nHours); err != nil {
		return HourlyBundle{}, fmt.Errorf("%w: load: %v", ErrForecastUnavailable, err)
	}

	return p.last, nil
}

// ErrForecastUnavailable is returned by a Prediction implementation that cannot currently produce
// a forecast for the requested horizon (spec §7, ForecastUnavailable).
var ErrForecastUnavailable = fmt.Errorf("forecast unavailable")
