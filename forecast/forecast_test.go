package forecast

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeriesValidateLength(t *testing.T) {
	s := Series{1, 2, 3}
	assert.NoError(t, s.ValidateLength(3))
	assert.Error(t, s.ValidateLength(4))
}

func TestSeriesSum(t *testing.T) {
	s := Series{1, 2, 3.5}
	assert.InDelta(t, 6.5, s.Sum(), 1e-9)
}

func TestHTTPProviderUnavailableBeforeFirstRefresh(t *testing.T) {
	p := NewHTTPProvider(http.Client{}, "http://example.invalid")
	_, err := p.Forecast(context.Background(), time.Now(), time.UTC, 24)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
}
