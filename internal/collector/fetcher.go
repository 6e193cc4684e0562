package collector

import (
	"context"
	"errors"
	"strings"

	"MarketDashboard/internal/model"
)

// Fetcher defines the interface for fetching market data from a provider.
type Fetcher interface {
	// FetchHistory returns bars for a provider range ("5d", "1mo", "ytd"...)
	// at the given interval ("1d", "1h"), oldest first.
	FetchHistory(ctx context.Context, symbol, rng, interval string) ([]model.HistoricalBar, error)
	FetchInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error)
	Name() string
}

var (
	// ErrNoData means a whole request produced no rows.
	ErrNoData = errors.New("no data available")
	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("Too Many Requests")
	// ErrNotFound means the provider has no such symbol.
	ErrNotFound = errors.New("symbol not found")
)

var rateLimitMarkers = []string{"Rate limit", "Rate limited", "Too Many Requests"}

// IsRateLimited reports whether err signals provider throttling, either by
// wrapping ErrRateLimited or by carrying one of the provider's throttle messages.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
