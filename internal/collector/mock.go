package collector

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/guregu/null/v6"

	"MarketDashboard/internal/model"
)

// MockFetcher returns deterministic synthetic data for development and testing.
type MockFetcher struct {
	Price float64
	Now   func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, symbol, rng, interval string) ([]model.HistoricalBar, error) {
	count := rangeBars(rng, interval)
	step := 24 * time.Hour
	if interval == "1h" {
		step = time.Hour
	}
	return generateMockBars(symbol, m.basePrice(symbol), count, step, m.now()), nil
}

func (m *MockFetcher) FetchInfo(_ context.Context, symbol string) (*model.CompanyInfo, error) {
	seed := symbolSeed(symbol)
	return &model.CompanyInfo{
		Symbol:       symbol,
		Name:         symbol + " Corp.",
		CurrentPrice: m.basePrice(symbol),
		MarketCap:    float64(50+seed%950) * 1e9,
		Sector:       SectorOf(symbol),
		TrailingPE:   null.FloatFrom(float64(10 + seed%30)),
	}, nil
}

func (m *MockFetcher) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *MockFetcher) basePrice(symbol string) float64 {
	if m.Price > 0 {
		return m.Price
	}
	return float64(20 + symbolSeed(symbol)%480)
}

func symbolSeed(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}

// rangeBars approximates how many bars a provider returns for a range.
func rangeBars(rng, interval string) int {
	days := map[string]int{
		"1d": 1, "2d": 2, "5d": 5, "1wk": 5, "1mo": 21, "3mo": 63,
		"6mo": 126, "ytd": 200, "1y": 252, "2y": 504, "5y": 1260,
	}[rng]
	if days == 0 {
		days = 21
	}
	if interval == "1h" {
		return days * 7
	}
	return days
}

func generateMockBars(symbol string, basePrice float64, count int, step time.Duration, end time.Time) []model.HistoricalBar {
	bars := make([]model.HistoricalBar, count)
	drift := float64(int(symbolSeed(symbol)%7)-3) * 0.001
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*drift)
		bars[i] = model.HistoricalBar{
			Symbol: symbol,
			Date:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + int64(i)*10000,
		}
	}
	return bars
}
