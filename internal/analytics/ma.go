package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"MarketDashboard/internal/model"
)

// DefaultMAPeriods are the moving-average windows drawn on price charts.
var DefaultMAPeriods = []int{5, 10, 20, 50}

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MAPoint is one bar with its rolling averages. A window is null until it has
// enough bars.
type MAPoint struct {
	Symbol string                `json:"symbol"`
	Date   time.Time             `json:"date"`
	Close  float64               `json:"close"`
	MA     map[string]null.Float `json:"ma"`
}

// MovingAverages computes rolling means per symbol. Windows longer than a
// symbol's series are left out for that symbol.
func MovingAverages(bars []model.HistoricalBar, periods []int) []MAPoint {
	if len(periods) == 0 {
		periods = DefaultMAPeriods
	}
	var out []MAPoint
	for _, series := range orderedGroups(bars) {
		closes := extractCloses(series)
		for i, b := range series {
			p := MAPoint{Symbol: b.Symbol, Date: b.Date, Close: b.Close, MA: map[string]null.Float{}}
			for _, period := range periods {
				if len(series) < period {
					continue
				}
				name := fmt.Sprintf("MA_%d", period)
				if sma, err := CalculateSMA(closes[:i+1], period); err == nil {
					p.MA[name] = null.FloatFrom(sma)
				} else {
					p.MA[name] = null.Float{}
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// orderedGroups splits bars by symbol in first-seen order.
func orderedGroups(bars []model.HistoricalBar) [][]model.HistoricalBar {
	index := map[string]int{}
	var groups [][]model.HistoricalBar
	for _, b := range bars {
		i, ok := index[b.Symbol]
		if !ok {
			i = len(groups)
			index[b.Symbol] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], b)
	}
	return groups
}

func extractCloses(bars []model.HistoricalBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
