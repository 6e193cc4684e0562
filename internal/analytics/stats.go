package analytics

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"MarketDashboard/internal/model"
)

// Undefined statistics (an empty column, a one-row deviation) are reported
// as 0 so results always encode as JSON.

func mean(xs []float64) float64 {
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}

func median(xs []float64) float64 {
	m, err := stats.Median(xs)
	if err != nil {
		return 0
	}
	return m
}

func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	s, err := stats.StandardDeviationSample(xs)
	if err != nil || math.IsNaN(s) {
		return 0
	}
	return s
}

func correlation(a, b []float64) float64 {
	c, err := stats.Correlation(a, b)
	if err != nil || math.IsNaN(c) {
		return 0
	}
	return c
}

// quantile uses linear interpolation between closest ranks.
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return s[lo] + (s[hi]-s[lo])*(pos-float64(lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func column(rows []model.QuoteSnapshot, f func(model.QuoteSnapshot) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

func changePct(r model.QuoteSnapshot) float64    { return r.DailyChangePct }
func volume(r model.QuoteSnapshot) float64       { return float64(r.Volume) }
func volumeChange(r model.QuoteSnapshot) float64 { return r.VolumeChangePct }
func marketCap(r model.QuoteSnapshot) float64    { return r.MarketCap }

func filter(rows []model.QuoteSnapshot, keep func(model.QuoteSnapshot) bool) []model.QuoteSnapshot {
	out := []model.QuoteSnapshot{}
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
