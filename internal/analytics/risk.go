package analytics

import "MarketDashboard/internal/model"

// DailyRiskFreeRate approximates a 2% annual rate, in percent per day.
const DailyRiskFreeRate = 0.008

// RiskMetrics describes the cross-sectional distribution of daily changes.
type RiskMetrics struct {
	VaR5         float64 `json:"var_5_percent"`
	VaR1         float64 `json:"var_1_percent"`
	MaxGain      float64 `json:"max_gain"`
	MaxLoss      float64 `json:"max_loss"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	RiskFreeRate float64 `json:"risk_free_rate"`
}

// CalculateRiskMetrics returns nil for an empty table.
func CalculateRiskMetrics(rows []model.QuoteSnapshot) *RiskMetrics {
	if len(rows) == 0 {
		return nil
	}
	changes := column(rows, changePct)
	r := &RiskMetrics{
		VaR5:         quantile(changes, 0.05),
		VaR1:         quantile(changes, 0.01),
		MaxGain:      changes[0],
		MaxLoss:      changes[0],
		Volatility:   stdDev(changes),
		RiskFreeRate: DailyRiskFreeRate,
	}
	for _, c := range changes {
		if c > r.MaxGain {
			r.MaxGain = c
		}
		if c < r.MaxLoss {
			r.MaxLoss = c
		}
	}
	if r.Volatility > 0 {
		r.SharpeRatio = (mean(changes) - DailyRiskFreeRate) / r.Volatility
	}
	return r
}
