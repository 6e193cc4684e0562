package api

import (
	"github.com/guregu/null/v6"

	"MarketDashboard/internal/analytics"
	"MarketDashboard/internal/format"
	"MarketDashboard/internal/model"
)

// requiredQuoteColumns must be present for a snapshot table to be complete.
var requiredQuoteColumns = []string{"symbol", "company", "current_price", "daily_change_pct", "volume"}

type quoteView struct {
	model.QuoteSnapshot
	PriceDisplay     string `json:"price_display"`
	ChangeDisplay    string `json:"change_display"`
	ChangeColor      string `json:"change_color"`
	VolumeDisplay    string `json:"volume_display"`
	MarketCapDisplay string `json:"market_cap_display"`
}

func quoteViews(rows []model.QuoteSnapshot) []quoteView {
	out := make([]quoteView, len(rows))
	for i, r := range rows {
		out[i] = quoteView{
			QuoteSnapshot:    r,
			PriceDisplay:     format.Currency(r.CurrentPrice),
			ChangeDisplay:    format.Percentage(r.DailyChangePct),
			ChangeColor:      format.ColorForChange(r.DailyChange),
			VolumeDisplay:    format.Number(float64(r.Volume)),
			MarketCapDisplay: format.Currency(r.MarketCap),
		}
	}
	return out
}

type companyAnalytics struct {
	Market     *analytics.MarketMetrics   `json:"market_metrics"`
	Performers *analytics.Performers      `json:"top_performers"`
	Sectors    []analytics.SectorStat     `json:"sector_analysis"`
	Volume     *analytics.VolumeStats     `json:"volume_analysis"`
	Unusual    *analytics.UnusualActivity `json:"unusual_activity"`
	Risk       *analytics.RiskMetrics     `json:"risk_metrics"`
}

func analyzeQuotes(rows []model.QuoteSnapshot) companyAnalytics {
	return companyAnalytics{
		Market:     analytics.CalculateMarketMetrics(rows),
		Performers: analytics.TopPerformers(rows, analytics.DefaultTopN),
		Sectors:    analytics.SectorAnalysis(rows),
		Volume:     analytics.VolumeAnalysis(rows),
		Unusual:    analytics.DetectUnusualActivity(rows),
		Risk:       analytics.CalculateRiskMetrics(rows),
	}
}

func checkQuality(p model.Payload) format.Completeness {
	records, err := p.Records()
	if err != nil {
		records = nil
	}
	return format.ValidateCompleteness(records, p.Columns(), requiredQuoteColumns)
}

type companyView struct {
	*model.CompanyInfo
	PERatio          null.Float `json:"pe_ratio"`
	PriceDisplay     string     `json:"price_display"`
	MarketCapDisplay string     `json:"market_cap_display"`
	EmployeesDisplay string     `json:"employees_display"`
}

func newCompanyView(info *model.CompanyInfo) companyView {
	return companyView{
		CompanyInfo:      info,
		PERatio:          info.PERatio(),
		PriceDisplay:     format.Currency(info.CurrentPrice),
		MarketCapDisplay: format.Currency(info.MarketCap),
		EmployeesDisplay: format.Count(info.Employees),
	}
}
