package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"MarketDashboard/internal/model"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s"
	yahooSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=price,summaryProfile,summaryDetail,defaultKeyStatistics"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client     *http.Client
	ChartURL   string
	SummaryURL string
}

// NewYahooFetcher creates a Yahoo Finance fetcher on the given client.
func NewYahooFetcher(client *http.Client) *YahooFetcher {
	return &YahooFetcher{
		Client:     client,
		ChartURL:   yahooChartURL,
		SummaryURL: yahooSummaryURL,
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// yahooValue is the {"raw": ..., "fmt": ...} wrapper used by quoteSummary.
type yahooValue struct {
	Raw *float64 `json:"raw"`
}

func (v yahooValue) float() null.Float {
	if v.Raw == nil {
		return null.Float{}
	}
	return null.FloatFrom(*v.Raw)
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName           string     `json:"longName"`
				ShortName          string     `json:"shortName"`
				RegularMarketPrice yahooValue `json:"regularMarketPrice"`
				MarketCap          yahooValue `json:"marketCap"`
			} `json:"price"`
			SummaryProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				FullTimeEmployees   int64  `json:"fullTimeEmployees"`
				Website             string `json:"website"`
				LongBusinessSummary string `json:"longBusinessSummary"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				TrailingPE       yahooValue `json:"trailingPE"`
				ForwardPE        yahooValue `json:"forwardPE"`
				DividendYield    yahooValue `json:"dividendYield"`
				Beta             yahooValue `json:"beta"`
				FiftyTwoWeekHigh yahooValue `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow  yahooValue `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				ForwardPE yahooValue `json:"forwardPE"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (f *YahooFetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("yahoo: %w", ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return body, fmt.Errorf("yahoo: %w", ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return body, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf(f.ChartURL, url.PathEscape(symbol), interval, rng)
	body, err := f.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, chartError(chart.Chart.Error)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNotFound)
	}
	return &chart, nil
}

func chartError(e *yahooError) error {
	if strings.EqualFold(e.Code, "Not Found") || strings.Contains(e.Description, "delisted") {
		return fmt.Errorf("yahoo: %s: %w", e.Description, ErrNotFound)
	}
	return fmt.Errorf("yahoo api error: %s", e.Description)
}

// FetchHistory returns bars oldest first, skipping null bars. An empty slice
// with a nil error means the symbol exists but traded nothing in the range.
func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol, rng, interval string) ([]model.HistoricalBar, error) {
	chart, err := f.fetchChart(ctx, symbol, interval, rng)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.HistoricalBar, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(quote.Close[i])
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.HistoricalBar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(toFloat(at(quote.Volume, i))),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// FetchInfo reads the quoteSummary modules. When Yahoo refuses the summary
// call (it sometimes demands a session crumb), the chart metadata supplies
// the name and price instead.
func (f *YahooFetcher) FetchInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	info, err := f.fetchSummary(ctx, symbol)
	if err == nil {
		return info, nil
	}
	if IsRateLimited(err) {
		return nil, err
	}

	chart, chartErr := f.fetchChart(ctx, symbol, "1d", "1d")
	if chartErr != nil {
		return nil, fmt.Errorf("summary failed: %v; chart fallback: %w", err, chartErr)
	}
	meta := chart.Chart.Result[0].Meta
	info = &model.CompanyInfo{
		Symbol:       symbol,
		Name:         firstNonEmpty(meta.LongName, meta.ShortName),
		CurrentPrice: meta.RegularMarketPrice,
	}
	if meta.FiftyTwoWeekHigh > 0 {
		info.FiftyTwoWeekHigh = null.FloatFrom(meta.FiftyTwoWeekHigh)
		info.FiftyTwoWeekLow = null.FloatFrom(meta.FiftyTwoWeekLow)
	}
	return info, nil
}

func (f *YahooFetcher) fetchSummary(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	body, err := f.get(ctx, fmt.Sprintf(f.SummaryURL, url.PathEscape(symbol)))
	if err != nil {
		return nil, err
	}
	var s yahooSummary
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("yahoo decode summary: %w", err)
	}
	if s.QuoteSummary.Error != nil {
		return nil, chartError(s.QuoteSummary.Error)
	}
	if len(s.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo summary %s: %w", symbol, ErrNotFound)
	}

	r := s.QuoteSummary.Result[0]
	forward := r.SummaryDetail.ForwardPE.float()
	if !forward.Valid {
		forward = r.DefaultKeyStatistics.ForwardPE.float()
	}
	return &model.CompanyInfo{
		Symbol:           symbol,
		Name:             firstNonEmpty(r.Price.LongName, r.Price.ShortName),
		CurrentPrice:     r.Price.RegularMarketPrice.float().Float64,
		MarketCap:        r.Price.MarketCap.float().Float64,
		Sector:           r.SummaryProfile.Sector,
		Industry:         r.SummaryProfile.Industry,
		Employees:        r.SummaryProfile.FullTimeEmployees,
		Website:          r.SummaryProfile.Website,
		Description:      r.SummaryProfile.LongBusinessSummary,
		TrailingPE:       r.SummaryDetail.TrailingPE.float(),
		ForwardPE:        forward,
		DividendYield:    r.SummaryDetail.DividendYield.float(),
		Beta:             r.SummaryDetail.Beta.float(),
		FiftyTwoWeekHigh: r.SummaryDetail.FiftyTwoWeekHigh.float(),
		FiftyTwoWeekLow:  r.SummaryDetail.FiftyTwoWeekLow.float(),
	}, nil
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
