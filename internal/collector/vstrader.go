package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"MarketDashboard/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher on the given client.
func NewVsTraderFetcher(baseURL, apiKey string, client *http.Client) *VsTraderFetcher {
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  client,
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// vsProfile is the expected JSON shape of the profile endpoint.
type vsProfile struct {
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	MarketCap  float64  `json:"market_cap"`
	Sector     string   `json:"sector"`
	Industry   string   `json:"industry"`
	TrailingPE *float64 `json:"trailing_pe"`
	ForwardPE  *float64 `json:"forward_pe"`
}

func (f *VsTraderFetcher) FetchHistory(ctx context.Context, symbol, rng, interval string) ([]model.HistoricalBar, error) {
	endpoint := fmt.Sprintf("%s/api/v1/bars?symbol=%s&range=%s&interval=%s",
		f.BaseURL, url.QueryEscape(symbol), url.QueryEscape(rng), url.QueryEscape(interval))

	var vsBars []vsBar
	if err := f.getJSON(ctx, endpoint, &vsBars); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars := make([]model.HistoricalBar, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.HistoricalBar{
			Symbol: symbol,
			Date:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: int64(vb.Volume),
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func (f *VsTraderFetcher) FetchInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v1/profile?symbol=%s", f.BaseURL, url.QueryEscape(symbol))
	var p vsProfile
	if err := f.getJSON(ctx, endpoint, &p); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	return &model.CompanyInfo{
		Symbol:       symbol,
		Name:         p.Name,
		CurrentPrice: p.Price,
		MarketCap:    p.MarketCap,
		Sector:       p.Sector,
		Industry:     p.Industry,
		TrailingPE:   null.FloatFromPtr(p.TrailingPE),
		ForwardPE:    null.FloatFromPtr(p.ForwardPE),
	}, nil
}

func (f *VsTraderFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotFound:
		return ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
