package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const chartBody = `{"chart":{"result":[{"meta":{"symbol":"AAPL","longName":"Apple Inc.","regularMarketPrice":191.5},
"timestamp":[1709596800,1709510400,1709683200],
"indicators":{"quote":[{"open":[190,188,null],"high":[192,189,null],"low":[189,187,null],"close":[191,188.5,null],"volume":[5000,4000,null]}]}}],"error":null}}`

func newYahooServer(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewYahooFetcher(srv.Client())
	f.ChartURL = srv.URL + "/chart/%s?interval=%s&range=%s"
	f.SummaryURL = srv.URL + "/summary/%s"
	return f
}

func TestYahooFetchHistory(t *testing.T) {
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") != "5d" || r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		w.Write([]byte(chartBody))
	})

	bars, err := f.FetchHistory(context.Background(), "AAPL", "5d", "1d")
	if err != nil {
		t.Fatalf("FetchHistory: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("null bar should be skipped, got %d bars", len(bars))
	}
	if bars[0].Close != 188.5 || bars[1].Close != 191 {
		t.Errorf("bars not sorted oldest first: %+v", bars)
	}
	if bars[1].Volume != 5000 || bars[1].Symbol != "AAPL" {
		t.Errorf("unexpected bar: %+v", bars[1])
	}
}

func TestYahooStatusMapping(t *testing.T) {
	status := http.StatusTooManyRequests
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("Too Many Requests"))
	})

	_, err := f.FetchHistory(context.Background(), "AAPL", "5d", "1d")
	if !IsRateLimited(err) {
		t.Errorf("429 should be rate limited, got %v", err)
	}

	status = http.StatusNotFound
	_, err = f.FetchHistory(context.Background(), "NOPE", "5d", "1d")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("404 should be not found, got %v", err)
	}
}

func TestYahooFetchInfoFromSummary(t *testing.T) {
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{
			"price":{"longName":"Apple Inc.","regularMarketPrice":{"raw":191.5},"marketCap":{"raw":2.9e12}},
			"summaryProfile":{"sector":"Technology","industry":"Consumer Electronics","fullTimeEmployees":161000},
			"summaryDetail":{"forwardPE":{"raw":28.1},"beta":{"raw":1.2}},
			"defaultKeyStatistics":{}}],"error":null}}`))
	})

	info, err := f.FetchInfo(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.Name != "Apple Inc." || info.Sector != "Technology" || info.MarketCap != 2.9e12 {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.TrailingPE.Valid {
		t.Error("trailing P/E should be null")
	}
	if pe := info.PERatio(); !pe.Valid || pe.Float64 != 28.1 {
		t.Errorf("PERatio = %v", pe)
	}
}

func TestYahooFetchInfoFallsBackToChart(t *testing.T) {
	f := newYahooServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/summary/") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"finance":{"error":{"code":"Unauthorized","description":"Invalid Crumb"}}}`))
			return
		}
		w.Write([]byte(chartBody))
	})

	info, err := f.FetchInfo(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchInfo: %v", err)
	}
	if info.Name != "Apple Inc." || info.CurrentPrice != 191.5 {
		t.Errorf("unexpected fallback info: %+v", info)
	}
	if info.Sector != "" {
		t.Errorf("chart metadata has no sector, got %q", info.Sector)
	}
}
