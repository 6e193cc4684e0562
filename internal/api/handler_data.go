package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"MarketDashboard/internal/analytics"
	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/format"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/optimizer"
	"MarketDashboard/internal/session"
)

// ListUniverse handles GET /api/universe requests. A search without matches
// falls back to the full list with a message.
func (h *Handler) ListUniverse(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	query := strings.TrimSpace(c.Query("q"))
	count, err := parseDisplayCount(c.Query("limit"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	page, err := parseNonNegative(c.Query("page"), "page", 0)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	all := h.data.ListUniverse(ctx)
	matched := searchCompanies(all, query)
	matchCount := len(matched)
	message := ""
	if query != "" && matchCount == 0 {
		message = fmt.Sprintf("No companies found matching '%s'. The searched company is not part of the S&P 500 index.", query)
		matched = all
	}

	size := count
	if size == 0 {
		size = len(matched)
	}
	pg := optimizer.Paginate(len(matched), page, size)

	if id := c.Query("session"); id != "" {
		if sess, ok := h.sessions.Get(id); ok {
			h.search.Trigger(id, func() { sess.SetView(query, count, pg.Number) })
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":     query,
		"total":     len(all),
		"matched":   matchCount,
		"page":      pg,
		"companies": matched[pg.Start:pg.End],
		"message":   message,
	})
}

func searchCompanies(all []model.CompanyRecord, query string) []model.CompanyRecord {
	if query == "" {
		return all
	}
	q := strings.ToLower(query)
	var out []model.CompanyRecord
	for _, r := range all {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Symbol), q) {
			out = append(out, r)
		}
	}
	return out
}

// ListPeriods handles GET /api/periods
func (h *Handler) ListPeriods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"options": model.PeriodOptions, "default": model.DefaultPeriod})
}

// GetSelectedCompanies handles GET /api/sessions/:id/companies
func (h *Handler) GetSelectedCompanies(c *gin.Context) {
	sess := sessionFrom(c)
	symbols := sess.Selected()
	if len(symbols) == 0 {
		reply(c, sess, http.StatusOK, gin.H{"source": offline.SourceNone, "total": 0, "data": []quoteView{}})
		return
	}

	p, src := h.load(c, sess, KeySelectedCompanies, "selected companies",
		fmt.Sprintf("Loading data for %d companies...", len(symbols)),
		func(ctx context.Context) (model.Payload, error) {
			rows, err := h.data.Snapshot(ctx, symbols)
			return model.QuotesPayload(rows), err
		},
		session.RecoveryRetry, session.RecoveryOffline, session.RecoveryReset)

	rows := p.Quotes
	body := gin.H{
		"source": src,
		"total":  len(rows),
		"data":   quoteViews(optimizer.LimitRows(rows, optimizer.DefaultMaxRows)),
	}
	if len(rows) > 0 {
		body["analytics"] = analyzeQuotes(rows)
		body["quality"] = checkQuality(p)
	}
	reply(c, sess, statusFor(sess, src), body)
}

// GetMarketOverview handles GET /api/sessions/:id/overview
func (h *Handler) GetMarketOverview(c *gin.Context) {
	sess := sessionFrom(c)
	p, src := h.load(c, sess, KeyMarketOverview, "market overview", "Loading market overview...",
		func(ctx context.Context) (model.Payload, error) {
			rows, err := h.data.MarketOverview(ctx)
			return model.QuotesPayload(rows), err
		},
		session.RecoveryRetry, session.RecoveryOffline)

	rows := p.Quotes
	reply(c, sess, statusFor(sess, src), gin.H{
		"source":           src,
		"total":            len(rows),
		"data":             quoteViews(rows),
		"top_performers":   analytics.TopPerformers(rows, analytics.DefaultTopN),
		"sector_breakdown": collector.SectorBreakdown(rows),
		"market_status":    format.MarketStatusAt(h.now()),
	})
}

// RefreshMarketOverview handles POST /api/sessions/:id/overview/refresh.
// Repeated refreshes from one session within a few seconds are ignored.
func (h *Handler) RefreshMarketOverview(c *gin.Context) {
	sess := sessionFrom(c)
	if !h.refresh.Allow(sess.ID) {
		reply(c, sess, http.StatusTooManyRequests, gin.H{"refreshed": false})
		return
	}
	h.cache.Invalidate(cache.CategoryMarketOverview)
	reply(c, sess, http.StatusOK, gin.H{"refreshed": true})
}

// HistoricalKey is the snapshot key of a historical request.
func HistoricalKey(period model.Period, n int) string {
	return fmt.Sprintf("historical_%s_%d", period, n)
}

// GetHistorical handles GET /api/sessions/:id/historical. Symbols default to
// the session's selection.
func (h *Handler) GetHistorical(c *gin.Context) {
	sess := sessionFrom(c)
	period, ok := model.ParsePeriod(c.Query("period"))
	if !ok {
		h.badRequest(c, fmt.Errorf("unknown period %q", c.Query("period")))
		return
	}
	symbols, err := parseSymbols(c.Query("symbols"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if len(symbols) == 0 {
		symbols = sess.Selected()
	}
	maxPoints, err := parseNonNegative(c.Query("max_points"), "max_points", optimizer.DefaultMaxPoints)
	if err != nil {
		h.badRequest(c, err)
		return
	}
	if len(symbols) == 0 {
		reply(c, sess, http.StatusOK, gin.H{"source": offline.SourceNone, "period": period, "total": 0, "data": []model.HistoricalBar{}})
		return
	}

	label := periodLabel(period)
	p, src := h.load(c, sess, HistoricalKey(period, len(symbols)), label+" historical data",
		fmt.Sprintf("Loading %s historical data for %d companies...", strings.ToLower(label), len(symbols)),
		func(ctx context.Context) (model.Payload, error) {
			bars, err := h.data.Historical(ctx, symbols, period)
			return model.BarsPayload(bars), err
		},
		session.RecoveryRetry, session.RecoveryOffline)

	bars := p.Bars
	reply(c, sess, statusFor(sess, src), gin.H{
		"source":          src,
		"period":          period,
		"total":           len(bars),
		"data":            optimizer.Downsample(bars, maxPoints),
		"summary":         analytics.SummarizeHistory(bars),
		"moving_averages": analytics.MovingAverages(bars, analytics.DefaultMAPeriods),
	})
}

func periodLabel(p model.Period) string {
	for _, o := range model.PeriodOptions {
		if o.Period == p {
			return o.Label
		}
	}
	return string(p)
}

// GetCompany handles GET /api/companies/:symbol
func (h *Handler) GetCompany(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	symbols, err := parseSymbols(c.Param("symbol"))
	if err != nil || len(symbols) != 1 {
		h.badRequest(c, fmt.Errorf("invalid symbol %q", c.Param("symbol")))
		return
	}
	info, err := h.data.CompanyInfo(ctx, symbols[0])
	switch {
	case errors.Is(err, collector.ErrNotFound), errors.Is(err, collector.ErrNoData):
		h.abort(c, http.StatusNotFound, err, "company not found")
		return
	case err != nil:
		h.abort(c, http.StatusBadGateway, err, "company data unavailable")
		return
	}
	c.JSON(http.StatusOK, newCompanyView(info))
}
