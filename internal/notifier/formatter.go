package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/offline"
)

// FormatFailureAlert formats a data loading failure for operators.
func FormatFailureAlert(operation, message string, recovery []string, at time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚠️ <b>MarketDashboard</b> | %s\n\n", at.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Operation: <code>%s</code>\n", html.EscapeString(operation)))
	b.WriteString(fmt.Sprintf("Error: %s\n", html.EscapeString(message)))
	if len(recovery) > 0 {
		b.WriteString(fmt.Sprintf("No offline snapshot. Offered: %s\n", strings.Join(recovery, ", ")))
	}
	return b.String()
}

// FormatWarmReport formats the result of a scheduled overview refresh.
func FormatWarmReport(rows int, elapsed time.Duration, err error) string {
	if err != nil {
		return fmt.Sprintf("❌ <b>Overview refresh failed</b>\n%s", html.EscapeString(err.Error()))
	}
	return fmt.Sprintf("✅ <b>Overview refreshed</b>\n%d companies in %s", rows, elapsed.Round(time.Millisecond))
}

// FormatStatus formats cache and snapshot state as a command reply.
func FormatStatus(stats cache.Stats, sessions int, snapshots []offline.SnapshotInfo) string {
	var b strings.Builder
	b.WriteString("📦 <b>Dashboard status</b>\n\n")
	b.WriteString(fmt.Sprintf("Active sessions: %d\n", sessions))
	b.WriteString(fmt.Sprintf("Cache items: %d (hits %d, misses %d)\n", stats.TotalItems, stats.Hits, stats.Misses))

	categories := make([]string, 0, len(stats.Categories))
	for c := range stats.Categories {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		b.WriteString(fmt.Sprintf("  %s: %d\n", c, stats.Categories[c]))
	}

	if len(snapshots) == 0 {
		b.WriteString("\nNo offline snapshots\n")
		return b.String()
	}
	b.WriteString("\nOffline snapshots:\n")
	for _, s := range snapshots {
		b.WriteString(fmt.Sprintf("  %s (%s)\n", s.Key, s.Age))
	}
	return b.String()
}
