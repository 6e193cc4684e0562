package api

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"MarketDashboard/internal/format"
	"MarketDashboard/internal/session"
)

var symbolRegex = regexp.MustCompile(`^[A-Z0-9-]{1,10}$`)

// parseSymbols splits a comma separated list and normalizes each ticker.
func parseSymbols(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		sym := format.CleanSymbol(part)
		if sym == "" {
			continue
		}
		if !symbolRegex.MatchString(sym) {
			return nil, fmt.Errorf("invalid symbol %q", part)
		}
		out = append(out, sym)
	}
	return out, nil
}

func cleanSymbols(symbols []string) ([]string, error) {
	return parseSymbols(strings.Join(symbols, ","))
}

// parseDisplayCount accepts one of the offered list sizes; "all" maps to 0.
func parseDisplayCount(raw string) (int, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return session.DefaultDisplayCount, nil
	}
	if raw == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("limit must be a number or \"all\"")
	}
	for _, allowed := range session.DisplayCounts {
		if n == allowed {
			return n, nil
		}
	}
	return 0, errors.New("limit must be one of 20, 50, 100, 200 or all")
}

func parseNonNegative(raw, name string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
