package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// maxListedSymbols is the largest symbol set spelled out in a key; larger
// sets collapse to a count and digest.
const maxListedSymbols = 10

// Params are the extra request parameters folded into a key.
type Params map[string]string

// Key derives the cache key for a request shape. It does not depend on the
// order of symbols or params.
func Key(category Category, symbols []string, params Params) string {
	parts := []string{string(category)}

	if len(symbols) > 0 {
		sorted := append([]string(nil), symbols...)
		sort.Strings(sorted)
		if len(sorted) > maxListedSymbols {
			sum := md5.Sum([]byte(strings.Join(sorted, "")))
			parts = append(parts, fmt.Sprintf("symbols_%d_%s", len(sorted), hex.EncodeToString(sum[:])[:8]))
		} else {
			parts = append(parts, strings.Join(sorted, "_"))
		}
	}

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for k := range params {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			parts = append(parts, k+"_"+params[k])
		}
	}

	return strings.Join(parts, "_")
}
