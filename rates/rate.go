// Package rates aggregates USD/ARS quotes from public providers with a fallback chain.
package rates

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Rate is one quote, buy and sell in pesos per dollar.
type Rate struct {
	Name string  `json:"nombre"`
	Buy  float64 `json:"compra"`
	Sell float64 `json:"venta"`
}

// Mid is the midpoint of buy and sell.
func (r Rate) Mid() float64 {
	return (r.Buy + r.Sell) / 2
}

var nonNumeric = regexp.MustCompile(`[^0-9,.\-]`)

// ParseNumber reads a provider number. Numbers pass through; strings are parsed
// leniently, accepting both "1.234,50" and "1,234.50". Anything unreadable is 0.
func ParseNumber(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Num
	case gjson.String:
		return parseNumberString(v.Str)
	}
	return 0
}

func parseNumberString(raw string) float64 {
	s := nonNumeric.ReplaceAllString(raw, "")
	if s == "" {
		return 0
	}
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// The later separator is the decimal one.
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

// firstString returns the first non-empty string among paths of v.
func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := v.Get(p); s.Type == gjson.String && s.Str != "" {
			return s.Str
		}
	}
	return ""
}
