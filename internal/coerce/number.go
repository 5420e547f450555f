package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EnsureNumber converts an arbitrary cell value to a finite number. Empty,
// unparseable and non-finite values become 0. It never panics.
func EnsureNumber(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case json.Number:
		return parse(string(v))
	case string:
		return parse(v)
	case *float64:
		if v == nil {
			return 0
		}
		return finite(*v)
	default:
		return 0
	}
}

func parse(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
}

// FormatAmount renders amount with two decimals and the currency symbol, or
// the ISO code when no symbol is known. Empty currency prints the number only.
func FormatAmount(amount float64, currency string) string {
	text := decimal.NewFromFloat(finite(amount)).StringFixed(2)
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return text
	}
	if symbol, ok := currencySymbols[currency]; ok {
		if strings.HasPrefix(text, "-") {
			return "-" + symbol + text[1:]
		}
		return symbol + text
	}
	return text + " " + currency
}
