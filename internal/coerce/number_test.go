package coerce

import (
	"encoding/json"
	"math"
	"testing"
)

func TestEnsureNumber(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"nil", nil, 0},
		{"empty object", map[string]any{}, 0},
		{"struct", struct{}{}, 0},
		{"abc", "abc", 0},
		{"NaN", math.NaN(), 0},
		{"Infinity", math.Inf(1), 0},
		{"negative Infinity", math.Inf(-1), 0},
		{"Infinity string", "Infinity", 0},
		{"numeric string", "42", 42},
		{"padded string", "  7.5 ", 7.5},
		{"empty string", "", 0},
		{"whitespace", "   ", 0},
		{"exponent", "1e3", 1000},
		{"thousands separator", "1,234", 0},
		{"float", 3.25, 3.25},
		{"int", 12, 12},
		{"int64", int64(-4), -4},
		{"uint8", uint8(9), 9},
		{"true", true, 1},
		{"false", false, 0},
		{"json number", json.Number("15"), 15},
		{"float pointer", &inf, 0},
		{"nil float pointer", (*float64)(nil), 0},
		{"slice", []int{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureNumber(tt.value)
			if got != tt.want {
				t.Errorf("EnsureNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{20030, "USD", "$20030.00"},
		{150.5, "inr", "₹150.50"},
		{-75.255, "EUR", "-€75.26"},
		{12.3, "CHF", "12.30 CHF"},
		{0.1 + 0.2, "", "0.30"},
		{math.NaN(), "USD", "$0.00"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.amount, tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%v, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}
