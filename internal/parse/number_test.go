package parse

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"12,5", "12.5", true},
		{"12.5", "12.5", true},
		{"1000", "1000", true},
		{" 3.179,84 ", "3179.84", true},
		{"1,000", "1", true},
		{"0", "0", true},
		{"abc", "", false},
		{"", "", false},
		{"12,34,56", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDecimal(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDecimal(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
