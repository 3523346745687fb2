package parse

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses a numeric token that may use either European
// ("1.234,56") or Anglo ("1,234.56") digit grouping. When both separators
// appear, the rightmost one is the decimal separator. A lone comma is always
// a decimal separator ("12,5" -> 12.5). Returns ok=false for tokens that do
// not contain a parseable number; the zero value carries no meaning then.
func ParseDecimal(tok string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(tok)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, false
	}

	comma := strings.LastIndexByte(s, ',')
	dot := strings.LastIndexByte(s, '.')
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
