package parse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CSVExtractor handles delimiter-sniffed CSV exports with a header row whose
// column names vary by supplier. Columns are mapped to roles by synonym
// lists; rows missing the essential description or quantity are skipped
// rather than failing the whole file.
type CSVExtractor struct{}

// Synonym lists per column role, compared against lowercased headers. Order
// matters: each column is claimed by at most one role, and "pretunit" must
// land on unit_price before the bare "unit" role gets a chance at it.
var csvHeaderRoles = []struct {
	role     string
	synonyms []string
}{
	{"sku", []string{"sku", "cod produs", "cod articol", "cod", "code"}},
	{"description", []string{"description", "denumire", "nume", "produs", "articol", "material"}},
	{"quantity", []string{"quantity", "qty", "cantitate", "cant"}},
	{"unit_price", []string{"unit_price", "pret_unitar", "pretunit", "pret unitar", "pret", "price"}},
	{"total", []string{"total", "suma", "valoare", "amount"}},
	{"unit", []string{"unitate", "unit", "um", "u.m"}},
}

func (CSVExtractor) Extract(data []byte) (*ParsedInvoice, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
	}

	cols := mapHeaderColumns(records[0])
	inv := &ParsedInvoice{Items: []ParsedLine{}, RawText: string(data)}

	for _, rec := range records[1:] {
		line, ok := csvLine(rec, cols)
		if !ok {
			continue
		}
		inv.Items = append(inv.Items, line)
	}

	if sum := sumLineTotals(inv.Items); sum.IsPositive() {
		inv.TotalAmount = &sum
	}
	return inv, nil
}

// sniffDelimiter counts candidate delimiters in the first kilobyte and picks
// the most frequent; Romanian exports overwhelmingly use ';'.
func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		sample = sample[:i]
	}
	best, bestCount := ',', bytes.Count(sample, []byte{','})
	for _, c := range []byte{';', '\t'} {
		if n := bytes.Count(sample, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}

func mapHeaderColumns(header []string) map[string]int {
	cols := make(map[string]int)
	used := make(map[int]bool)
	for _, r := range csvHeaderRoles {
	scan:
		for i, h := range header {
			if used[i] {
				continue
			}
			name := strings.ToLower(strings.TrimSpace(h))
			if name == "" {
				continue
			}
			for _, syn := range r.synonyms {
				if name == syn || strings.Contains(name, syn) {
					cols[r.role] = i
					used[i] = true
					break scan
				}
			}
		}
	}
	return cols
}

func csvLine(rec []string, cols map[string]int) (ParsedLine, bool) {
	field := func(role string) string {
		i, ok := cols[role]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var line ParsedLine
	line.Description = field("description")
	if line.Description == "" {
		return ParsedLine{}, false
	}
	qty, ok := ParseDecimal(field("quantity"))
	if !ok || !qty.IsPositive() {
		return ParsedLine{}, false
	}
	line.Quantity = qty
	line.SKU = field("sku")
	line.Unit = field("unit")
	if d, ok := ParseDecimal(field("unit_price")); ok {
		line.UnitPrice = &d
	}
	if d, ok := ParseDecimal(field("total")); ok {
		line.TotalPrice = &d
	}
	line.DeriveTotal()
	if line.UnitPrice == nil && line.TotalPrice != nil && !line.Quantity.IsZero() {
		p := line.TotalPrice.Div(line.Quantity)
		line.UnitPrice = &p
	}
	return line, true
}

func sumLineTotals(items []ParsedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		if it.TotalPrice != nil {
			sum = sum.Add(*it.TotalPrice)
		}
	}
	return sum
}
