package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// TextExtractor scans semi-structured plain-text invoices, the kind produced
// by OCR or copy-pasting a supplier PDF. It is heuristic by nature: header
// fields come from labeled patterns, line items from a cascade of table-row
// shapes tried strictest first.
type TextExtractor struct{}

func (TextExtractor) Extract(data []byte) (*ParsedInvoice, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid UTF-8 text", ErrMalformed)
	}
	return extractFromText(string(data)), nil
}

var (
	supplierPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:furnizor|supplier|from)\s*[:\s]\s*(.+)`),
		regexp.MustCompile(`(?i)(?:societate|company)\s*[:\s]\s*(.+)`),
	}
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:factura|invoice)\s*(?:fiscala)?\s*(?:nr|no|numar|number)?\s*[.:#]?\s*([A-Z0-9][A-Z0-9/-]*)`),
		regexp.MustCompile(`(?i)\b(?:nr|no)\s*[.:]\s*([A-Z0-9][A-Z0-9/-]*)`),
	}
	invoiceDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:data|date)\s*[:\s]\s*(\d{1,2}[./-]\d{1,2}[./-]\d{2,4})`),
		regexp.MustCompile(`(?i)(?:data|date)\s*[:\s]\s*(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`\b(\d{1,2}[./-]\d{1,2}[./-]\d{4})\b`),
	}
	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s+(?:general|de\s+plata)\s*[:\s]\s*([\d.,]+)`),
		regexp.MustCompile(`(?i)\btotal\b[^\d\n]*([\d.,]+)`),
	}

	// Lines matching any of these are administrative noise, never items.
	skipPattern = regexp.MustCompile(`(?i)^\s*(?:BANCA|CONT|Capital|Sediul|TOTAL|Semnatura|Stampila|Cumparator|Furnizor|Scadenta|GESTIUNEA|Mijloc de transport|Numele delegatului|Buletin|Emis de|C\.?U\.?I|Nr\.? ?Reg|Cota TVA|Curs BNR|Pagina|Data emiterii)`)

	// Numbered price-list row: index, SKU, description, unit, qty, unit
	// price, line total. The shape used by ROMSTAL-style supplier exports.
	skuRowPattern = regexp.MustCompile(`(?i)^\d+\s+([A-Z0-9]+)\s+(.+?)\s+(buc|bucati|kg|m|ml|l|h|set|pcs|rola)\s+([\d.,]+)\s+([\d.,]+)\s+([\d.,]+)\s*$`)

	// Common row: description, qty, optional unit token, unit price, total.
	standardRowPattern = regexp.MustCompile(`(?i)^(.+?)\s+([\d.,]+)\s+(?:buc|bucati|kg|m|ml|l|h|set|pcs|rola)?\s*([\d.,]+)\s+([\d.,]+)\s*$`)

	// Last resort: long-ish description followed by two numbers. Only
	// consulted in a second pass over the whole document, when the table
	// row shapes matched nothing at all.
	simpleRowPattern = regexp.MustCompile(`^(.{10,}?)\s+([\d.,]+)\s+([\d.,]+)\s*$`)

	currencyTokenPattern = regexp.MustCompile(`(?i)\b(?:RON|LEI|EUR)\b`)
	descTrimPattern      = regexp.MustCompile(`^[+\-@*#&\s]+|[+\-@*#&\s]+$`)
	spaceRunPattern      = regexp.MustCompile(`\s+`)
)

// extractFromText is shared by the text, PDF and DOCX extractors once their
// carriers have been reduced to lines of text.
func extractFromText(text string) *ParsedInvoice {
	inv := &ParsedInvoice{Items: []ParsedLine{}, RawText: text}

	inv.Supplier = firstCapture(text, supplierPatterns)
	inv.InvoiceNumber = firstCapture(text, invoiceNumberPatterns)
	inv.InvoiceDate = firstCapture(text, invoiceDatePatterns)
	if d, ok := ParseDecimal(firstCapture(text, totalPatterns)); ok {
		inv.TotalAmount = &d
	}

	lines := strings.Split(text, "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || skipPattern.MatchString(line) {
			continue
		}
		if item, ok := parseTextLine(line); ok {
			inv.Items = append(inv.Items, item)
		}
	}

	// Loose fallback pass, only when no table row shape matched anywhere.
	// On documents that do have real rows it would promote boilerplate
	// ending in two numbers into phantom items.
	if len(inv.Items) == 0 {
		for _, raw := range lines {
			line := strings.TrimSpace(raw)
			if line == "" || skipPattern.MatchString(line) {
				continue
			}
			if item, ok := parseSimpleLine(line); ok {
				inv.Items = append(inv.Items, item)
			}
		}
	}
	return inv
}

func firstCapture(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func parseTextLine(line string) (ParsedLine, bool) {
	if m := skuRowPattern.FindStringSubmatch(line); m != nil {
		desc := cleanDescription(m[2])
		qty, qok := ParseDecimal(m[4])
		price, pok := ParseDecimal(m[5])
		total, tok := ParseDecimal(m[6])
		if desc != "" && qok && pok && tok && plausibleAmounts(qty, price, total) {
			item := ParsedLine{SKU: m[1], Description: desc, Unit: strings.ToLower(m[3]), Quantity: qty, UnitPrice: &price, TotalPrice: &total}
			return item, true
		}
	}
	if m := standardRowPattern.FindStringSubmatch(line); m != nil {
		desc := cleanDescription(m[1])
		qty, qok := ParseDecimal(m[2])
		price, pok := ParseDecimal(m[3])
		total, tok := ParseDecimal(m[4])
		if desc != "" && qok && pok && tok && plausibleAmounts(qty, price, total) {
			return ParsedLine{Description: desc, Quantity: qty, UnitPrice: &price, TotalPrice: &total}, true
		}
	}
	return ParsedLine{}, false
}

func parseSimpleLine(line string) (ParsedLine, bool) {
	m := simpleRowPattern.FindStringSubmatch(line)
	if m == nil {
		return ParsedLine{}, false
	}
	desc := cleanDescription(m[1])
	qty, qok := ParseDecimal(m[2])
	price, pok := ParseDecimal(m[3])
	if desc == "" || !qok || !pok || !qty.IsPositive() {
		return ParsedLine{}, false
	}
	item := ParsedLine{Description: desc, Quantity: qty, UnitPrice: &price}
	item.DeriveTotal()
	return item, true
}

// plausibleAmounts accepts a row when qty × price is within one currency
// unit of the stated total, or when the total is at least positive. Filters
// out address and tax-ID lines that happen to end in two numbers.
func plausibleAmounts(qty, price, total decimal.Decimal) bool {
	if !qty.IsPositive() {
		return false
	}
	diff := qty.Mul(price).Sub(total).Abs()
	return diff.LessThan(decimal.NewFromInt(1)) || total.IsPositive()
}

func cleanDescription(s string) string {
	s = currencyTokenPattern.ReplaceAllString(s, "")
	s = descTrimPattern.ReplaceAllString(s, "")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 3 {
		return ""
	}
	return s
}
