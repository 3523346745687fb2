// Package parse turns uploaded invoice documents (UBL XML, CSV, plain text,
// PDF, DOCX) into a canonical ParsedInvoice. Extraction degrades gracefully:
// fields and lines that cannot be read confidently come back absent, while a
// byte stream that cannot be decoded as its claimed format is a hard error.
package parse

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Format is the detected document format of an upload.
type Format string

const (
	FormatXML     Format = "XML"
	FormatCSV     Format = "CSV"
	FormatText    Format = "TEXT"
	FormatPDF     Format = "PDF"
	FormatDOCX    Format = "DOCX"
	FormatUnknown Format = "UNKNOWN"
)

// ErrUnsupportedFormat is returned when neither filename extension nor the
// declared content type identify a supported format.
var ErrUnsupportedFormat = errors.New("unsupported invoice format")

// ErrMalformed is returned when the byte stream cannot be decoded as the
// claimed format at all (broken XML, unreadable PDF, truncated DOCX zip).
// Missing fields or zero extracted lines are NOT malformed input.
var ErrMalformed = errors.New("malformed document")

// ParsedInvoice is the canonical output of every extractor. Items is never
// nil: a document that parses but yields no recognizable lines produces an
// empty slice, letting the caller surface "0 items" instead of an error.
type ParsedInvoice struct {
	Supplier      string           `json:"supplier,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	InvoiceDate   string           `json:"invoice_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	Items         []ParsedLine     `json:"items"`
	RawText       string           `json:"raw_text,omitempty"`
}

// ParsedLine is one extracted line item.
type ParsedLine struct {
	Description string           `json:"description,omitempty"`
	SKU         string           `json:"sku,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice  *decimal.Decimal `json:"total_price,omitempty"`
	TaxPercent  *decimal.Decimal `json:"tax_percent,omitempty"`
}

// DeriveTotal fills TotalPrice = Quantity × UnitPrice when the document did
// not carry an explicit line total but both factors are present.
func (l *ParsedLine) DeriveTotal() {
	if l.TotalPrice == nil && l.UnitPrice != nil && !l.Quantity.IsZero() {
		t := l.Quantity.Mul(*l.UnitPrice)
		l.TotalPrice = &t
	}
}

// Extractor converts raw document bytes into a ParsedInvoice.
// Implementations recover locally from per-field and per-line failures but
// propagate undecodable input as an error wrapping ErrMalformed.
type Extractor interface {
	Extract(data []byte) (*ParsedInvoice, error)
}

// ForFormat returns the extractor responsible for the given format.
func ForFormat(f Format) (Extractor, error) {
	switch f {
	case FormatXML:
		return XMLExtractor{}, nil
	case FormatCSV:
		return CSVExtractor{}, nil
	case FormatText:
		return TextExtractor{}, nil
	case FormatPDF:
		return PDFExtractor{}, nil
	case FormatDOCX:
		return DOCXExtractor{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
