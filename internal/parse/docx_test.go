package parse

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXExtractorTableRows(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>FACTURA Nr. DX-77</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Panou fotovoltaic 450W</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>10</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>550,00</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>5.500,00</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`
	inv, err := DOCXExtractor{}.Extract(buildDOCX(t, doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if inv.InvoiceNumber != "DX-77" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1 (raw text %q)", len(inv.Items), inv.RawText)
	}
	it := inv.Items[0]
	if it.Description != "Panou fotovoltaic 450W" {
		t.Errorf("description = %q", it.Description)
	}
	if !it.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s", it.Quantity)
	}
	if it.TotalPrice == nil || !it.TotalPrice.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("total = %v", it.TotalPrice)
	}
}

func TestDOCXExtractorNotAZip(t *testing.T) {
	_, err := DOCXExtractor{}.Extract([]byte("plain text, not a zip"))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestDOCXExtractorMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/other.xml"); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	_, err := DOCXExtractor{}.Extract(buf.Bytes())
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}
