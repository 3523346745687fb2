package parse

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const ublSample = `<?xml version="1.0" encoding="UTF-8"?>
<Invoice xmlns="urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
  xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
  xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cbc:ID>FAC-2024-0042</cbc:ID>
  <cbc:IssueDate>2024-03-15</cbc:IssueDate>
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyName><cbc:Name>ROMSTAL IMEX SRL</cbc:Name></cac:PartyName>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <cac:LegalMonetaryTotal>
    <cbc:TaxInclusiveAmount currencyID="RON">1690.50</cbc:TaxInclusiveAmount>
    <cbc:PayableAmount currencyID="RON">1690.50</cbc:PayableAmount>
  </cac:LegalMonetaryTotal>
  <cac:InvoiceLine>
    <cbc:ID>1</cbc:ID>
    <cbc:InvoicedQuantity unitCode="H87">10</cbc:InvoicedQuantity>
    <cbc:LineExtensionAmount currencyID="RON">1190.50</cbc:LineExtensionAmount>
    <cac:Item>
      <cbc:Name>Panou fotovoltaic 450W</cbc:Name>
      <cac:SellersItemIdentification><cbc:ID>PV-450</cbc:ID></cac:SellersItemIdentification>
      <cac:ClassifiedTaxCategory><cbc:Percent>19</cbc:Percent></cac:ClassifiedTaxCategory>
    </cac:Item>
    <cac:Price><cbc:PriceAmount currencyID="RON">119.05</cbc:PriceAmount></cac:Price>
  </cac:InvoiceLine>
  <cac:InvoiceLine>
    <cbc:ID>2</cbc:ID>
    <cbc:InvoicedQuantity unitCode="MTR">25</cbc:InvoicedQuantity>
    <cac:Item><cbc:Name>Cablu solar 6mm</cbc:Name></cac:Item>
    <cac:Price><cbc:PriceAmount currencyID="RON">20</cbc:PriceAmount></cac:Price>
  </cac:InvoiceLine>
</Invoice>`

func TestXMLExtractorUBL(t *testing.T) {
	inv, err := XMLExtractor{}.Extract([]byte(ublSample))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if inv.InvoiceNumber != "FAC-2024-0042" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if inv.InvoiceDate != "2024-03-15" {
		t.Errorf("invoice date = %q", inv.InvoiceDate)
	}
	if inv.Supplier != "ROMSTAL IMEX SRL" {
		t.Errorf("supplier = %q", inv.Supplier)
	}
	if inv.TotalAmount == nil || !inv.TotalAmount.Equal(decimal.RequireFromString("1690.50")) {
		t.Errorf("total = %v", inv.TotalAmount)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}

	first := inv.Items[0]
	if first.Description != "Panou fotovoltaic 450W" || first.SKU != "PV-450" || first.Unit != "H87" {
		t.Errorf("first line = %+v", first)
	}
	if !first.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("first quantity = %s", first.Quantity)
	}
	if first.TotalPrice == nil || !first.TotalPrice.Equal(decimal.RequireFromString("1190.50")) {
		t.Errorf("first total = %v", first.TotalPrice)
	}
	if first.TaxPercent == nil || !first.TaxPercent.Equal(decimal.NewFromInt(19)) {
		t.Errorf("first tax = %v", first.TaxPercent)
	}

	// Second line has no LineExtensionAmount; total is derived qty*price.
	second := inv.Items[1]
	if second.TotalPrice == nil || !second.TotalPrice.Equal(decimal.NewFromInt(500)) {
		t.Errorf("second total = %v", second.TotalPrice)
	}
}

func TestXMLExtractorNoNamespaces(t *testing.T) {
	doc := `<Invoice>
  <ID>PLAIN-1</ID>
  <IssueDate>2024-01-01</IssueDate>
  <InvoiceLine>
    <InvoicedQuantity unitCode="C62">5</InvoicedQuantity>
    <Item><Name>Invertor hibrid 8kW</Name></Item>
    <Price><PriceAmount>4200</PriceAmount></Price>
  </InvoiceLine>
</Invoice>`
	inv, err := XMLExtractor{}.Extract([]byte(doc))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if inv.InvoiceNumber != "PLAIN-1" {
		t.Errorf("invoice number = %q", inv.InvoiceNumber)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(inv.Items))
	}
	if inv.Items[0].Description != "Invertor hibrid 8kW" {
		t.Errorf("description = %q", inv.Items[0].Description)
	}
	if inv.Items[0].TotalPrice == nil || !inv.Items[0].TotalPrice.Equal(decimal.NewFromInt(21000)) {
		t.Errorf("derived total = %v", inv.Items[0].TotalPrice)
	}
}

func TestXMLExtractorNoLines(t *testing.T) {
	inv, err := XMLExtractor{}.Extract([]byte(`<Invoice><ID>EMPTY-1</ID></Invoice>`))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if inv.Items == nil || len(inv.Items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", inv.Items)
	}
}

func TestXMLExtractorMalformed(t *testing.T) {
	_, err := XMLExtractor{}.Extract([]byte(`<Invoice><unclosed>`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestXMLExtractorRejectsDoctype(t *testing.T) {
	doc := `<?xml version="1.0"?>
<!DOCTYPE Invoice [<!ENTITY xxe SYSTEM "file:///etc/passwd">]>
<Invoice><ID>&xxe;</ID></Invoice>`
	_, err := XMLExtractor{}.Extract([]byte(doc))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}
