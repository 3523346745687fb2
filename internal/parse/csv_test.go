package parse

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCSVExtractorSemicolonRomanianHeaders(t *testing.T) {
	csvData := "Cod;Denumire;Cant;PretUnit\nPV450;Panou fotovoltaic 450W;10;550,00\nCS6;Cablu solar 6mm;25;12,5\n"
	inv, err := CSVExtractor{}.Extract([]byte(csvData))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}

	first := inv.Items[0]
	if first.SKU != "PV450" || first.Description != "Panou fotovoltaic 450W" {
		t.Errorf("first line = %+v", first)
	}
	if !first.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s", first.Quantity)
	}
	if first.UnitPrice == nil || !first.UnitPrice.Equal(decimal.NewFromInt(550)) {
		t.Errorf("unit price = %v", first.UnitPrice)
	}
	// No total column: derived from qty * unit price.
	if first.TotalPrice == nil || !first.TotalPrice.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("total = %v", first.TotalPrice)
	}
	// Invoice total is the sum of derived line totals.
	if inv.TotalAmount == nil || !inv.TotalAmount.Equal(decimal.RequireFromString("5812.5")) {
		t.Errorf("invoice total = %v", inv.TotalAmount)
	}
}

func TestCSVExtractorCommaEnglishHeaders(t *testing.T) {
	csvData := "sku,description,quantity,unit,total\nINV8K,Hybrid inverter 8kW,2,pcs,8400\n"
	inv, err := CSVExtractor{}.Extract([]byte(csvData))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(inv.Items))
	}
	it := inv.Items[0]
	if it.Unit != "pcs" {
		t.Errorf("unit = %q", it.Unit)
	}
	// No unit price column: derived from total / qty.
	if it.UnitPrice == nil || !it.UnitPrice.Equal(decimal.NewFromInt(4200)) {
		t.Errorf("unit price = %v", it.UnitPrice)
	}
}

func TestCSVExtractorSkipsBadRows(t *testing.T) {
	csvData := "Denumire;Cantitate\nPanou 450W;10\n;5\nCablu;abc\nCablu;0\n"
	inv, err := CSVExtractor{}.Extract([]byte(csvData))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(inv.Items) != 1 {
		t.Errorf("items = %d, want 1: %+v", len(inv.Items), inv.Items)
	}
}

func TestCSVExtractorUnmappableHeaders(t *testing.T) {
	inv, err := CSVExtractor{}.Extract([]byte("a;b;c\n1;2;3\n"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(inv.Items) != 0 {
		t.Errorf("items = %+v, want none", inv.Items)
	}
}

func TestCSVExtractorEmpty(t *testing.T) {
	_, err := CSVExtractor{}.Extract([]byte(""))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}
