package match

import "testing"

var catalog = []CatalogEntry{
	{ID: 1, SKU: "PV-450", Name: "Panou fotovoltaic 450W"},
	{ID: 2, SKU: "INV8K", Name: "Invertor hibrid 8kW"},
	{ID: 3, SKU: "CS6", Name: "Cablu solar 6mm"},
	{ID: 4, SKU: "", Name: "Structura montaj acoperis"},
}

func TestBestExactSKU(t *testing.T) {
	s, ok := Best(Input{SKU: "pv-450", Description: "ceva complet diferit"}, catalog, 0)
	if !ok {
		t.Fatal("expected match")
	}
	if s.MaterialID != 1 || s.Confidence != 1.0 || s.Kind != KindSKU {
		t.Errorf("suggestion = %+v", s)
	}
}

func TestBestContainment(t *testing.T) {
	s, ok := Best(Input{Description: "Panou fotovoltaic 450W monocristalin garantie 25 ani"}, catalog, 0)
	if !ok {
		t.Fatal("expected match")
	}
	if s.MaterialID != 1 || s.Kind != KindContainment {
		t.Errorf("suggestion = %+v", s)
	}
	if s.Confidence <= containmentFloor || s.Confidence >= 1.0 {
		t.Errorf("confidence = %f", s.Confidence)
	}
}

func TestBestContainmentFloorRejectsShortFragment(t *testing.T) {
	// "6mm" is contained in a catalog name but far below the floor ratio.
	if s, ok := Best(Input{Description: "6mm"}, catalog, 0.99); ok {
		t.Errorf("expected no match, got %+v", s)
	}
}

func TestBestSimilarity(t *testing.T) {
	s, ok := Best(Input{Description: "Invertor hybrid 8kw"}, catalog, 0)
	if !ok {
		t.Fatal("expected match")
	}
	if s.MaterialID != 2 || s.Kind != KindSimilarity {
		t.Errorf("suggestion = %+v", s)
	}
	if s.Confidence < DefaultCutoff {
		t.Errorf("confidence = %f", s.Confidence)
	}
}

func TestBestCutoffRejects(t *testing.T) {
	if s, ok := Best(Input{Description: "Surub autoforant 4.8x19"}, catalog, 0); ok {
		t.Errorf("expected no match, got %+v", s)
	}
}

func TestBestEmptyInput(t *testing.T) {
	if _, ok := Best(Input{}, catalog, 0); ok {
		t.Error("expected no match for empty input")
	}
	if _, ok := Best(Input{Description: "Panou fotovoltaic 450W"}, nil, 0); ok {
		t.Error("expected no match against empty catalog")
	}
}

func TestBestDeterministic(t *testing.T) {
	in := Input{Description: "Cablu solar 6mm rosu"}
	first, ok := Best(in, catalog, 0)
	if !ok {
		t.Fatal("expected match")
	}
	for i := 0; i < 10; i++ {
		again, ok := Best(in, catalog, 0)
		if !ok || again != first {
			t.Fatalf("run %d: %+v, want %+v", i, again, first)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  PV-450\t Panou  "); got != "pv-450 panou" {
		t.Errorf("Normalize = %q", got)
	}
}
