package tariff

import "testing"

func TestNormalizeCity(t *testing.T) {
	cases := map[string]string{
		"paris":                "PARIS",
		"  Paris  ":            "PARIS",
		"Évry-Courcouronnes":   "EVRY-COURCOURONNES",
		"Créteil":              "CRETEIL",
		"Saint   Denis":        "SAINT-DENIS",
		"L'Haÿ-les-Roses":      "L-HAY-LES-ROSES",
		"boulogne billancourt": "BOULOGNE-BILLANCOURT",
	}
	for in, want := range cases {
		if got := NormalizeCity(in); got != want {
			t.Errorf("NormalizeCity(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsParis(t *testing.T) {
	for _, city := range []string{"Paris", "PARIS", "paris", "Paris 15e", "PARIS-03"} {
		if !IsParis(city) {
			t.Errorf("expected %q to count as Paris", city)
		}
	}
	for _, city := range []string{"Melun", "Versailles", "Parisot"} {
		if IsParis(city) {
			t.Errorf("did not expect %q to count as Paris", city)
		}
	}
}

func TestLookupGridExact(t *testing.T) {
	row, ok := LookupGrid("Melun")
	if !ok {
		t.Fatal("Melun missing from grid")
	}
	if row.Rates.Normal != 24*MilliBons || row.Rates.Express != 27*MilliBons {
		t.Fatalf("unexpected Melun rates: %+v", row.Rates)
	}
}

func TestLookupGridPartial(t *testing.T) {
	row, ok := LookupGrid("Paris 11e")
	if !ok || row.City != "PARIS" {
		t.Fatalf("expected arrondissement to resolve to PARIS, got %+v ok=%v", row, ok)
	}
}

func TestLookupGridUnknown(t *testing.T) {
	if _, ok := LookupGrid("Tokyo"); ok {
		t.Fatal("did not expect Tokyo in the grid")
	}
	if _, ok := LookupGrid(""); ok {
		t.Fatal("blank city must not match")
	}
}

func TestGridLadderOrdered(t *testing.T) {
	for _, row := range builtinGrid {
		if !row.Rates.Ordered() {
			t.Errorf("%s violates the tier ladder: %+v", row.City, row.Rates)
		}
	}
}

func TestSearchGrid(t *testing.T) {
	rows := SearchGrid("saint", 5)
	if len(rows) == 0 {
		t.Fatal("expected Saint-* matches")
	}
	if len(rows) > 5 {
		t.Fatalf("limit not applied: %d rows", len(rows))
	}
	byZip := SearchGrid("77000", 3)
	if len(byZip) != 1 || byZip[0].City != "MELUN" {
		t.Fatalf("zip search: %+v", byZip)
	}
}

func TestFormulaAvailability(t *testing.T) {
	if FormulaNormal.AvailableForImmediate() {
		t.Fatal("Standard must require a scheduled pickup")
	}
	for _, f := range []Formula{FormulaExpress, FormulaUrgence, FormulaVLExpress} {
		if !f.AvailableForImmediate() {
			t.Errorf("%s should be available immediately", f)
		}
	}
}

func TestParseFormula(t *testing.T) {
	f, err := ParseFormula(" express ")
	if err != nil || f != FormulaExpress {
		t.Fatalf("ParseFormula: %v %v", f, err)
	}
	if _, err := ParseFormula("TURBO"); err == nil {
		t.Fatal("expected error for unknown formula")
	}
}
