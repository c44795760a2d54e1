package directory

import (
	"testing"

	"vols-bot/internal/models"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Н-6477", "Н6477"},
		{"н 6477", "Н6477"},
		{"ТП-6478", "ТП6478"},
		{"6477", "6477"},
		{"  ", ""},
		{"ВЛ-10 кВ Ф-5", "ВЛ10КВФ5"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

var table = []models.BranchEntry{
	{Substation: "Н-6477", PowerLine: "ВЛ-10 кВ Ф-1", Supports: "1-10", SupportCount: "10", District: "Тимашевский РЭС"},
	{Substation: "Н-6477", PowerLine: "ВЛ-0,4 кВ Ф-2", Supports: "11-20", SupportCount: "10"},
	{Substation: "ТП-6478", PowerLine: "ВЛ-10 кВ Ф-3", Supports: "1-5", SupportCount: "5", District: "Брюховецкий РЭС"},
}

func TestSearchDigitsQueryMatchesExactOnly(t *testing.T) {
	// "6477" normalizes into "Н6477" by containment but must not pull in
	// "ТП6478"; with no exact normalized equality it yields candidates.
	exact, candidates := Search(table, "6477")
	if exact != nil {
		t.Fatalf("exact = %+v, want none for partial query", exact)
	}
	if len(candidates) != 1 || candidates[0] != "Н-6477" {
		t.Fatalf("candidates = %v, want [Н-6477]", candidates)
	}
}

func TestSearchExactNormalizedMatch(t *testing.T) {
	exact, candidates := Search(table, "н 6477")
	if len(exact) != 2 {
		t.Fatalf("exact rows = %d, want 2", len(exact))
	}
	if candidates != nil {
		t.Fatalf("candidates = %v, want nil when exact match found", candidates)
	}
}

func TestSearchNoMatch(t *testing.T) {
	exact, candidates := Search(table, "9999")
	if exact != nil || candidates != nil {
		t.Fatalf("Search miss = (%v, %v), want (nil, nil)", exact, candidates)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	exact, candidates := Search(table, " - ")
	if exact != nil || candidates != nil {
		t.Fatal("expected nothing for an empty normalized query")
	}
}

func TestDistrictFor(t *testing.T) {
	if got := DistrictFor(table, "Н-6477"); got != "Тимашевский РЭС" {
		t.Fatalf("DistrictFor = %q, want %q", got, "Тимашевский РЭС")
	}
	if got := DistrictFor(table, "нет такой"); got != "" {
		t.Fatalf("DistrictFor miss = %q, want empty", got)
	}
}

func TestPowerLines(t *testing.T) {
	vls := PowerLines(table, "Н-6477")
	if len(vls) != 2 {
		t.Fatalf("PowerLines = %v, want 2 entries", vls)
	}
	if vls[0] != "ВЛ-10 кВ Ф-1" {
		t.Fatalf("PowerLines order broken: %v", vls)
	}
}

func TestRows(t *testing.T) {
	if got := Rows(table, "ТП-6478"); len(got) != 1 {
		t.Fatalf("Rows = %d, want 1", len(got))
	}
}
