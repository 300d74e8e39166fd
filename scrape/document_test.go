package scrape

import (
	"fmt"
	"strings"
	"testing"

	"github.com/florawise/plantdetails/config"
	"github.com/florawise/plantdetails/faults"
	"github.com/florawise/plantdetails/models"
)

const searchPage = `<html><body>
<app-plant-search-list>
<a class="u-faux-block-link__overlay" href="/plants/104669/tulipa-gesneriana/details"><em>Tulipa</em> gesneriana</a>
<a class="u-faux-block-link__overlay" href="/plants/16627/tulipa-kaufmanniana/details">Tulipa kaufmanniana</a>
<a class="u-faux-block-link__overlay" href="/somewhere/else">broken result</a>
</app-plant-search-list>
</body></html>`

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		page string
		want DocClass
	}{
		{"full detail", `<html><body><lib-plant-details-full></lib-plant-details-full></body></html>`, FullDetail},
		{"summary only", `<html><body><lib-plant-details-summary></lib-plant-details-summary></body></html>`, SummaryOnly},
		{"full wins over summary", `<html><body><lib-plant-details-full></lib-plant-details-full><lib-plant-details-summary></lib-plant-details-summary></body></html>`, FullDetail},
		{"neither marker", `<html><body><h1>Page not found</h1></body></html>`, NotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(fixtureDoc(t, tc.page))
			if got.Class != tc.want {
				t.Fatalf("class = %d, want %d", got.Class, tc.want)
			}
			if (got.Doc != nil) != (tc.want == FullDetail) {
				t.Fatalf("doc presence wrong for class %d", got.Class)
			}
		})
	}
}

func TestParseCandidates(t *testing.T) {
	got, err := parseCandidates(fixtureDoc(t, searchPage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []models.SearchCandidate{
		{Name: "Tulipa gesneriana", ID: "104669"},
		{Name: "Tulipa kaufmanniana", ID: "16627"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParseCandidatesEmptyList(t *testing.T) {
	page := `<html><body><app-plant-search-list></app-plant-search-list></body></html>`
	got, err := parseCandidates(fixtureDoc(t, page))
	if err != nil {
		t.Fatalf("a present-but-empty list is not an error, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want none", len(got))
	}
}

func TestParseCandidatesMissingList(t *testing.T) {
	_, err := parseCandidates(fixtureDoc(t, `<html><body><h1>maintenance</h1></body></html>`))
	f, ok := faults.As(err)
	if !ok || f.Code != faults.CodeParsing {
		t.Fatalf("expected a parsing fault, got %v", err)
	}
}

func TestParseCandidatesCap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><app-plant-search-list>`)
	for i := 0; i < maxCandidates+10; i++ {
		fmt.Fprintf(&b, `<a class="u-faux-block-link__overlay" href="/plants/%d/rosa/details">Rosa %d</a>`, i, i)
	}
	b.WriteString(`</app-plant-search-list></body></html>`)

	got, err := parseCandidates(fixtureDoc(t, b.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != maxCandidates {
		t.Fatalf("got %d candidates, want cap of %d", len(got), maxCandidates)
	}
}

func TestSearchURL(t *testing.T) {
	cfg := config.SiteConfig{BaseURL: "https://plants.example.com/", SearchPath: "/plants/search-results?query="}
	got := searchURL(cfg, "Tulipa Gesneriana")
	want := "https://plants.example.com/plants/search-results?query=tulipa+gesneriana"
	if got != want {
		t.Fatalf("searchURL = %q, want %q", got, want)
	}
}

func TestDetailURL(t *testing.T) {
	cfg := config.SiteConfig{BaseURL: "https://plants.example.com"}
	got := detailURL(cfg, models.SearchCandidate{Name: "Tulipa gesneriana", ID: "104669"})
	want := "https://plants.example.com/plants/104669/tulipa-gesneriana/details"
	if got != want {
		t.Fatalf("detailURL = %q, want %q", got, want)
	}
}
