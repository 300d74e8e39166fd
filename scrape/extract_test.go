package scrape

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const fullDetailPage = `<html><body>
<lib-plant-details-full>
<div class="plant-attributes__panel">
<h6>Size</h6>
<div class="plant-attributes__content">
<div class="flag__body"><h6>Ultimate height</h6>0.1-0.5 metres</div>
<div class="flag__body"><h6>Ultimate spread</h6>0-0.1 metre</div>
<div class="flag__body"><h6>Time to ultimate height</h6>1 year</div>
</div>
</div>
<div class="plant-attributes__panel">
<h6>Growing conditions</h6>
<div class="plant-attributes__content">
<div class="flag__body">Chalk</div>
<div class="flag__body">Loam</div>
<div class="flag__body">Sand</div>
<div class="l-module"><h6>Moisture</h6><span><span>Moist but well-drained,</span> <span>Well-drained</span></span></div>
<div class="l-module"><h6>pH</h6><span><span>Acid,</span> <span>Alkaline,</span> <span>Neutral</span></span></div>
</div>
</div>
<div class="plant-attributes__panel">
<h6>Position</h6>
<div class="plant-attributes__content">
<div class="flag--tiny">Full sun</div>
<div class="flag--tiny">Partial shade</div>
<p><span>South-facing</span> <span>or West-facing</span></p>
<div class="l-module"><h6>Exposure</h6><span><span>Sheltered</span></span></div>
<div>
<h6 class="u-m-b-0">Hardiness<ul>
<li><strong>H5</strong>: hardy in most places throughout the UK (-15 to -10)</li>
<li><strong>H6</strong>: hardy in all of UK and northern Europe (-20 to -15)</li>
</ul></h6>
<span>H6</span>
</div>
</div>
</div>
<span class="plant-section">
<h5>Cultivation</h5>
<p>Plant 10-15cm deep in autumn. See <a href="https://example.org/advice/tulip-care">tulip care</a> for full guidance</p>
</span>
<span class="plant-section">
<h5>Pruning</h5>
<p>Deadhead after flowering and allow foliage to die down naturally.</p>
</span>
</lib-plant-details-full>
</body></html>`

func fixtureDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractSize(t *testing.T) {
	got := extractSize(fixtureDoc(t, fullDetailPage))
	if got == nil {
		t.Fatal("expected a size record")
	}
	for _, tc := range []struct {
		field string
		got   *string
		want  string
	}{
		{"height", got.Height, "0.1-0.5 metres"},
		{"spread", got.Spread, "0-0.1 metre"},
		{"time to height", got.TimeToHeight, "1 year"},
	} {
		if tc.got == nil || *tc.got != tc.want {
			t.Errorf("%s = %v, want %q", tc.field, tc.got, tc.want)
		}
	}
}

func TestExtractSizePartialRows(t *testing.T) {
	page := `<html><body><div class="plant-attributes__panel"><h6>Size</h6>
<div class="flag__body"><h6>Ultimate height</h6>4-8 metres</div>
</div></body></html>`
	got := extractSize(fixtureDoc(t, page))
	if got == nil {
		t.Fatal("a panel with any row present should yield a record")
	}
	if got.Height == nil || *got.Height != "4-8 metres" {
		t.Fatalf("height = %v, want 4-8 metres", got.Height)
	}
	if got.Spread != nil || got.TimeToHeight != nil {
		t.Fatalf("missing rows must stay absent, got spread=%v time=%v", got.Spread, got.TimeToHeight)
	}
}

func TestExtractSizeNoPanel(t *testing.T) {
	if got := extractSize(fixtureDoc(t, `<html><body><p>nothing here</p></body></html>`)); got != nil {
		t.Fatalf("expected nil without a Size panel, got %+v", got)
	}
}

func TestExtractHardiness(t *testing.T) {
	got := extractHardiness(fixtureDoc(t, fullDetailPage))
	if got == nil {
		t.Fatal("expected a hardiness value")
	}
	want := "H6: hardy in all of UK and northern Europe (-20 to -15)"
	if *got != want {
		t.Fatalf("hardiness = %q, want %q", *got, want)
	}
}

func TestExtractHardinessMissingRating(t *testing.T) {
	page := `<html><body><div class="plant-attributes__panel"><h6>Position</h6>
<div><h6 class="u-m-b-0">Hardiness<ul><li><strong>H4</strong>: hardy</li></ul></h6></div>
</div></body></html>`
	if got := extractHardiness(fixtureDoc(t, page)); got != nil {
		t.Fatalf("no rating token should mean absence, got %q", *got)
	}
}

func TestExtractSoil(t *testing.T) {
	got := extractSoil(fixtureDoc(t, fullDetailPage))
	if got == nil {
		t.Fatal("expected a soil record")
	}
	if want := []string{"Chalk", "Loam", "Sand"}; !reflect.DeepEqual(got.Types, want) {
		t.Errorf("types = %v, want %v", got.Types, want)
	}
	if want := []string{"Moist but well-drained", "Well-drained"}; !reflect.DeepEqual(got.Moisture, want) {
		t.Errorf("moisture = %v, want %v", got.Moisture, want)
	}
	if want := []string{"Acid", "Alkaline", "Neutral"}; !reflect.DeepEqual(got.PHLevels, want) {
		t.Errorf("ph levels = %v, want %v", got.PHLevels, want)
	}
}

func TestExtractSoilAllEmpty(t *testing.T) {
	page := `<html><body><div class="plant-attributes__panel"><h6>Growing conditions</h6>
<div class="plant-attributes__content"></div></div></body></html>`
	if got := extractSoil(fixtureDoc(t, page)); got != nil {
		t.Fatalf("an empty panel should yield absence, got %+v", got)
	}
}

func TestExtractPosition(t *testing.T) {
	got := extractPosition(fixtureDoc(t, fullDetailPage))
	if got == nil {
		t.Fatal("expected a position record")
	}
	if want := []string{"Full sun", "Partial shade"}; !reflect.DeepEqual(got.Sun, want) {
		t.Errorf("sun = %v, want %v", got.Sun, want)
	}
	if got.Aspect == nil || *got.Aspect != "South-facing or West-facing" {
		t.Errorf("aspect = %v, want South-facing or West-facing", got.Aspect)
	}
	if got.Exposure == nil || *got.Exposure != "Sheltered" {
		t.Errorf("exposure = %v, want Sheltered", got.Exposure)
	}
}

func TestInlineSectionRewritesAnchors(t *testing.T) {
	got := inlineSection(fixtureDoc(t, fullDetailPage), headingCultivation)
	if got == nil {
		t.Fatal("expected cultivation tips")
	}
	want := `Plant 10-15cm deep in autumn. See <a href="https://example.org/advice/tulip-care">tulip care</a> for full guidance.`
	if *got != want {
		t.Fatalf("cultivation = %q, want %q", *got, want)
	}
}

func TestInlineSectionKeepsExistingPeriod(t *testing.T) {
	got := inlineSection(fixtureDoc(t, fullDetailPage), headingPruning)
	if got == nil {
		t.Fatal("expected pruning text")
	}
	want := "Deadhead after flowering and allow foliage to die down naturally."
	if *got != want {
		t.Fatalf("pruning = %q, want %q", *got, want)
	}
}

func TestInlineSectionMissingHeading(t *testing.T) {
	if got := inlineSection(fixtureDoc(t, fullDetailPage), "Propagation"); got != nil {
		t.Fatalf("unknown heading should yield absence, got %q", *got)
	}
}

func TestExtractDetailsIsRepeatable(t *testing.T) {
	doc := fixtureDoc(t, fullDetailPage)
	first := ExtractDetails(doc)
	second := ExtractDetails(doc)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("extraction must not mutate the document between runs")
	}
}

func TestEnsurePeriod(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"Plant deeply", "Plant deeply."},
		{"Plant deeply.", "Plant deeply."},
		{"Plant deeply. \n", "Plant deeply."},
		{"  ", ""},
	} {
		if got := ensurePeriod(tc.in); got != tc.want {
			t.Errorf("ensurePeriod(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
