package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/florawise/plantdetails/models"
)

// Panel titles and section headings used by the detail pages. Panels are h6
// headings inside an attributes panel; cultivation and pruning are h5 headings
// in the body copy.
const (
	panelSize     = "Size"
	panelPosition = "Position"
	panelGrowing  = "Growing conditions"

	headingCultivation = "Cultivation"
	headingPruning     = "Pruning"
)

// ExtractDetails reads all six cultivation attributes from a full detail
// document. Extraction never fails: a missing panel or row is the normal
// "this plant has no recorded X" outcome and yields an absent field.
func ExtractDetails(doc *goquery.Document) *models.PlantDetails {
	return &models.PlantDetails{
		Size:            extractSize(doc),
		Hardiness:       extractHardiness(doc),
		Soil:            extractSoil(doc),
		Position:        extractPosition(doc),
		CultivationTips: inlineSection(doc, headingCultivation),
		Pruning:         inlineSection(doc, headingPruning),
	}
}

// findPanel locates the titled attributes panel whose heading text equals
// title, or nil when the page has no such panel.
func findPanel(doc *goquery.Document, title string) *goquery.Selection {
	var panel *goquery.Selection
	doc.Find("h6").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != title {
			return true
		}
		if p := h.ParentsFiltered("div.plant-attributes__panel").First(); p.Length() > 0 {
			panel = p
			return false
		}
		return true
	})
	return panel
}

func extractSize(doc *goquery.Document) *models.Size {
	panel := findPanel(doc, panelSize)
	if panel == nil {
		return nil
	}
	return &models.Size{
		Height:       fieldValue(panel, "Ultimate height"),
		Spread:       fieldValue(panel, "Ultimate spread"),
		TimeToHeight: fieldValue(panel, "Time to ultimate height"),
	}
}

// fieldValue reads one labelled row: the h6 label's enclosing flag row holds
// the value as its trailing text node.
func fieldValue(panel *goquery.Selection, label string) *string {
	var out *string
	panel.Find("h6").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != label {
			return true
		}
		row := h.ParentsFiltered("div.flag__body").First()
		if row.Length() == 0 {
			return false
		}
		if v := lastTextNode(row); v != "" {
			out = models.String(v)
		}
		return false
	})
	return out
}

// lastTextNode returns the trimmed text of the last non-empty text node
// directly under the selection.
func lastTextNode(s *goquery.Selection) string {
	var last string
	for _, n := range s.Contents().Nodes {
		if n.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(n.Data); t != "" {
			last = t
		}
	}
	return last
}

// extractHardiness finds the hardiness sub-heading in the Position panel,
// reads the rating token from the sibling element and returns the emphasised
// descriptive sentence matching that rating. Any missing piece yields absence.
func extractHardiness(doc *goquery.Document) *string {
	panel := findPanel(doc, panelPosition)
	if panel == nil {
		return nil
	}

	var out *string
	panel.Find("h6.u-m-b-0").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(h.Text(), "Hardiness") {
			return true
		}
		rating := strings.TrimSpace(h.Parent().ChildrenFiltered("span").First().Text())
		if rating == "" {
			return true
		}
		h.Find("strong").EachWithBreak(func(_ int, strong *goquery.Selection) bool {
			if !strings.Contains(strong.Text(), rating) {
				return true
			}
			if t := strings.TrimSpace(strong.Parent().Text()); t != "" {
				out = models.String(t)
			}
			return false
		})
		return out == nil
	})
	return out
}

// extractSoil collects soil type flags plus the moisture and pH descriptor
// lists from the growing conditions panel. The whole record is absent only
// when all three collections are empty.
func extractSoil(doc *goquery.Document) *models.Soil {
	panel := findPanel(doc, panelGrowing)
	if panel == nil {
		return nil
	}

	soil := &models.Soil{
		Types:    []string{},
		Moisture: listField(panel, "Moisture"),
		PHLevels: listField(panel, "pH"),
	}
	panel.Find("div.flag__body").Each(func(_ int, flag *goquery.Selection) {
		if t := strings.TrimSpace(flag.Text()); t != "" {
			soil.Types = append(soil.Types, t)
		}
	})

	if len(soil.Types) == 0 && len(soil.Moisture) == 0 && len(soil.PHLevels) == 0 {
		return nil
	}
	return soil
}

// listField reads a list-valued field: the sub-heading's enclosing module
// holds a span whose child spans carry one descriptor each, with trailing
// commas from the source markup stripped.
func listField(scope *goquery.Selection, label string) []string {
	out := []string{}
	scope.Find("h6").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != label {
			return true
		}
		module := h.ParentsFiltered("div.l-module").First()
		if module.Length() == 0 {
			return false
		}
		module.Find("span").First().ChildrenFiltered("span").Each(func(_ int, sp *goquery.Selection) {
			if t := strings.TrimSpace(sp.Text()); t != "" {
				out = append(out, strings.TrimSuffix(t, ","))
			}
		})
		return false
	})
	return out
}

// extractPosition reads sun flags, the aspect paragraph and the exposure list
// from the Position panel. The record is absent only when all three are empty.
func extractPosition(doc *goquery.Document) *models.Position {
	panel := findPanel(doc, panelPosition)
	if panel == nil {
		return nil
	}
	content := panel.Find("div.plant-attributes__content").First()
	if content.Length() == 0 {
		return nil
	}

	pos := &models.Position{}

	content.Find("div.flag--tiny").Each(func(_ int, flag *goquery.Selection) {
		if t := strings.TrimSpace(flag.Text()); t != "" {
			pos.Sun = append(pos.Sun, t)
		}
	})

	var aspectParts []string
	content.Find("p").First().Find("span").Each(func(_ int, sp *goquery.Selection) {
		if t := strings.TrimSpace(sp.Text()); t != "" {
			aspectParts = append(aspectParts, t)
		}
	})
	if len(aspectParts) > 0 {
		pos.Aspect = models.String(strings.Join(aspectParts, " "))
	}

	if exposure := listField(content, "Exposure"); len(exposure) > 0 {
		pos.Exposure = models.String(strings.Join(exposure, " "))
	}

	if len(pos.Sun) == 0 && pos.Aspect == nil && pos.Exposure == nil {
		return nil
	}
	return pos
}

// inlineSection reads the first paragraph under an exact-text h5 heading,
// re-emitting anchors as inline hyperlink markup and passing plain text
// through verbatim. Non-empty text is normalized to end with a period.
func inlineSection(doc *goquery.Document, title string) *string {
	var out *string
	doc.Find("h5").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if strings.TrimSpace(h.Text()) != title {
			return true
		}
		wrapper := h.ParentsFiltered("span").First()
		if wrapper.Length() == 0 {
			return false
		}
		para := wrapper.Find("p").First()
		if para.Length() == 0 {
			return false
		}
		if text := inlineText(para); text != "" {
			out = models.String(ensurePeriod(text))
		}
		return false
	})
	return out
}

// inlineText walks the paragraph's direct children in order. Anchor elements
// are re-emitted as <a href="URL">TEXT</a> with href and ordering preserved;
// text nodes pass through verbatim; other markup is dropped.
func inlineText(p *goquery.Selection) string {
	var b strings.Builder
	for _, n := range p.Contents().Nodes {
		switch {
		case n.Type == html.ElementNode && n.Data == "a":
			href := attrValue(n, "href")
			if href == "" {
				continue
			}
			b.WriteString(`<a href="`)
			b.WriteString(href)
			b.WriteString(`">`)
			b.WriteString(nodeText(n))
			b.WriteString(`</a>`)
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		}
	}
	return b.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(nodeText(c))
		}
	}
	return b.String()
}

func ensurePeriod(s string) string {
	t := strings.TrimRight(s, " \t\n")
	if t == "" {
		return ""
	}
	if strings.HasSuffix(t, ".") {
		return t
	}
	return t + "."
}
